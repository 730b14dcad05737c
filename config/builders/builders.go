package builders

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/config"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/explain"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/filter"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/pipeline"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/pkg/conv"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/rank"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/rerank"
)

func init() {
	config.Register("filter", BuildFilterNode)
	config.Register("rank.tournament", BuildRankNode(rank.StrategyTournament))
	config.Register("rank.quickselect", BuildRankNode(rank.StrategyQuickselect))
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.diversity", BuildDiversityNode)
	config.Register("explain.llm", BuildLLMExplainNode)
	config.Register("explain.static", BuildStaticExplainNode)
}

// BuildFilterNode 构建过滤 Node，biome 默认开启。
//
//	filters:
//	  - type: biome
//	  - type: action_type
//	    value: mitigation
//	  - type: exclude
//	    action_ids: [c40_0001]
//	  - type: expr
//	    expr: 'action.cost != "high"'
func BuildFilterNode(cfg map[string]any) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]any)
	if !ok {
		return &filter.FilterNode{
			Filters: []filter.Filter{filter.BiomeFilter{}},
			Logger:  zap.L().Named("filter"),
		}, nil
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]any)
		if !ok {
			continue
		}
		switch filterType := conv.ConfigGet(filterMap, "type", ""); filterType {
		case "biome":
			filters = append(filters, filter.BiomeFilter{})
		case "action_type":
			filters = append(filters, &filter.TypeFilter{Type: core.ActionType(conv.ConfigGet(filterMap, "value", ""))})
		case "exclude":
			ids := conv.SliceAnyToString(filterMap["action_ids"])
			filters = append(filters, filter.NewExcludeFilter(ids, nil, conv.ConfigGet(filterMap, "key_prefix", "")))
		case "expr":
			f, err := filter.NewExprFilter(conv.ConfigGet(filterMap, "expr", ""))
			if err != nil {
				return nil, err
			}
			filters = append(filters, f)
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.FilterNode{Filters: filters, Logger: zap.L().Named("filter")}, nil
}

// BuildRankNode 返回指定策略的排序 Node 构建器。
//
//	top_k: 10
//	comparator:
//	  type: linear
func BuildRankNode(strategy string) config.NodeBuilder {
	return func(cfg map[string]any) (pipeline.Node, error) {
		r, err := rank.ByName(strategy)
		if err != nil {
			return nil, err
		}
		cmpCfg, _ := cfg["comparator"].(map[string]any)
		cmp, err := config.BuildComparator(cmpCfg)
		if err != nil {
			return nil, fmt.Errorf("comparator: %w", err)
		}
		return &rank.Node{
			Strategy:   r,
			Comparator: cmp,
			TopK:       int(conv.ConfigGetInt64(cfg, "top_k", 0)),
		}, nil
	}
}

func BuildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.TopNNode{N: int(conv.ConfigGetInt64(cfg, "n", 0))}, nil
}

func BuildDiversityNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.SectorDiversity{Max: int(conv.ConfigGetInt64(cfg, "max_per_sector", 3))}, nil
}

// BuildLLMExplainNode 构建大模型解释 Node。
//
//	model: gpt-4o-mini
//	api_key_env: OPENAI_API_KEY
//	rps: 2
//	concurrency: 4
//	languages: [en, es]
func BuildLLMExplainNode(cfg map[string]any) (pipeline.Node, error) {
	return buildExplainNode("llm", cfg)
}

func BuildStaticExplainNode(cfg map[string]any) (pipeline.Node, error) {
	return buildExplainNode("static", cfg)
}

func buildExplainNode(enricherType string, cfg map[string]any) (pipeline.Node, error) {
	enricherCfg := make(map[string]any, len(cfg)+1)
	for k, v := range cfg {
		enricherCfg[k] = v
	}
	enricherCfg["type"] = enricherType
	e, err := config.BuildEnricher(enricherCfg)
	if err != nil {
		return nil, err
	}
	return &explain.Node{
		Enricher:    e,
		Languages:   conv.SliceAnyToString(cfg["languages"]),
		Concurrency: int(conv.ConfigGetInt64(cfg, "concurrency", 1)),
		Logger:      zap.L().Named("explain"),
	}, nil
}
