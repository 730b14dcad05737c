package explain

import (
	"context"

	"go.uber.org/zap"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/pipeline"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/pkg/utils"
)

// Node 是解释生成 Node（postprocess），语言取自 RankContext.Languages，
// 为空时使用 Languages。
// - 写入 labels：explanation（ok / missing）
type Node struct {
	Enricher    Enricher
	Languages   []string
	Concurrency int
	Logger      *zap.Logger
}

func (n *Node) Name() string        { return "explain." + n.Enricher.Name() }
func (n *Node) Kind() pipeline.Kind { return pipeline.KindPostProcess }

func (n *Node) Process(
	ctx context.Context,
	rctx *core.RankContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	languages := n.Languages
	var city *core.CityProfile
	country := ""
	if rctx != nil {
		city = rctx.City
		country = rctx.Country()
		if len(rctx.Languages) > 0 {
			languages = rctx.Languages
		}
	}

	ranked := make([]core.RankedAction, len(items))
	for i, it := range items {
		ranked[i] = it.Ranked()
	}
	enriched, err := Apply(ctx, n.Enricher, country, city, ranked, languages, n.Concurrency, n.Logger)
	if err != nil {
		return nil, err
	}

	for i, it := range items {
		it.Explanation = enriched[i].Explanation
		status := "ok"
		if it.Explanation == nil {
			status = "missing"
		}
		it.PutLabel("explanation", utils.Label{Value: status, Source: "explain"})
	}
	return items, nil
}
