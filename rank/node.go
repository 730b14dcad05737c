package rank

import (
	"context"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/compare"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/pipeline"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/pkg/utils"
)

// Node 是排序 Node：用 Strategy + Comparator 为候选行动给出名次。
// - 写入 labels：rank_strategy、rank_comparator
// - 输出为新的 Item 列表，按名次排列
//
// TopK <= 0 表示完整排名。
type Node struct {
	Strategy   Ranker
	Comparator compare.Comparator
	TopK       int
}

func (n *Node) Name() string        { return "rank." + n.Strategy.Name() }
func (n *Node) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *Node) Process(
	ctx context.Context,
	rctx *core.RankContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	var city *core.CityProfile
	if rctx != nil {
		city = rctx.City
	}

	k := n.TopK
	if k <= 0 {
		k = All
	}

	// 保留原 Item 上的标签（例如过滤阶段写入的信息）
	byID := make(map[string]*core.Item, len(items))
	for _, it := range items {
		if it != nil && it.Action != nil {
			byID[it.Action.ActionID] = it
		}
	}

	ranked, err := n.Strategy.Rank(ctx, city, core.Actions(items), n.Comparator, k)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(ranked))
	for _, r := range ranked {
		it := core.NewItem(r.Action)
		if prev, ok := byID[r.ActionID()]; ok {
			for key, lbl := range prev.Labels {
				it.PutLabel(key, lbl)
			}
		}
		it.Rank = r.Rank
		it.PutLabel("rank_strategy", utils.Label{Value: n.Strategy.Name(), Source: "rank"})
		it.PutLabel("rank_comparator", utils.Label{Value: n.Comparator.Name(), Source: "rank"})
		out = append(out, it)
	}
	return out, nil
}
