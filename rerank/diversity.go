package rerank

import (
	"context"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/pipeline"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/pkg/utils"
)

// SectorDiversity 限制同一部门的行动数量：按名次顺序遍历，
// 每个部门最多保留 Max 个，其余行动后移到列表末尾（保持相对顺序），最后重新编号名次。
// 未设置部门的行动不受限制。
type SectorDiversity struct {
	Max int // 默认 3
}

func (n *SectorDiversity) Name() string {
	return "rerank.diversity"
}

func (n *SectorDiversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *SectorDiversity) Process(
	_ context.Context,
	_ *core.RankContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	limit := n.Max
	if limit <= 0 {
		limit = 3
	}

	seen := make(map[string]int, 16)
	head := make([]*core.Item, 0, len(items))
	var tail []*core.Item

	for _, it := range items {
		if it == nil || it.Action == nil {
			continue
		}
		sector := it.Action.Sector
		if sector == "" {
			head = append(head, it)
			continue
		}
		if seen[sector] >= limit {
			it.PutLabel("diversity", utils.Label{Value: "demoted", Source: "rerank"})
			tail = append(tail, it)
			continue
		}
		seen[sector]++
		head = append(head, it)
	}

	out := append(head, tail...)
	for i, it := range out {
		it.Rank = i + 1
	}
	return out, nil
}
