package rerank

import (
	"context"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，用于在排序后截取前 N 个行动。
// 通常在排序（Rank）节点之后使用，用于限制返回结果数量。
//
// 示例：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &rank.Node{...},                 // 排序
//	        &rerank.SectorDiversity{Max: 3}, // 多样性重排
//	        &rerank.TopNNode{N: 20},         // 截取 Top 20
//	    },
//	}
type TopNNode struct {
	// N 要保留的行动数量
	// 如果 N <= 0，则返回所有行动（不截断）
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RankContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.N <= 0 || len(items) <= n.N {
		return items, nil
	}
	return items[:n.N], nil
}
