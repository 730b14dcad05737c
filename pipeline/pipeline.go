package pipeline

import (
	"context"
	"fmt"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
)

// Pipeline 把排序逻辑拆成可组合的 Node 链：Filter → Rank → ReRank → PostProcess。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RankContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}
