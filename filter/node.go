package filter

import (
	"context"

	"go.uber.org/zap"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/pipeline"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/pkg/utils"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该行动就会被过滤掉。
// 过滤器出错时记录日志并跳过该过滤器，不中断流程。
type FilterNode struct {
	Filters []Filter
	Logger  *zap.Logger
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RankContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}
	logger := n.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	filters := make([]Filter, 0, len(n.Filters))
	for _, f := range n.Filters {
		p, ok := f.(Preparer)
		if !ok {
			filters = append(filters, f)
			continue
		}
		prepared, err := p.Prepare(ctx, rctx)
		if err != nil {
			logger.Warn("filter prepare failed",
				zap.String("filter", f.Name()),
				zap.Error(err))
		}
		if prepared == nil {
			prepared = f
		}
		filters = append(filters, prepared)
	}

	out := make([]*core.Item, 0, len(items))
	filteredCount := 0

	for _, item := range items {
		if item == nil || item.Action == nil {
			continue
		}

		filterReason := ""
		for _, f := range filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				logger.Warn("filter failed",
					zap.String("filter", f.Name()),
					zap.String("action_id", item.Action.ActionID),
					zap.Error(err))
				continue
			}
			if ok {
				filterReason = f.Name()
				break
			}
		}

		if filterReason != "" {
			filteredCount++
			item.PutLabel("filtered", utils.Label{Value: "true", Source: filterReason})
			continue
		}
		out = append(out, item)
	}

	logger.Debug("filter done",
		zap.Int("in", len(items)),
		zap.Int("out", len(out)),
		zap.Int("filtered", filteredCount))
	return out, nil
}
