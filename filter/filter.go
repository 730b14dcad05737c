package filter

import (
	"context"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
)

// Filter 是过滤器的抽象接口，用于判断一个行动是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	// Name 返回过滤器名称
	Name() string

	// ShouldFilter 判断 item 是否应该被过滤
	ShouldFilter(ctx context.Context, rctx *core.RankContext, item *core.Item) (bool, error)
}

// Preparer 是可选接口：FilterNode 在遍历前调用一次 Prepare，
// 用返回的 Filter 处理本次请求的全部 item，适合需要按请求加载外部数据的过滤器。
// 出错时可以同时返回一个降级的 Filter；返回 nil 时 FilterNode 退回逐个调用原过滤器。
type Preparer interface {
	Prepare(ctx context.Context, rctx *core.RankContext) (Filter, error)
}

func cityOf(rctx *core.RankContext) *core.CityProfile {
	if rctx == nil {
		return nil
	}
	return rctx.City
}
