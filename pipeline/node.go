package pipeline

import (
	"context"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
)

// Kind 用于标记 Node 类型，方便观测/编排（例如按阶段打点）。
type Kind string

const (
	KindFilter      Kind = "filter"      // 过滤阶段：剔除不兼容的行动
	KindRank        Kind = "rank"        // 排序阶段：基于比较器给出名次
	KindReRank      Kind = "rerank"      // 重排阶段：截断 / 调整排序结果
	KindPostProcess Kind = "postprocess" // 后处理阶段：补充解释等
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用"输入 items -> 输出 items"的形态，方便 Filter 剔除、Rank 排序、PostProcess 补充。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RankContext,
		items []*core.Item,
	) ([]*core.Item, error)
}
