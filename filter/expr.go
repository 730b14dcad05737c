package filter

import (
	"context"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/pkg/dsl"
)

// ExprFilter 使用 CEL 表达式过滤：表达式为 true 的行动保留。
//
//	"mitigation" in action.types && action.cost != "high"
//	city.risk.flooding < 0.5 || "flooding" in action.hazards
type ExprFilter struct {
	prg *dsl.Program
}

// NewExprFilter 编译表达式，编译失败时返回错误。
func NewExprFilter(expr string) (*ExprFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{prg: prg}, nil
}

func (f *ExprFilter) Name() string { return "filter.expr" }

func (f *ExprFilter) ShouldFilter(_ context.Context, rctx *core.RankContext, item *core.Item) (bool, error) {
	if item == nil || item.Action == nil {
		return true, nil
	}
	keep, err := f.prg.Eval(rctx, item)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
