// Package compare 定义行动两两比较的契约，以及可互换的比较器实现。
//
// 比较器是排序算法唯一的排序原语：Compare(city, a, b) 只能返回
// FirstPreferred (+1) 或 SecondPreferred (-1)，不存在平局。
// 确定性、反对称性、传递性都是具体实现的性质，不由契约强制；
// 排序算法也不会对比较器的错误做重试或吞掉。
package compare

import (
	"context"
	"fmt"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
)

// Outcome 是一次比较的结果。
type Outcome int8

const (
	FirstPreferred  Outcome = 1  // a 优先
	SecondPreferred Outcome = -1 // b 优先
)

// Valid 判断结果是否为合法的 ±1。
func (o Outcome) Valid() bool {
	return o == FirstPreferred || o == SecondPreferred
}

// Flip 返回交换参数顺序后"应有"的结果。
func (o Outcome) Flip() Outcome {
	return -o
}

func (o Outcome) String() string {
	switch o {
	case FirstPreferred:
		return "+1"
	case SecondPreferred:
		return "-1"
	default:
		return fmt.Sprintf("invalid(%d)", int8(o))
	}
}

// Comparator 判断同一城市下两个行动谁更优先。
type Comparator interface {
	Name() string
	Compare(ctx context.Context, city *core.CityProfile, a, b *core.Action) (Outcome, error)
}

// Func 将普通函数适配为 Comparator。
type Func func(ctx context.Context, city *core.CityProfile, a, b *core.Action) (Outcome, error)

func (f Func) Name() string { return "func" }

func (f Func) Compare(ctx context.Context, city *core.CityProfile, a, b *core.Action) (Outcome, error) {
	return f(ctx, city, a, b)
}

// ErrInvalidOutcome 表示比较器返回了 ±1 以外的值。
var ErrInvalidOutcome = core.NewDomainError(core.ModuleComparator, core.ErrorCodeInternalError, "compare: comparator returned invalid outcome")

// byID 以 ActionID 字典序决出先后，用于分数相等时保持严格全序。
func byID(a, b *core.Action) Outcome {
	if a.ActionID <= b.ActionID {
		return FirstPreferred
	}
	return SecondPreferred
}
