// Package rank 实现基于两两比较器的排序算法：
//   - Tournament：全量循环赛，O(N²) 次比较，按胜场数给出完整名次
//   - QuickselectTopK：基于划分的选择算法，只物化前 K 名，期望 O(N) 次比较
//
// 两者输出形态一致（名次从 1 开始连续且唯一），调用方可以互换使用。
// 比较器的错误原样向上传播，不重试、不返回部分结果。
package rank

import (
	"context"
	"fmt"
	"math"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/compare"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
)

// All 表示需要完整排名（不截断）。
const All = math.MaxInt

// CompareError 包装比较器错误并附带行动对，errors.Is/As 可穿透到原始错误。
type CompareError struct {
	A, B string
	Err  error
}

func (e *CompareError) Error() string {
	return fmt.Sprintf("compare %s vs %s: %v", e.A, e.B, e.Err)
}

func (e *CompareError) Unwrap() error { return e.Err }

// compareChecked 调用比较器并校验结果为 ±1。
func compareChecked(
	ctx context.Context,
	cmp compare.Comparator,
	city *core.CityProfile,
	a, b *core.Action,
) (compare.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	out, err := cmp.Compare(ctx, city, a, b)
	if err != nil {
		return 0, &CompareError{A: a.ActionID, B: b.ActionID, Err: err}
	}
	if !out.Valid() {
		return 0, &CompareError{
			A:   a.ActionID,
			B:   b.ActionID,
			Err: fmt.Errorf("%w: %s returned %s", compare.ErrInvalidOutcome, cmp.Name(), out),
		}
	}
	return out, nil
}

// assign 按 order 中的下标顺序生成名次 1..len(order)。
func assign(actions []*core.Action, order []int) []core.RankedAction {
	out := make([]core.RankedAction, len(order))
	for r, idx := range order {
		out[r] = core.RankedAction{Action: actions[idx], Rank: r + 1}
	}
	return out
}
