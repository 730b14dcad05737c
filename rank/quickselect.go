package rank

import (
	"context"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/compare"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
)

// QuickselectTopK 用比较器做划分选择，只物化前 k 名。
//
// 枢轴取当前区间的中间元素（下标 len/2，按输入顺序）；区间内其余元素各与枢轴比较一次
// compare(x, pivot)，+1 放到枢轴之前，否则放到之后，两侧都保持输入顺序。
// 只有当需要的名次越过枢轴时才递归到后半部分。
//
//   - k <= 0：返回空结果
//   - k >= len(actions) 或 k == All：返回完整排名
//
// 当比较器在候选集上是严格全序时，结果与 Tournament 完全一致。
func QuickselectTopK(
	ctx context.Context,
	city *core.CityProfile,
	actions []*core.Action,
	cmp compare.Comparator,
	k int,
) ([]core.RankedAction, error) {
	n := len(actions)
	if k <= 0 || n == 0 {
		return []core.RankedAction{}, nil
	}
	if k > n {
		k = n
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	s := &selector{ctx: ctx, city: city, actions: actions, cmp: cmp, out: make([]int, 0, k)}
	if err := s.top(idx, k); err != nil {
		return nil, err
	}
	return assign(actions, s.out), nil
}

type selector struct {
	ctx     context.Context
	city    *core.CityProfile
	actions []*core.Action
	cmp     compare.Comparator
	out     []int
}

// top 将 idx 中排名前 k 的下标按名次顺序追加到 s.out。
func (s *selector) top(idx []int, k int) error {
	if k <= 0 || len(idx) == 0 {
		return nil
	}
	if len(idx) == 1 {
		s.out = append(s.out, idx[0])
		return nil
	}

	p := len(idx) / 2
	pivot := s.actions[idx[p]]
	before := make([]int, 0, len(idx)/2)
	after := make([]int, 0, len(idx)/2)
	for i, x := range idx {
		if i == p {
			continue
		}
		out, err := compareChecked(s.ctx, s.cmp, s.city, s.actions[x], pivot)
		if err != nil {
			return err
		}
		if out == compare.FirstPreferred {
			before = append(before, x)
		} else {
			after = append(after, x)
		}
	}

	if err := s.top(before, k); err != nil {
		return err
	}
	if k <= len(before) {
		return nil
	}
	s.out = append(s.out, idx[p])
	return s.top(after, k-len(before)-1)
}
