package rank

import (
	"context"
	"sort"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/compare"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
)

// Tournament 对所有无序对 (i<j) 各比较一次 compare(a_i, a_j)，累计胜场；
// 按胜场数降序稳定排序，胜场相同的行动保持输入顺序。
//
// 空输入返回空结果，单个行动直接得第 1 名，两种情况都不调用比较器。
func Tournament(
	ctx context.Context,
	city *core.CityProfile,
	actions []*core.Action,
	cmp compare.Comparator,
) ([]core.RankedAction, error) {
	order, _, err := tournamentOrder(ctx, city, actions, cmp)
	if err != nil {
		return nil, err
	}
	return assign(actions, order), nil
}

// tournamentOrder 返回排序后的下标与每个行动的胜场数。
func tournamentOrder(
	ctx context.Context,
	city *core.CityProfile,
	actions []*core.Action,
	cmp compare.Comparator,
) ([]int, []int, error) {
	n := len(actions)
	wins := make([]int, n)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if n < 2 {
		return order, wins, nil
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			out, err := compareChecked(ctx, cmp, city, actions[i], actions[j])
			if err != nil {
				return nil, nil, err
			}
			if out == compare.FirstPreferred {
				wins[i]++
			} else {
				wins[j]++
			}
		}
	}

	sort.SliceStable(order, func(x, y int) bool {
		return wins[order[x]] > wins[order[y]]
	})
	return order, wins, nil
}
