package filter

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
)

// ExcludeFilter 过滤掉不应再推荐给城市的行动（例如城市已实施的行动）。
// 支持两种数据源：
//  1. ActionIDs：静态列表，对所有城市生效
//  2. Store：按城市读取，key 为 {KeyPrefix}:{Locode}，value 为 JSON 字符串数组
type ExcludeFilter struct {
	ActionIDs []string

	Store     core.Store
	KeyPrefix string
}

// NewExcludeFilter 创建一个排除过滤器，s 可以为 nil。
func NewExcludeFilter(actionIDs []string, s core.Store, keyPrefix string) *ExcludeFilter {
	if keyPrefix == "" {
		keyPrefix = "excluded"
	}
	return &ExcludeFilter{ActionIDs: actionIDs, Store: s, KeyPrefix: keyPrefix}
}

func (f *ExcludeFilter) Name() string { return "filter.exclude" }

func (f *ExcludeFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RankContext,
	item *core.Item,
) (bool, error) {
	if item == nil || item.Action == nil {
		return true, nil
	}
	id := item.Action.ActionID
	if slices.Contains(f.ActionIDs, id) {
		return true, nil
	}

	city := cityOf(rctx)
	if f.Store == nil || city == nil || city.Locode == "" {
		return false, nil
	}
	ids, err := f.cityExcluded(ctx, city.Locode)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, id), nil
}

// Prepare 读取一次城市排除列表，返回只在内存中判断的过滤器。
// Store 出错时仍返回只含静态 ActionIDs 的过滤器和该错误。
func (f *ExcludeFilter) Prepare(ctx context.Context, rctx *core.RankContext) (Filter, error) {
	excluded := make(map[string]struct{}, len(f.ActionIDs))
	for _, id := range f.ActionIDs {
		excluded[id] = struct{}{}
	}
	set := &excludeSet{name: f.Name(), ids: excluded}
	if city := cityOf(rctx); f.Store != nil && city != nil && city.Locode != "" {
		ids, err := f.cityExcluded(ctx, city.Locode)
		if err != nil {
			return set, err
		}
		for _, id := range ids {
			excluded[id] = struct{}{}
		}
	}
	return set, nil
}

type excludeSet struct {
	name string
	ids  map[string]struct{}
}

func (s *excludeSet) Name() string { return s.name }

func (s *excludeSet) ShouldFilter(_ context.Context, _ *core.RankContext, item *core.Item) (bool, error) {
	if item == nil || item.Action == nil {
		return true, nil
	}
	_, ok := s.ids[item.Action.ActionID]
	return ok, nil
}

// cityExcluded 从 Store 读取城市的排除列表，key 不存在时视为空列表。
func (f *ExcludeFilter) cityExcluded(ctx context.Context, locode string) ([]string, error) {
	data, err := f.Store.Get(ctx, f.KeyPrefix+":"+locode)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

var _ Preparer = (*ExcludeFilter)(nil)
