package filter

import (
	"context"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
)

// ByBiome 保留与城市生物群系兼容的行动，保持输入顺序：
//   - 城市未设置生物群系：全部保留
//   - 行动未限制生物群系：保留
//   - 否则仅保留允许集合包含城市生物群系（区分大小写）的行动
//
// 返回新切片，不修改入参。
func ByBiome(city *core.CityProfile, actions []*core.Action) []*core.Action {
	out := make([]*core.Action, 0, len(actions))
	for _, a := range actions {
		if a == nil {
			continue
		}
		if biomeCompatible(city, a) {
			out = append(out, a)
		}
	}
	return out
}

func biomeCompatible(city *core.CityProfile, a *core.Action) bool {
	if city == nil {
		return true
	}
	return a.Biome.Allows(city.Biome)
}

// BiomeFilter 是 ByBiome 的 Filter 形式。
type BiomeFilter struct{}

func (BiomeFilter) Name() string { return "filter.biome" }

func (BiomeFilter) ShouldFilter(_ context.Context, rctx *core.RankContext, item *core.Item) (bool, error) {
	if item == nil || item.Action == nil {
		return true, nil
	}
	return !biomeCompatible(cityOf(rctx), item.Action), nil
}

// ByType 保留属于给定类别的行动，保持输入顺序；t 为空时全部保留。
func ByType(t core.ActionType, actions []*core.Action) []*core.Action {
	out := make([]*core.Action, 0, len(actions))
	for _, a := range actions {
		if a == nil {
			continue
		}
		if t == "" || a.HasType(t) {
			out = append(out, a)
		}
	}
	return out
}

// TypeFilter 按行动类别过滤。
// Type 为空时从请求参数 action_type 读取，仍为空则不过滤。
type TypeFilter struct {
	Type core.ActionType
}

func (f *TypeFilter) Name() string { return "filter.type" }

func (f *TypeFilter) ShouldFilter(_ context.Context, rctx *core.RankContext, item *core.Item) (bool, error) {
	if item == nil || item.Action == nil {
		return true, nil
	}
	t := f.Type
	if t == "" && rctx != nil {
		if v, ok := rctx.Params["action_type"].(string); ok {
			t = core.ActionType(v)
		}
	}
	if t == "" {
		return false, nil
	}
	return !item.Action.HasType(t), nil
}
