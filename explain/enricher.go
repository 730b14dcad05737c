// Package explain 为排序结果生成多语言解释。
//
// 解释生成不影响排序：单个行动解释失败时该行动的 Explanation 为 nil，
// 排序结果照常返回。
package explain

import (
	"context"
	"fmt"
	"strings"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
)

// Enricher 为单个已排序行动生成解释，每个行动调用一次。
// 返回 nil 或错误都视为"解释缺失"。
type Enricher interface {
	Name() string
	Explain(
		ctx context.Context,
		countryCode string,
		city *core.CityProfile,
		action *core.Action,
		rank int,
		languages []string,
	) (*core.Explanation, error)
}

// Static 按模板生成解释，用于离线模式与测试。
// 模板中可使用 {name}、{rank}、{city}、{country} 占位符；
// 未配置的语言使用 Templates["en"]，仍没有则使用内置英文模板。
type Static struct {
	Templates map[string]string
}

const defaultTemplate = "{name} is ranked #{rank} for {city} ({country})."

func (s *Static) Name() string { return "static" }

func (s *Static) Explain(
	_ context.Context,
	countryCode string,
	city *core.CityProfile,
	action *core.Action,
	rank int,
	languages []string,
) (*core.Explanation, error) {
	if action == nil {
		return nil, fmt.Errorf("explain: nil action")
	}
	cityName := ""
	if city != nil {
		cityName = city.Name
		if cityName == "" {
			cityName = city.Locode
		}
	}
	name := action.Name
	if name == "" {
		name = action.ActionID
	}
	r := strings.NewReplacer(
		"{name}", name,
		"{rank}", fmt.Sprint(rank),
		"{city}", cityName,
		"{country}", countryCode,
	)

	texts := make(map[string]string, len(languages))
	for _, lang := range languages {
		tpl, ok := s.Templates[lang]
		if !ok {
			tpl, ok = s.Templates["en"]
		}
		if !ok {
			tpl = defaultTemplate
		}
		texts[lang] = r.Replace(tpl)
	}
	return &core.Explanation{Texts: texts}, nil
}

var _ Enricher = (*Static)(nil)
