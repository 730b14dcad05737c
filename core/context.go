package core

import "github.com/Open-Earth-Foundation/CityCatalyst-sub000/pkg/utils"

// RankContext 承载城市/请求级信息，贯穿整个 Pipeline 透传。
type RankContext struct {
	City *CityProfile

	// CountryCode 用于解释生成，为空时使用 City.CountryCode
	CountryCode string

	// Languages 是需要生成解释的语言列表
	Languages []string

	// Labels 是请求级标签
	Labels map[string]utils.Label

	// Params 请求级参数，例如 action_type、top_k
	Params map[string]any
}

// Country 返回用于解释的国家代码。
func (rctx *RankContext) Country() string {
	if rctx == nil {
		return ""
	}
	if rctx.CountryCode != "" {
		return rctx.CountryCode
	}
	if rctx.City != nil {
		return rctx.City.CountryCode
	}
	return ""
}

// PutLabel 写入请求级 Label。
func (rctx *RankContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RankContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
