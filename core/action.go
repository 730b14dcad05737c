package core

import "slices"

// ActionType 标记行动的类别，一个行动可以同时属于多个类别。
type ActionType string

const (
	ActionTypeMitigation ActionType = "mitigation" // 减缓：降低温室气体排放
	ActionTypeAdaptation ActionType = "adaptation" // 适应：降低气候风险
)

// Action 是候选气候行动，排序过程中只读。
//
// 数值/分级字段参与打分；Name、Description 等文本字段只用于展示与解释。
type Action struct {
	ActionID    string       `yaml:"action_id" json:"ActionID"`
	Name        string       `yaml:"name" json:"ActionName"`
	Description string       `yaml:"description" json:"Description,omitempty"`
	Types       []ActionType `yaml:"types" json:"ActionType"`

	Sector    string   `yaml:"sector" json:"Sector,omitempty"`
	Subsector []string `yaml:"subsector" json:"Subsector,omitempty"`

	// GHGReductionPotential: sector -> 分级区间，例如 "0-19"、"80-100"
	GHGReductionPotential map[string]string `yaml:"ghg_reduction_potential" json:"GHGReductionPotential,omitempty"`

	AdaptationEffectiveness   string         `yaml:"adaptation_effectiveness" json:"AdaptationEffectiveness,omitempty"`     // low / medium / high
	CostInvestmentNeeded      string         `yaml:"cost_investment_needed" json:"CostInvestmentNeeded,omitempty"`          // low / medium / high
	TimelineForImplementation string         `yaml:"timeline_for_implementation" json:"TimelineForImplementation,omitempty"` // <5 years / 5-10 years / >10 years
	Dependencies              []string       `yaml:"dependencies" json:"Dependencies,omitempty"`
	CoBenefits                map[string]int `yaml:"co_benefits" json:"CoBenefits,omitempty"` // 取值 -2..+2
	Hazards                   []string       `yaml:"hazards" json:"Hazard,omitempty"`

	// Biome 为空表示不限制生物群系
	Biome Biomes `yaml:"biome" json:"Biome,omitempty"`
}

// HasType 判断行动是否属于给定类别。
func (a *Action) HasType(t ActionType) bool {
	if a == nil {
		return false
	}
	return slices.Contains(a.Types, t)
}

// AddressesHazard 判断行动是否针对给定灾害。
func (a *Action) AddressesHazard(hazard string) bool {
	if a == nil {
		return false
	}
	return slices.Contains(a.Hazards, hazard)
}
