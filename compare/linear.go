package compare

import (
	"context"
	"fmt"
	"slices"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/feature"
)

// Scorer 为单个行动在城市下打一个可比较的分数。
type Scorer interface {
	Score(city *core.CityProfile, action *core.Action) float64
}

// DefaultWeights 是定量打分的默认权重。
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		feature.GHGReduction:            0.35,
		feature.AdaptationEffectiveness: 0.35,
		feature.CostAffordability:       0.1,
		feature.Timeline:                0.1,
		feature.CoBenefits:              0.1,
		feature.Dependencies:            -0.02,
	}
}

// LinearScorer 对行动特征做线性加权求和。
// 按 feature.Names() 的固定顺序累加，特征相同的行动得到完全相同的分数。
type LinearScorer struct {
	Weights map[string]float64
}

func (s *LinearScorer) Score(city *core.CityProfile, action *core.Action) float64 {
	f := feature.ActionFeatures(city, action)
	score := 0.0
	for _, k := range feature.Names() {
		score += s.Weights[k] * f[k]
	}
	return score
}

// Linear 是定量比较器：分数高者优先，分数相等时按 ActionID 字典序。
// 对于 ActionID 唯一的候选集，它是严格全序。
type Linear struct {
	Scorer Scorer
}

// NewLinear 使用给定权重创建定量比较器，weights 为空时使用 DefaultWeights。
func NewLinear(weights map[string]float64) *Linear {
	if len(weights) == 0 {
		weights = DefaultWeights()
	}
	return &Linear{Scorer: &LinearScorer{Weights: weights}}
}

// ValidateWeights 拒绝不在 feature.Names() 中的权重名，避免配置拼写错误被静默忽略。
func ValidateWeights(weights map[string]float64) error {
	names := feature.Names()
	for k := range weights {
		if !slices.Contains(names, k) {
			return core.NewDomainError(core.ModuleComparator, core.ErrorCodeInvalidInput,
				fmt.Sprintf("linear: unknown weight %q", k))
		}
	}
	return nil
}

func (c *Linear) Name() string { return "linear" }

func (c *Linear) Compare(_ context.Context, city *core.CityProfile, a, b *core.Action) (Outcome, error) {
	sa := c.Scorer.Score(city, a)
	sb := c.Scorer.Score(city, b)
	switch {
	case sa > sb:
		return FirstPreferred, nil
	case sa < sb:
		return SecondPreferred, nil
	default:
		return byID(a, b), nil
	}
}

var _ Comparator = (*Linear)(nil)
