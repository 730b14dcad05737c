package feature

import (
	"strconv"
	"strings"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
)

// 行动特征名。所有特征都是"越大越优先"的方向，依赖数除外。
const (
	GHGReduction            = "ghg_reduction"            // 按城市部门排放占比加权的减排潜力 (0-1)
	AdaptationEffectiveness = "adaptation_effectiveness" // 适应效果 × 相关灾害的最大风险 (0-1)
	HazardCoverage          = "hazard_coverage"          // 行动覆盖的灾害风险之和
	CostAffordability       = "cost_affordability"       // 投资越低越高 (0-1)
	Timeline                = "timeline"                 // 实施越快越高 (0-1)
	CoBenefits              = "co_benefits"              // 协同效益均值归一化 (-1..1)
	Dependencies            = "dependencies"             // 依赖项数量
	IsMitigation            = "is_mitigation"
	IsAdaptation            = "is_adaptation"
)

// Names 返回全部特征名（固定顺序）。
func Names() []string {
	return []string{
		GHGReduction, AdaptationEffectiveness, HazardCoverage, CostAffordability,
		Timeline, CoBenefits, Dependencies, IsMitigation, IsAdaptation,
	}
}

// Extractor 从 (城市, 行动) 中抽取打分/分类使用的数值特征。
//
// 字段命名：
//   - 单个行动：<Prefix><name>
//   - 行动对：<Prefix>diff_<name>，值为 a - b
type Extractor struct {
	Prefix string
}

// ExtractorOption 抽取器配置选项
type ExtractorOption func(*Extractor)

// WithPrefix 设置字段前缀（如 "action_"）
func WithPrefix(prefix string) ExtractorOption {
	return func(e *Extractor) {
		e.Prefix = prefix
	}
}

func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Extractor) Name() string { return "action" }

// Extract 抽取单个行动在给定城市下的特征。
func (e *Extractor) Extract(city *core.CityProfile, action *core.Action) map[string]float64 {
	raw := ActionFeatures(city, action)
	if e == nil || e.Prefix == "" {
		return raw
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		out[e.Prefix+k] = v
	}
	return out
}

// ExtractPair 抽取行动对的差分特征，用于二分类比较模型。
func (e *Extractor) ExtractPair(city *core.CityProfile, a, b *core.Action) map[string]float64 {
	fa := ActionFeatures(city, a)
	fb := ActionFeatures(city, b)
	prefix := ""
	if e != nil {
		prefix = e.Prefix
	}
	out := make(map[string]float64, len(fa))
	for _, name := range Names() {
		out[prefix+"diff_"+name] = fa[name] - fb[name]
	}
	return out
}

// ActionFeatures 计算行动在城市下的原始特征。
func ActionFeatures(city *core.CityProfile, action *core.Action) map[string]float64 {
	f := make(map[string]float64, 9)
	if action == nil {
		return f
	}

	f[GHGReduction] = ghgReduction(city, action)

	maxRisk, coverage := 0.0, 0.0
	for _, h := range action.Hazards {
		r := city.Risk(h)
		coverage += r
		if r > maxRisk {
			maxRisk = r
		}
	}
	f[AdaptationEffectiveness] = levelScore(action.AdaptationEffectiveness) * maxRisk
	f[HazardCoverage] = coverage
	f[CostAffordability] = 1 - levelScore(action.CostInvestmentNeeded)
	if action.CostInvestmentNeeded == "" {
		f[CostAffordability] = 0
	}
	f[Timeline] = timelineScore(action.TimelineForImplementation)
	f[CoBenefits] = coBenefitScore(action.CoBenefits)
	f[Dependencies] = float64(len(action.Dependencies))
	f[IsMitigation] = boolScore(action.HasType(core.ActionTypeMitigation))
	f[IsAdaptation] = boolScore(action.HasType(core.ActionTypeAdaptation))
	return f
}

// ghgReduction 取各部门 "减排区间中点 × 部门排放占比" 的最大值；
// 城市没有排放数据时退化为区间中点的最大值。
func ghgReduction(city *core.CityProfile, action *core.Action) float64 {
	if len(action.GHGReductionPotential) == 0 {
		return 0
	}
	hasEmissions := city.TotalEmissions() > 0
	best := 0.0
	for sector, tier := range action.GHGReductionPotential {
		mid, ok := TierMidpoint(tier)
		if !ok {
			continue
		}
		v := mid
		if hasEmissions {
			v = mid * city.SectorShare(sector)
		}
		if v > best {
			best = v
		}
	}
	return best
}

// TierMidpoint 将 "20-39" 形式的百分比区间转换为 0-1 的中点值。
func TierMidpoint(tier string) (float64, bool) {
	lo, hi, found := strings.Cut(strings.TrimSpace(tier), "-")
	if !found {
		return 0, false
	}
	l, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return 0, false
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return 0, false
	}
	return (l + h) / 200, true
}

func levelScore(level string) float64 {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "low":
		return 1.0 / 3
	case "medium":
		return 2.0 / 3
	case "high":
		return 1
	default:
		return 0
	}
}

func timelineScore(timeline string) float64 {
	switch strings.ReplaceAll(strings.ToLower(timeline), " ", "") {
	case "<5years":
		return 1
	case "5-10years":
		return 0.5
	case ">10years":
		return 0
	default:
		return 0
	}
}

func coBenefitScore(benefits map[string]int) float64 {
	if len(benefits) == 0 {
		return 0
	}
	sum := 0
	for _, v := range benefits {
		sum += v
	}
	return float64(sum) / float64(2*len(benefits))
}

func boolScore(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
