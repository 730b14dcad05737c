package compare

import (
	"context"
	"math/rand/v2"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
)

// maxViolationSamples 是报告中保留的违例样本上限。
const maxViolationSamples = 20

// Violation 记录一次不一致的比较。
type Violation struct {
	IDs      []string  // 参与比较的行动 ID（两个或三个）
	Outcomes []Outcome // 对应的比较结果
}

// ConsistencyReport 是比较器一致性抽样检查的结果。
// 只用于测试/诊断报告，排序算法本身不检测也不修正不一致。
type ConsistencyReport struct {
	Property   string      `json:"property"`
	Checked    int         `json:"checked"`    // 实际检查的样本数
	Violations int         `json:"violations"` // 违例数
	Samples    []Violation `json:"samples,omitempty"`
}

// Rate 返回违例比例。
func (r ConsistencyReport) Rate() float64 {
	if r.Checked == 0 {
		return 0
	}
	return float64(r.Violations) / float64(r.Checked)
}

func (r *ConsistencyReport) record(v Violation) {
	r.Violations++
	if len(r.Samples) < maxViolationSamples {
		r.Samples = append(r.Samples, v)
	}
}

// CheckAntisymmetry 随机抽取 samples 个行动对，检查 compare(a,b) == -compare(b,a)。
func CheckAntisymmetry(
	ctx context.Context,
	cmp Comparator,
	city *core.CityProfile,
	actions []*core.Action,
	samples int,
	seed uint64,
) (ConsistencyReport, error) {
	report := ConsistencyReport{Property: "antisymmetry"}
	n := len(actions)
	if n < 2 || samples <= 0 {
		return report, nil
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	for s := 0; s < samples; s++ {
		i := rng.IntN(n)
		j := rng.IntN(n - 1)
		if j >= i {
			j++
		}
		a, b := actions[i], actions[j]

		ab, err := cmp.Compare(ctx, city, a, b)
		if err != nil {
			return report, err
		}
		ba, err := cmp.Compare(ctx, city, b, a)
		if err != nil {
			return report, err
		}
		report.Checked++
		if ab != ba.Flip() {
			report.record(Violation{IDs: []string{a.ActionID, b.ActionID}, Outcomes: []Outcome{ab, ba}})
		}
	}
	return report, nil
}

// CheckTransitivity 随机抽取 samples 个三元组 (a,b,c)；
// 当 compare(a,b) == +1 且 compare(b,c) == +1 时检查 compare(a,c) == +1。
// Checked 只统计满足前提的三元组。
func CheckTransitivity(
	ctx context.Context,
	cmp Comparator,
	city *core.CityProfile,
	actions []*core.Action,
	samples int,
	seed uint64,
) (ConsistencyReport, error) {
	report := ConsistencyReport{Property: "transitivity"}
	n := len(actions)
	if n < 3 || samples <= 0 {
		return report, nil
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	for s := 0; s < samples; s++ {
		perm := rng.Perm(n)
		a, b, c := actions[perm[0]], actions[perm[1]], actions[perm[2]]

		ab, err := cmp.Compare(ctx, city, a, b)
		if err != nil {
			return report, err
		}
		if ab != FirstPreferred {
			continue
		}
		bc, err := cmp.Compare(ctx, city, b, c)
		if err != nil {
			return report, err
		}
		if bc != FirstPreferred {
			continue
		}
		ac, err := cmp.Compare(ctx, city, a, c)
		if err != nil {
			return report, err
		}
		report.Checked++
		if ac != FirstPreferred {
			report.record(Violation{
				IDs:      []string{a.ActionID, b.ActionID, c.ActionID},
				Outcomes: []Outcome{ab, bc, ac},
			})
		}
	}
	return report, nil
}
