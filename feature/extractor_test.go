package feature

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
)

func TestTierMidpoint(t *testing.T) {
	tests := []struct {
		tier   string
		want   float64
		wantOK bool
	}{
		{tier: "0-19", want: 0.095, wantOK: true},
		{tier: "80-100", want: 0.9, wantOK: true},
		{tier: " 20 - 39 ", want: 0.295, wantOK: true},
		{tier: "high", wantOK: false},
		{tier: "a-b", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.tier, func(t *testing.T) {
			got, ok := TierMidpoint(tt.tier)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestActionFeatures(t *testing.T) {
	city := &core.CityProfile{
		Locode:     "BR SAO",
		Emissions:  map[string]float64{"energy": 75, "transport": 25},
		RiskScores: map[string]float64{"floods": 0.8, "heatwaves": 0.4},
	}
	action := &core.Action{
		ActionID:                  "c40_0001",
		Types:                     []core.ActionType{core.ActionTypeMitigation, core.ActionTypeAdaptation},
		GHGReductionPotential:     map[string]string{"energy": "40-59", "transport": "80-100"},
		AdaptationEffectiveness:   "high",
		CostInvestmentNeeded:      "low",
		TimelineForImplementation: "<5 years",
		Dependencies:              []string{"funding", "policy"},
		CoBenefits:                map[string]int{"air_quality": 2, "cost_of_living": 0},
		Hazards:                   []string{"floods", "heatwaves"},
	}

	f := ActionFeatures(city, action)
	// energy: 0.495*0.75 = 0.37125, transport: 0.9*0.25 = 0.225
	assert.InDelta(t, 0.37125, f[GHGReduction], 1e-9)
	assert.InDelta(t, 0.8, f[AdaptationEffectiveness], 1e-9)
	assert.InDelta(t, 1.2, f[HazardCoverage], 1e-9)
	assert.InDelta(t, 2.0/3, f[CostAffordability], 1e-9)
	assert.Equal(t, 1.0, f[Timeline])
	assert.InDelta(t, 0.5, f[CoBenefits], 1e-9)
	assert.Equal(t, 2.0, f[Dependencies])
	assert.Equal(t, 1.0, f[IsMitigation])
	assert.Equal(t, 1.0, f[IsAdaptation])
}

func TestActionFeatures_NoEmissionsUsesRawTier(t *testing.T) {
	action := &core.Action{GHGReductionPotential: map[string]string{"waste": "60-79"}}
	f := ActionFeatures(&core.CityProfile{}, action)
	assert.InDelta(t, 0.695, f[GHGReduction], 1e-9)
}

func TestExtractor_ExtractPair(t *testing.T) {
	city := &core.CityProfile{}
	a := &core.Action{ActionID: "a", TimelineForImplementation: "<5 years"}
	b := &core.Action{ActionID: "b", TimelineForImplementation: ">10 years", Dependencies: []string{"x"}}

	e := NewExtractor(WithPrefix("p_"))
	pair := e.ExtractPair(city, a, b)
	require.Len(t, pair, len(Names()))
	assert.Equal(t, 1.0, pair["p_diff_timeline"])
	assert.Equal(t, -1.0, pair["p_diff_dependencies"])

	single := e.Extract(city, a)
	assert.Equal(t, 1.0, single["p_timeline"])
}

func TestScaler_Normalize(t *testing.T) {
	s := Scaler{
		"diff_ghg_reduction": {Mean: 0.1, Std: 0.2},
		"diff_timeline":      {Mean: 1, Std: 0},
	}
	got := s.Normalize(map[string]float64{
		"diff_ghg_reduction": 0.5,
		"diff_timeline":      0.5,
		"diff_co_benefits":   -1,
	})
	assert.InDelta(t, 2.0, got["diff_ghg_reduction"], 1e-9)
	// std <= 0 与未配置的特征保持原值
	assert.Equal(t, 0.5, got["diff_timeline"])
	assert.Equal(t, -1.0, got["diff_co_benefits"])

	in := map[string]float64{"x": 1}
	assert.Equal(t, in, Scaler(nil).Normalize(in))
}

func TestModelMetadata(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "meta.json")
	require.NoError(t, os.WriteFile(good,
		[]byte(`{"feature_columns":["diff_ghg_reduction","diff_cost_affordability"],"model_version":"v3","normalized":true}`), 0o644))
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"feature_columns":["diff_ghg_reduction","user_age"]}`), 0o644))

	meta, err := LoadModelMetadata(good, NewExtractor())
	require.NoError(t, err)
	assert.Equal(t, "v3", meta.ModelVersion)

	city := &core.CityProfile{Emissions: map[string]float64{"energy": 1}}
	a := &core.Action{ActionID: "a", GHGReductionPotential: map[string]string{"energy": "80-100"}, CostInvestmentNeeded: "low"}
	b := &core.Action{ActionID: "b", GHGReductionPotential: map[string]string{"energy": "0-19"}}
	selected := meta.Select(NewExtractor().ExtractPair(city, a, b))
	assert.Len(t, selected, 2)
	assert.InDelta(t, 0.805, selected["diff_ghg_reduction"], 1e-9)

	_, err = LoadModelMetadata(bad, NewExtractor())
	assert.ErrorContains(t, err, "user_age")

	_, err = LoadScaler(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	var nilMeta *ModelMetadata
	in := map[string]float64{"x": 1}
	assert.Equal(t, in, nilMeta.Select(in))
}
