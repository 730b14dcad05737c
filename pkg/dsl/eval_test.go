package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/pkg/utils"
)

func testInput() (*core.RankContext, *core.Item) {
	rctx := &core.RankContext{
		City: &core.CityProfile{
			Locode:     "BR CCI",
			Biome:      "tropical_rainforest",
			Population: 463000,
			Emissions:  map[string]float64{"transportation": 1200},
			RiskScores: map[string]float64{"flooding": 0.8},
		},
		Params: map[string]any{"max_cost": "medium"},
	}
	item := core.NewItem(&core.Action{
		ActionID:             "c40_0009",
		Types:                []core.ActionType{core.ActionTypeMitigation, core.ActionTypeAdaptation},
		Sector:               "transportation",
		CostInvestmentNeeded: "low",
		Hazards:              []string{"flooding"},
		CoBenefits:           map[string]int{"air_quality": 2},
		Biome:                core.Biomes{"tropical_rainforest", "coastal"},
	})
	item.PutLabel("rank_strategy", utils.Label{Value: "tournament", Source: "rank"})
	return rctx, item
}

func TestEvaluate(t *testing.T) {
	rctx, item := testInput()
	tests := []struct {
		expr string
		want bool
	}{
		{``, true},
		{`action.sector == "transportation"`, true},
		{`"adaptation" in action.types`, true},
		{`"transportation" in action.sectors`, true},
		{`action.cost == "low" && city.population > 100000`, true},
		{`city.risk.flooding > 0.5 && "flooding" in action.hazards`, true},
		{`action.cobenefits.air_quality >= 2`, true},
		{`city.biome == "desert"`, false},
		{`label.rank_strategy == "tournament"`, true},
		{`params.max_cost == "medium"`, true},
		{`size(action.dependencies) == 0`, true},
		{`city.biome in action.biomes`, true},
		{`"desert" in action.biomes`, false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Evaluate(tt.expr, rctx, item)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_NilContext(t *testing.T) {
	_, item := testInput()
	got, err := Evaluate(`city.biome == ""`, nil, item)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestCompile_Errors(t *testing.T) {
	_, err := Compile(`action.sector ==`)
	assert.Error(t, err)

	_, err = Compile(`1 + 2`)
	assert.ErrorContains(t, err, "must return bool")

	// 动态类型在运行时才能确定结果类型
	p, err := Compile(`action.sector`)
	require.NoError(t, err)
	rctx, item := testInput()
	_, err = p.Eval(rctx, item)
	assert.ErrorContains(t, err, "must return boolean")
}
