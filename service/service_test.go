package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/catalog"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/compare"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/explain"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/rank"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testActions() []*core.Action {
	mitigation := []core.ActionType{core.ActionTypeMitigation}
	adaptation := []core.ActionType{core.ActionTypeAdaptation}
	return []*core.Action{
		{ActionID: "m_low", Name: "Efficient lighting", Types: mitigation, GHGReductionPotential: map[string]string{"energy": "0-19"}},
		{ActionID: "m_high", Name: "Solar rooftops", Types: mitigation, GHGReductionPotential: map[string]string{"energy": "80-100"}},
		{ActionID: "m_desert", Name: "Desert solar farm", Types: mitigation, Biome: core.Biomes{"desert"}, GHGReductionPotential: map[string]string{"energy": "80-100"}},
		{ActionID: "a_flood", Name: "Urban drainage", Types: adaptation, AdaptationEffectiveness: "high", Hazards: []string{"flooding"}},
		{ActionID: "a_heat", Name: "Green roofs", Types: adaptation, AdaptationEffectiveness: "medium", Hazards: []string{"heatwave"}},
		{ActionID: "m_mid", Name: "Bus lanes", Types: mitigation, GHGReductionPotential: map[string]string{"energy": "40-59"}},
	}
}

func testCities() *catalog.MemoryCitySource {
	return catalog.NewMemoryCitySource(
		&core.CityProfile{
			Locode: "BR CCI", Name: "Caxias do Sul", CountryCode: "BR", Biome: "tropical_rainforest",
			Emissions:  map[string]float64{"energy": 1000},
			RiskScores: map[string]float64{"flooding": 0.9, "heatwave": 0.2},
		},
		&core.CityProfile{Locode: "BR SAO", Name: "São Paulo", CountryCode: "BR"},
	)
}

func ids(ranked []core.RankedAction) []string {
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.ActionID()
	}
	return out
}

func TestPrioritize(t *testing.T) {
	p := New(testActions(), compare.NewLinear(nil), WithCitySource(testCities()))

	res, err := p.Prioritize(context.Background(), Request{Locode: "BR CCI", ActionType: core.ActionTypeMitigation, Strategy: rank.StrategyTournament})
	require.NoError(t, err)
	assert.Equal(t, "BR CCI", res.Locode)
	assert.Equal(t, rank.StrategyTournament, res.Strategy)
	assert.Equal(t, "linear", res.Comparator)
	assert.Equal(t, 3, res.Candidates, "desert action and adaptation actions are filtered out")
	assert.Equal(t, []string{"m_high", "m_mid", "m_low"}, ids(res.Ranked))
	assert.EqualValues(t, 3, res.Comparisons)
	for i, r := range res.Ranked {
		assert.Equal(t, i+1, r.Rank)
		assert.Nil(t, r.Explanation)
	}
}

func TestPrioritize_StrategiesAgree(t *testing.T) {
	p := New(testActions(), compare.NewLinear(nil), WithCitySource(testCities()))
	ctx := context.Background()

	full, err := p.Prioritize(ctx, Request{Locode: "BR CCI", Strategy: rank.StrategyTournament, TopK: -1})
	require.NoError(t, err)
	top, err := p.Prioritize(ctx, Request{Locode: "BR CCI", Strategy: rank.StrategyQuickselect, TopK: 2})
	require.NoError(t, err)

	require.Len(t, full.Ranked, 5)
	assert.Equal(t, ids(full.Ranked[:2]), ids(top.Ranked))
}

func TestPrioritize_InlineCityAndExplanations(t *testing.T) {
	p := New(testActions(), compare.NewLinear(nil), WithEnricher(&explain.Static{}, 2))

	res, err := p.Prioritize(context.Background(), Request{
		Locode:    "XX TST",
		City:      &core.CityProfile{Name: "Testville", CountryCode: "XX"},
		TopK:      2,
		Languages: []string{"en", "pt"},
		Explain:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "XX TST", res.Locode)
	require.Len(t, res.Ranked, 2)
	for _, r := range res.Ranked {
		require.NotNil(t, r.Explanation)
		assert.Len(t, r.Explanation.Texts, 2)
	}
}

func TestPrioritize_Errors(t *testing.T) {
	p := New(testActions(), compare.NewLinear(nil), WithCitySource(testCities()))
	ctx := context.Background()

	_, err := p.Prioritize(ctx, Request{Locode: "XX XXX"})
	assert.True(t, core.IsNotFound(err))

	_, err = p.Prioritize(ctx, Request{})
	assert.True(t, core.IsInvalidInput(err))

	_, err = p.Prioritize(ctx, Request{Locode: "BR CCI", Strategy: "bubble"})
	assert.True(t, core.IsInvalidInput(err))

	boom := errors.New("model offline")
	failing := New(testActions(), compare.Func(func(context.Context, *core.CityProfile, *core.Action, *core.Action) (compare.Outcome, error) {
		return 0, boom
	}), WithCitySource(testCities()))
	_, err = failing.Prioritize(ctx, Request{Locode: "BR CCI"})
	assert.ErrorIs(t, err, boom)

	_, err = New(testActions(), compare.NewLinear(nil)).Prioritize(ctx, Request{Locode: "BR CCI"})
	assert.True(t, core.IsNotSupported(err))
}

func TestPrioritizeBulk(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	cmp := compare.Func(func(ctx context.Context, city *core.CityProfile, a, b *core.Action) (compare.Outcome, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		switch city.Locode {
		case "FAIL":
			return 0, errors.New("comparator exploded")
		case "SLOW":
			<-ctx.Done()
			return 0, ctx.Err()
		}
		time.Sleep(time.Millisecond)
		if a.ActionID < b.ActionID {
			return compare.FirstPreferred, nil
		}
		return compare.SecondPreferred, nil
	})

	cities := testCities()
	reqs := []Request{{Locode: "BR CCI"}}
	for i := 0; i < 6; i++ {
		loc := fmt.Sprintf("XX C%02d", i)
		cities.Put(&core.CityProfile{Locode: loc})
		reqs = append(reqs, Request{Locode: loc, TopK: 3})
	}
	cities.Put(&core.CityProfile{Locode: "FAIL"})
	cities.Put(&core.CityProfile{Locode: "SLOW"})
	reqs = append(reqs, Request{Locode: "FAIL"}, Request{Locode: "SLOW"}, Request{Locode: "MISSING"})

	p := New(testActions(), cmp, WithCitySource(cities))
	res, err := p.PrioritizeBulk(context.Background(), reqs, BulkOptions{Concurrency: 2, CityTimeout: 50 * time.Millisecond})
	require.NoError(t, err)

	require.Len(t, res.Results, 7)
	assert.Equal(t, "BR CCI", res.Results[0].Locode)
	for _, r := range res.Results[1:] {
		assert.Equal(t, []string{"a_flood", "a_heat", "m_desert"}, ids(r.Ranked))
	}

	require.Len(t, res.Failed, 3)
	assert.Equal(t, "FAIL", res.Failed[0].Locode)
	assert.Contains(t, res.Failed[0].Error, "comparator exploded")
	assert.Equal(t, "SLOW", res.Failed[1].Locode)
	assert.Contains(t, res.Failed[1].Error, context.DeadlineExceeded.Error())
	assert.Equal(t, "MISSING", res.Failed[2].Locode)

	assert.LessOrEqual(t, maxInFlight.Load(), int32(2))
}

func TestPrioritizeBulk_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := New(testActions(), compare.NewLinear(nil), WithCitySource(testCities()))
	_, err := p.PrioritizeBulk(ctx, []Request{{Locode: "BR CCI"}, {Locode: "BR SAO"}}, BulkOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
