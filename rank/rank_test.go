package rank

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/compare"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
)

var testCity = &core.CityProfile{Locode: "BR CCI", Biome: "tropical_rainforest"}

// syntheticActions 生成 act_0..act_{n-1}。
func syntheticActions(n int) []*core.Action {
	out := make([]*core.Action, n)
	for i := range out {
		out[i] = &core.Action{ActionID: fmt.Sprintf("act_%d", i)}
	}
	return out
}

// byPriority 是一个手工构造的严格全序比较器：优先级高者优先。
func byPriority(priority map[string]int) compare.Comparator {
	return compare.Func(func(_ context.Context, _ *core.CityProfile, a, b *core.Action) (compare.Outcome, error) {
		if priority[a.ActionID] > priority[b.ActionID] {
			return compare.FirstPreferred, nil
		}
		return compare.SecondPreferred, nil
	})
}

// tenActionPriorities 对应 10 个合成行动的优先级。
func tenActionPriorities() map[string]int {
	p := []int{3, 9, 1, 7, 5, 0, 8, 2, 6, 4}
	out := make(map[string]int, len(p))
	for i, v := range p {
		out[fmt.Sprintf("act_%d", i)] = v
	}
	return out
}

var tenActionOrder = []string{"act_1", "act_6", "act_3", "act_8", "act_4", "act_9", "act_0", "act_7", "act_2", "act_5"}

// cycle 构造一个不满足传递性的比较器：按 beats 关系判定，否则第二个优先。
func cycle(beats map[string]string) compare.Comparator {
	return compare.Func(func(_ context.Context, _ *core.CityProfile, a, b *core.Action) (compare.Outcome, error) {
		if beats[a.ActionID] == b.ActionID {
			return compare.FirstPreferred, nil
		}
		if beats[b.ActionID] == a.ActionID {
			return compare.SecondPreferred, nil
		}
		return compare.SecondPreferred, nil
	})
}

type assignment struct {
	ID   string
	Rank int
}

func assignments(ranked []core.RankedAction) []assignment {
	out := make([]assignment, len(ranked))
	for i, r := range ranked {
		out[i] = assignment{ID: r.ActionID(), Rank: r.Rank}
	}
	return out
}

func expectedAssignments(ids []string) []assignment {
	out := make([]assignment, len(ids))
	for i, id := range ids {
		out[i] = assignment{ID: id, Rank: i + 1}
	}
	return out
}

func requireTotal(t *testing.T, actions []*core.Action, ranked []core.RankedAction) {
	t.Helper()
	require.Len(t, ranked, len(actions))
	seenIDs := make(map[string]bool, len(actions))
	for i, r := range ranked {
		assert.Equal(t, i+1, r.Rank, "ranks must be contiguous from 1")
		assert.False(t, seenIDs[r.ActionID()], "action %s ranked twice", r.ActionID())
		seenIDs[r.ActionID()] = true
	}
	for _, a := range actions {
		assert.True(t, seenIDs[a.ActionID], "action %s missing", a.ActionID)
	}
}

func TestTotalityAndUniqueness(t *testing.T) {
	ctx := context.Background()
	comparators := map[string]compare.Comparator{
		"priority": byPriority(tenActionPriorities()),
		"linear":   compare.NewLinear(nil),
		"cycle":    cycle(map[string]string{"act_0": "act_1", "act_1": "act_2", "act_2": "act_0"}),
	}
	actions := syntheticActions(10)

	for name, c := range comparators {
		t.Run(name, func(t *testing.T) {
			full, err := Tournament(ctx, testCity, actions, c)
			require.NoError(t, err)
			requireTotal(t, actions, full)

			qs, err := QuickselectTopK(ctx, testCity, actions, c, All)
			require.NoError(t, err)
			requireTotal(t, actions, qs)
		})
	}
}

func TestAlgorithmsAgreeOnStrictTotalOrder(t *testing.T) {
	ctx := context.Background()
	actions := syntheticActions(10)
	c := byPriority(tenActionPriorities())

	full, err := Tournament(ctx, testCity, actions, c)
	require.NoError(t, err)
	qs, err := QuickselectTopK(ctx, testCity, actions, c, All)
	require.NoError(t, err)

	want := expectedAssignments(tenActionOrder)
	if diff := cmp.Diff(want, assignments(full)); diff != "" {
		t.Errorf("tournament mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(assignments(full), assignments(qs)); diff != "" {
		t.Errorf("quickselect differs from tournament (-tournament +quickselect):\n%s", diff)
	}
}

func TestAlgorithmsAgreeOnLinearComparator(t *testing.T) {
	ctx := context.Background()
	tiers := []string{"0-19", "20-39", "40-59", "60-79", "80-100"}
	actions := make([]*core.Action, 0, 25)
	for i := 0; i < 25; i++ {
		actions = append(actions, &core.Action{
			ActionID:                  fmt.Sprintf("c40_%03d", i),
			GHGReductionPotential:     map[string]string{"energy": tiers[i%5]},
			TimelineForImplementation: []string{"<5 years", "5-10 years", ">10 years"}[i%3],
			CostInvestmentNeeded:      []string{"low", "medium", "high"}[(i/3)%3],
		})
	}
	city := &core.CityProfile{Locode: "BR CCI", Emissions: map[string]float64{"energy": 10}}
	c := compare.NewLinear(nil)

	full, err := Tournament(ctx, city, actions, c)
	require.NoError(t, err)
	qs, err := QuickselectTopK(ctx, city, actions, c, len(actions))
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(assignments(full), assignments(qs)))
}

func TestQuickselectTopK_TopThree(t *testing.T) {
	ctx := context.Background()
	actions := syntheticActions(10)
	c := byPriority(tenActionPriorities())

	full, err := Tournament(ctx, testCity, actions, c)
	require.NoError(t, err)
	top3, err := QuickselectTopK(ctx, testCity, actions, c, 3)
	require.NoError(t, err)

	require.Len(t, top3, 3)
	assert.Equal(t, assignments(full[:3]), assignments(top3))
	assert.Equal(t, expectedAssignments(tenActionOrder[:3]), assignments(top3))
}

func TestQuickselectTopK_EveryPrefix(t *testing.T) {
	ctx := context.Background()
	actions := syntheticActions(10)
	c := byPriority(tenActionPriorities())

	for k := 1; k <= 12; k++ {
		got, err := QuickselectTopK(ctx, testCity, actions, c, k)
		require.NoError(t, err)
		n := min(k, len(actions))
		assert.Equal(t, expectedAssignments(tenActionOrder[:n]), assignments(got), "k=%d", k)
	}
}

func TestIdempotence(t *testing.T) {
	ctx := context.Background()
	actions := syntheticActions(10)
	c := compare.NewLinear(nil)

	first, err := Tournament(ctx, testCity, actions, c)
	require.NoError(t, err)
	second, err := Tournament(ctx, testCity, actions, c)
	require.NoError(t, err)
	assert.Equal(t, assignments(first), assignments(second))

	q1, err := QuickselectTopK(ctx, testCity, actions, c, 4)
	require.NoError(t, err)
	q2, err := QuickselectTopK(ctx, testCity, actions, c, 4)
	require.NoError(t, err)
	assert.Equal(t, assignments(q1), assignments(q2))
}

func TestIdempotence_EqualProfiles(t *testing.T) {
	ctx := context.Background()
	city := &core.CityProfile{
		Locode:     "BR CCI",
		Emissions:  map[string]float64{"energy": 60, "transport": 30, "waste": 10},
		RiskScores: map[string]float64{"floods": 0.7},
	}
	// 属性完全相同的行动，按 ActionID 逆序输入
	actions := make([]*core.Action, 6)
	for i := range actions {
		actions[len(actions)-1-i] = &core.Action{
			ActionID:                  fmt.Sprintf("dup_%d", i),
			Types:                     []core.ActionType{core.ActionTypeMitigation, core.ActionTypeAdaptation},
			GHGReductionPotential:     map[string]string{"transport": "20-39"},
			AdaptationEffectiveness:   "medium",
			Hazards:                   []string{"floods"},
			CostInvestmentNeeded:      "medium",
			TimelineForImplementation: "5-10 years",
			CoBenefits:                map[string]int{"air_quality": 1, "water_quality": 1, "mobility": 2},
			Dependencies:              []string{"funding", "permits", "land"},
		}
	}
	want := expectedAssignments([]string{"dup_0", "dup_1", "dup_2", "dup_3", "dup_4", "dup_5"})
	c := compare.NewLinear(nil)

	for i := 0; i < 100; i++ {
		tr, err := Tournament(ctx, city, actions, c)
		require.NoError(t, err)
		require.Equal(t, want, assignments(tr), "tournament run %d", i)

		qs, err := QuickselectTopK(ctx, city, actions, c, All)
		require.NoError(t, err)
		require.Equal(t, want, assignments(qs), "quickselect run %d", i)

		top, err := QuickselectTopK(ctx, city, actions, c, 3)
		require.NoError(t, err)
		require.Equal(t, want[:3], assignments(top), "quickselect top-3 run %d", i)
	}
}

func TestTournament_TiesKeepInputOrder(t *testing.T) {
	// 三元环：每个行动各赢一场，胜场相同，名次应保持输入顺序
	actions := []*core.Action{{ActionID: "rock"}, {ActionID: "paper"}, {ActionID: "scissors"}}
	c := cycle(map[string]string{"rock": "scissors", "scissors": "paper", "paper": "rock"})

	ranked, err := Tournament(context.Background(), testCity, actions, c)
	require.NoError(t, err)
	assert.Equal(t, expectedAssignments([]string{"rock", "paper", "scissors"}), assignments(ranked))

	// 调整输入顺序，名次随之变化
	reordered := []*core.Action{actions[2], actions[0], actions[1]}
	ranked, err = Tournament(context.Background(), testCity, reordered, c)
	require.NoError(t, err)
	assert.Equal(t, expectedAssignments([]string{"scissors", "rock", "paper"}), assignments(ranked))
}

func TestTournament_PartialTies(t *testing.T) {
	// d 全胜；a、b、c 构成环各 1 胜；e 全负
	beats := map[string][]string{
		"d": {"a", "b", "c", "e"},
		"a": {"b", "e"},
		"b": {"c", "e"},
		"c": {"a", "e"},
	}
	c := compare.Func(func(_ context.Context, _ *core.CityProfile, x, y *core.Action) (compare.Outcome, error) {
		for _, id := range beats[x.ActionID] {
			if id == y.ActionID {
				return compare.FirstPreferred, nil
			}
		}
		return compare.SecondPreferred, nil
	})
	actions := []*core.Action{{ActionID: "e"}, {ActionID: "c"}, {ActionID: "a"}, {ActionID: "d"}, {ActionID: "b"}}

	ranked, err := Tournament(context.Background(), testCity, actions, c)
	require.NoError(t, err)
	assert.Equal(t, expectedAssignments([]string{"d", "c", "a", "b", "e"}), assignments(ranked))
}

func TestDegenerateInputs(t *testing.T) {
	ctx := context.Background()
	counting := compare.NewCounting(byPriority(nil))

	got, err := Tournament(ctx, testCity, nil, counting)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got, err = QuickselectTopK(ctx, testCity, []*core.Action{}, counting, 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = QuickselectTopK(ctx, testCity, syntheticActions(4), counting, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = QuickselectTopK(ctx, testCity, syntheticActions(4), counting, -3)
	require.NoError(t, err)
	assert.Empty(t, got)

	single := syntheticActions(1)
	got, err = Tournament(ctx, testCity, single, counting)
	require.NoError(t, err)
	assert.Equal(t, expectedAssignments([]string{"act_0"}), assignments(got))

	got, err = QuickselectTopK(ctx, testCity, single, counting, All)
	require.NoError(t, err)
	assert.Equal(t, expectedAssignments([]string{"act_0"}), assignments(got))

	assert.Zero(t, counting.Calls(), "degenerate inputs must not invoke the comparator")
}

func TestTournament_CallsEveryPairOnce(t *testing.T) {
	actions := syntheticActions(8)
	seen := make(map[[2]string]int)
	c := compare.Func(func(_ context.Context, _ *core.CityProfile, a, b *core.Action) (compare.Outcome, error) {
		key := [2]string{a.ActionID, b.ActionID}
		if a.ActionID > b.ActionID {
			key = [2]string{b.ActionID, a.ActionID}
		}
		seen[key]++
		return compare.FirstPreferred, nil
	})

	_, err := Tournament(context.Background(), testCity, actions, c)
	require.NoError(t, err)
	assert.Len(t, seen, 8*7/2)
	for pair, n := range seen {
		assert.Equal(t, 1, n, "pair %v", pair)
	}
}

func TestQuickselectTopK_FewerComparisonsThanTournament(t *testing.T) {
	const n = 200
	rng := rand.New(rand.NewPCG(42, 42))
	priority := make(map[string]int, n)
	for i, p := range rng.Perm(n) {
		priority[fmt.Sprintf("act_%d", i)] = p
	}
	actions := syntheticActions(n)

	counting := compare.NewCounting(byPriority(priority))
	_, err := Tournament(context.Background(), testCity, actions, counting)
	require.NoError(t, err)
	assert.EqualValues(t, n*(n-1)/2, counting.Calls())

	counting.Reset()
	top, err := QuickselectTopK(context.Background(), testCity, actions, counting, 5)
	require.NoError(t, err)
	require.Len(t, top, 5)
	assert.Less(t, counting.Calls(), int64(n*n/4))
	assert.Equal(t, 1, top[0].Rank)
	assert.Equal(t, n-1, priority[top[0].ActionID()])
}

func TestComparatorErrorPropagates(t *testing.T) {
	boom := errors.New("llm unavailable")
	calls := 0
	c := compare.Func(func(context.Context, *core.CityProfile, *core.Action, *core.Action) (compare.Outcome, error) {
		calls++
		if calls == 3 {
			return 0, boom
		}
		return compare.FirstPreferred, nil
	})

	ranked, err := Tournament(context.Background(), testCity, syntheticActions(5), c)
	require.ErrorIs(t, err, boom)
	assert.Nil(t, ranked)
	var ce *CompareError
	require.ErrorAs(t, err, &ce)
	assert.NotEmpty(t, ce.A)

	calls = 0
	ranked, err = QuickselectTopK(context.Background(), testCity, syntheticActions(5), c, All)
	require.ErrorIs(t, err, boom)
	assert.Nil(t, ranked)
}

func TestInvalidOutcomeIsAnError(t *testing.T) {
	zero := compare.Func(func(context.Context, *core.CityProfile, *core.Action, *core.Action) (compare.Outcome, error) {
		return 0, nil
	})
	_, err := Tournament(context.Background(), testCity, syntheticActions(3), zero)
	assert.ErrorIs(t, err, compare.ErrInvalidOutcome)

	_, err = QuickselectTopK(context.Background(), testCity, syntheticActions(3), zero, 2)
	assert.ErrorIs(t, err, compare.ErrInvalidOutcome)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	counting := compare.NewCounting(byPriority(tenActionPriorities()))

	_, err := Tournament(ctx, testCity, syntheticActions(4), counting)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = QuickselectTopK(ctx, testCity, syntheticActions(4), counting, All)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, counting.Calls())
}
