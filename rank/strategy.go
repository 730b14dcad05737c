package rank

import (
	"context"
	"fmt"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/compare"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
)

// Ranker 是可互换的排序策略：k 为需要的名次数，All 表示完整排名，k <= 0 返回空。
type Ranker interface {
	Name() string
	Rank(
		ctx context.Context,
		city *core.CityProfile,
		actions []*core.Action,
		cmp compare.Comparator,
		k int,
	) ([]core.RankedAction, error)
}

const (
	StrategyTournament  = "tournament"
	StrategyQuickselect = "quickselect"
)

// TournamentRanker 先做完整循环赛，再截取前 k 名。
// 适用于单城市交互请求或必须给出完整排名的场景。
type TournamentRanker struct{}

func (TournamentRanker) Name() string { return StrategyTournament }

func (TournamentRanker) Rank(
	ctx context.Context,
	city *core.CityProfile,
	actions []*core.Action,
	cmp compare.Comparator,
	k int,
) ([]core.RankedAction, error) {
	if k <= 0 {
		return []core.RankedAction{}, nil
	}
	ranked, err := Tournament(ctx, city, actions, cmp)
	if err != nil {
		return nil, err
	}
	if k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked, nil
}

// QuickselectRanker 只物化前 k 名，适用于对延迟敏感的批量请求。
type QuickselectRanker struct{}

func (QuickselectRanker) Name() string { return StrategyQuickselect }

func (QuickselectRanker) Rank(
	ctx context.Context,
	city *core.CityProfile,
	actions []*core.Action,
	cmp compare.Comparator,
	k int,
) ([]core.RankedAction, error) {
	return QuickselectTopK(ctx, city, actions, cmp, k)
}

// ByName 根据名称返回排序策略，空名称默认 quickselect。
func ByName(name string) (Ranker, error) {
	switch name {
	case StrategyTournament:
		return TournamentRanker{}, nil
	case StrategyQuickselect, "":
		return QuickselectRanker{}, nil
	default:
		return nil, core.NewDomainError(core.ModuleRank, core.ErrorCodeInvalidInput,
			fmt.Sprintf("rank: unknown strategy %q (supported: %s, %s)", name, StrategyTournament, StrategyQuickselect))
	}
}
