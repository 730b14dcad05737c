package explain

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
)

// Apply 为每个已排序行动生成解释，返回新的结果切片（入参不被修改）。
// concurrency <= 0 时串行执行。单个行动失败只记录日志，不影响其它行动。
// 只有 ctx 被取消时返回错误。
func Apply(
	ctx context.Context,
	e Enricher,
	countryCode string,
	city *core.CityProfile,
	ranked []core.RankedAction,
	languages []string,
	concurrency int,
	logger *zap.Logger,
) ([]core.RankedAction, error) {
	out := make([]core.RankedAction, len(ranked))
	copy(out, ranked)
	if e == nil || len(ranked) == 0 || len(languages) == 0 {
		return out, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range out {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			expl, err := e.Explain(gctx, countryCode, city, out[i].Action, out[i].Rank, languages)
			if err != nil {
				logger.Warn("explanation missing",
					zap.String("enricher", e.Name()),
					zap.String("action_id", out[i].ActionID()),
					zap.Int("rank", out[i].Rank),
					zap.Error(err))
				return nil
			}
			out[i].Explanation = expl
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
