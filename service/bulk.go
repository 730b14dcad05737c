package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CityFailure 记录批量排序中失败的城市。
type CityFailure struct {
	Locode string `json:"locode"`
	Error  string `json:"error"`
}

// BulkResult 是批量排序结果，Results 与 Failed 均按请求顺序排列。
type BulkResult struct {
	Results []*Result     `json:"results"`
	Failed  []CityFailure `json:"failed,omitempty"`
}

// BulkOptions 控制批量排序的并发与超时，零值使用 RankConfig 默认值。
type BulkOptions struct {
	Concurrency int
	CityTimeout time.Duration
}

// PrioritizeBulk 并发为多个城市排序。
// 单个城市失败（包括超时）只记录在 Failed 中，不影响其它城市；
// 只有 ctx 被取消时返回错误。
func (p *Prioritizer) PrioritizeBulk(ctx context.Context, reqs []Request, opts BulkOptions) (*BulkResult, error) {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = p.config.DefaultBulkConcurrency()
	}
	timeout := opts.CityTimeout
	if timeout <= 0 {
		timeout = p.config.DefaultCityTimeout()
	}

	var (
		results = make([]*Result, len(reqs))
		errs    = make([]error, len(reqs))
		eg      errgroup.Group
	)
	eg.SetLimit(concurrency)

	for i, req := range reqs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cityCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			res, err := p.Prioritize(cityCtx, req)
			if err != nil && isCanceled(ctx, err) {
				return ctx.Err()
			}
			results[i], errs[i] = res, err
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := &BulkResult{Results: make([]*Result, 0, len(reqs))}
	for i, req := range reqs {
		if errs[i] != nil {
			p.logger.Warn("city failed", zap.String("locode", locodeOf(req)), zap.Error(errs[i]))
			out.Failed = append(out.Failed, CityFailure{Locode: locodeOf(req), Error: errs[i].Error()})
			continue
		}
		out.Results = append(out.Results, results[i])
	}
	p.logger.Info("bulk prioritization done",
		zap.Int("cities", len(reqs)),
		zap.Int("succeeded", len(out.Results)),
		zap.Int("failed", len(out.Failed)))
	return out, nil
}
