// Package service 组合过滤、排序与解释，提供单城市与多城市的行动优先级排序。
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/catalog"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/compare"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/explain"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/filter"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/rank"
)

// Request 是单个城市的排序请求。
// City 非空时直接使用，否则按 Locode 从 CitySource 获取。
type Request struct {
	Locode      string            `json:"locode"`
	City        *core.CityProfile `json:"city,omitempty"`
	CountryCode string            `json:"country_code,omitempty"`
	ActionType  core.ActionType   `json:"action_type,omitempty"`
	Strategy    string            `json:"strategy,omitempty"`
	TopK        int               `json:"top_k,omitempty"`
	Languages   []string          `json:"languages,omitempty"`
	Explain     bool              `json:"explain,omitempty"`
}

// Result 是单个城市的排序结果。
type Result struct {
	Locode      string              `json:"locode"`
	Strategy    string              `json:"strategy"`
	Comparator  string              `json:"comparator"`
	Candidates  int                 `json:"candidates"`
	Comparisons int64               `json:"comparisons"`
	Ranked      []core.RankedAction `json:"ranked"`
	Duration    time.Duration       `json:"duration_ns"`
}

// Prioritizer 是排序服务：
//
//	城市画像 + 行动目录 -> 生物群系过滤 -> 类别过滤 -> 排序策略 -> 前 K 名 -> （可选）解释
type Prioritizer struct {
	actions    []*core.Action
	cities     catalog.CitySource
	comparator compare.Comparator
	enricher   explain.Enricher
	config     core.RankConfig
	logger     *zap.Logger

	explainConcurrency int
}

// Option Prioritizer 配置选项
type Option func(*Prioritizer)

func WithCitySource(s catalog.CitySource) Option {
	return func(p *Prioritizer) { p.cities = s }
}

// WithEnricher 设置解释生成器，concurrency 为单个城市内并发生成解释的数量。
func WithEnricher(e explain.Enricher, concurrency int) Option {
	return func(p *Prioritizer) {
		p.enricher = e
		p.explainConcurrency = concurrency
	}
}

func WithRankConfig(c core.RankConfig) Option {
	return func(p *Prioritizer) {
		if c != nil {
			p.config = c
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *Prioritizer) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New 创建排序服务；actions 在服务生命周期内只读。
func New(actions []*core.Action, cmp compare.Comparator, opts ...Option) *Prioritizer {
	p := &Prioritizer{
		actions:    actions,
		comparator: cmp,
		config:     &core.DefaultRankConfig{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Actions 返回行动目录。
func (p *Prioritizer) Actions() []*core.Action { return p.actions }

// Prioritize 为单个城市排序。
// 比较器错误直接返回，不返回部分结果；解释失败只影响对应行动的 Explanation。
func (p *Prioritizer) Prioritize(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	city, err := p.resolveCity(ctx, req)
	if err != nil {
		return nil, err
	}
	ranker, err := rank.ByName(req.Strategy)
	if err != nil {
		return nil, err
	}
	k := req.TopK
	if k == 0 {
		k = p.config.DefaultTopK()
	}
	if k < 0 {
		k = rank.All
	}

	candidates := filter.ByType(req.ActionType, filter.ByBiome(city, p.actions))
	counting := compare.NewCounting(p.comparator)
	logger := p.logger.With(
		zap.String("locode", city.Locode),
		zap.String("strategy", ranker.Name()),
		zap.String("comparator", p.comparator.Name()))

	ranked, err := ranker.Rank(ctx, city, candidates, counting, k)
	if err != nil {
		logger.Error("ranking failed", zap.Int64("comparisons", counting.Calls()), zap.Error(err))
		return nil, fmt.Errorf("prioritize %s: %w", city.Locode, err)
	}

	if req.Explain && p.enricher != nil {
		languages := req.Languages
		if len(languages) == 0 {
			languages = p.config.DefaultLanguages()
		}
		country := req.CountryCode
		if country == "" {
			country = city.CountryCode
		}
		ranked, err = explain.Apply(ctx, p.enricher, country, city, ranked, languages, p.explainConcurrency, logger)
		if err != nil {
			return nil, fmt.Errorf("prioritize %s: explain: %w", city.Locode, err)
		}
	}

	res := &Result{
		Locode:      city.Locode,
		Strategy:    ranker.Name(),
		Comparator:  p.comparator.Name(),
		Candidates:  len(candidates),
		Comparisons: counting.Calls(),
		Ranked:      ranked,
		Duration:    time.Since(start),
	}
	logger.Info("city prioritized",
		zap.Int("catalog", len(p.actions)),
		zap.Int("candidates", res.Candidates),
		zap.Int("ranked", len(res.Ranked)),
		zap.Int64("comparisons", res.Comparisons),
		zap.Duration("duration", res.Duration))
	return res, nil
}

func (p *Prioritizer) resolveCity(ctx context.Context, req Request) (*core.CityProfile, error) {
	if req.City != nil {
		if req.City.Locode == "" && req.Locode != "" {
			c := *req.City
			c.Locode = req.Locode
			return &c, nil
		}
		return req.City, nil
	}
	if req.Locode == "" {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput, "service: locode or city required")
	}
	if p.cities == nil {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotSupported, "service: no city source configured")
	}
	return p.cities.City(ctx, req.Locode)
}

// locodeOf 返回请求对应的城市标识，用于失败报告。
func locodeOf(req Request) string {
	if req.Locode != "" {
		return req.Locode
	}
	if req.City != nil {
		return req.City.Locode
	}
	return ""
}

// isCanceled 判断错误是否由调用方取消引起（超时不算）。
func isCanceled(ctx context.Context, err error) bool {
	return ctx.Err() != nil && errors.Is(err, context.Canceled)
}
