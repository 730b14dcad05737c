package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/catalog"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/compare"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/config"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/explain"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/feast"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/service"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/store"
)

// components 是按配置装配好的运行时依赖，closers 按逆序关闭。
type components struct {
	actions    []*core.Action
	cities     catalog.CitySource
	store      core.Store
	comparator compare.Comparator
	enricher   explain.Enricher

	closers []func() error
}

func (c *components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildComponents 按配置装配行动目录、城市来源、存储、比较器与解释生成器。
func buildComponents(ctx context.Context, cfg *AppConfig, logger *zap.Logger) (*components, error) {
	c := &components{}
	ok := false
	defer func() {
		if !ok {
			_ = c.Close()
		}
	}()

	actions, err := catalog.LoadActions(cfg.Actions)
	if err != nil {
		return nil, err
	}
	c.actions = actions

	if cfg.Redis.Addr != "" {
		rs, err := store.NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			store.WithKeyPrefix(cfg.Redis.KeyPrefix))
		if err != nil {
			return nil, err
		}
		c.store = rs
		c.closers = append(c.closers, rs.Close)
		logger.Info("redis store connected", zap.String("addr", cfg.Redis.Addr))
	}

	cities, err := buildCitySource(cfg, c, logger)
	if err != nil {
		return nil, err
	}
	c.cities = cities

	cmp, err := config.BuildComparator(cfg.Comparator)
	if err != nil {
		return nil, fmt.Errorf("comparator: %w", err)
	}
	if cfg.CacheComparisons {
		cache := c.store
		if cache == nil {
			ms := store.NewMemoryStore()
			c.closers = append(c.closers, ms.Close)
			cache = ms
		}
		cmp = compare.NewCached(cmp, cache)
	}
	c.comparator = cmp

	if len(cfg.Explain) > 0 {
		e, err := config.BuildEnricher(cfg.Explain)
		if err != nil {
			return nil, fmt.Errorf("explain: %w", err)
		}
		c.enricher = e
	}

	logger.Info("components ready",
		zap.Int("actions", len(c.actions)),
		zap.String("comparator", c.comparator.Name()),
		zap.Bool("city_source", c.cities != nil),
		zap.Bool("explain", c.enricher != nil))
	ok = true
	return c, nil
}

// buildCitySource 优先使用 Feast 在线特征（带 LRU 缓存），其次使用城市文件。
func buildCitySource(cfg *AppConfig, c *components, logger *zap.Logger) (catalog.CitySource, error) {
	if cfg.Feast.Host != "" {
		var opts []feast.ClientOption
		if cfg.Feast.Timeout > 0 {
			opts = append(opts, feast.WithTimeout(cfg.Feast.Timeout))
		}
		if cfg.Feast.Token != "" {
			opts = append(opts, feast.WithToken(cfg.Feast.Token, cfg.Feast.TLS))
		}
		client, err := feast.NewGrpcClient(cfg.Feast.Host, cfg.Feast.Port, cfg.Feast.Project, opts...)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, client.Close)

		mapping := cfg.Feast.Mapping
		if len(mapping) == 0 {
			mapping = feast.DefaultMapping()
		}
		src := &feast.CitySource{
			Client:    client,
			Project:   cfg.Feast.Project,
			EntityKey: cfg.Feast.EntityKey,
			Mapping:   mapping,
		}
		logger.Info("feast city source",
			zap.String("host", cfg.Feast.Host),
			zap.Int("port", cfg.Feast.Port),
			zap.String("project", cfg.Feast.Project))
		if cfg.Feast.CacheSize <= 0 {
			return src, nil
		}
		return catalog.NewCachedCitySource(src, cfg.Feast.CacheSize, cfg.Feast.CacheTTL), nil
	}

	if cfg.Cities != "" {
		src, err := catalog.LoadCities(cfg.Cities)
		if err != nil {
			return nil, err
		}
		logger.Info("file city source", zap.String("path", cfg.Cities), zap.Int("cities", src.Len()))
		return src, nil
	}
	return nil, nil
}

// newPrioritizer 用装配好的依赖创建排序服务。
func newPrioritizer(cfg *AppConfig, c *components, logger *zap.Logger) *service.Prioritizer {
	opts := []service.Option{
		service.WithRankConfig(&rankConfig{section: cfg.Rank}),
		service.WithLogger(logger.Named("service")),
	}
	if c.cities != nil {
		opts = append(opts, service.WithCitySource(c.cities))
	}
	if c.enricher != nil {
		opts = append(opts, service.WithEnricher(c.enricher, cfg.Rank.ExplainConcurrency))
	}
	return service.New(c.actions, c.comparator, opts...)
}

// taskTTLSeconds 把任务保存时长换算为 Store 的秒数。
func taskTTLSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}
