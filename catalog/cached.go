package catalog

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
)

// CachedCitySource 在远程城市画像源（例如 Feast）之前加一层 LRU 缓存。
// 只缓存成功结果；NOT_FOUND 等错误不缓存。
type CachedCitySource struct {
	inner CitySource
	cache *expirable.LRU[string, *core.CityProfile]
}

// NewCachedCitySource 创建缓存源，size <= 0 时默认 1024，ttl 为 0 表示不过期。
func NewCachedCitySource(inner CitySource, size int, ttl time.Duration) *CachedCitySource {
	if size <= 0 {
		size = 1024
	}
	return &CachedCitySource{
		inner: inner,
		cache: expirable.NewLRU[string, *core.CityProfile](size, nil, ttl),
	}
}

func (s *CachedCitySource) City(ctx context.Context, locode string) (*core.CityProfile, error) {
	if c, ok := s.cache.Get(locode); ok {
		return c, nil
	}
	c, err := s.inner.City(ctx, locode)
	if err != nil {
		return nil, err
	}
	s.cache.Add(locode, c)
	return c, nil
}

// Invalidate 移除一个城市的缓存。
func (s *CachedCitySource) Invalidate(locode string) {
	s.cache.Remove(locode)
}

var _ CitySource = (*CachedCitySource)(nil)
