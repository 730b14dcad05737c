package catalog

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
)

// CitySource 按 locode 获取城市画像。
// 城市不存在时返回 core.ErrorCodeNotFound 的 DomainError。
type CitySource interface {
	City(ctx context.Context, locode string) (*core.CityProfile, error)
}

// CityNotFound 返回城市不存在错误。
func CityNotFound(locode string) error {
	return core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotFound,
		fmt.Sprintf("catalog: city %q not found", locode))
}

// MemoryCitySource 是基于内存的城市画像源，可从文件加载。
type MemoryCitySource struct {
	mu     sync.RWMutex
	cities map[string]*core.CityProfile
}

func NewMemoryCitySource(cities ...*core.CityProfile) *MemoryCitySource {
	s := &MemoryCitySource{cities: make(map[string]*core.CityProfile, len(cities))}
	for _, c := range cities {
		s.Put(c)
	}
	return s
}

// LoadCities 从文件加载城市画像列表。
func LoadCities(path string) (*MemoryCitySource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cities: %w", err)
	}
	var cities []*core.CityProfile
	if err := decode(data, FormatOf(path), &cities); err != nil {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput,
			fmt.Sprintf("catalog: parse cities: %v", err))
	}
	for i, c := range cities {
		if c == nil || c.Locode == "" {
			return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput,
				fmt.Sprintf("catalog: city #%d has no locode", i))
		}
	}
	return NewMemoryCitySource(cities...), nil
}

// Put 写入或覆盖一个城市画像。
func (s *MemoryCitySource) Put(c *core.CityProfile) {
	if c == nil || c.Locode == "" {
		return
	}
	s.mu.Lock()
	s.cities[c.Locode] = c
	s.mu.Unlock()
}

func (s *MemoryCitySource) City(_ context.Context, locode string) (*core.CityProfile, error) {
	s.mu.RLock()
	c, ok := s.cities[locode]
	s.mu.RUnlock()
	if !ok {
		return nil, CityNotFound(locode)
	}
	return c, nil
}

// Len 返回城市数量。
func (s *MemoryCitySource) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cities)
}

var _ CitySource = (*MemoryCitySource)(nil)
