package compare

import (
	"context"
	"sync/atomic"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
)

// Counting 统计比较器调用次数。
type Counting struct {
	Inner Comparator
	calls atomic.Int64
}

func NewCounting(inner Comparator) *Counting {
	return &Counting{Inner: inner}
}

func (c *Counting) Name() string { return c.Inner.Name() }

func (c *Counting) Compare(ctx context.Context, city *core.CityProfile, a, b *core.Action) (Outcome, error) {
	c.calls.Add(1)
	return c.Inner.Compare(ctx, city, a, b)
}

// Calls 返回累计调用次数。
func (c *Counting) Calls() int64 { return c.calls.Load() }

// Reset 清零计数。
func (c *Counting) Reset() { c.calls.Store(0) }

var _ Comparator = (*Counting)(nil)
