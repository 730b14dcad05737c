package compare

import (
	"context"
	"strconv"
	"strings"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
)

// Cached 用 core.Store 缓存比较结果，适合昂贵的比较器（LLM / 远程模型）。
// key 区分参数顺序：不假设底层比较器满足反对称。
type Cached struct {
	Inner Comparator
	Store core.Store
	TTL   int // 秒，0 表示不过期
}

func NewCached(inner Comparator, s core.Store) *Cached {
	return &Cached{Inner: inner, Store: s}
}

func (c *Cached) Name() string { return c.Inner.Name() }

// key 的每一段都带长度前缀（<len>:<value>），分段内容包含 ":" 时也不会冲突。
func (c *Cached) key(city *core.CityProfile, a, b *core.Action) string {
	locode := ""
	if city != nil {
		locode = city.Locode
	}
	var sb strings.Builder
	sb.WriteString("cmp")
	for _, part := range []string{c.Inner.Name(), locode, a.ActionID, b.ActionID} {
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(len(part)))
		sb.WriteByte(':')
		sb.WriteString(part)
	}
	return sb.String()
}

func (c *Cached) Compare(ctx context.Context, city *core.CityProfile, a, b *core.Action) (Outcome, error) {
	key := c.key(city, a, b)
	if raw, err := c.Store.Get(ctx, key); err == nil {
		if v, perr := strconv.Atoi(string(raw)); perr == nil && Outcome(v).Valid() {
			return Outcome(v), nil
		}
	}

	out, err := c.Inner.Compare(ctx, city, a, b)
	if err != nil {
		return 0, err
	}
	if out.Valid() {
		// 缓存写失败不影响比较结果
		_ = c.Store.Set(ctx, key, []byte(strconv.Itoa(int(out))), c.TTL)
	}
	return out, nil
}

var _ Comparator = (*Cached)(nil)
