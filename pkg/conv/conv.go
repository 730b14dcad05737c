// Package conv 从 YAML/JSON 解析出的 map[string]any 中读取配置值。
//
// YAML 解析的整数为 int，JSON 解析的数字为 float64，这里统一兼容。
package conv

import (
	"fmt"
	"time"
)

// ToFloat64 将数字（以及 bool，视为 1/0）转为 float64。
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// ToString 仅接受 string。
func ToString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// MapToFloat64 保留 m 中可转为 float64 的条目，例如比较器权重。
func MapToFloat64(m map[string]any) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if f, ok := ToFloat64(v); ok {
			out[k] = f
		}
	}
	return out
}

// SliceAnyToString 将 []any 转为 []string；数字格式化为整数，其它类型丢弃。
func SliceAnyToString(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := e.(string); ok {
			out = append(out, s)
			continue
		}
		if f, ok := ToFloat64(e); ok {
			out = append(out, fmt.Sprintf("%.0f", f))
		}
	}
	return out
}

// ConfigGet 按 key 取 T，取不到或类型不符时返回 defaultVal。
func ConfigGet[T any](m map[string]any, key string, defaultVal T) T {
	if t, ok := m[key].(T); ok {
		return t
	}
	return defaultVal
}

// ConfigGetInt64 按 key 取整数，兼容 int / int64 / float64。
func ConfigGetInt64(m map[string]any, key string, defaultVal int64) int64 {
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	if _, isBool := v.(bool); isBool {
		return defaultVal
	}
	if f, ok := ToFloat64(v); ok {
		return int64(f)
	}
	return defaultVal
}

// ConfigGetDuration 按 key 取时长：字符串按 time.ParseDuration 解析（"1500ms"、"30s"），
// 数字按 unit 的倍数处理。无法解析时返回 defaultVal。
func ConfigGetDuration(m map[string]any, key string, unit, defaultVal time.Duration) time.Duration {
	switch v := m[key].(type) {
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	case bool, nil:
	default:
		if f, ok := ToFloat64(v); ok {
			return time.Duration(f * float64(unit))
		}
	}
	return defaultVal
}
