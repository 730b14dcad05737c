// Package store 提供 core.Store 的实现：MemoryStore（测试/单机）与 RedisStore（生产）。
//
// 示例：
//
//	var s core.Store = store.NewMemoryStore()
//	cmp := compare.NewCached(compare.NewLinear(nil), s)
package store
