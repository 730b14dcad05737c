// Package config 把 YAML/JSON 配置转成可运行的组件：Pipeline Node、比较器、解释生成器。
//
// 内置 Node 在 config/builders 的 init 中注册，使用配置驱动时需要
//
//	import _ "github.com/Open-Earth-Foundation/CityCatalyst-sub000/config/builders"
package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/pipeline"
)

type NodeBuilder = pipeline.NodeBuilder

// Registry 保存 Node 类型名到构建函数的映射，可并发使用。
type Registry struct {
	mu       sync.RWMutex
	builders map[string]NodeBuilder
}

func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]NodeBuilder)}
}

// Register 注册（或覆盖）一种 Node 类型，空类型名或空构建函数被忽略。
func (r *Registry) Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	r.mu.Lock()
	r.builders[typeName] = builder
	r.mu.Unlock()
}

// Types 返回已注册的类型名（升序）。
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.builders))
}

// Factory 返回当前注册表的快照。
func (r *Registry) Factory() *pipeline.NodeFactory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range r.builders {
		f.Register(typeName, builder)
	}
	return f
}

// Validate 检查配置中每个 Node 都声明了已注册的类型，一次列出全部问题。
func (r *Registry) Validate(cfg *pipeline.Config) error {
	if cfg == nil {
		return nil
	}
	r.mu.RLock()
	var problems []string
	for i, nc := range cfg.Pipeline.Nodes {
		switch _, ok := r.builders[nc.Type]; {
		case nc.Type == "":
			problems = append(problems, fmt.Sprintf("node #%d: type required", i))
		case !ok:
			problems = append(problems, fmt.Sprintf("node #%d: unsupported type %q", i, nc.Type))
		}
	}
	r.mu.RUnlock()
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("pipeline %q: %s (supported: %s)",
		cfg.Pipeline.Name, strings.Join(problems, "; "), strings.Join(r.Types(), ", "))
}

var defaultRegistry = NewRegistry()

// Register 向默认注册表注册 Node 类型，通常在 init 中调用。
func Register(typeName string, builder NodeBuilder) { defaultRegistry.Register(typeName, builder) }

func SupportedTypes() []string { return defaultRegistry.Types() }

func DefaultFactory() *pipeline.NodeFactory { return defaultRegistry.Factory() }

func ValidatePipelineConfig(cfg *pipeline.Config) error { return defaultRegistry.Validate(cfg) }
