package config

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/explain"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/pkg/conv"
)

// BuildEnricher 根据配置构建解释生成器。
//
//	type: llm     model, endpoint, api_key_env, rps, burst
//	type: static  templates: {en: "...", es: "..."}
func BuildEnricher(cfg map[string]any) (explain.Enricher, error) {
	switch t := conv.ConfigGet(cfg, "type", "llm"); t {
	case "llm":
		client, err := BuildLLMClient(cfg)
		if err != nil {
			return nil, err
		}
		return explain.NewLLMEnricher(client, BuildLimiter(cfg), zap.L().Named("explain")), nil
	case "static":
		templates := map[string]string{}
		if m, ok := cfg["templates"].(map[string]any); ok {
			for lang, v := range m {
				if s, ok := conv.ToString(v); ok {
					templates[lang] = s
				}
			}
		}
		return &explain.Static{Templates: templates}, nil
	default:
		return nil, fmt.Errorf("unknown enricher type %q (supported: llm, static)", t)
	}
}
