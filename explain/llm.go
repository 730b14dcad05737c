package explain

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/pkg/llm"
)

const llmSystemPrompt = `You explain why a climate action was prioritized for a city.
Write 2-3 sentences per language. Respond only with a JSON object whose keys are
the requested language codes and whose values are the explanations.`

// LLMEnricher 通过大模型生成解释。
// 模型只返回部分语言时保留已返回的部分；一种都没有时返回错误。
type LLMEnricher struct {
	Client  llm.Client
	Limiter *rate.Limiter
	Logger  *zap.Logger
}

func NewLLMEnricher(client llm.Client, limiter *rate.Limiter, logger *zap.Logger) *LLMEnricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMEnricher{Client: client, Limiter: limiter, Logger: logger}
}

func (e *LLMEnricher) Name() string { return "llm" }

func (e *LLMEnricher) Explain(
	ctx context.Context,
	countryCode string,
	city *core.CityProfile,
	action *core.Action,
	rank int,
	languages []string,
) (*core.Explanation, error) {
	if action == nil {
		return nil, fmt.Errorf("explain: nil action")
	}
	if len(languages) == 0 {
		return nil, nil
	}
	if e.Limiter != nil {
		if err := e.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := e.Client.Chat(ctx, []llm.Message{
		llm.System(llmSystemPrompt),
		llm.User(buildExplainPrompt(countryCode, city, action, rank, languages)),
	})
	if err != nil {
		return nil, fmt.Errorf("explain %s: %w", action.ActionID, err)
	}

	var raw map[string]string
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(resp)), &raw); err != nil {
		return nil, fmt.Errorf("explain %s: parse response: %w", action.ActionID, err)
	}
	texts := make(map[string]string, len(languages))
	for _, lang := range languages {
		if s := strings.TrimSpace(raw[lang]); s != "" {
			texts[lang] = s
		}
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("explain %s: no requested language in response", action.ActionID)
	}
	if len(texts) < len(languages) {
		e.Logger.Debug("partial explanation",
			zap.String("action_id", action.ActionID),
			zap.Strings("requested", languages),
			zap.Int("returned", len(texts)))
	}
	return &core.Explanation{Texts: texts}, nil
}

func buildExplainPrompt(countryCode string, city *core.CityProfile, action *core.Action, rank int, languages []string) string {
	var sb strings.Builder
	if city != nil {
		fmt.Fprintf(&sb, "City: %s (%s), country %s, population %d, biome %q\n",
			city.Name, city.Locode, countryCode, city.Population, city.Biome)
		sectors := make([]string, 0, len(city.Emissions))
		for s := range city.Emissions {
			sectors = append(sectors, s)
		}
		sort.Strings(sectors)
		for _, s := range sectors {
			fmt.Fprintf(&sb, "  emissions %s: %.0f tCO2e\n", s, city.Emissions[s])
		}
	}
	fmt.Fprintf(&sb, "Action ranked #%d: %s (%s)\n", rank, action.Name, action.ActionID)
	if action.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", action.Description)
	}
	fmt.Fprintf(&sb, "Languages: %s\n", strings.Join(languages, ", "))
	return sb.String()
}

var _ Enricher = (*LLMEnricher)(nil)
