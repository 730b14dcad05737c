package compare

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/pkg/llm"
)

const llmSystemPrompt = `You are a climate policy expert helping a city prioritize climate actions.
You will be given a city profile and two candidate actions, A and B.
Decide which action the city should prioritize.
Respond only with JSON: {"preferred": "A" or "B", "reason": "<one sentence>"}`

// LLM 是定性比较器：让大模型在两个行动之间做判断。
// 自带限流与重试（只重试限流/服务端错误与无法解析的回答）。
type LLM struct {
	Client     llm.Client
	Limiter    *rate.Limiter
	MaxRetries int
	Backoff    time.Duration
	Logger     *zap.Logger
}

// LLMOption LLM 比较器配置选项
type LLMOption func(*LLM)

func WithLimiter(l *rate.Limiter) LLMOption {
	return func(c *LLM) { c.Limiter = l }
}

func WithRetry(maxRetries int, backoff time.Duration) LLMOption {
	return func(c *LLM) {
		c.MaxRetries = maxRetries
		c.Backoff = backoff
	}
}

func WithLogger(logger *zap.Logger) LLMOption {
	return func(c *LLM) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

func NewLLM(client llm.Client, opts ...LLMOption) *LLM {
	c := &LLM{
		Client:     client,
		MaxRetries: 2,
		Backoff:    500 * time.Millisecond,
		Logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *LLM) Name() string { return "llm" }

type llmVerdict struct {
	Preferred string `json:"preferred"`
	Reason    string `json:"reason"`
}

// errUnparsable 标记模型回答无法解析，可重试。
var errUnparsable = errors.New("unparsable llm verdict")

func (c *LLM) Compare(ctx context.Context, city *core.CityProfile, a, b *core.Action) (Outcome, error) {
	messages := []llm.Message{
		llm.System(llmSystemPrompt),
		llm.User(buildComparePrompt(city, a, b)),
	}

	var lastErr error
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			c.Logger.Debug("retrying llm comparison",
				zap.String("a", a.ActionID),
				zap.String("b", b.ActionID),
				zap.Int("attempt", attempt),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(c.Backoff * time.Duration(attempt)):
			}
		}
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return 0, err
			}
		}

		out, err := c.once(ctx, messages)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return 0, fmt.Errorf("llm compare %s vs %s: %w", a.ActionID, b.ActionID, lastErr)
}

func (c *LLM) once(ctx context.Context, messages []llm.Message) (Outcome, error) {
	resp, err := c.Client.Chat(ctx, messages)
	if err != nil {
		return 0, err
	}
	return ParseVerdict(resp)
}

// ParseVerdict 解析模型回答中的 {"preferred": "A"|"B"}。
func ParseVerdict(resp string) (Outcome, error) {
	var v llmVerdict
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(resp)), &v); err != nil {
		return 0, fmt.Errorf("%w: %v", errUnparsable, err)
	}
	switch strings.ToUpper(strings.TrimSpace(v.Preferred)) {
	case "A":
		return FirstPreferred, nil
	case "B":
		return SecondPreferred, nil
	default:
		return 0, fmt.Errorf("%w: preferred=%q", errUnparsable, v.Preferred)
	}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, errUnparsable) {
		return true
	}
	var se *llm.StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return false
}

func buildComparePrompt(city *core.CityProfile, a, b *core.Action) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "City: %s (%s), population %d, biome %q\n", city.Name, city.Locode, city.Population, city.Biome)
	if len(city.Emissions) > 0 {
		fmt.Fprintf(&sb, "Emissions by sector (tCO2e): %v\n", city.Emissions)
	}
	if len(city.RiskScores) > 0 {
		fmt.Fprintf(&sb, "Climate risks (0-1): %v\n", city.RiskScores)
	}
	writeAction(&sb, "A", a)
	writeAction(&sb, "B", b)
	return sb.String()
}

func writeAction(sb *strings.Builder, label string, a *core.Action) {
	fmt.Fprintf(sb, "\nAction %s: %s (%s)\n", label, a.Name, a.ActionID)
	fmt.Fprintf(sb, "  types: %v, sector: %s\n", a.Types, a.Sector)
	if len(a.GHGReductionPotential) > 0 {
		fmt.Fprintf(sb, "  GHG reduction potential: %v\n", a.GHGReductionPotential)
	}
	if a.AdaptationEffectiveness != "" {
		fmt.Fprintf(sb, "  adaptation effectiveness: %s, hazards: %v\n", a.AdaptationEffectiveness, a.Hazards)
	}
	fmt.Fprintf(sb, "  cost: %s, timeline: %s, dependencies: %v\n", a.CostInvestmentNeeded, a.TimelineForImplementation, a.Dependencies)
	if a.Description != "" {
		fmt.Fprintf(sb, "  description: %s\n", a.Description)
	}
}

var _ Comparator = (*LLM)(nil)
