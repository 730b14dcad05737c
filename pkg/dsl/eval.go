package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("action", cel.DynType),
			cel.Variable("city", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("params", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译后的布尔表达式，可并发复用。
//
// 表达式语法（CEL 标准语法）：
//   - 行动：action.sector == "energy" / "mitigation" in action.types / city.biome in action.biomes
//   - 城市：city.biome == "tropical_rainforest" / city.risk.flooding > 0.5
//   - 标签：label.rank_strategy == "tournament"
//   - 组合：action.cost == "low" && city.population > 100000
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式，空表达式恒为 true。
func Compile(expr string) (*Program, error) {
	if expr == "" {
		return &Program{}, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	if ast.OutputType() != cel.BoolType && ast.OutputType() != cel.DynType {
		return nil, fmt.Errorf("compile %q: expression must return bool, got %s", expr, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

func (p *Program) String() string { return p.expr }

// Eval 对单个行动求值；rctx 可以为 nil。
func (p *Program) Eval(rctx *core.RankContext, item *core.Item) (bool, error) {
	if p.prg == nil {
		return true, nil
	}
	out, _, err := p.prg.Eval(BuildInput(rctx, item))
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", p.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("eval %q: expression must return boolean, got %T", p.expr, out.Value())
	}
	return result, nil
}

var cache sync.Map // expr -> *Program

// Evaluate 编译（带缓存）并执行表达式。
func Evaluate(expr string, rctx *core.RankContext, item *core.Item) (bool, error) {
	if p, ok := cache.Load(expr); ok {
		return p.(*Program).Eval(rctx, item)
	}
	p, err := Compile(expr)
	if err != nil {
		return false, err
	}
	cache.Store(expr, p)
	return p.Eval(rctx, item)
}

// BuildInput 构建 CEL 表达式的输入数据。
// 缺失字段以零值填充，避免 CEL 访问不存在的 key 报错。
func BuildInput(rctx *core.RankContext, item *core.Item) map[string]any {
	action := map[string]any{}
	label := map[string]any{}
	if item != nil {
		action = actionInput(item.Action)
		for k, v := range item.Labels {
			label[k] = v.Value
		}
	}

	city := cityInput(nil)
	params := map[string]any{}
	if rctx != nil {
		city = cityInput(rctx.City)
		for k, v := range rctx.Params {
			params[k] = v
		}
	}
	return map[string]any{
		"action": action,
		"city":   city,
		"label":  label,
		"params": params,
	}
}

func actionInput(a *core.Action) map[string]any {
	if a == nil {
		return map[string]any{}
	}
	types := make([]string, len(a.Types))
	for i, t := range a.Types {
		types[i] = string(t)
	}
	sectors := make([]string, 0, len(a.GHGReductionPotential)+1)
	if a.Sector != "" {
		sectors = append(sectors, a.Sector)
	}
	for s := range a.GHGReductionPotential {
		if s != a.Sector {
			sectors = append(sectors, s)
		}
	}
	cobenefits := make(map[string]int64, len(a.CoBenefits))
	for k, v := range a.CoBenefits {
		cobenefits[k] = int64(v)
	}
	return map[string]any{
		"id":           a.ActionID,
		"name":         a.Name,
		"types":        types,
		"sector":       a.Sector,
		"sectors":      sectors,
		"subsector":    nonNil(a.Subsector),
		"adaptation":   a.AdaptationEffectiveness,
		"cost":         a.CostInvestmentNeeded,
		"timeline":     a.TimelineForImplementation,
		"dependencies": nonNil(a.Dependencies),
		"cobenefits":   cobenefits,
		"hazards":      nonNil(a.Hazards),
		"biomes":       nonNil(a.Biome),
	}
}

func cityInput(c *core.CityProfile) map[string]any {
	if c == nil {
		return map[string]any{
			"locode": "", "name": "", "country": "", "biome": "",
			"population": int64(0), "density": 0.0, "area": 0.0, "elevation": 0.0,
			"emissions": map[string]float64{}, "risk": map[string]float64{},
		}
	}
	emissions := c.Emissions
	if emissions == nil {
		emissions = map[string]float64{}
	}
	risk := c.RiskScores
	if risk == nil {
		risk = map[string]float64{}
	}
	return map[string]any{
		"locode":     c.Locode,
		"name":       c.Name,
		"country":    c.CountryCode,
		"biome":      c.Biome,
		"population": c.Population,
		"density":    c.PopulationDensity,
		"area":       c.Area,
		"elevation":  c.Elevation,
		"emissions":  emissions,
		"risk":       risk,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
