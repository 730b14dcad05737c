package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/config"
	_ "github.com/Open-Earth-Foundation/CityCatalyst-sub000/config/builders"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/pipeline"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/service"
)

type rankOptions struct {
	actions    string
	cities     string
	locode     string
	cityJSON   string
	country    string
	actionType string
	strategy   string
	topK       int
	explain    bool
	languages  []string
	pipeline   string
}

func newRankCmd(a *app) *cobra.Command {
	o := &rankOptions{}
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank actions for one city and print the result as JSON",
		Long: `Rank candidate actions for a single city.

By default the built-in flow is used (biome filter, action type filter, strategy, top-K).
With --pipeline the nodes from a pipeline YAML file are run instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.actions != "" {
				a.cfg.Actions = o.actions
			}
			if o.cities != "" {
				a.cfg.Cities = o.cities
			}
			return runRank(cmd.Context(), a, o, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.actions, "actions", "", "action catalog file (JSON/YAML)")
	f.StringVar(&o.cities, "cities", "", "city profiles file (JSON/YAML)")
	f.StringVar(&o.locode, "locode", "", "city locode")
	f.StringVar(&o.cityJSON, "city", "", "inline city profile as JSON, overrides --locode lookup")
	f.StringVar(&o.country, "country", "", "country code for explanations")
	f.StringVar(&o.actionType, "action-type", "", "keep only actions of this type (mitigation|adaptation)")
	f.StringVarP(&o.strategy, "strategy", "s", "quickselect", "ranking strategy (tournament|quickselect)")
	f.IntVarP(&o.topK, "top-k", "k", 0, "number of actions to return, negative for all")
	f.BoolVar(&o.explain, "explain", false, "generate explanations")
	f.StringSliceVar(&o.languages, "languages", nil, "explanation languages")
	f.StringVar(&o.pipeline, "pipeline", "", "pipeline config file (YAML)")
	return cmd
}

func (o *rankOptions) request() (service.Request, error) {
	req := service.Request{
		Locode:      o.locode,
		CountryCode: o.country,
		ActionType:  core.ActionType(o.actionType),
		Strategy:    o.strategy,
		TopK:        o.topK,
		Languages:   o.languages,
		Explain:     o.explain,
	}
	if o.cityJSON != "" {
		var city core.CityProfile
		if err := json.Unmarshal([]byte(o.cityJSON), &city); err != nil {
			return req, fmt.Errorf("parse --city: %w", err)
		}
		req.City = &city
	}
	return req, nil
}

func runRank(ctx context.Context, a *app, o *rankOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := o.request()
	if err != nil {
		return err
	}
	c, err := buildComponents(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer c.Close()

	p := newPrioritizer(a.cfg, c, a.logger)
	if o.pipeline != "" {
		return runPipeline(ctx, a, o, p, c, req, out)
	}

	res, err := p.Prioritize(ctx, req)
	if err != nil {
		return err
	}
	return writeJSON(out, res)
}

// runPipeline 解析城市后，按配置文件中的 Node 链排序。
func runPipeline(
	ctx context.Context,
	a *app,
	o *rankOptions,
	p *service.Prioritizer,
	c *components,
	req service.Request,
	out io.Writer,
) error {
	pcfg, err := pipeline.LoadFromYAML(o.pipeline)
	if err != nil {
		return err
	}
	if err := config.ValidatePipelineConfig(pcfg); err != nil {
		return err
	}
	pl, err := pcfg.BuildPipeline(config.DefaultFactory())
	if err != nil {
		return err
	}

	city := req.City
	if city == nil {
		if c.cities == nil || req.Locode == "" {
			return fmt.Errorf("--locode with a city source or --city required")
		}
		if city, err = c.cities.City(ctx, req.Locode); err != nil {
			return err
		}
	}
	rctx := &core.RankContext{
		City:        city,
		CountryCode: req.CountryCode,
		Languages:   req.Languages,
		Params:      map[string]any{},
	}
	if req.ActionType != "" {
		rctx.Params["action_type"] = string(req.ActionType)
	}

	items, err := pl.Run(ctx, rctx, core.NewItems(p.Actions()))
	if err != nil {
		return err
	}
	a.logger.Info("pipeline finished",
		zap.String("pipeline", pcfg.Pipeline.Name),
		zap.String("locode", city.Locode),
		zap.Int("ranked", len(items)))

	ranked := make([]core.RankedAction, len(items))
	for i, it := range items {
		ranked[i] = core.RankedAction{Action: it.Action, Rank: it.Rank, Explanation: it.Explanation}
	}
	return writeJSON(out, map[string]any{
		"locode":   city.Locode,
		"pipeline": pcfg.Pipeline.Name,
		"ranked":   ranked,
	})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
