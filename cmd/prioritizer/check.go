package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/compare"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/filter"
)

type checkOptions struct {
	locode    string
	samples   int
	seed      uint64
	maxRate   float64
	allBiomes bool
}

func newCheckCmd(a *app) *cobra.Command {
	o := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Sample the comparator for antisymmetry and transitivity violations",
		Long: `Sample action pairs and triples for one city and report how often the configured
comparator violates antisymmetry and transitivity. Rankers never repair such
violations; this command only reports them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), a, o, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.locode, "locode", "", "city locode (required)")
	f.IntVar(&o.samples, "samples", 200, "number of sampled pairs/triples per property")
	f.Uint64Var(&o.seed, "seed", 1, "random seed")
	f.Float64Var(&o.maxRate, "max-rate", 0, "fail when a violation rate exceeds this value (0 disables)")
	f.BoolVar(&o.allBiomes, "all-biomes", false, "sample from the whole catalog instead of the biome-filtered candidates")
	_ = cmd.MarkFlagRequired("locode")
	return cmd
}

type checkResult struct {
	Locode       string                    `json:"locode"`
	Comparator   string                    `json:"comparator"`
	Candidates   int                       `json:"candidates"`
	Antisymmetry compare.ConsistencyReport `json:"antisymmetry"`
	Transitivity compare.ConsistencyReport `json:"transitivity"`
}

func runCheck(ctx context.Context, a *app, o *checkOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := buildComponents(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer c.Close()
	if c.cities == nil {
		return core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotSupported, "check: no city source configured")
	}
	city, err := c.cities.City(ctx, o.locode)
	if err != nil {
		return err
	}

	actions := c.actions
	if !o.allBiomes {
		actions = filter.ByBiome(city, actions)
	}
	res := checkResult{Locode: city.Locode, Comparator: c.comparator.Name(), Candidates: len(actions)}
	if res.Antisymmetry, err = compare.CheckAntisymmetry(ctx, c.comparator, city, actions, o.samples, o.seed); err != nil {
		return err
	}
	if res.Transitivity, err = compare.CheckTransitivity(ctx, c.comparator, city, actions, o.samples, o.seed); err != nil {
		return err
	}
	if err := writeJSON(out, res); err != nil {
		return err
	}

	if o.maxRate > 0 {
		for _, r := range []compare.ConsistencyReport{res.Antisymmetry, res.Transitivity} {
			if r.Rate() > o.maxRate {
				return fmt.Errorf("%s violation rate %.3f exceeds %.3f", r.Property, r.Rate(), o.maxRate)
			}
		}
	}
	return nil
}
