package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app 保存各子命令共享的全局参数。
type app struct {
	configFile string
	verbose    bool

	cfg    *AppConfig
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "prioritizer",
		Short: "Rank climate actions for cities",
		Long: `prioritizer ranks candidate climate actions for a city with a pairwise comparator.

Example usage:
  prioritizer rank --locode "BR CCI" --strategy quickselect --top-k 10
  prioritizer rank --pipeline pipeline.yaml --locode "BR CCI"
  prioritizer check --locode "BR CCI" --samples 500
  prioritizer serve --config prioritizer.yaml`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "config file (YAML)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newRankCmd(a), newCheckCmd(a), newServeCmd(a))
	return root
}

func (a *app) init() error {
	logger, err := newLogger(a.verbose)
	if err != nil {
		return err
	}
	a.logger = logger
	zap.ReplaceGlobals(logger)

	cfg, err := LoadAppConfig(a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	logger.Debug("configuration loaded",
		zap.String("config", a.configFile),
		zap.String("actions", cfg.Actions),
		zap.String("cities", cfg.Cities),
		zap.String("redis", cfg.Redis.Addr),
		zap.String("feast", cfg.Feast.Host))
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zc.Build()
}
