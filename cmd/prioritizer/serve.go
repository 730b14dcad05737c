package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/server"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/task"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the prioritization HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Addr = addr
			}
			return runServe(cmd.Context(), a)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

func runServe(ctx context.Context, a *app) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := buildComponents(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer c.Close()

	taskOpts := []task.Option{task.WithLogger(a.logger.Named("task"))}
	if c.store != nil {
		taskOpts = append(taskOpts, task.WithStore(c.store, taskTTLSeconds(a.cfg.Server.TaskTTL)))
	}
	tasks := task.NewRegistry(taskOpts...)

	srv := server.New(newPrioritizer(a.cfg, c, a.logger), tasks,
		server.WithLogger(a.logger.Named("http")),
		server.WithRequestTimeout(a.cfg.Server.RequestTimeout),
		server.WithMaxBulkCities(a.cfg.Server.MaxBulkCities))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(a.cfg.Addr)
	}()

	pruneTicker := time.NewTicker(time.Hour)
	defer pruneTicker.Stop()
	for {
		select {
		case err := <-errCh:
			return err
		case <-pruneTicker.C:
			if a.cfg.Server.TaskTTL <= 0 {
				continue
			}
			if n := tasks.Prune(a.cfg.Server.TaskTTL); n > 0 {
				a.logger.Info("pruned finished tasks", zap.Int("count", n))
			}
		case <-ctx.Done():
			a.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return <-errCh
		}
	}
}
