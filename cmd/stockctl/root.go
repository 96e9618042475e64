package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rl1809/stock-transfer/internal/app"
	"github.com/rl1809/stock-transfer/internal/config"
	"github.com/rl1809/stock-transfer/internal/logging"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "stockctl",
		Short: "Move stock between a warehouse and a shop",
		Long: `stockctl keeps a warehouse and a shop in memory (or in Redis) and
moves products between them with text commands such as

  deliver 3 cookies from warehouse to shop
  collect 1 cookies from shop

A failed delivery into the shop is rolled back to the warehouse.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: ./stockctl.yaml if present)")

	cmd.AddCommand(newReplCmd(opts))
	cmd.AddCommand(newExecCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newStressCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// setup loads configuration and the process logger.
func (o *rootOptions) setup() (*config.Config, logging.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, logging.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logCfg, err := logging.ConfigFromEnv()
	if err != nil {
		return nil, logging.Config{}, nil, err
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, logging.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logCfg, logger, nil
}

// newApp builds the application with metrics disabled, for the one-shot and
// interactive commands.
func (o *rootOptions) newApp(ctx context.Context) (*app.App, error) {
	cfg, _, logger, err := o.setup()
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg, logger, nil)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return a, nil
}

func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		a.Logger().Warn("app_close_failed", zap.Error(err))
	}
	_ = a.Logger().Sync()
}

// registry returns a Prometheus registry with the Go runtime collectors.
func registry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
