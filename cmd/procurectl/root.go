package main

import (
	"context"
	"fmt"

	"github.com/procurement/backend/internal/app"
	"github.com/procurement/backend/internal/infrastructure/config"
	"github.com/procurement/backend/internal/infrastructure/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cli carries what every subcommand shares
type cli struct {
	logLevel string
	output   string

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "procurectl",
		Short:         "Operate the procurement backend",
		Long:          `procurectl applies database migrations, seeds demo data and runs the background sweeps on demand.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVarP(&c.output, "output", "o", "table", "output format: table or json")

	root.AddCommand(
		newMigrateCmd(c),
		newSeedCmd(c),
		newRemindersCmd(c),
		newContractsCmd(c),
		newDashboardCmd(c),
	)
	return root
}

func (c *cli) init() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logCfg := cfg.Log
	logCfg.Level = c.logLevel
	logCfg.Format = "console"
	logCfg.Output = "stderr"
	log, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	c.cfg, c.log = cfg, log
	return nil
}

// withApp builds the application, runs fn and closes it again. Events are
// delivered synchronously because the bus is never started.
func (c *cli) withApp(ctx context.Context, fn func(*app.App) error) error {
	a, err := app.New(c.cfg, c.log, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(ctx); err != nil {
			c.log.Warn("Error closing application", zap.Error(err))
		}
	}()
	return fn(a)
}
