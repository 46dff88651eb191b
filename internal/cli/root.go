package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"WallabagEnhancer/internal/app"
	"WallabagEnhancer/internal/config"
	"WallabagEnhancer/internal/logging"
)

// Execute runs the root command until it finishes or the process is
// interrupted. SIGINT and SIGTERM cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	workers    int
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:          "wallabag-enhancer",
		Short:        "Enrich unprocessed wallabag entries and tag them as processed",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd, flags, "pretty")
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Settings YAML path (defaults to $WALLABAG_ENHANCER_CONFIG)")
	cmd.PersistentFlags().IntVar(&flags.workers, "workers", 0, "Articles processed concurrently (overrides config)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug|info|warn|error (overrides config)")

	cmd.AddCommand(runCmd(flags), scheduleCmd(flags))
	return cmd
}

// loadApplication resolves configuration with flags applied last.
func loadApplication(flags *globalFlags, cron string) (*app.Application, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	applyFlags(&cfg, flags, cron)

	return app.New(cfg, logging.New(cfg.Logging.Level, cfg.Logging.Format))
}

func applyFlags(cfg *config.Config, flags *globalFlags, cron string) {
	if flags.workers > 0 {
		cfg.Pipeline.Workers = flags.workers
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if cron != "" {
		cfg.Scheduler.CronExpression = cron
	}
}
