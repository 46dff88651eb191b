package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"WallabagEnhancer/internal/config"
	"WallabagEnhancer/internal/domain"
	"WallabagEnhancer/internal/enhancer"
	"WallabagEnhancer/internal/infrastructure/enhancers"
	"WallabagEnhancer/internal/infrastructure/httpfetch"
	"WallabagEnhancer/internal/infrastructure/scheduler"
	"WallabagEnhancer/internal/infrastructure/telegram"
	"WallabagEnhancer/internal/infrastructure/wallabag"
	"WallabagEnhancer/internal/logging"
	"WallabagEnhancer/internal/ports"
	"WallabagEnhancer/internal/retry"
	"WallabagEnhancer/internal/usecase"
	"WallabagEnhancer/internal/worker"
	"WallabagEnhancer/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	fetcher  *httpfetch.Fetcher
	pipeline *usecase.Pipeline
}

// New builds the enhancer registry and every adapter the pipeline needs.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	registry := NewRegistry(cfg)
	selected, err := registry.Select(cfg.Enhancers)
	if err != nil {
		return nil, fmt.Errorf("select enhancers: %w", err)
	}

	fetcher := httpfetch.New(
		&http.Client{Timeout: cfg.Fetch.Timeout},
		cfg.Fetch.UserAgent,
		retry.Policy{
			MaxRetries:     cfg.Fetch.MaxRetries,
			Timeout:        cfg.Fetch.Timeout,
			BackoffInitial: cfg.Fetch.BackoffInitial,
			BackoffMax:     cfg.Fetch.BackoffMax,
			JitterFrac:     0.2,
		},
	)

	service := wallabag.NewService(wallabag.Config{
		Host:         cfg.Credentials.Host,
		ClientID:     cfg.Credentials.ClientID,
		ClientSecret: cfg.Credentials.ClientSecret,
		Username:     cfg.Credentials.Username,
		Password:     cfg.Credentials.Password,
		PerPage:      cfg.Wallabag.PerPage,
		Policy: retry.Policy{
			MaxRetries:     cfg.Wallabag.MaxRetries,
			Timeout:        cfg.Wallabag.RequestTimeout,
			BackoffInitial: cfg.Wallabag.BackoffInitial,
			BackoffMax:     cfg.Wallabag.BackoffMax,
			JitterFrac:     0.2,
		},
	}, &http.Client{}, baseLogger.With("component", "wallabag"))

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		tg := cfg.Notifications.Telegram
		n, err := telegram.NewNotifier(tg.BotToken, tg.ChatID, nil, logger.New("telegram", baseLogger, slog.LevelDebug))
		if err != nil {
			baseLogger.Warn("telegram notifications disabled", "error", err)
		} else {
			notifier = n
		}
	}

	names := make([]string, 0, len(selected))
	for _, e := range selected {
		names = append(names, e.Name())
	}
	baseLogger.Debug("application wired", "enhancers", names, "workers", cfg.Pipeline.Workers, "notifier", notifier != nil)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Service:   service,
		Enhancers: selected,
		Fetcher:   fetcher,
		Notifier:  notifier,
		Logger:    baseLogger.With("component", "pipeline"),
		Worker: worker.Options{
			Workers:      cfg.Pipeline.Workers,
			RateLimitRPS: cfg.Pipeline.RateLimitRPS,
			ItemTimeout:  cfg.Pipeline.ArticleTimeout,
		},
	})

	return &Application{cfg: cfg, logger: baseLogger, fetcher: fetcher, pipeline: pipeline}, nil
}

// NewRegistry returns every enhancer the binary ships with, in evaluation order.
func NewRegistry(cfg config.Config) *enhancer.Registry {
	return enhancer.NewRegistry(
		enhancers.NewYouTubeEnhancer(),
		enhancers.NewReadabilityEnhancer(cfg.Fetch.MaxContentLength),
	)
}

// Run performs a single pipeline execution.
func (a *Application) Run(ctx context.Context) (domain.Report, error) {
	defer a.fetcher.CloseIdleConnections()
	return a.pipeline.Run(ctx)
}

// Schedule triggers Run on the configured cron expression until ctx is done.
// With runNow set, one run happens before the first tick.
func (a *Application) Schedule(ctx context.Context, runNow bool) error {
	loc := a.cfg.Scheduler.Location()
	driver, err := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, loc, logger.New("cron", a.logger, slog.LevelInfo))
	if err != nil {
		return err
	}

	sched := usecase.NewScheduler(driver, runnerFunc(a.Run), a.logger.With("component", "scheduler"))

	if runNow {
		if _, err := a.Run(ctx); err != nil {
			a.logger.Error("initial run failed", "error", err)
		}
	}
	if ctx.Err() != nil {
		return nil
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started",
		"cron", a.cfg.Scheduler.CronExpression,
		"timezone", loc.String(),
		"next", driver.Next().Format(time.RFC3339),
	)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	a.logger.Info("scheduler stopped")
	return nil
}

type runnerFunc func(ctx context.Context) (domain.Report, error)

func (f runnerFunc) Run(ctx context.Context) (domain.Report, error) {
	return f(ctx)
}
