package usecase

import (
	"context"
	"log/slog"
	"time"

	"WallabagEnhancer/internal/domain"
	"WallabagEnhancer/internal/ports"
	"WallabagEnhancer/internal/redact"
)

// Runner executes one pipeline pass.
type Runner interface {
	Run(ctx context.Context) (domain.Report, error)
}

// Scheduler wires the cron driver with the pipeline use case.
type Scheduler struct {
	driver ports.Scheduler
	runner Runner
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, runner Runner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{driver: driver, runner: runner, logger: logger}
}

// Start registers the pipeline with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.runner == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.logger.Info("scheduled run triggered", "at", trigger.Format(time.RFC3339))
		if _, err := s.runner.Run(ctx); err != nil {
			s.logger.Error("scheduled run failed", "error", redact.Error(err))
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
