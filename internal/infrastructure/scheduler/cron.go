package scheduler

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"WallabagEnhancer/internal/ports"
)

// CronScheduler runs a job on a standard five-field cron expression.
// Overlapping triggers are skipped while a previous run is still going.
type CronScheduler struct {
	spec     string
	location *time.Location
	logger   *log.Logger

	mu   sync.Mutex
	cron *cron.Cron
	// stopped is done once the last stopped cron has no job running.
	stopped context.Context
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler validates spec and binds it to a timezone.
func NewCronScheduler(spec string, location *time.Location, logger *log.Logger) (*CronScheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", spec, err)
	}
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &CronScheduler{spec: spec, location: location, logger: logger}, nil
}

// Start registers job and begins ticking until Stop or ctx cancellation.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	cl := cron.PrintfLogger(c.logger)
	cr := cron.New(
		cron.WithLocation(c.location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := cr.AddFunc(c.spec, func() { job(time.Now().In(c.location)) }); err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}
	cr.Start()
	c.cron = cr
	c.stopped = nil

	go func() {
		<-ctx.Done()
		_ = c.Stop(context.Background())
	}()

	return nil
}

// Next reports the next trigger time, or zero if not started.
func (c *CronScheduler) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron == nil {
		return time.Time{}
	}
	entries := c.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop halts the scheduler and waits for a running job to finish. Every
// caller waits, including those arriving after the cron was already stopped.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.cron != nil {
		c.stopped = c.cron.Stop()
		c.cron = nil
	}
	done := c.stopped
	c.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
