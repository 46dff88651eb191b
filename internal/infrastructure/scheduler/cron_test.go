package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewCronSchedulerRejectsBadSpec(t *testing.T) {
	t.Parallel()

	if _, err := NewCronScheduler("every day", nil, nil); err == nil {
		t.Fatalf("expected error for invalid expression")
	}
}

func TestCronSchedulerStartStop(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("UTC")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	s, err := NewCronScheduler("*/5 * * * *", loc, nil)
	if err != nil {
		t.Fatalf("NewCronScheduler error: %v", err)
	}

	if !s.Next().IsZero() {
		t.Fatalf("Next must be zero before Start")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx, func(time.Time) {}); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	next := s.Next()
	if next.IsZero() || next.Minute()%5 != 0 || time.Until(next) > 5*time.Minute {
		t.Fatalf("unexpected next trigger %v", next)
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("second Stop must be a no-op: %v", err)
	}
}

func TestCronSchedulerNilJob(t *testing.T) {
	t.Parallel()

	s, err := NewCronScheduler("0 6 * * *", nil, nil)
	if err != nil {
		t.Fatalf("NewCronScheduler error: %v", err)
	}
	if err := s.Start(context.Background(), nil); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if !s.Next().IsZero() {
		t.Fatalf("nil job must not start the scheduler")
	}
}

func TestCronSchedulerStopWaitsForRunningJobAfterCancel(t *testing.T) {
	t.Parallel()

	s, err := NewCronScheduler("@every 1s", nil, nil)
	if err != nil {
		t.Fatalf("NewCronScheduler error: %v", err)
	}

	started := make(chan struct{}, 1)
	var finished atomic.Bool
	job := func(time.Time) {
		select {
		case started <- struct{}{}:
		default:
		}
		time.Sleep(1500 * time.Millisecond)
		finished.Store(true)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx, job); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatalf("job never started")
	}

	// Cancelling ctx stops the cron from its own goroutine first.
	cancel()
	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	if !finished.Load() {
		t.Fatalf("Stop returned while the job was still running")
	}
}
