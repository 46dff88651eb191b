package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"time"
)

// Policy bounds one external call: a timeout per attempt and a limited number
// of extra attempts for transient failures.
type Policy struct {
	MaxRetries int
	Timeout    time.Duration

	// BackoffInitial is the sleep before the first retry.
	BackoffInitial time.Duration
	// BackoffMax caps exponential backoff.
	BackoffMax time.Duration
	// JitterFrac applies +/- jitter to backoff sleeps (0.2 = +/-20%).
	JitterFrac float64
}

// DefaultPolicy is used when callers leave fields empty.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:     2,
		Timeout:        30 * time.Second,
		BackoffInitial: 200 * time.Millisecond,
		BackoffMax:     2 * time.Second,
		JitterFrac:     0.2,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.Timeout <= 0 {
		p.Timeout = d.Timeout
	}
	if p.BackoffInitial <= 0 {
		p.BackoffInitial = d.BackoffInitial
	}
	if p.BackoffMax <= 0 {
		p.BackoffMax = d.BackoffMax
	}
	if p.JitterFrac < 0 {
		p.JitterFrac = 0
	}
	return p
}

// TransientError marks an error as retryable.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Transient wraps err so that Do retries it. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is worth another attempt.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}

// Do runs fn under the policy.
func Do(ctx context.Context, p Policy, fn func(context.Context) error) error {
	_, err := DoValue(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoValue runs fn under the policy and returns its last result.
func DoValue[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	var last T
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return last, err
		}

		callCtx, cancel := context.WithTimeout(ctx, p.Timeout)
		out, err := fn(callCtx)
		cancel()
		last = out
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return last, err
		}
		if !IsTransient(err) || attempt >= p.MaxRetries {
			return last, err
		}

		t := time.NewTimer(Backoff(p.BackoffInitial, p.BackoffMax, p.JitterFrac, attempt))
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return last, ctx.Err()
		}
	}
}

// Backoff returns the sleep before retry number attempt (zero based).
func Backoff(initial, max time.Duration, jitterFrac float64, attempt int) time.Duration {
	sleep := initial
	for i := 0; i < attempt && sleep < max; i++ {
		sleep *= 2
		if sleep > max {
			sleep = max
			break
		}
	}
	if jitterFrac <= 0 {
		return sleep
	}
	j := 1 + (rand.Float64()*2-1)*jitterFrac
	return time.Duration(float64(sleep) * j)
}
