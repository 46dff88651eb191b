package worker

import (
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Options tunes ProcessAll; zero values fall back to one worker and a
// five minute item timeout.
type Options struct {
	Workers int

	// RateLimitRPS is a global limit across all workers. Set to <=0 to disable.
	RateLimitRPS float64

	// ItemTimeout bounds a single item once it has started.
	ItemTimeout time.Duration
}

// Result holds the output for one input item.
type Result[In any, Out any] struct {
	Index  int
	Input  In
	Output Out
	Err    error
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.ItemTimeout <= 0 {
		o.ItemTimeout = 5 * time.Minute
	}
	return o
}

// ProcessAll runs processor over items with at most opts.Workers in flight.
//
// A failing item never stops the others; its error is kept in its Result.
// Cancelling ctx stops new items from starting, while items already started
// run to completion under their own ItemTimeout. Results are returned in input
// order and only for items that ran; if some items never started because ctx
// was cancelled, ctx.Err() is returned alongside the partial results.
func ProcessAll[In any, Out any](
	ctx context.Context,
	items []In,
	processor func(context.Context, In) (Out, error),
	opts Options,
) ([]Result[In, Out], error) {
	opts = opts.withDefaults()

	var limiter *rate.Limiter
	if opts.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), 1)
	}

	type job struct {
		idx int
		in  In
	}

	jobs := make(chan job)
	done := make(chan Result[In, Out], opts.Workers)

	var wg sync.WaitGroup
	workerFn := func() {
		defer wg.Done()
		for j := range jobs {
			if ctx.Err() != nil {
				continue
			}
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					continue
				}
			}
			done <- runOne(ctx, j.idx, j.in, processor, opts.ItemTimeout)
		}
	}

	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go workerFn()
	}

	go func() {
		defer close(jobs)
		for i, item := range items {
			if ctx.Err() != nil {
				return
			}
			select {
			case jobs <- job{idx: i, in: item}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	out := make([]Result[In, Out], 0, len(items))
	for res := range done {
		out = append(out, res)
	}
	slices.SortFunc(out, func(a, b Result[In, Out]) int { return a.Index - b.Index })

	if len(out) < len(items) {
		if err := ctx.Err(); err != nil {
			return out, err
		}
	}
	return out, nil
}

func runOne[In any, Out any](
	ctx context.Context,
	idx int,
	item In,
	processor func(context.Context, In) (Out, error),
	timeout time.Duration,
) Result[In, Out] {
	itemCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	res, err := processor(itemCtx, item)
	return Result[In, Out]{
		Index:  idx,
		Input:  item,
		Output: res,
		Err:    err,
	}
}
