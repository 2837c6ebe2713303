package enrich

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sourcegraph/conc/pool"
)

// DefaultConcurrency is the number of scoring calls kept in flight.
const DefaultConcurrency = 5

// Many calls fn for every item with at most concurrency calls in flight and
// returns results aligned with items. A call that fails, panics or starts
// after ctx is done yields fallback(item, err) for that item only, so every
// item always has a result.
func Many[T, R any](ctx context.Context, items []T, concurrency int,
	fn func(context.Context, T) (R, error), fallback func(T, error) R,
) []R {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	out := make([]R, len(items))
	p := pool.New().WithContext(ctx).WithMaxGoroutines(concurrency)
	for i, item := range items {
		p.Go(func(ctx context.Context) error {
			out[i] = isolate(ctx, item, fn, fallback)
			return nil
		})
	}
	// Tasks never return errors; Wait only joins.
	_ = p.Wait()
	return out
}

func isolate[T, R any](ctx context.Context, item T,
	fn func(context.Context, T) (R, error), fallback func(T, error) R,
) (res R) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("enrichment call panicked", "component", "enrich", "panic", r)
			res = fallback(item, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := ctx.Err(); err != nil {
		return fallback(item, err)
	}
	r, err := fn(ctx, item)
	if err != nil {
		return fallback(item, err)
	}
	return r
}
