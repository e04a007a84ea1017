package sim

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Executor maps fn over the task indices [0, n). It returns the first
// error; remaining tasks may be skipped once one fails.
type Executor interface {
	Map(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error
}

// Sequential runs tasks one after another in index order.
type Sequential struct{}

func (Sequential) Map(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

// Parallel runs up to Workers tasks at once. Zero means GOMAXPROCS.
type Parallel struct {
	Workers int
}

func (p Parallel) Map(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// NewExecutor returns Parallel{workers} when parallel is set and
// Sequential otherwise.
func NewExecutor(parallel bool, workers int) Executor {
	if parallel {
		return Parallel{Workers: workers}
	}
	return Sequential{}
}
