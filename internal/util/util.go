// Package util holds small generic helpers shared by fossil components.
package util

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// WorkerCount returns n when positive, otherwise the number of CPUs.
func WorkerCount(n int) int {
	if n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// Parallel runs fn for every input with at most workers goroutines. fn gets
// the input's position so results can be stored in order. The first error
// cancels the context seen by the remaining calls and is returned.
func Parallel[T any](ctx context.Context, inputs []T, workers int, fn func(ctx context.Context, i int, in T) error) error {
	if len(inputs) == 0 {
		return ctx.Err()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(WorkerCount(workers))
	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i, in)
		})
	}
	return g.Wait()
}
