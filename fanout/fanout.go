// Package fanout provides a single fan-out/join primitive shared by every
// concurrent call site in the pipeline. Both failure-isolation policies are
// expressed as strategies over the same loop rather than duplicated fan-out
// code.
package fanout

import (
	"context"
	"sync"
)

// Strategy selects how item-level errors are handled.
type Strategy int

const (
	// FailFast cancels the remaining work on the first error and returns
	// that error from Map. Completed results are still returned.
	FailFast Strategy = iota
	// CollectAll lets every item run to completion or failure; errors are
	// captured per result and Map itself never fails.
	CollectAll
)

// Result holds the outcome for one input item. Index matches the input
// position regardless of completion order.
type Result[R any] struct {
	Index int
	Value R
	Err   error
}

// Map runs fn over every item with at most limit workers and waits for the
// whole group. Results are returned in input order.
func Map[T, R any](ctx context.Context, items []T, limit int, strategy Strategy, fn func(ctx context.Context, index int, item T) (R, error)) ([]Result[R], error) {
	if limit <= 0 {
		limit = len(items)
	}

	groupCtx := ctx
	var cancel context.CancelFunc
	if strategy == FailFast {
		groupCtx, cancel = context.WithCancel(ctx)
		defer cancel()
	}

	results := make([]Result[R], len(items))
	sem := make(chan struct{}, limit)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	for i := range items {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if strategy == FailFast && groupCtx.Err() != nil {
				// A skipped item still fails the group: without this, a
				// parent context cancelled before any fn ran would make Map
				// return zero-valued results with a nil error.
				err := groupCtx.Err()
				results[idx] = Result[R]{Index: idx, Err: err}
				errOnce.Do(func() {
					firstErr = err
					cancel()
				})
				return
			}

			value, err := fn(groupCtx, idx, items[idx])
			results[idx] = Result[R]{Index: idx, Value: value, Err: err}
			if err != nil && strategy == FailFast {
				errOnce.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}(i)
	}

	wg.Wait()

	if strategy == FailFast && firstErr != nil {
		return results, firstErr
	}
	return results, nil
}
