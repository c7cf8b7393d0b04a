// Package parallel provides the worker pool used to transform independent
// groups of a dataset concurrently.
//
// Work items are fanned out to a fixed number of goroutines and fanned back
// in by index, so results always come back in input order regardless of
// scheduling. Groups are only dispatched to the pool once their count reaches
// the configured threshold; smaller workloads run inline.
package parallel

import (
	"context"
	"runtime"
	"sync"
)

// WorkerPool manages a pool of goroutines for parallel processing
type WorkerPool struct {
	numWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(numWorkers int) *WorkerPool {
	return NewWorkerPoolContext(context.Background(), numWorkers)
}

// NewWorkerPoolContext creates a worker pool that stops picking up work once
// ctx is done.
func NewWorkerPoolContext(ctx context.Context, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers: numWorkers,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Workers returns the number of goroutines the pool runs
func (wp *WorkerPool) Workers() int {
	return wp.numWorkers
}

// ShouldParallelize reports whether n work items reach threshold
func ShouldParallelize(n, threshold int) bool {
	return threshold > 0 && n >= threshold && n > 1
}

// ProcessIndexed executes work items in parallel while preserving order
func ProcessIndexed[T, R any](
	wp *WorkerPool,
	items []T,
	worker func(int, T) R,
) []R {
	results, _ := ProcessIndexedErr(wp, items, func(i int, item T) (R, error) {
		return worker(i, item), nil
	})
	return results
}

// ProcessIndexedErr executes fallible work items in parallel while preserving
// order. After the first failure no new items are started; the error returned
// is the one with the lowest index among the items that ran.
func ProcessIndexedErr[T, R any](
	wp *WorkerPool,
	items []T,
	worker func(int, T) (R, error),
) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(wp.ctx)
	defer cancel()

	itemCh := make(chan indexedItem[T], len(items))
	resultCh := make(chan indexedResult[R], len(items))

	numWorkers := wp.numWorkers
	if numWorkers > len(items) {
		numWorkers = len(items)
	}

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemCh {
				select {
				case <-ctx.Done():
					return
				default:
					result, err := worker(item.index, item.value)
					if err != nil {
						cancel()
					}
					resultCh <- indexedResult[R]{
						index:  item.index,
						result: result,
						err:    err,
					}
				}
			}
		}()
	}

	go func() {
		defer close(itemCh)
		for i, item := range items {
			select {
			case <-ctx.Done():
				return
			case itemCh <- indexedItem[T]{index: i, value: item}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]R, len(items))
	done := make([]bool, len(items))
	firstErr, errIndex := error(nil), len(items)
	for result := range resultCh {
		results[result.index] = result.result
		done[result.index] = true
		if result.err != nil && result.index < errIndex {
			firstErr, errIndex = result.err, result.index
		}
	}

	if firstErr != nil {
		return results, firstErr
	}
	for _, ok := range done {
		if !ok {
			// cancelled from outside before every item ran
			return results, wp.ctx.Err()
		}
	}
	return results, nil
}

// Close shuts down the worker pool
func (wp *WorkerPool) Close() {
	wp.cancel()
}

// indexedItem holds an item with its index
type indexedItem[T any] struct {
	index int
	value T
}

// indexedResult holds a result with its index
type indexedResult[R any] struct {
	index  int
	result R
	err    error
}
