// Package fanout runs independent tasks concurrently and joins on all of
// them, reporting a value or error per task.
package fanout

import (
	"context"
	"fmt"
	"sync"
)

// Task is one unit of concurrent work.
type Task[T any] func(ctx context.Context) (T, error)

// Result is the outcome of one task. Exactly one of Value or Err is
// meaningful; Value holds the zero value when Err is set.
type Result[T any] struct {
	Value T
	Err   error
}

// Join starts every task in its own goroutine and waits for all of them.
// Results are returned in task order. A panicking task yields an error
// result instead of taking down the caller.
func Join[T any](ctx context.Context, tasks ...Task[T]) []Result[T] {
	results := make([]Result[T], len(tasks))
	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, task := range tasks {
		go func(i int, task Task[T]) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					var zero T
					results[i] = Result[T]{Value: zero, Err: fmt.Errorf("task panicked: %v", r)}
				}
			}()
			v, err := task(ctx)
			results[i] = Result[T]{Value: v, Err: err}
		}(i, task)
	}
	wg.Wait()
	return results
}

// ValueOr returns the result's value, or fallback when the task failed.
func (r Result[T]) ValueOr(fallback T) T {
	if r.Err != nil {
		return fallback
	}
	return r.Value
}
