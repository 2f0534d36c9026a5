// Package fanout issues one independent call per order and collects every outcome.
package fanout

import (
	"context"
	"sync"
)

// Result is the outcome of the call made for one order.
type Result struct {
	OrderID string `json:"orderId"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Run calls fn for every id concurrently and waits for all of them. Results keep
// the order of ids. A failure never stops the other calls, and cancelling ctx
// does not abort calls that already started; its values are still visible to fn.
func Run(ctx context.Context, ids []string, fn func(ctx context.Context, id string) error) []Result {
	_, results := Collect(ctx, ids, func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, fn(ctx, id)
	})
	return results
}

// Collect is Run for calls that produce a value. values[i] is the zero value
// when results[i] failed.
func Collect[T any](ctx context.Context, ids []string, fn func(ctx context.Context, id string) (T, error)) ([]T, []Result) {
	values := make([]T, len(ids))
	results := make([]Result, len(ids))
	detached := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := fn(detached, id)
			if err != nil {
				results[i] = Result{OrderID: id, Error: err.Error()}
				return
			}
			values[i] = v
			results[i] = Result{OrderID: id, Success: true}
		}()
	}
	wg.Wait()

	return values, results
}

// Count returns the number of successful and failed results.
func Count(results []Result) (succeeded, failed int) {
	for _, r := range results {
		if r.Success {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

func Succeeded(results []Result) []string {
	return filter(results, true)
}

func Failed(results []Result) []string {
	return filter(results, false)
}

func filter(results []Result, success bool) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		if r.Success == success {
			ids = append(ids, r.OrderID)
		}
	}
	return ids
}
