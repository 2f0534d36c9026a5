package fanout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ctxKey struct{}

func TestRun_CollectsEveryOutcomeInInputOrder(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}

	results := Run(context.Background(), ids, func(_ context.Context, id string) error {
		if id == "c" {
			return errors.New("upstream returned 500")
		}
		return nil
	})

	require.Len(t, results, 4)
	for i, id := range ids {
		assert.Equal(t, id, results[i].OrderID)
	}
	assert.True(t, results[0].Success)
	assert.False(t, results[2].Success)
	assert.Equal(t, "upstream returned 500", results[2].Error)

	ok, failed := Count(results)
	assert.Equal(t, 3, ok)
	assert.Equal(t, 1, failed)
	assert.Equal(t, []string{"a", "b", "d"}, Succeeded(results))
	assert.Equal(t, []string{"c"}, Failed(results))
}

func TestRun_IssuesCallsConcurrently(t *testing.T) {
	var inFlight, peak int32
	release := make(chan struct{})
	ids := []string{"a", "b", "c"}

	done := make(chan []Result)
	go func() {
		done <- Run(context.Background(), ids, func(context.Context, string) error {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			<-release
			atomic.AddInt32(&inFlight, -1)
			return nil
		})
	}()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&inFlight) == 3 }, time.Second, time.Millisecond)
	close(release)

	results := <-done
	assert.Len(t, results, 3)
	assert.Equal(t, int32(3), atomic.LoadInt32(&peak))
}

func TestRun_IgnoresCancellationButKeepsValues(t *testing.T) {
	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey{}, "token"))
	cancel()

	results := Run(ctx, []string{"a"}, func(ctx context.Context, _ string) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if ctx.Value(ctxKey{}) != "token" {
			return errors.New("missing value")
		}
		return nil
	})

	assert.True(t, results[0].Success)
}

func TestRun_Empty(t *testing.T) {
	results := Run(context.Background(), nil, func(context.Context, string) error { return nil })
	assert.Empty(t, results)

	ok, failed := Count(results)
	assert.Zero(t, ok)
	assert.Zero(t, failed)
}

func TestCollect_KeepsValuesByPosition(t *testing.T) {
	values, results := Collect(context.Background(), []string{"x", "boom", "yy"}, func(_ context.Context, id string) (int, error) {
		if id == "boom" {
			return 99, errors.New("failed")
		}
		return len(id), nil
	})

	assert.Equal(t, []int{1, 0, 2}, values)
	assert.Equal(t, []string{"boom"}, Failed(results))
}
