package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatch_ProcessesAllItems(t *testing.T) {
	var processed int64

	errs := Batch(context.Background(), []int{1, 2, 3, 4, 5}, 2, "counting", time.Second,
		func(ctx context.Context, n int) error {
			atomic.AddInt64(&processed, int64(n))
			return nil
		})

	assert.Empty(t, errs)
	assert.Equal(t, int64(15), atomic.LoadInt64(&processed))
}

func TestBatch_EmptyInput(t *testing.T) {
	errs := Batch(context.Background(), nil, 4, "noop", time.Second,
		func(ctx context.Context, n int) error { return nil })
	assert.Nil(t, errs)
}

func TestBatch_CollectsAllErrors(t *testing.T) {
	boom := errors.New("bad item")

	errs := Batch(context.Background(), []int{1, 2, 3, 4}, 2, "mixed", time.Second,
		func(ctx context.Context, n int) error {
			if n%2 == 0 {
				return boom
			}
			return nil
		})

	assert.Len(t, errs, 2)
}

func TestBatch_PanicRecovery(t *testing.T) {
	errs := Batch(context.Background(), []int{1, 2, 3}, 3, "panicky", time.Second,
		func(ctx context.Context, n int) error {
			if n == 2 {
				panic("frame decode exploded")
			}
			return nil
		})

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "panicky panicked")
}

func TestBatch_BoundsConcurrency(t *testing.T) {
	const workers = 3
	var (
		mu      sync.Mutex
		current int
		peak    int
	)

	items := make([]int, 20)
	errs := Batch(context.Background(), items, workers, "bounded", time.Second,
		func(ctx context.Context, _ int) error {
			mu.Lock()
			current++
			if current > peak {
				peak = current
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			current--
			mu.Unlock()
			return nil
		})

	assert.Empty(t, errs)
	assert.LessOrEqual(t, peak, workers)
	assert.Greater(t, peak, 0)
}

func TestBatch_CancelledContextStopsSubmitting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var processed int64
	errs := Batch(ctx, []int{1, 2, 3}, 2, "cancelled", time.Second,
		func(ctx context.Context, n int) error {
			atomic.AddInt64(&processed, 1)
			return nil
		})

	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "cancelled")
	assert.Zero(t, atomic.LoadInt64(&processed))
}

func TestBatch_PerItemTimeout(t *testing.T) {
	errs := Batch(context.Background(), []int{1}, 1, "slow", 10*time.Millisecond,
		func(ctx context.Context, n int) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
				return nil
			}
		})

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], context.DeadlineExceeded)
}
