package async

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"
)

// Batch runs fn over items with at most workers goroutines in flight.
// Each invocation gets a context bounded by timeout; a panic inside fn is
// captured as an error instead of crashing the process. The returned slice
// holds every failure, in no particular order; an empty slice means all
// items succeeded.
func Batch[T any](ctx context.Context, items []T, workers int, taskName string, timeout time.Duration,
	fn func(context.Context, T) error) []error {

	if len(items) == 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}

	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)
	sem := make(chan struct{}, workers)

	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for _, item := range items {
		if ctx.Err() != nil {
			record(fmt.Errorf("%s cancelled: %w", taskName, ctx.Err()))
			break
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(item T) {
			defer wg.Done()
			defer func() { <-sem }()

			taskCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			defer func() {
				if r := recover(); r != nil {
					log.Printf("panic in %s: %v\n%s", taskName, r, debug.Stack())
					record(fmt.Errorf("%s panicked: %v", taskName, r))
				}
			}()

			if err := fn(taskCtx, item); err != nil {
				record(err)
			}
		}(item)
	}

	wg.Wait()
	return errs
}
