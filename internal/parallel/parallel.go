// Package parallel runs indexed work items on a bounded number of goroutines.
package parallel

import (
	"context"
	"sync"
)

// ForEach calls fn for every index in [0, n) using at most workers goroutines.
// Callers write results into index-addressed slots, so output order matches
// input order regardless of completion order. Indices not yet started when ctx
// is cancelled are skipped and ctx.Err() is returned.
func ForEach(ctx context.Context, n, workers int, fn func(ctx context.Context, i int)) error {
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(ctx, i)
		}
		return nil
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				fn(ctx, i)
			}
		}()
	}

	var err error
feed:
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case indices <- i:
		}
	}
	close(indices)
	wg.Wait()
	return err
}
