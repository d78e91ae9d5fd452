// Package testutil holds helpers shared by unit and integration tests.
package testutil

import (
	"errors"
	"sync"
	"sync/atomic"

	dErrors "dhruva/pkg/domain-errors"
	"dhruva/pkg/platform/sentinel"
)

// ConcurrentResult tracks outcomes of racing operations.
type ConcurrentResult struct {
	Successes     int32
	Conflicts     int32
	InvalidStates int32
	NotFounds     int32
	Errors        int32
}

func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Conflicts + r.InvalidStates + r.NotFounds + r.Errors
}

// RunConcurrent starts all goroutines behind a barrier so they race for
// real, then buckets each outcome. Store sentinels and domain codes land in
// the same bucket, so the helper works at either layer.
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var (
		wg                                         sync.WaitGroup
		successes, conflicts, invalid, nf, generic atomic.Int32
	)
	start := make(chan struct{})

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-start
			err := fn(idx)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrConflict), dErrors.HasCode(err, dErrors.CodeConflict):
				conflicts.Add(1)
			case errors.Is(err, sentinel.ErrInvalidState), dErrors.HasCode(err, dErrors.CodeInvalidState):
				invalid.Add(1)
			case errors.Is(err, sentinel.ErrNotFound), dErrors.HasCode(err, dErrors.CodeNotFound):
				nf.Add(1)
			default:
				generic.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	return &ConcurrentResult{
		Successes:     successes.Load(),
		Conflicts:     conflicts.Load(),
		InvalidStates: invalid.Load(),
		NotFounds:     nf.Load(),
		Errors:        generic.Load(),
	}
}
