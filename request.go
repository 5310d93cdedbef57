package budgetgrid

import (
	"context"
	"sync"
)

// RequestRunner runs table data requests so that only the latest one stays
// alive: starting a request cancels the context of the one still in flight.
type RequestRunner struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	seq    uint64
	wg     sync.WaitGroup
}

// Run starts fn on its own goroutine with a context derived from ctx and
// cancels the previous request. done, if not nil, receives fn's result unless
// the request was superseded before it finished.
func (r *RequestRunner) Run(ctx context.Context, fn func(ctx context.Context) error, done func(error)) {
	reqCtx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.cancel = cancel
	r.seq++
	seq := r.seq
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		err := fn(reqCtx)

		r.mu.Lock()
		latest := r.seq == seq
		if latest {
			r.cancel = nil
		}
		r.mu.Unlock()

		if latest && done != nil {
			done(err)
		}
	}()
}

// Cancel cancels the request in flight, if any. Its done callback is not called.
func (r *RequestRunner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// Wait blocks until every started request returned.
func (r *RequestRunner) Wait() {
	r.wg.Wait()
}
