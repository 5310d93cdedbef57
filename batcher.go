package budgetgrid

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Handler receives consolidated change events, typically to send them to the backend.
type Handler interface {
	HandleChangeEvent(ctx context.Context, d Dispatch) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, d Dispatch) error

// HandleChangeEvent implements Handler.
func (f HandlerFunc) HandleChangeEvent(ctx context.Context, d Dispatch) error {
	return f(ctx, d)
}

// EventBatcher coalesces bursts of table change events before they reach the
// handler. One batcher serves one table. Run consumes submitted actions in
// arrival order on a single goroutine; every dispatch is handed to the handler
// on its own goroutine so slow requests do not hold back the queue.
//
// A dataChange waits for the data change window and a rowAdd with row data for
// the row add window; whatever arrived meanwhile is drained and consolidated
// together with it. Any other event is dispatched right away.
type EventBatcher struct {
	opts    *Options
	handler Handler
	log     *zap.Logger

	mu      sync.Mutex
	queue   []Action
	notify  chan struct{}
	closing chan struct{}
	closed  bool
	running bool
	done    chan struct{}

	dispatches errgroup.Group
}

// NewEventBatcher creates a batcher delivering to handler.
func NewEventBatcher(handler Handler, opts ...Option) *EventBatcher {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	log := o.logger
	if log == nil {
		log = Logger()
	}
	b := &EventBatcher{
		opts:    o,
		handler: handler,
		log:     log.Named("batcher"),
		notify:  make(chan struct{}, 1),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	if o.maxInFlight > 0 {
		b.dispatches.SetLimit(o.maxInFlight)
	}
	return b
}

// Submit queues an action. It never blocks.
func (b *EventBatcher) Submit(a Action) error {
	a = a.withKey()
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBatcherClosed
	}
	b.queue = append(b.queue, a)
	b.mu.Unlock()

	b.opts.metrics.submitted(a.Event.Type())
	select {
	case b.notify <- struct{}{}:
	default:
	}
	return nil
}

// SubmitEvent queues e with ctx and no callbacks.
func (b *EventBatcher) SubmitEvent(e ChangeEvent, ctx any) error {
	return b.Submit(NewAction(e, ctx))
}

// Undo queues an undo request.
func (b *EventBatcher) Undo() error {
	return b.SubmitEvent(ChangeEvent{Payload: Reverse{}}, nil)
}

// Redo queues a redo request.
func (b *EventBatcher) Redo() error {
	return b.SubmitEvent(ChangeEvent{Payload: Forward{}}, nil)
}

// Pending returns the number of queued actions not yet picked up.
func (b *EventBatcher) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Run processes actions until ctx is done or Close is called. On Close the
// remaining queue is flushed without waiting; on cancellation queued actions
// fail with the context error. Run waits for in-flight dispatches before it
// returns. Handler failures are reported to the actions, not returned.
func (b *EventBatcher) Run(ctx context.Context) error {
	b.mu.Lock()
	if b.running || b.closed {
		b.mu.Unlock()
		return ErrBatcherClosed
	}
	b.running = true
	b.mu.Unlock()
	defer close(b.done)

	for {
		first, ok := b.next(ctx)
		if !ok {
			break
		}
		b.handle(ctx, first)
	}

	if err := ctx.Err(); err != nil {
		for _, a := range b.drain() {
			single(a).complete(err)
		}
		b.dispatches.Wait()
		return err
	}
	b.flush(ctx, b.drain())
	return b.dispatches.Wait()
}

// Close stops accepting actions, flushes what is queued without waiting for
// the debounce windows and waits for Run and all in-flight dispatches to
// finish. Without a running Run the queue is flushed on the calling goroutine.
func (b *EventBatcher) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	running := b.running
	close(b.closing)
	b.mu.Unlock()

	if running {
		<-b.done
		return nil
	}
	b.flush(context.Background(), b.drain())
	return b.dispatches.Wait()
}

// next blocks until an action is queued. It returns false once the batcher is
// closing or ctx is done.
func (b *EventBatcher) next(ctx context.Context) (Action, bool) {
	for {
		b.mu.Lock()
		if b.closed {
			b.mu.Unlock()
			return Action{}, false
		}
		if len(b.queue) > 0 {
			a := b.queue[0]
			b.queue = b.queue[1:]
			b.mu.Unlock()
			return a, true
		}
		b.mu.Unlock()

		select {
		case <-b.notify:
		case <-b.closing:
			return Action{}, false
		case <-ctx.Done():
			return Action{}, false
		}
	}
}

// drain removes and returns everything queued.
func (b *EventBatcher) drain() []Action {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.queue
	b.queue = nil
	return out
}

// handle processes one action picked from the queue together with whatever
// queues up during its debounce window.
func (b *EventBatcher) handle(ctx context.Context, first Action) {
	if first.Event.Type().IsMeta() {
		resolved, ok := b.resolve(first.Event)
		if !ok {
			return
		}
		first.Event = resolved
	}

	var window time.Duration
	switch p := first.Event.Payload.(type) {
	case DataChange:
		window = b.opts.dataChangeWindow
	case RowAdd:
		if p.HasData() {
			window = b.opts.rowAddWindow
		}
	}

	if window <= 0 {
		b.flush(ctx, []Action{first})
		return
	}
	if err := b.wait(ctx, window); err != nil {
		single(first).complete(err)
		return
	}
	b.flush(ctx, append([]Action{first}, b.drain()...))
}

// wait sleeps for d. Closing the batcher cuts the wait short so queued
// actions are flushed promptly.
func (b *EventBatcher) wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-b.closing:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// flush consolidates actions and forks one dispatch per batch.
func (b *EventBatcher) flush(ctx context.Context, actions []Action) {
	if len(actions) == 0 {
		return
	}
	flushEvents(actions, b.resolve, func(d Dispatch) {
		b.fork(ctx, d)
	})
}

// resolve looks up the event replayed by an undo or redo request.
func (b *EventBatcher) resolve(meta ChangeEvent) (ChangeEvent, bool) {
	view := b.opts.historyView
	if view == nil {
		b.log.Debug("dropping undo/redo request without history", zap.String("type", string(meta.Type())))
		return ChangeEvent{}, false
	}
	var (
		e  ChangeEvent
		ok bool
	)
	switch meta.Type() {
	case EventReverse:
		e, ok = GetUndoEvent(view)
	case EventForward:
		e, ok = GetRedoEvent(view)
	}
	if !ok {
		b.log.Debug("nothing to replay", zap.String("type", string(meta.Type())))
	}
	return e, ok
}

// fork hands d to the handler on its own goroutine.
func (b *EventBatcher) fork(ctx context.Context, d Dispatch) {
	log := b.log.With(
		zap.String("dispatch", d.ID),
		zap.String("type", string(d.Type())),
		zap.Int("actions", len(d.Actions)),
	)
	if err := d.Err(); err != nil {
		log.Error("dropping batch that could not be consolidated", zap.Error(err))
		b.opts.metrics.failed(d.Type())
		d.complete(err)
		return
	}
	b.opts.metrics.dispatched(d)
	log.Debug("dispatching change event")

	b.dispatches.Go(func() error {
		err := b.handler.HandleChangeEvent(ctx, d)
		if err != nil {
			log.Warn("change handler failed", zap.Error(err))
			b.opts.metrics.failed(d.Type())
		} else if b.opts.history != nil {
			b.opts.history.Record(d.Event)
		}
		d.complete(err)
		return nil
	})
}
