package feed

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultLookahead is how far ahead of the viewport end the sentinel may be
// and still start a prefetch.
const DefaultLookahead = 400

// Viewport describes the visible window of a rendered list in one unit of
// length, pixels for a browser or rows for a terminal.
type Viewport struct {
	// End is the offset of the bottom edge of the visible window.
	End int
	// Sentinel is the offset of the marker placed after the last item.
	Sentinel int
}

func (v Viewport) near(lookahead int) bool {
	return v.Sentinel-v.End <= lookahead
}

// TriggerOptions configures a Trigger.
type TriggerOptions struct {
	// Lookahead defaults to DefaultLookahead when zero.
	Lookahead int
	// OnPage receives the result of every load the trigger starts, except
	// loads whose result was discarded by Close.
	OnPage func(Page, error)
}

// Trigger starts page loads when the sentinel comes near the viewport. At
// most one load is in flight at a time.
type Trigger struct {
	loader *Loader
	opts   TriggerOptions

	inFlight atomic.Bool

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// NewTrigger creates a trigger for loader. Notify does nothing until Observe
// is called.
func NewTrigger(loader *Loader, opts TriggerOptions) *Trigger {
	if opts.Lookahead == 0 {
		opts.Lookahead = DefaultLookahead
	}
	return &Trigger{loader: loader, opts: opts}
}

// Observe subscribes the trigger. Loads it starts run under a context
// derived from ctx; cancelling ctx has the same effect as Close.
func (t *Trigger) Observe(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.ctx != nil {
		return
	}
	t.ctx, t.cancel = context.WithCancel(ctx)
}

// Notify reports a viewport change. It starts one load and returns true when
// the sentinel is within the lookahead, the feed may have more, and no load
// is already in flight.
func (t *Trigger) Notify(v Viewport) bool {
	if !v.near(t.opts.Lookahead) {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.ctx == nil || t.ctx.Err() != nil {
		return false
	}
	if !t.loader.HasMore() {
		return false
	}
	if !t.inFlight.CompareAndSwap(false, true) {
		return false
	}

	ctx := t.ctx
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer t.inFlight.Store(false)

		page, err := t.loader.LoadNextPage(ctx)
		if ctx.Err() != nil {
			return
		}
		if t.opts.OnPage != nil {
			t.opts.OnPage(page, err)
		}
	}()
	return true
}

// InFlight reports whether a load is running.
func (t *Trigger) InFlight() bool {
	return t.inFlight.Load()
}

// Wait blocks until any in-flight load has finished and its callback has
// returned.
func (t *Trigger) Wait() {
	t.wg.Wait()
}

// Close unsubscribes the trigger, cancels any in-flight load and waits for
// it to return. Its result is discarded.
func (t *Trigger) Close() {
	t.mu.Lock()
	t.closed = true
	if t.cancel != nil {
		t.cancel()
	}
	t.mu.Unlock()
	t.wg.Wait()
}
