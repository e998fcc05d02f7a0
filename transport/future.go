package transport

import (
	"context"
	"sync"
)

// Future is the deferred result of an asynchronous chain pass. It completes
// exactly once, with either a Response or an error. Completion callbacks run
// on the future's executor, never on the completing goroutine's critical path.
type Future struct {
	mu          sync.Mutex
	done        chan struct{}
	resp        *Response
	err         error
	completed   bool
	cancelled   bool
	callbacks   []func(*Response, error)
	cancelHooks []func()
	exec        Executor
}

// NewFuture creates an incomplete future whose callbacks run on exec
// (DefaultExecutor when nil).
func NewFuture(exec Executor) *Future {
	if exec == nil {
		exec = DefaultExecutor()
	}
	return &Future{done: make(chan struct{}), exec: exec}
}

// Complete resolves the future. The first call wins; later calls report false.
func (f *Future) Complete(resp *Response, err error) bool {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return false
	}
	f.completed = true
	f.resp = resp
	f.err = err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		f.dispatch(cb, resp, err)
	}
	return true
}

// Cancel resolves the future with a cancellation error and runs registered
// cancellation hooks so already-scheduled chain steps are stopped before they
// run. In-flight network I/O is not forcibly aborted. Reports whether this
// call performed the cancellation.
func (f *Future) Cancel() bool {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return false
	}
	f.completed = true
	f.cancelled = true
	f.err = NewCancelledError("request cancelled", nil)
	callbacks := f.callbacks
	hooks := f.cancelHooks
	f.callbacks = nil
	f.cancelHooks = nil
	close(f.done)
	f.mu.Unlock()

	for _, h := range hooks {
		h()
	}
	for _, cb := range callbacks {
		f.dispatch(cb, nil, f.err)
	}
	return true
}

// Cancelled reports whether the future was resolved by Cancel.
func (f *Future) Cancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

// Done returns a channel closed on completion.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until the future completes or ctx is done.
func (f *Future) Wait(ctx context.Context) (*Response, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.resp, f.err
	case <-ctx.Done():
		return nil, NewCancelledError("wait aborted", ctx.Err())
	}
}

// TryResult returns the result without blocking; ok is false while pending.
func (f *Future) TryResult() (resp *Response, err error, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.completed {
		return nil, nil, false
	}
	return f.resp, f.err, true
}

// OnComplete registers a continuation invoked with the result. If the future
// is already complete the continuation is dispatched immediately. Callbacks
// run on the future's executor.
func (f *Future) OnComplete(cb func(*Response, error)) {
	f.mu.Lock()
	if !f.completed {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return
	}
	resp, err := f.resp, f.err
	f.mu.Unlock()
	f.dispatch(cb, resp, err)
}

// OnCancel registers a hook run when the future is cancelled, used to stop
// scheduled work (timers, queued steps). If the future is already cancelled
// the hook runs immediately; if it completed normally the hook is dropped.
func (f *Future) OnCancel(hook func()) {
	f.mu.Lock()
	if !f.completed {
		f.cancelHooks = append(f.cancelHooks, hook)
		f.mu.Unlock()
		return
	}
	cancelled := f.cancelled
	f.mu.Unlock()
	if cancelled {
		hook()
	}
}

// Bind forwards this future's result into target, and propagates target's
// cancellation back to this future.
func (f *Future) Bind(target *Future) {
	target.OnCancel(func() { f.Cancel() })
	f.OnComplete(func(resp *Response, err error) { target.Complete(resp, err) })
}

func (f *Future) dispatch(cb func(*Response, error), resp *Response, err error) {
	f.exec.Execute(func() { cb(resp, err) })
}

// CompletedFuture returns a future already resolved with the given result.
func CompletedFuture(exec Executor, resp *Response, err error) *Future {
	f := NewFuture(exec)
	f.Complete(resp, err)
	return f
}
