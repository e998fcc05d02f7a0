package transport

import "time"

// Executor is the task-submission abstraction used by the async pipeline.
// Implementations must be safe for concurrent use. Schedule must not occupy
// a goroutine for the duration of the delay.
type Executor interface {
	// Execute runs fn, typically on another goroutine.
	Execute(fn func())
	// Schedule runs fn after delay. The returned function cancels the
	// pending run and reports whether cancellation happened before fn started.
	Schedule(delay time.Duration, fn func()) (cancel func() bool)
}

// GoExecutor is the default Executor: plain goroutines and timer-based
// delayed scheduling.
type GoExecutor struct{}

// Execute runs fn on a new goroutine.
func (GoExecutor) Execute(fn func()) { go fn() }

// Schedule runs fn after delay using a timer; cancelling stops the timer.
func (GoExecutor) Schedule(delay time.Duration, fn func()) func() bool {
	if delay <= 0 {
		go fn()
		return func() bool { return false }
	}
	t := time.AfterFunc(delay, fn)
	return t.Stop
}

// DefaultExecutor returns the executor used when a caller supplies none.
func DefaultExecutor() Executor { return GoExecutor{} }
