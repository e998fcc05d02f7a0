package transport

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncExecutor runs tasks inline, making callback order deterministic.
type syncExecutor struct{}

func (syncExecutor) Execute(fn func()) { fn() }

func (syncExecutor) Schedule(delay time.Duration, fn func()) func() bool {
	t := time.AfterFunc(delay, fn)
	return t.Stop
}

func TestFutureCompleteResolvesWaiters(t *testing.T) {
	fut := NewFuture(syncExecutor{})
	want := &Response{StatusCode: 200}

	go fut.Complete(want, nil)

	resp, err := fut.Wait(context.Background())
	require.NoError(t, err)
	assert.Same(t, want, resp)
}

func TestFutureFirstCompletionWins(t *testing.T) {
	fut := NewFuture(syncExecutor{})
	assert.True(t, fut.Complete(&Response{StatusCode: 200}, nil))
	assert.False(t, fut.Complete(&Response{StatusCode: 500}, nil))

	resp, err, ok := fut.TryResult()
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestFutureOnCompleteAfterResolutionFiresImmediately(t *testing.T) {
	fut := NewFuture(syncExecutor{})
	fut.Complete(&Response{StatusCode: 204}, nil)

	var got int32
	fut.OnComplete(func(resp *Response, err error) {
		atomic.StoreInt32(&got, int32(resp.StatusCode))
	})
	assert.Equal(t, int32(204), atomic.LoadInt32(&got))
}

func TestFutureCancelResolvesWithCancelledError(t *testing.T) {
	fut := NewFuture(syncExecutor{})
	require.True(t, fut.Cancel())
	assert.True(t, fut.Cancelled())

	_, err, ok := fut.TryResult()
	require.True(t, ok)
	assert.True(t, IsErrorType(err, CancelledFailure))

	// Completion after cancel is a no-op
	assert.False(t, fut.Complete(&Response{StatusCode: 200}, nil))
}

func TestFutureCancelRunsHooks(t *testing.T) {
	fut := NewFuture(syncExecutor{})
	var ran atomic.Bool
	fut.OnCancel(func() { ran.Store(true) })
	fut.Cancel()
	assert.True(t, ran.Load())
}

func TestFutureOnCancelAfterCancellationRunsImmediately(t *testing.T) {
	fut := NewFuture(syncExecutor{})
	fut.Cancel()

	var ran atomic.Bool
	fut.OnCancel(func() { ran.Store(true) })
	assert.True(t, ran.Load())
}

func TestFutureOnCancelDroppedAfterNormalCompletion(t *testing.T) {
	fut := NewFuture(syncExecutor{})
	fut.Complete(&Response{StatusCode: 200}, nil)

	var ran atomic.Bool
	fut.OnCancel(func() { ran.Store(true) })
	assert.False(t, ran.Load())
}

func TestFutureWaitHonoursContext(t *testing.T) {
	fut := NewFuture(syncExecutor{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := fut.Wait(ctx)
	require.Error(t, err)
	assert.True(t, IsErrorType(err, CancelledFailure))
}

func TestBindForwardsResultAndCancellation(t *testing.T) {
	t.Run("result flows forward", func(t *testing.T) {
		inner := NewFuture(syncExecutor{})
		outer := NewFuture(syncExecutor{})
		inner.Bind(outer)

		inner.Complete(&Response{StatusCode: 201}, nil)
		resp, err, ok := outer.TryResult()
		require.True(t, ok)
		require.NoError(t, err)
		assert.Equal(t, 201, resp.StatusCode)
	})

	t.Run("cancellation flows backward", func(t *testing.T) {
		inner := NewFuture(syncExecutor{})
		outer := NewFuture(syncExecutor{})
		inner.Bind(outer)

		outer.Cancel()
		assert.True(t, inner.Cancelled())
	})
}

func TestGoExecutorScheduleCancellation(t *testing.T) {
	var fired atomic.Bool
	cancel := GoExecutor{}.Schedule(50*time.Millisecond, func() { fired.Store(true) })
	assert.True(t, cancel())

	time.Sleep(100 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestGoExecutorScheduleZeroDelayRunsImmediately(t *testing.T) {
	done := make(chan struct{})
	GoExecutor{}.Schedule(0, func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduled task never ran")
	}
}
