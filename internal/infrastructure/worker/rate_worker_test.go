package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingRefresher struct {
	calls int32
	err   error
}

func (r *countingRefresher) Refresh(context.Context) error {
	atomic.AddInt32(&r.calls, 1)
	return r.err
}

func waitForCalls(t *testing.T, r *countingRefresher, want int32) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&r.calls) < want {
		select {
		case <-deadline:
			t.Fatalf("refresher reached %d calls, want at least %d", atomic.LoadInt32(&r.calls), want)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestRateWorker_WarmUpAndTick(t *testing.T) {
	refresher := &countingRefresher{}
	w := NewRateWorker(refresher, 20*time.Millisecond, zap.NewNop())

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	// Warm-up fires immediately, then the ticker takes over.
	waitForCalls(t, refresher, 2)
}

func TestRateWorker_StopTerminatesLoop(t *testing.T) {
	refresher := &countingRefresher{}
	w := NewRateWorker(refresher, 10*time.Millisecond, zap.NewNop())

	require.NoError(t, w.Start(context.Background()))
	waitForCalls(t, refresher, 1)
	require.NoError(t, w.Stop())

	settled := atomic.LoadInt32(&refresher.calls)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, atomic.LoadInt32(&refresher.calls))

	// Stop is idempotent.
	assert.NoError(t, w.Stop())
}

func TestRateWorker_RefreshFailureKeepsLoopAlive(t *testing.T) {
	refresher := &countingRefresher{err: errors.New("api down")}
	w := NewRateWorker(refresher, 10*time.Millisecond, zap.NewNop())

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	waitForCalls(t, refresher, 3)
}

func TestManager_Lifecycle(t *testing.T) {
	refresher := &countingRefresher{}
	m := NewManager(zap.NewNop())
	m.Register(NewRateWorker(refresher, 10*time.Millisecond, zap.NewNop()))

	require.NoError(t, m.StartAll(context.Background()))
	assert.Error(t, m.StartAll(context.Background()))

	waitForCalls(t, refresher, 1)

	require.NoError(t, m.StopAll())
	assert.NoError(t, m.StopAll())
}
