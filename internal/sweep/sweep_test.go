package sweep_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zynqcloud/kvfs/internal/sweep"
)

type countingRecoverer struct {
	calls atomic.Int32
}

func (c *countingRecoverer) Recover(context.Context) {
	c.calls.Add(1)
}

func TestRunPeriodicRunsImmediatelyAndOnTicker(t *testing.T) {
	r := &countingRecoverer{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweep.RunPeriodic(ctx, r, 10*time.Millisecond)

	require.Eventually(t, func() bool { return r.calls.Load() >= 2 }, time.Second, time.Millisecond)
}

func TestRunPeriodicStopsOnContextCancel(t *testing.T) {
	r := &countingRecoverer{}
	ctx, cancel := context.WithCancel(context.Background())

	sweep.RunPeriodic(ctx, r, 5*time.Millisecond)
	require.Eventually(t, func() bool { return r.calls.Load() >= 1 }, time.Second, time.Millisecond)

	cancel()
	time.Sleep(20 * time.Millisecond)
	stopped := r.calls.Load()
	time.Sleep(40 * time.Millisecond)
	require.Equal(t, stopped, r.calls.Load(), "Recover must not run again after cancellation")
}
