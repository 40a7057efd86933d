package inflight_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zynqcloud/kvfs/internal/inflight"
)

func TestStartSavingShortCircuitsOnSecondCall(t *testing.T) {
	r := inflight.New()

	started, _, count := r.StartSaving("uri", []string{"a"}, "client1")
	require.True(t, started)
	require.Equal(t, 1, count)

	started, status, _ := r.StartSaving("uri", []string{"a"}, "client2")
	require.False(t, started)
	require.Equal(t, string(inflight.StatusSaving), status.Status)
}

func TestStartDeletingBlockedBySaving(t *testing.T) {
	r := inflight.New()
	r.StartSaving("uri", []string{"a"}, "") //nolint:errcheck

	started, status, _ := r.StartDeleting("uri", []string{"a"}, "")
	require.False(t, started)
	require.Equal(t, string(inflight.StatusSaving), status.Status)
}

func TestEndSavingClearsStatus(t *testing.T) {
	r := inflight.New()
	r.StartSaving("uri", []string{"a"}, "client1") //nolint:errcheck
	r.EndSaving("uri", "client1")

	_, inFlight := r.Status("uri")
	require.False(t, inFlight)

	started, _, _ := r.StartDeleting("uri", []string{"a"}, "")
	require.True(t, started, "ending a save must free the URI for a new operation")
}

func TestClientReqsTracksConcurrentStarts(t *testing.T) {
	r := inflight.New()
	_, _, c1 := r.StartSaving("uri1", []string{"a"}, "client1")
	_, _, c2 := r.StartSaving("uri2", []string{"b"}, "client1")
	require.Equal(t, 1, c1)
	require.Equal(t, 2, c2)
	require.Equal(t, 2, r.ClientReqs("client1"))

	r.EndSaving("uri1", "client1")
	require.Equal(t, 1, r.ClientReqs("client1"))

	r.EndSaving("uri2", "client1")
	require.Equal(t, 0, r.ClientReqs("client1"))
}

func TestAcquireReleaseClientSlot(t *testing.T) {
	r := inflight.New()
	require.Equal(t, 1, r.AcquireClientSlot("c"))
	require.Equal(t, 2, r.AcquireClientSlot("c"))
	r.ReleaseClientSlot("c")
	require.Equal(t, 1, r.ClientReqs("c"))
	r.ReleaseClientSlot("c")
	require.Equal(t, 0, r.ClientReqs("c"))
}

func TestEmptyClientIDIsNeverTracked(t *testing.T) {
	r := inflight.New()
	r.AcquireClientSlot("")
	require.Equal(t, 0, r.ClientReqs(""))
}

func TestAllStatusesReturnsBothKinds(t *testing.T) {
	r := inflight.New()
	r.StartSaving("saving-uri", []string{"a"}, "")     //nolint:errcheck
	r.StartDeleting("deleting-uri", []string{"b"}, "") //nolint:errcheck

	statuses := r.AllStatuses()
	require.Len(t, statuses, 2)
}

// TestConcurrentMutualExclusion hammers StartSaving for the same URI from
// many goroutines; exactly one must win.
func TestConcurrentMutualExclusion(t *testing.T) {
	r := inflight.New()
	const n = 200
	var wg sync.WaitGroup
	var wins int
	var mu sync.Mutex

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started, _, _ := r.StartSaving("shared", []string{"x"}, "")
			if started {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, wins)
}
