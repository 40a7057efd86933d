// Package health implements the readiness checks cmd/server exposes at
// GET /healthz/ready, adapted from the teacher's disk-space-aware
// Handler.Readiness to check the engine's substrate path instead of a
// whole-file storage root.
package health

import "fmt"

// Check is one named readiness probe result.
type Check struct {
	Name string `json:"name"`
	OK   bool   `json:"ok"`
	Msg  string `json:"msg,omitempty"`
}

// DiskSpace checks that the filesystem holding path has at least minFreeBytes
// available. On platforms where disk stats aren't implemented (see
// diskstats_other.go), total is reported as 0 and the check passes — "stats
// unavailable" must never read as "disk full".
func DiskSpace(path string, minFreeBytes uint64) Check {
	avail, total := diskStats(path)
	if total == 0 {
		return Check{Name: "disk_space", OK: true, Msg: "unavailable"}
	}
	if avail < minFreeBytes {
		return Check{
			Name: "disk_space", OK: false,
			Msg: fmt.Sprintf("%d MB free — need %d MB", avail>>20, minFreeBytes>>20),
		}
	}
	return Check{Name: "disk_space", OK: true, Msg: fmt.Sprintf("%d MB free of %d MB", avail>>20, total>>20)}
}
