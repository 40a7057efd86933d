// Package inflight implements the per-URI saving/deleting state machine and
// the per-client concurrency counters the storage engine gates every
// operation on.
//
// A single sync.Mutex guards all three maps: unlike the source system's
// single-threaded cooperative scheduler, Go goroutines run in real
// parallel, so every compound check-then-mutate (enter a state, bump a
// counter, check the cap) must happen inside one critical section to
// preserve the invariants that "saving" and "deleting" are never both set
// for a URI, and that clientReqs reflects exactly the in-flight count.
package inflight

import "sync"

// Status is the kind of in-flight operation holding a URI.
type Status string

const (
	StatusSaving   Status = "saving"
	StatusDeleting Status = "deleting"
)

// FileStatus is a snapshot of an in-flight operation, or a terminal error
// report. Progress is the cumulative byte count processed so far.
type FileStatus struct {
	URIComponent string
	Path         []string
	Progress     int64
	Status       string // "saving", "deleting", or "error"
	Msg          string
}

// Registry holds the transient per-URI state and per-client counters.
type Registry struct {
	mu         sync.Mutex
	saving     map[string]*entry
	deleting   map[string]*entry
	clientReqs map[string]int
}

type entry struct {
	path     []string
	progress int64
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		saving:     make(map[string]*entry),
		deleting:   make(map[string]*entry),
		clientReqs: make(map[string]int),
	}
}

// Status returns a snapshot of the in-flight operation for uri, if any.
func (r *Registry) Status(uri string) (FileStatus, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.saving[uri]; ok {
		return FileStatus{URIComponent: uri, Path: e.path, Progress: e.progress, Status: string(StatusSaving)}, true
	}
	if e, ok := r.deleting[uri]; ok {
		return FileStatus{URIComponent: uri, Path: e.path, Progress: e.progress, Status: string(StatusDeleting)}, true
	}
	return FileStatus{}, false
}

// StartSaving attempts to enter the saving state for uri on behalf of
// clientID (which may be ""). If uri is already saving or deleting, it
// short-circuits: started=false and the caller's current status is
// returned, with no mutation performed. Otherwise it marks uri as saving,
// increments clientReqs[clientID], and returns the post-increment count.
func (r *Registry) StartSaving(uri string, path []string, clientID string) (started bool, status FileStatus, clientCount int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.saving[uri]; ok {
		return false, FileStatus{URIComponent: uri, Path: e.path, Progress: e.progress, Status: string(StatusSaving)}, 0
	}
	if e, ok := r.deleting[uri]; ok {
		return false, FileStatus{URIComponent: uri, Path: e.path, Progress: e.progress, Status: string(StatusDeleting)}, 0
	}
	r.saving[uri] = &entry{path: path}
	if clientID != "" {
		r.clientReqs[clientID]++
	}
	return true, FileStatus{}, r.clientReqs[clientID]
}

// EndSaving removes uri from the saving map and decrements clientReqs. The
// Registry holds no unresolved-marker state: clearing or keeping the marker
// is left to the caller.
func (r *Registry) EndSaving(uri string, clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.saving, uri)
	r.decrClient(clientID)
}

// StartDeleting is the deleting-state analogue of StartSaving.
func (r *Registry) StartDeleting(uri string, path []string, clientID string) (started bool, status FileStatus, clientCount int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.saving[uri]; ok {
		return false, FileStatus{URIComponent: uri, Path: e.path, Progress: e.progress, Status: string(StatusSaving)}, 0
	}
	if e, ok := r.deleting[uri]; ok {
		return false, FileStatus{URIComponent: uri, Path: e.path, Progress: e.progress, Status: string(StatusDeleting)}, 0
	}
	r.deleting[uri] = &entry{path: path}
	if clientID != "" {
		r.clientReqs[clientID]++
	}
	return true, FileStatus{}, r.clientReqs[clientID]
}

// EndDeleting is the deleting-state analogue of EndSaving.
func (r *Registry) EndDeleting(uri string, clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.deleting, uri)
	r.decrClient(clientID)
}

func (r *Registry) decrClient(clientID string) {
	if clientID == "" {
		return
	}
	n := r.clientReqs[clientID] - 1
	if n <= 0 {
		delete(r.clientReqs, clientID)
	} else {
		r.clientReqs[clientID] = n
	}
}

// AcquireClientSlot increments clientReqs[clientID] for an operation that
// isn't otherwise gated by Start{Saving,Deleting} — namely an active read
// stream. The caller must call ReleaseClientSlot exactly once when the
// stream ends or errors.
func (r *Registry) AcquireClientSlot(clientID string) int {
	if clientID == "" {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clientReqs[clientID]++
	return r.clientReqs[clientID]
}

// ReleaseClientSlot decrements clientReqs[clientID].
func (r *Registry) ReleaseClientSlot(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decrClient(clientID)
}

// SetProgress records the cumulative bytes processed so far for an in-flight
// save or delete, used by readDir to fold in-progress saves into its size
// total (§9 open question 4: in-progress deletes are intentionally excluded,
// matching the source behaviour).
func (r *Registry) SetProgress(uri string, status Status, bytes int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.saving
	if status == StatusDeleting {
		m = r.deleting
	}
	if e, ok := m[uri]; ok {
		e.progress = bytes
	}
}

// ClientReqs returns the current in-flight count for clientID.
func (r *Registry) ClientReqs(clientID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clientReqs[clientID]
}

// AllStatuses returns a snapshot of every currently in-flight operation,
// saving and deleting alike. Used by the GetAllFileStatuses call-surface
// entry (an operator-facing dashboard/health endpoint).
func (r *Registry) AllStatuses() []FileStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]FileStatus, 0, len(r.saving)+len(r.deleting))
	for uri, e := range r.saving {
		out = append(out, FileStatus{URIComponent: uri, Path: e.path, Progress: e.progress, Status: string(StatusSaving)})
	}
	for uri, e := range r.deleting {
		out = append(out, FileStatus{URIComponent: uri, Path: e.path, Progress: e.progress, Status: string(StatusDeleting)})
	}
	return out
}
