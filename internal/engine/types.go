// Package engine implements the StorageEngine: the chunked save/read/
// delete/readDir/deleteDir pipelines layered over a kv.Substrate, with
// rate limiting, per-path mutual exclusion, per-client concurrency
// accounting, and startup orphan recovery.
package engine

import (
	"io"

	"github.com/zynqcloud/kvfs/internal/inflight"
)

// Content is the polymorphic payload accepted by Save: exactly one of the
// three fields should be set. Bytes and Text are handled eagerly; Stream is
// drained incrementally and is the only variant that guarantees end-to-end
// streaming without buffering the whole payload.
type Content struct {
	Stream io.Reader
	Bytes  []byte
	Text   string
}

// AccessPredicate authorizes an operation on path. A nil predicate is
// treated as always-true, matching the spec's default.
type AccessPredicate func(path []string) bool

// SaveOptions carries every recognized knob for Save. Unset numeric caps
// default to unbounded; ValidateAccess defaults to always-true;
// AllowedExtensions defaults to empty (no filter); ClientID defaults to "".
type SaveOptions struct {
	Path                      []string
	Content                   Content
	Metadata                  map[string]any
	ChunksPerSecond           int
	ClientID                  string
	ValidateAccess            AccessPredicate
	MaxClientIDConcurrentReqs int
	MaxFileSizeBytes          int64
	AllowedExtensions         []string
}

// ReadOptions carries every recognized knob for Read/ReadDir/Delete/DeleteDir.
type ReadOptions struct {
	Path                      []string
	ChunksPerSecond           int
	MaxDirEntriesPerSecond    int
	ClientID                  string
	ValidateAccess            AccessPredicate
	MaxClientIDConcurrentReqs int
	Pagination                bool
	Cursor                    string
}

// FileRecord is the durable record stored at ("kvfs","files", path...).
type FileRecord struct {
	Path         []string
	Size         int64
	Flags        []string
	Metadata     map[string]any
	URIComponent string

	// Content streams the reassembled bytes in chunk order. Read and
	// ReadDir attach it; it is nil on the record Save returns. Directory
	// entries whose file is currently in flight carry a FileStatus instead
	// of a record.
	Content io.ReadCloser `json:"-"`
}

// HasFlag reports whether f carries the named flag (e.g. "incomplete").
func (f FileRecord) HasFlag(name string) bool {
	for _, fl := range f.Flags {
		if fl == name {
			return true
		}
	}
	return false
}

// DirEntry is one item in a ReadDir result: exactly one of Record or Status
// is set, mirroring the spec's "push the status, or attach a stream and
// push the file" branch.
type DirEntry struct {
	Record *FileRecord
	Status *inflight.FileStatus
}

// DirList is the result of ReadDir.
type DirList struct {
	Entries []DirEntry
	Size    int64
	Cursor  string
}

// Error kinds, used to tag error log lines and the error metric's "kind"
// label so client-caused failures (Forbidden, extension, concurrency cap)
// can be told apart from substrate-caused ones without string matching. The
// error FileStatus itself carries only Msg, not the kind.
type ErrorKind string

const (
	ErrForbidden          ErrorKind = "forbidden"
	ErrExtensionNotAllowed ErrorKind = "extension_not_allowed"
	ErrMetadataTooLarge   ErrorKind = "metadata_too_large"
	ErrConcurrencyCap     ErrorKind = "concurrency_cap_exceeded"
	ErrIncomplete         ErrorKind = "incomplete"
	ErrSubstrate          ErrorKind = "substrate_error"
)

const (
	// MaxMetadataBytes is the serialized-JSON ceiling for a file's metadata.
	MaxMetadataBytes = 60 * 1024
	// DefaultReadDirPageSize is the KvPager page size readDir uses.
	DefaultReadDirPageSize = 1000
	// FlagIncomplete marks a file record truncated by a maxFileSizeBytes cap.
	FlagIncomplete = "incomplete"
)
