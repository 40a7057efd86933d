// Package kv defines the ordered key-value substrate the storage engine is
// layered over, plus the concrete backends that implement it.
package kv

import (
	"context"
	"errors"
)

// Key is an ordered tuple of string and int64 components. Components compare
// the way every backend orders them through keycodec.go: ints numerically;
// strings by byte length first and bytewise only between strings of equal
// length (so "b" sorts before "ab" — not plain lexicographic order); and a
// shorter tuple sorts before a longer tuple that shares its prefix.
type Key []any

// ListParams selects a range to scan. Either Prefix is set (list everything
// whose key starts with it) or Start/End are set (a half-open [Start, End)
// range). Cursor resumes a previous scan that was cut short by Limit.
type ListParams struct {
	Prefix Key
	Start  Key
	End    Key
	Limit  int
	Cursor string
}

// Entry is one key-value pair returned by List.
type Entry struct {
	Key   Key
	Value []byte
}

// ListResult is one page of a scan. Cursor is empty when the scan is
// exhausted; a non-empty Cursor must be passed back in the next ListParams
// to continue.
type ListResult struct {
	Entries []Entry
	Cursor  string
}

// ErrKeyTooLong and ErrValueTooLarge surface substrate-imposed ceilings; the
// engine never triggers these itself (it enforces the 64KiB chunk cap and
// 60KiB metadata cap before calling Set), but a substrate is free to raise
// them for any other reason.
var (
	ErrKeyTooLong   = errors.New("kv: key exceeds substrate limit")
	ErrValueTooLarge = errors.New("kv: value exceeds substrate limit")
)

// Substrate is the external collaborator: an ordered KV map with atomic
// single-key operations and a prefix/range scan that supports resumption via
// an opaque cursor. Implementations must be safe for concurrent use.
type Substrate interface {
	Get(ctx context.Context, key Key) (value []byte, found bool, err error)
	Set(ctx context.Context, key Key, value []byte) error
	Delete(ctx context.Context, key Key) error
	List(ctx context.Context, params ListParams) (ListResult, error)
	Close() error
}
