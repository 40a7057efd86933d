package kv

import (
	"bytes"
	"context"
	"encoding/base64"
	"sort"
	"sync"
)

// Memory is a sorted, in-memory Substrate. It is the default backend for
// tests and for embedders that don't need durability across restarts —
// shaped after the teacher's store.Local: a small struct guarding its state
// with a single mutex, no external dependency.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte // encoded key -> value
	keys []string          // encoded keys, kept sorted
}

// NewMemory creates an empty in-memory substrate.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key Key) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(encodeKey(key))]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *Memory) Set(_ context.Context, key Key, value []byte) error {
	enc := string(encodeKey(key))
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[enc]; !exists {
		i := sort.SearchStrings(m.keys, enc)
		m.keys = append(m.keys, "")
		copy(m.keys[i+1:], m.keys[i:])
		m.keys[i] = enc
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.data[enc] = v
	return nil
}

func (m *Memory) Delete(_ context.Context, key Key) error {
	enc := string(encodeKey(key))
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[enc]; !ok {
		return nil
	}
	delete(m.data, enc)
	i := sort.SearchStrings(m.keys, enc)
	if i < len(m.keys) && m.keys[i] == enc {
		m.keys = append(m.keys[:i], m.keys[i+1:]...)
	}
	return nil
}

func (m *Memory) List(_ context.Context, params ListParams) (ListResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var lo, hi []byte
	if len(params.Prefix) > 0 {
		lo = encodePrefix(params.Prefix)
		hi = prefixUpperBound(lo)
	} else {
		lo = encodeKey(params.Start)
		if len(params.End) > 0 {
			hi = encodeKey(params.End)
		}
	}

	start := sort.SearchStrings(m.keys, string(lo))
	if params.Cursor != "" {
		dec, err := decodeCursor(params.Cursor)
		if err != nil {
			return ListResult{}, err
		}
		// Resume strictly after the last key previously returned.
		i := sort.SearchStrings(m.keys, string(dec)+"\x00")
		if i > start {
			start = i
		}
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 1 << 30
	}

	var entries []Entry
	var lastKey string
	i := start
	for ; i < len(m.keys); i++ {
		enc := m.keys[i]
		if hi != nil && bytes.Compare([]byte(enc), hi) >= 0 {
			break
		}
		if len(entries) >= limit {
			break
		}
		k, err := decodeKey([]byte(enc))
		if err != nil {
			return ListResult{}, err
		}
		v := m.data[enc]
		vv := make([]byte, len(v))
		copy(vv, v)
		entries = append(entries, Entry{Key: k, Value: vv})
		lastKey = enc
	}

	cursor := ""
	if i < len(m.keys) && (hi == nil || bytes.Compare([]byte(m.keys[i]), hi) < 0) {
		cursor = encodeCursor([]byte(lastKey))
	}
	return ListResult{Entries: entries, Cursor: cursor}, nil
}

func (m *Memory) Close() error { return nil }

// prefixUpperBound returns the smallest byte string that is greater than
// every string with prefix p, by incrementing the last byte that isn't 0xFF.
func prefixUpperBound(p []byte) []byte {
	out := make([]byte, len(p))
	copy(out, p)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] < 0xFF {
			out[i]++
			return out[:i+1]
		}
	}
	return nil // prefix is all 0xFF bytes; no finite upper bound, caller must treat nil as +inf
}

func encodeCursor(key []byte) string {
	return base64.RawURLEncoding.EncodeToString(key)
}

func decodeCursor(c string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(c)
}
