package kv

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Dir is a local-filesystem-backed Substrate: one file per key, named by
// the URL-safe base64 of the key's order-preserving encoding. Base64 names
// do not sort in key order, so List decodes every name and sorts by the
// decoded key bytes before walking the range.
//
// Adapted from the teacher's store.Local: MkdirAll at construction, and
// every write goes through a temp-file-then-atomic-rename so a crash mid
// write never leaves a partial value visible to a concurrent reader.
type Dir struct {
	root string
	mu   sync.Mutex // serializes List calls with each other; Set and Delete do not take it
}

// NewDir creates a Dir rooted at root, creating the directory if needed.
func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("kv: create dir root %q: %w", root, err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("kv: resolve dir root: %w", err)
	}
	return &Dir{root: abs}, nil
}

func (d *Dir) filename(key Key) string {
	return base64.RawURLEncoding.EncodeToString(encodeKey(key)) + ".val"
}

func (d *Dir) path(key Key) string {
	return filepath.Join(d.root, d.filename(key))
}

func (d *Dir) Get(_ context.Context, key Key) ([]byte, bool, error) {
	b, err := os.ReadFile(d.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set writes value via a temp file + atomic rename, so a concurrent Get or
// directory listing never observes a partially-written value.
func (d *Dir) Set(_ context.Context, key Key, value []byte) error {
	dest := d.path(key)
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, value, 0o640); err != nil {
		return fmt.Errorf("kv: write temp: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("kv: rename: %w", err)
	}
	return nil
}

func (d *Dir) Delete(_ context.Context, key Key) error {
	err := os.Remove(d.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (d *Dir) List(_ context.Context, params ListParams) (ListResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entries, err := os.ReadDir(d.root)
	if err != nil {
		return ListResult{}, err
	}

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

	type decoded struct {
		name string
		key  []byte
	}
	var all []decoded
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".val") {
			continue
		}
		raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSuffix(name, ".val"))
		if err != nil {
			continue // not one of ours
		}
		all = append(all, decoded{name: name, key: raw})
	}
	sort.Slice(all, func(i, j int) bool { return compareBytes(all[i].key, all[j].key) < 0 })

	start := 0
	if params.Cursor != "" {
		cur, err := base64.RawURLEncoding.DecodeString(params.Cursor)
		if err != nil {
			return ListResult{}, fmt.Errorf("kv: bad cursor: %w", err)
		}
		for i, d := range all {
			if compareBytes(d.key, cur) > 0 {
				start = i
				break
			}
			start = i + 1
		}
	} else {
		for i, d := range all {
			if compareBytes(d.key, lo) >= 0 {
				start = i
				break
			}
			start = i + 1
		}
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 1 << 30
	}

	var result ListResult
	i := start
	for ; i < len(all); i++ {
		if hi != nil && compareBytes(all[i].key, hi) >= 0 {
			break
		}
		if len(result.Entries) >= limit {
			break
		}
		k, err := decodeKey(all[i].key)
		if err != nil {
			return ListResult{}, err
		}
		v, err := os.ReadFile(filepath.Join(d.root, all[i].name))
		if err != nil {
			if os.IsNotExist(err) {
				continue // deleted concurrently between listing and read
			}
			return ListResult{}, err
		}
		result.Entries = append(result.Entries, Entry{Key: k, Value: v})
	}
	if len(result.Entries) > 0 && i < len(all) && (hi == nil || compareBytes(all[i].key, hi) < 0) {
		result.Cursor = base64.RawURLEncoding.EncodeToString(all[i-1].key)
	}
	return result, nil
}

func (d *Dir) Close() error { return nil }
