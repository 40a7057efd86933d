package kv

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

// bucketName is the single bbolt bucket all kvfs keys live in. Key families
// ("files", "chunks", "unresolved") are distinguished by their first tuple
// component, not by separate buckets — this keeps range scans that span a
// whole family (e.g. deleting every chunk of a URI) a single bbolt cursor
// walk instead of a bucket lookup per family.
var bucketName = []byte("kvfs")

// Bolt is a go.etcd.io/bbolt-backed Substrate: every key is the
// order-preserving tuple encoding from keycodec.go, so bbolt's native
// byte-lexicographic B-tree ordering matches the ordering the engine
// requires (chunk index 10 after 9, not between them).
//
// Grounded on nspcc-dev-neofs-node's pkg/local_object_storage/bucket/boltdb:
// open-or-create the bucket once at construction, wrap db.View/db.Update per
// call.
type Bolt struct {
	db *bbolt.DB
}

// BoltOptions mirrors the subset of bbolt.Options an embedder is likely to
// tune; zero value uses bbolt's defaults.
type BoltOptions struct {
	ReadOnly bool
	NoSync   bool
}

// OpenBolt opens (creating if absent) a bbolt database at path.
func OpenBolt(path string, opts BoltOptions) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("kv: create bolt dir: %w", err)
	}
	db, err := bbolt.Open(path, 0o640, &bbolt.Options{
		ReadOnly: opts.ReadOnly,
		NoSync:   opts.NoSync,
	})
	if err != nil {
		return nil, fmt.Errorf("kv: open bolt db %q: %w", path, err)
	}
	if !opts.ReadOnly {
		err = db.Update(func(tx *bbolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(bucketName)
			return err
		})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("kv: create bucket: %w", err)
		}
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) Get(_ context.Context, key Key) ([]byte, bool, error) {
	var out []byte
	var found bool
	err := b.db.View(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket(bucketName)
		if bkt == nil {
			return nil
		}
		v := bkt.Get(encodeKey(key))
		if v == nil {
			return nil
		}
		found = true
		out = make([]byte, len(v))
		copy(out, v)
		return nil
	})
	return out, found, err
}

func (b *Bolt) Set(_ context.Context, key Key, value []byte) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket(bucketName)
		if bkt == nil {
			var err error
			bkt, err = tx.CreateBucket(bucketName)
			if err != nil {
				return err
			}
		}
		return bkt.Put(encodeKey(key), value)
	})
}

func (b *Bolt) Delete(_ context.Context, key Key) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket(bucketName)
		if bkt == nil {
			return nil
		}
		return bkt.Delete(encodeKey(key))
	})
}

func (b *Bolt) List(_ context.Context, params ListParams) (ListResult, error) {
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
	if params.Cursor != "" {
		dec, err := base64.RawURLEncoding.DecodeString(params.Cursor)
		if err != nil {
			return ListResult{}, fmt.Errorf("kv: bad cursor: %w", err)
		}
		// Resume strictly after the last key previously returned: seek to
		// the stored key then advance once.
		lo = append(dec, 0x00)
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 1 << 30
	}

	var result ListResult
	err := b.db.View(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket(bucketName)
		if bkt == nil {
			return nil
		}
		c := bkt.Cursor()
		var lastKey, pendingKey []byte
		n := 0
		for k, v := c.Seek(lo); k != nil; k, v = c.Next() {
			if hi != nil && compareBytes(k, hi) >= 0 {
				break
			}
			if n >= limit {
				// k is the entry that pushed us past limit — it's still
				// unconsumed, so use it directly instead of calling c.Next()
				// again (which would skip past it and lose it for good).
				pendingKey = k
				break
			}
			dk, err := decodeKey(k)
			if err != nil {
				return err
			}
			vv := make([]byte, len(v))
			copy(vv, v)
			result.Entries = append(result.Entries, Entry{Key: dk, Value: vv})
			lastKey = append([]byte(nil), k...)
			n++
		}
		if lastKey != nil && pendingKey != nil {
			result.Cursor = base64.RawURLEncoding.EncodeToString(lastKey)
		}
		return nil
	})
	return result, err
}

func (b *Bolt) Close() error { return b.db.Close() }

func compareBytes(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
