// Package pathcodec converts between a hierarchical path — an ordered
// sequence of non-empty path segments — and the percent-encoded,
// slash-joined URI component string used as the in-memory key for that
// path throughout the storage engine.
package pathcodec

import (
	"net/url"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheSize bounds the memoized encode table. Re-encoding the same path is
// common under load (a deleteDir pass re-encodes the path of every entry
// it deletes; a hot path gets saved/read/deleted repeatedly),
// so a small LRU avoids re-running percent-encoding on every call without
// growing unbounded.
const cacheSize = 4096

// Codec memoizes path -> URI component encodings. The zero value is not
// usable; construct with New.
type Codec struct {
	cache *lru.Cache[string, string]
}

// New creates a Codec with its own encode cache.
func New() *Codec {
	c, err := lru.New[string, string](cacheSize)
	if err != nil {
		// lru.New only errors on a non-positive size, which cacheSize never is.
		panic(err)
	}
	return &Codec{cache: c}
}

// Encode percent-encodes each segment of path (reserving '/') and joins them
// with '/'. The empty path encodes to "".
func (c *Codec) Encode(path []string) string {
	key := cacheKey(path)
	if v, ok := c.cache.Get(key); ok {
		return v
	}
	segs := make([]string, len(path))
	for i, s := range path {
		segs[i] = url.PathEscape(s)
	}
	uri := strings.Join(segs, "/")
	c.cache.Add(key, uri)
	return uri
}

// cacheKey builds a collision-free lookup key for path: each segment is
// length-prefixed, so a raw NUL- or slash-joined string can't alias two
// distinct path slices the way a plain separator join could (a segment is
// free to contain any byte, including the separator itself).
func cacheKey(path []string) string {
	var b strings.Builder
	for _, s := range path {
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
	}
	return b.String()
}

// Decode splits uri on '/' and percent-decodes each piece, the inverse of
// Encode. The empty string decodes to an empty path (the root).
func (c *Codec) Decode(uri string) ([]string, error) {
	if uri == "" {
		return []string{}, nil
	}
	parts := strings.Split(uri, "/")
	out := make([]string, len(parts))
	for i, p := range parts {
		s, err := url.PathUnescape(p)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}
