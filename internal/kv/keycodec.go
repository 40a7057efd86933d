package kv

import (
	"encoding/binary"
	"fmt"
)

// encodeKey renders a Key as bytes so a plain []byte-sorted B-tree (bbolt's
// bucket, or the in-memory sorted map) orders entries component by
// component. Strings are written behind a 4-byte length prefix so no string
// value can run into the next component; as a result strings order by
// length first, then bytewise. Ints are fixed-width big-endian so numeric
// order matches byte order (chunk index 10 sorts after 9, never between
// them the way "10" < "9" would under plain string comparison).
func encodeKey(k Key) []byte {
	buf := make([]byte, 0, 64)
	for _, c := range k {
		switch v := c.(type) {
		case string:
			buf = append(buf, 's')
			var lenBuf [4]byte
			binary.BigEndian.PutUint32(lenBuf[:], uint32(len(v)))
			buf = append(buf, lenBuf[:]...)
			buf = append(buf, v...)
		case int64:
			buf = append(buf, 'i')
			var n [8]byte
			// XOR the sign bit so negative numbers sort before non-negative
			// ones under plain byte comparison; chunk indices are always
			// positive so this only matters for defensive correctness.
			binary.BigEndian.PutUint64(n[:], uint64(v)^(1<<63))
			buf = append(buf, n[:]...)
		case int:
			return encodeKey(replaceInt(k, c, int64(v)))
		default:
			panic(fmt.Sprintf("kv: unsupported key component type %T", c))
		}
	}
	return buf
}

func replaceInt(k Key, old any, repl int64) Key {
	out := make(Key, len(k))
	for i, c := range k {
		if c == old {
			out[i] = repl
		} else {
			out[i] = c
		}
	}
	return out
}

// encodePrefix renders a Key prefix for use as a scan bound. It is identical
// to encodeKey — a prefix of the tuple is also a byte-prefix of the encoding
// because every component is length-delimited before the next one starts.
func encodePrefix(k Key) []byte {
	return encodeKey(k)
}

// decodeKey is the inverse of encodeKey. The tag bytes ('s'/'i') make the
// encoding self-describing, so a raw bbolt key can be turned back into a
// typed Key without a side table.
func decodeKey(b []byte) (Key, error) {
	var out Key
	for len(b) > 0 {
		tag := b[0]
		b = b[1:]
		switch tag {
		case 's':
			if len(b) < 4 {
				return nil, fmt.Errorf("kv: truncated string length")
			}
			n := binary.BigEndian.Uint32(b[:4])
			b = b[4:]
			if uint32(len(b)) < n {
				return nil, fmt.Errorf("kv: truncated string body")
			}
			out = append(out, string(b[:n]))
			b = b[n:]
		case 'i':
			if len(b) < 8 {
				return nil, fmt.Errorf("kv: truncated int")
			}
			n := binary.BigEndian.Uint64(b[:8]) ^ (1 << 63)
			out = append(out, int64(n))
			b = b[8:]
		default:
			return nil, fmt.Errorf("kv: unknown key tag %q", tag)
		}
	}
	return out, nil
}
