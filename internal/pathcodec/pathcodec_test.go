package pathcodec_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zynqcloud/kvfs/internal/pathcodec"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := pathcodec.New()
	cases := [][]string{
		{"a", "b", "c.txt"},
		{"has space", "日本語", "100%"},
		{"slash/in-segment"},
		{"percent%sign"},
	}
	for _, path := range cases {
		uri := c.Encode(path)
		got, err := c.Decode(uri)
		require.NoError(t, err)
		require.Equal(t, path, got)
	}
}

func TestEncodeEmptyPath(t *testing.T) {
	c := pathcodec.New()
	require.Equal(t, "", c.Encode(nil))
}

func TestDecodeEmptyURI(t *testing.T) {
	c := pathcodec.New()
	path, err := c.Decode("")
	require.NoError(t, err)
	require.Equal(t, []string{}, path)
}

func TestEncodeIsMemoized(t *testing.T) {
	c := pathcodec.New()
	path := []string{"repeat", "me"}
	first := c.Encode(path)
	second := c.Encode(path)
	require.Equal(t, first, second)
}

func TestEncodeDistinguishesSegmentBoundaries(t *testing.T) {
	// {"a/b"} and {"a", "b"} must not collide on the encoded URI, or two
	// distinct paths would map onto the same chunk/file keys.
	c := pathcodec.New()
	uri1 := c.Encode([]string{"a/b"})
	uri2 := c.Encode([]string{"a", "b"})
	require.NotEqual(t, uri1, uri2)
}
