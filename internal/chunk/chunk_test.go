package chunk_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zynqcloud/kvfs/internal/chunk"
)

func TestBytesUnderOneChunk(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 100)
	chunks := chunk.Bytes(data)
	require.Len(t, chunks, 1)
	require.Equal(t, data, chunks[0])
}

func TestBytesExactMultipleProducesNoTrailingEmptyChunk(t *testing.T) {
	data := bytes.Repeat([]byte("x"), chunk.Size*2)
	chunks := chunk.Bytes(data)
	require.Len(t, chunks, 2)
	for _, c := range chunks {
		require.Len(t, c, chunk.Size)
	}
}

func TestBytesEmptyPayloadProducesNoChunks(t *testing.T) {
	require.Empty(t, chunk.Bytes(nil))
}

func TestBytesRemainderProducesShortFinalChunk(t *testing.T) {
	data := bytes.Repeat([]byte("x"), chunk.Size+10)
	chunks := chunk.Bytes(data)
	require.Len(t, chunks, 2)
	require.Len(t, chunks[0], chunk.Size)
	require.Len(t, chunks[1], 10)
}

func TestReaderMatchesBytesChunking(t *testing.T) {
	data := bytes.Repeat([]byte("ab"), chunk.Size) // 2*Size bytes
	r := chunk.NewReader(bytes.NewReader(data))

	var got [][]byte
	for {
		b, err := r.Next()
		if err != nil {
			break
		}
		cp := make([]byte, len(b))
		copy(cp, b)
		got = append(got, cp)
	}

	want := chunk.Bytes(data)
	require.Equal(t, len(want), len(got))
	for i := range want {
		require.Equal(t, want[i], got[i])
	}
}

func TestCount(t *testing.T) {
	require.Equal(t, int64(0), chunk.Count(0))
	require.Equal(t, int64(1), chunk.Count(1))
	require.Equal(t, int64(1), chunk.Count(chunk.Size))
	require.Equal(t, int64(2), chunk.Count(chunk.Size+1))
}
