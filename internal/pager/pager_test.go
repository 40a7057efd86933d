package pager_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zynqcloud/kvfs/internal/kv"
	"github.com/zynqcloud/kvfs/internal/pager"
)

func seedMemory(t *testing.T, n int) *kv.Memory {
	t.Helper()
	sub := kv.NewMemory()
	ctx := context.Background()
	for i := int64(0); i < int64(n); i++ {
		require.NoError(t, sub.Set(ctx, kv.Key{"chunks", "uri", i}, []byte{byte(i)}))
	}
	return sub
}

func TestIteratorWalksEveryEntryInOrder(t *testing.T) {
	sub := seedMemory(t, 25)
	it := pager.New(sub, kv.ListParams{Prefix: kv.Key{"chunks", "uri"}}, 7)

	var got []int64
	ctx := context.Background()
	for {
		page, ok, err := it.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, page.Entry.Key[2].(int64))
	}

	require.Len(t, got, 25)
	for i, v := range got {
		require.Equal(t, int64(i), v)
	}
}

func TestIteratorEmptyRangeReturnsNoEntries(t *testing.T) {
	sub := kv.NewMemory()
	it := pager.New(sub, kv.ListParams{Prefix: kv.Key{"chunks", "nothing"}}, 10)

	_, ok, err := it.Next(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIteratorExposesCursorOnPageBoundaries(t *testing.T) {
	sub := seedMemory(t, 10)
	it := pager.New(sub, kv.ListParams{Prefix: kv.Key{"chunks", "uri"}}, 4)

	ctx := context.Background()
	var boundaries int
	for {
		page, ok, err := it.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		if page.Cursor != "" {
			boundaries++
		}
	}
	// 10 entries at pageSize 4: boundaries after entry 4 and entry 8.
	require.Equal(t, 2, boundaries)
}

func TestIteratorDefaultsPageSize(t *testing.T) {
	sub := seedMemory(t, 3)
	it := pager.New(sub, kv.ListParams{Prefix: kv.Key{"chunks", "uri"}}, 0)

	count := 0
	ctx := context.Background()
	for {
		_, ok, err := it.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		count++
	}
	require.Equal(t, 3, count)
}
