package kv_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zynqcloud/kvfs/internal/kv"
)

// substrateFactories builds each backend fresh per subtest so the three
// implementations run through an identical suite and must agree on ordering
// and cursor semantics.
func substrateFactories(t *testing.T) map[string]func() kv.Substrate {
	return map[string]func() kv.Substrate{
		"memory": func() kv.Substrate { return kv.NewMemory() },
		"bolt": func() kv.Substrate {
			s, err := kv.OpenBolt(filepath.Join(t.TempDir(), "store.db"), kv.BoltOptions{})
			require.NoError(t, err)
			return s
		},
		"dir": func() kv.Substrate {
			s, err := kv.NewDir(t.TempDir())
			require.NoError(t, err)
			return s
		},
	}
}

func TestSubstrateGetSetDelete(t *testing.T) {
	ctx := context.Background()
	for name, factory := range substrateFactories(t) {
		t.Run(name, func(t *testing.T) {
			sub := factory()
			defer sub.Close()

			_, found, err := sub.Get(ctx, kv.Key{"files", "a"})
			require.NoError(t, err)
			require.False(t, found)

			require.NoError(t, sub.Set(ctx, kv.Key{"files", "a"}, []byte("v1")))
			v, found, err := sub.Get(ctx, kv.Key{"files", "a"})
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, []byte("v1"), v)

			require.NoError(t, sub.Set(ctx, kv.Key{"files", "a"}, []byte("v2")))
			v, _, _ = sub.Get(ctx, kv.Key{"files", "a"})
			require.Equal(t, []byte("v2"), v)

			require.NoError(t, sub.Delete(ctx, kv.Key{"files", "a"}))
			_, found, _ = sub.Get(ctx, kv.Key{"files", "a"})
			require.False(t, found)

			// Deleting a missing key is a silent no-op.
			require.NoError(t, sub.Delete(ctx, kv.Key{"files", "ghost"}))
		})
	}
}

func TestSubstrateListOrdering(t *testing.T) {
	ctx := context.Background()
	for name, factory := range substrateFactories(t) {
		t.Run(name, func(t *testing.T) {
			sub := factory()
			defer sub.Close()

			for _, i := range []int64{1, 2, 9, 10, 11, 100} {
				require.NoError(t, sub.Set(ctx, kv.Key{"chunks", "uri", i}, []byte{byte(i)}))
			}

			res, err := sub.List(ctx, kv.ListParams{Prefix: kv.Key{"chunks", "uri"}})
			require.NoError(t, err)
			require.Len(t, res.Entries, 6)

			var got []int64
			for _, e := range res.Entries {
				got = append(got, e.Key[2].(int64))
			}
			require.Equal(t, []int64{1, 2, 9, 10, 11, 100}, got)
		})
	}
}

func TestSubstrateListPrefixIsolation(t *testing.T) {
	ctx := context.Background()
	for name, factory := range substrateFactories(t) {
		t.Run(name, func(t *testing.T) {
			sub := factory()
			defer sub.Close()

			require.NoError(t, sub.Set(ctx, kv.Key{"chunks", "abc", int64(0)}, []byte("x")))
			require.NoError(t, sub.Set(ctx, kv.Key{"chunks", "abd", int64(0)}, []byte("y")))

			res, err := sub.List(ctx, kv.ListParams{Prefix: kv.Key{"chunks", "abc"}})
			require.NoError(t, err)
			require.Len(t, res.Entries, 1)
			require.Equal(t, "abc", res.Entries[0].Key[1])
		})
	}
}

func TestSubstrateListCursorResumption(t *testing.T) {
	ctx := context.Background()
	for name, factory := range substrateFactories(t) {
		t.Run(name, func(t *testing.T) {
			sub := factory()
			defer sub.Close()

			for i := int64(0); i < 10; i++ {
				require.NoError(t, sub.Set(ctx, kv.Key{"chunks", "uri", i}, []byte{byte(i)}))
			}

			var all []int64
			cursor := ""
			for {
				res, err := sub.List(ctx, kv.ListParams{Prefix: kv.Key{"chunks", "uri"}, Limit: 3, Cursor: cursor})
				require.NoError(t, err)
				for _, e := range res.Entries {
					all = append(all, e.Key[2].(int64))
				}
				if res.Cursor == "" {
					break
				}
				cursor = res.Cursor
			}

			require.Equal(t, []int64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, all)
		})
	}
}
