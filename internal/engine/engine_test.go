package engine_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zynqcloud/kvfs/internal/chunk"
	"github.com/zynqcloud/kvfs/internal/engine"
	"github.com/zynqcloud/kvfs/internal/kv"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e := engine.New(kv.NewMemory(), nil, nil)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestSaveReadRoundTrip(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	rec, status, err := e.Save(ctx, engine.SaveOptions{
		Path:    []string{"docs", "hello.txt"},
		Content: engine.Content{Bytes: []byte("hello, kvfs")},
	})
	require.NoError(t, err)
	require.Nil(t, status)
	require.Equal(t, int64(len("hello, kvfs")), rec.Size)

	got, status, err := e.Read(ctx, engine.ReadOptions{Path: []string{"docs", "hello.txt"}})
	require.NoError(t, err)
	require.Nil(t, status)
	require.NotNil(t, got)

	content, err := engine.ReadAllString(got.Content)
	require.NoError(t, err)
	got.Content.Close()
	require.Equal(t, "hello, kvfs", content)
}

func TestReadMissingFileReturnsNilWithoutError(t *testing.T) {
	e := newEngine(t)
	rec, status, err := e.Read(context.Background(), engine.ReadOptions{Path: []string{"ghost"}})
	require.NoError(t, err)
	require.Nil(t, status)
	require.Nil(t, rec)
}

func TestSaveChunksLargePayload(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	data := bytes.Repeat([]byte("a"), chunk.Size*2+10)
	rec, status, err := e.Save(ctx, engine.SaveOptions{
		Path:    []string{"big.bin"},
		Content: engine.Content{Bytes: data},
	})
	require.NoError(t, err)
	require.Nil(t, status)
	require.Equal(t, int64(len(data)), rec.Size)

	got, _, err := e.Read(ctx, engine.ReadOptions{Path: []string{"big.bin"}})
	require.NoError(t, err)
	readBack, err := engine.ReadAll(got.Content)
	require.NoError(t, err)
	got.Content.Close()
	require.Equal(t, data, readBack)
}

// TestSaveOverwriteRetractsStaleTail ensures overwriting a file with a
// shorter payload removes the old trailing chunks rather than leaving them
// orphaned underneath the new, shorter content.
func TestSaveOverwriteRetractsStaleTail(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	long := bytes.Repeat([]byte("x"), chunk.Size*3)
	_, _, err := e.Save(ctx, engine.SaveOptions{Path: []string{"f"}, Content: engine.Content{Bytes: long}})
	require.NoError(t, err)

	short := []byte("short")
	rec, status, err := e.Save(ctx, engine.SaveOptions{Path: []string{"f"}, Content: engine.Content{Bytes: short}})
	require.NoError(t, err)
	require.Nil(t, status)
	require.Equal(t, int64(len(short)), rec.Size)

	got, _, err := e.Read(ctx, engine.ReadOptions{Path: []string{"f"}})
	require.NoError(t, err)
	readBack, err := engine.ReadAll(got.Content)
	require.NoError(t, err)
	got.Content.Close()
	require.Equal(t, short, readBack)
}

func TestDeleteIsIdempotent(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, _, err := e.Save(ctx, engine.SaveOptions{Path: []string{"f"}, Content: engine.Content{Text: "x"}})
	require.NoError(t, err)

	_, ok, err := e.Delete(ctx, engine.ReadOptions{Path: []string{"f"}})
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = e.Delete(ctx, engine.ReadOptions{Path: []string{"f"}})
	require.NoError(t, err)
	require.True(t, ok, "deleting an already-deleted path must still succeed")

	rec, _, err := e.Read(ctx, engine.ReadOptions{Path: []string{"f"}})
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestForbiddenAccessReturnsErrorStatus(t *testing.T) {
	e := newEngine(t)
	deny := func([]string) bool { return false }

	_, status, err := e.Save(context.Background(), engine.SaveOptions{
		Path: []string{"secret"}, Content: engine.Content{Text: "x"}, ValidateAccess: deny,
	})
	require.NoError(t, err)
	require.NotNil(t, status)
	require.Equal(t, "error", status.Status)
}

func TestExtensionFilterRejectsDisallowedExtension(t *testing.T) {
	e := newEngine(t)
	_, status, err := e.Save(context.Background(), engine.SaveOptions{
		Path:              []string{"file.exe"},
		Content:           engine.Content{Text: "x"},
		AllowedExtensions: []string{"txt", "md"},
	})
	require.NoError(t, err)
	require.NotNil(t, status)
	require.Equal(t, "error", status.Status)
}

func TestMetadataOverLimitRejectedOnSave(t *testing.T) {
	e := newEngine(t)
	big := make(map[string]any)
	big["blob"] = string(bytes.Repeat([]byte("x"), engine.MaxMetadataBytes+1))

	_, status, err := e.Save(context.Background(), engine.SaveOptions{
		Path: []string{"f"}, Content: engine.Content{Text: "x"}, Metadata: big,
	})
	require.NoError(t, err)
	require.NotNil(t, status)
	require.Equal(t, "error", status.Status)
}

// blockingReader signals readStarted the first time Read is called, then
// blocks until release is closed — used to hold a Save in flight for as
// long as a test needs, without racing on goroutine scheduling.
type blockingReader struct {
	readStarted chan struct{}
	release     chan struct{}
	started     bool
}

func newBlockingReader() *blockingReader {
	return &blockingReader{readStarted: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingReader) Read(p []byte) (int, error) {
	if !b.started {
		b.started = true
		close(b.readStarted)
	}
	<-b.release
	return 0, io.EOF
}

func TestConcurrencyCapRejectsExcessClientRequests(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	br := newBlockingReader()
	go func() {
		e.Save(ctx, engine.SaveOptions{ //nolint:errcheck
			Path: []string{"slow"}, Content: engine.Content{Stream: br}, ClientID: "c1",
		})
	}()
	<-br.readStarted

	_, status, err := e.Save(ctx, engine.SaveOptions{
		Path: []string{"other"}, Content: engine.Content{Text: "x"},
		ClientID: "c1", MaxClientIDConcurrentReqs: 1,
	})
	close(br.release)
	require.NoError(t, err)
	require.NotNil(t, status)
	require.Equal(t, "error", status.Status)
}

func TestMutualExclusionReturnsSavingStatus(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	br := newBlockingReader()

	done := make(chan struct{})
	go func() {
		e.Save(ctx, engine.SaveOptions{Path: []string{"f"}, Content: engine.Content{Stream: br}}) //nolint:errcheck
		close(done)
	}()
	<-br.readStarted

	_, status, err := e.Read(ctx, engine.ReadOptions{Path: []string{"f"}})
	require.NoError(t, err)
	require.NotNil(t, status)
	require.Equal(t, "saving", status.Status)

	close(br.release)
	<-done
}

func TestReadDirListsSavedFiles(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		_, _, err := e.Save(ctx, engine.SaveOptions{Path: []string{"dir", name}, Content: engine.Content{Text: "x"}})
		require.NoError(t, err)
	}

	list, err := e.ReadDir(ctx, engine.ReadOptions{Path: []string{"dir"}})
	require.NoError(t, err)
	require.Len(t, list.Entries, 3)
	require.Equal(t, int64(3), list.Size)
}

func TestReadDirPagination(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _, err := e.Save(ctx, engine.SaveOptions{
			Path: []string{"dir", string(rune('a' + i))}, Content: engine.Content{Text: "x"},
		})
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	cursor := ""
	for {
		list, err := e.ReadDir(ctx, engine.ReadOptions{
			Path: []string{"dir"}, Pagination: true, Cursor: cursor,
		})
		require.NoError(t, err)
		for _, ent := range list.Entries {
			require.NotNil(t, ent.Record)
			seen[ent.Record.URIComponent] = true
		}
		if list.Cursor == "" {
			break
		}
		cursor = list.Cursor
	}
	require.Len(t, seen, 5)
}

func TestDeleteDirRemovesEveryFile(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b"} {
		_, _, err := e.Save(ctx, engine.SaveOptions{Path: []string{"dir", name}, Content: engine.Content{Text: "x"}})
		require.NoError(t, err)
	}

	_, err := e.DeleteDir(ctx, engine.ReadOptions{Path: []string{"dir"}})
	require.NoError(t, err)

	list, err := e.ReadDir(ctx, engine.ReadOptions{Path: []string{"dir"}})
	require.NoError(t, err)
	require.Empty(t, list.Entries)
}

func TestGetSetMetadata(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, _, err := e.Save(ctx, engine.SaveOptions{Path: []string{"f"}, Content: engine.Content{Text: "x"}})
	require.NoError(t, err)

	require.NoError(t, e.SetMetadata(ctx, []string{"f"}, map[string]any{"k": "v"}))
	meta, err := e.GetMetadata(ctx, []string{"f"})
	require.NoError(t, err)
	require.Equal(t, "v", meta["k"])
}

func TestSetMetadataOnMissingFileIsNoop(t *testing.T) {
	e := newEngine(t)
	require.NoError(t, e.SetMetadata(context.Background(), []string{"ghost"}, map[string]any{"k": "v"}))
}

func TestSetMetadataOverLimitReturnsGoError(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	_, _, err := e.Save(ctx, engine.SaveOptions{Path: []string{"f"}, Content: engine.Content{Text: "x"}})
	require.NoError(t, err)

	big := map[string]any{"blob": string(bytes.Repeat([]byte("x"), engine.MaxMetadataBytes+1))}
	err = e.SetMetadata(ctx, []string{"f"}, big)
	require.Error(t, err)
}

func TestRecoverOnCleanStoreKeepsCommittedFile(t *testing.T) {
	sub := kv.NewMemory()
	e := engine.New(sub, nil, nil)
	defer e.Close()
	ctx := context.Background()

	_, _, err := e.Save(ctx, engine.SaveOptions{Path: []string{"f"}, Content: engine.Content{Text: "data"}})
	require.NoError(t, err)

	// A clean save clears its own marker; Recover on a clean store is a
	// no-op and must not disturb the file it already committed.
	e.Recover(ctx)
	rec, _, err := e.Read(ctx, engine.ReadOptions{Path: []string{"f"}})
	require.NoError(t, err)
	require.NotNil(t, rec)
}

func TestRecoverCleansUpOrphanedChunksWithNoFileRecord(t *testing.T) {
	sub := kv.NewMemory()
	e := engine.New(sub, nil, nil)
	defer e.Close()
	ctx := context.Background()

	// Simulate a crash mid-save: chunks landed and an unresolved marker was
	// written, but the process died before the file record was committed or
	// the marker cleared. Seed that state directly, with no call to Save.
	path := []string{"orphan", "f"}
	uri := e.PathToURIComponent(path)

	chunksKey := kv.Key{"kvfs", "chunks", uri}
	for i := int64(1); i <= 5; i++ {
		key := append(append(kv.Key{}, chunksKey...), i)
		require.NoError(t, sub.Set(ctx, key, []byte("orphaned chunk data")))
	}

	marker, err := json.Marshal(map[string]any{"path": path})
	require.NoError(t, err)
	require.NoError(t, sub.Set(ctx, kv.Key{"kvfs", "unresolved", uri}, marker))

	e.Recover(ctx)

	chunks, err := sub.List(ctx, kv.ListParams{Prefix: chunksKey})
	require.NoError(t, err)
	require.Empty(t, chunks.Entries, "Recover must delete every orphaned chunk")

	_, found, err := sub.Get(ctx, kv.Key{"kvfs", "unresolved", uri})
	require.NoError(t, err)
	require.False(t, found, "Recover must clear the unresolved marker")
}

func TestPathToURIComponentRoundTrip(t *testing.T) {
	e := newEngine(t)
	uri := e.PathToURIComponent([]string{"a", "b c"})
	path, err := e.URIComponentToPath(uri)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b c"}, path)
}
