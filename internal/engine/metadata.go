package engine

import (
	"context"
	"fmt"
)

// GetMetadata returns the stored metadata for path, or nil if the file (or
// its metadata) doesn't exist.
func (e *Engine) GetMetadata(ctx context.Context, path []string) (map[string]any, error) {
	v, found, err := e.sub.Get(ctx, fileKey(path))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	rec, err := unmarshalFile(v)
	if err != nil {
		return nil, err
	}
	return rec.Metadata, nil
}

// SetMetadata replaces the metadata on the file record at path, leaving
// size/flags/content untouched. Unlike Save/Read/Delete, SetMetadata raises
// a Go error on oversized metadata rather than returning a FileStatus — the
// one deliberate exception in spec.md §7's propagation policy. A missing
// file record is a silent no-op.
func (e *Engine) SetMetadata(ctx context.Context, path []string, meta map[string]any) error {
	n, err := metadataSize(meta)
	if err != nil {
		return fmt.Errorf("engine: marshal metadata: %w", err)
	}
	if n > MaxMetadataBytes {
		return fmt.Errorf("Metadata exceeds 60KB limit")
	}

	v, found, err := e.sub.Get(ctx, fileKey(path))
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	rec, err := unmarshalFile(v)
	if err != nil {
		return err
	}
	rec.Metadata = meta
	return e.sub.Set(ctx, fileKey(path), mustMarshalFile(rec))
}
