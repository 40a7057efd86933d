package engine

import "encoding/json"

// storedFile is the on-disk shape of a file record — FileRecord minus its
// Content stream, which is never persisted (it's attached lazily by Read).
type storedFile struct {
	Path         []string       `json:"path"`
	Size         int64          `json:"size"`
	Flags        []string       `json:"flags"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	URIComponent string         `json:"uriComponent"`
}

func marshalFile(rec FileRecord) ([]byte, error) {
	return json.Marshal(storedFile{
		Path:         rec.Path,
		Size:         rec.Size,
		Flags:        rec.Flags,
		Metadata:     rec.Metadata,
		URIComponent: rec.URIComponent,
	})
}

func unmarshalFile(b []byte) (FileRecord, error) {
	var sf storedFile
	if err := json.Unmarshal(b, &sf); err != nil {
		return FileRecord{}, err
	}
	return FileRecord{
		Path:         sf.Path,
		Size:         sf.Size,
		Flags:        sf.Flags,
		Metadata:     sf.Metadata,
		URIComponent: sf.URIComponent,
	}, nil
}
