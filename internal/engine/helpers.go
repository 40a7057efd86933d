package engine

import "io"

// ReadAll drains a FileRecord's Content stream to a byte slice. It is a
// convenience for callers that don't need end-to-end streaming themselves —
// the engine's own read path never calls this.
func ReadAll(r io.Reader) ([]byte, error) {
	return io.ReadAll(r)
}

// ReadAllString drains and UTF-8 decodes a FileRecord's Content stream.
func ReadAllString(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
