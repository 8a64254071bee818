package datasource

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ArchiveSource resolves artifact paths as entry names inside an in-memory
// zip archive (the data.zip fallback bundle).
type ArchiveSource struct {
	entries map[string]*zip.File
}

// NewArchiveSource opens a zip archive held in memory. A decompression or
// directory-parse failure is reported as a malformed archive so callers can
// evict a corrupt persisted copy.
func NewArchiveSource(data []byte) (*ArchiveSource, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("malformed archive: %w", err)
	}
	entries := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		entries[strings.TrimPrefix(f.Name, "./")] = f
	}
	return &ArchiveSource{entries: entries}, nil
}

func (s *ArchiveSource) Origin() string { return "archive" }

// Has reports whether the archive carries an entry for the path.
func (s *ArchiveSource) Has(path string) bool {
	_, ok := s.entries[path]
	return ok
}

func (s *ArchiveSource) read(path string) ([]byte, error) {
	f, ok := s.entries[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open archive entry %s: %w", path, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (s *ArchiveSource) FetchJSON(ctx context.Context, path string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := s.read(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (s *ArchiveSource) FetchText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := s.read(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
