package datasource

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range entries {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create zip entry %s: %v", name, err)
		}
		if _, err := f.Write([]byte(body)); err != nil {
			t.Fatalf("write zip entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestArchiveSourceFetchAndNotFound(t *testing.T) {
	data := buildZip(t, map[string]string{
		"data/functions.json": `{"f":{"name":"f","source":"fn f() {}","start":{"line":1,"column":0}}}`,
		"data/f/graph.dot":    "digraph {}",
	})
	src, err := NewArchiveSource(data)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}

	var fns map[string]any
	if err := src.FetchJSON(context.Background(), "data/functions.json", &fns); err != nil {
		t.Fatalf("fetch functions: %v", err)
	}
	if len(fns) != 1 {
		t.Fatalf("expected 1 function, got %d", len(fns))
	}

	text, err := src.FetchText(context.Background(), "data/f/graph.dot")
	if err != nil {
		t.Fatalf("fetch text: %v", err)
	}
	if text != "digraph {}" {
		t.Fatalf("unexpected text: %q", text)
	}

	_, err = src.FetchText(context.Background(), "data/f/missing.dot")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewArchiveSourceRejectsMalformedData(t *testing.T) {
	if _, err := NewArchiveSource([]byte("not a zip")); err == nil {
		t.Fatalf("expected error for malformed archive")
	}
}

type fakeStore struct {
	data    []byte
	ok      bool
	saved   []byte
	evicted bool
}

func (f *fakeStore) LoadArchive() ([]byte, bool) { return f.data, f.ok }
func (f *fakeStore) SaveArchive(data []byte) error {
	f.saved = data
	return nil
}
func (f *fakeStore) EvictArchive() { f.evicted = true }

func TestOpenPrefersLiveSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/data/functions.json" {
			w.Write([]byte(`{}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	src, err := Open(context.Background(), Options{Root: srv.URL})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if src.Origin() != "live" {
		t.Fatalf("expected live origin, got %s", src.Origin())
	}
}

func TestOpenFallsBackToRemoteArchiveAndPersistsIt(t *testing.T) {
	data := buildZip(t, map[string]string{"data/functions.json": "{}"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/data.zip" {
			w.Write(data)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	store := &fakeStore{}
	src, err := Open(context.Background(), Options{
		Root:       srv.URL + "/nope",
		ArchiveURL: srv.URL + "/data.zip",
		Store:      store,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if src.Origin() != "archive" {
		t.Fatalf("expected archive origin, got %s", src.Origin())
	}
	if store.saved == nil {
		t.Fatalf("expected fetched archive to be persisted")
	}
}

func TestOpenEvictsCorruptPersistedArchive(t *testing.T) {
	store := &fakeStore{data: []byte("corrupt"), ok: true}
	_, err := Open(context.Background(), Options{Store: store})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if !store.evicted {
		t.Fatalf("expected corrupt archive to be evicted")
	}
}

func TestOpenRestoresPersistedArchive(t *testing.T) {
	data := buildZip(t, map[string]string{"data/functions.json": "{}"})
	store := &fakeStore{data: data, ok: true}
	src, err := Open(context.Background(), Options{Store: store})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if src.Origin() != "archive" {
		t.Fatalf("expected archive origin, got %s", src.Origin())
	}
}
