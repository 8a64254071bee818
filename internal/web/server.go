// Package web serves the analysis artifacts over HTTP and keeps multiple
// viewers in sync over a websocket hub.
package web

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// maxUploadBytes bounds an uploaded data.zip.
const maxUploadBytes = 256 << 20

// Config holds the server settings.
type Config struct {
	Addr     string
	DataRoot string
}

// LoadConfig reads settings from the environment, loading a .env file when
// one is present next to the working directory.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := Config{
		Addr:     ":8080",
		DataRoot: ".",
	}
	if addr := os.Getenv("PCG_SERVE_ADDR"); addr != "" {
		cfg.Addr = addr
	} else if port := os.Getenv("PORT"); port != "" {
		cfg.Addr = ":" + port
	}
	if root := os.Getenv("PCG_DATA_ROOT"); root != "" {
		cfg.DataRoot = root
	}
	return cfg
}

// Server exposes the data directory, the upload endpoint and the sync
// websocket.
type Server struct {
	cfg Config
	hub *Hub
	mux *http.ServeMux
}

// NewServer wires the routes.
func NewServer(cfg Config) *Server {
	s := &Server{cfg: cfg, hub: NewHub()}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(cfg.DataRoot)))
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/ws", s.hub.HandleWS)
	s.mux = mux
	return s
}

// Hub returns the sync hub, for pushing frames from the local session.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the route table.
func (s *Server) Handler() http.Handler { return s.mux }

// Run serves until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: s.mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("serving %s at http://localhost%s", s.cfg.DataRoot, s.cfg.Addr)
	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleUpload accepts a multipart data.zip, extracts it under the data
// root and tells connected viewers to reload. The archive is staged to a
// temporary directory first so a bad upload never clobbers served data.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := extractArchive(data, s.cfg.DataRoot); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.hub.Broadcast(Frame{Type: FrameReload})
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

// extractArchive unpacks a zip into root via a staging directory.
func extractArchive(data []byte, root string) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("not a zip archive: %w", err)
	}

	staging, err := os.MkdirTemp(filepath.Dir(root), "pcg-upload-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(staging)

	for _, f := range zr.File {
		if err := extractFile(f, staging); err != nil {
			return err
		}
	}

	// Move the staged tree into place, replacing existing entries.
	entries, err := os.ReadDir(staging)
	if err != nil {
		return err
	}
	for _, e := range entries {
		dst := filepath.Join(root, e.Name())
		if err := os.RemoveAll(dst); err != nil {
			return err
		}
		if err := os.Rename(filepath.Join(staging, e.Name()), dst); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, staging string) error {
	name := filepath.Clean(f.Name)
	if name == ".." || strings.HasPrefix(name, ".."+string(os.PathSeparator)) || filepath.IsAbs(name) {
		return fmt.Errorf("archive entry escapes the data root: %q", f.Name)
	}
	dst := filepath.Join(staging, name)

	if f.FileInfo().IsDir() {
		return os.MkdirAll(dst, 0755)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}
