package web

import (
	"archive/zip"
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/prusti/pcg/internal/highlight"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func uploadRequest(t *testing.T, url string, archive []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "data.zip")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := fw.Write(archive); err != nil {
		t.Fatalf("form write: %v", err)
	}
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, url, &body)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadExtractsAndServes(t *testing.T) {
	root := t.TempDir()
	srv := NewServer(Config{DataRoot: root})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	archive := buildZip(t, map[string]string{
		"data/functions.json": `{"main":{"name":"main"}}`,
		"data/main/mir.json":  `{"nodes":[],"edges":[]}`,
	})
	resp, err := http.DefaultClient.Do(uploadRequest(t, ts.URL+"/upload", archive))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status %d", resp.StatusCode)
	}

	got, err := os.ReadFile(filepath.Join(root, "data", "functions.json"))
	if err != nil {
		t.Fatalf("extracted file missing: %v", err)
	}
	if !strings.Contains(string(got), "main") {
		t.Fatalf("unexpected extracted content %q", got)
	}

	// The extracted tree is served over the same mux.
	resp, err = http.Get(ts.URL + "/data/functions.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("serve status %d", resp.StatusCode)
	}
}

func TestUploadRejectsGarbageAndTraversal(t *testing.T) {
	root := t.TempDir()
	srv := NewServer(Config{DataRoot: root})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.DefaultClient.Do(uploadRequest(t, ts.URL+"/upload", []byte("not a zip")))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected garbage rejected, got %d", resp.StatusCode)
	}

	evil := buildZip(t, map[string]string{"../escape.txt": "x"})
	resp, err = http.DefaultClient.Do(uploadRequest(t, ts.URL+"/upload", evil))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected traversal rejected, got %d", resp.StatusCode)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(root), "escape.txt")); err == nil {
		t.Fatalf("traversal entry must not be written outside the root")
	}
}

func TestHubBroadcastReachesClients(t *testing.T) {
	srv := NewServer(Config{DataRoot: t.TempDir()})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	waitForClients(t, srv.Hub(), 1)
	srv.Hub().Broadcast(Frame{
		Type:  FrameHighlight,
		Keys:  []highlight.Key{{From: 0, To: 1}},
		Point: "bb0[0]",
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Frame
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if got.Type != FrameHighlight || len(got.Keys) != 1 || got.Keys[0] != (highlight.Key{From: 0, To: 1}) {
		t.Fatalf("unexpected frame %+v", got)
	}
}

func TestInboundSelectIsRebroadcast(t *testing.T) {
	srv := NewServer(Config{DataRoot: t.TempDir()})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	sender, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial sender: %v", err)
	}
	defer sender.Close()
	receiver, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial receiver: %v", err)
	}
	defer receiver.Close()

	waitForClients(t, srv.Hub(), 2)
	if err := sender.WriteJSON(Frame{Type: FrameSelect, Point: "bb1[0]", Position: "pre_main"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	receiver.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Frame
	if err := receiver.ReadJSON(&got); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if got.Type != FrameSelect || got.Point != "bb1[0]" || got.Position != "pre_main" {
		t.Fatalf("unexpected frame %+v", got)
	}
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d clients", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
