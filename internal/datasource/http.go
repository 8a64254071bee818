package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// HTTPSource fetches artifacts from a live endpoint rooted at a base URL.
type HTTPSource struct {
	root   string
	client *http.Client
}

// NewHTTPSource builds a live source for the given root URL.
func NewHTTPSource(root string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{root: strings.TrimRight(root, "/"), client: client}
}

func (s *HTTPSource) Origin() string { return "live" }

func (s *HTTPSource) get(ctx context.Context, path string) ([]byte, error) {
	u, err := url.JoinPath(s.root, path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch %s: unexpected status %s", path, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (s *HTTPSource) FetchJSON(ctx context.Context, path string, v any) error {
	data, err := s.get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (s *HTTPSource) FetchText(ctx context.Context, path string) (string, error) {
	data, err := s.get(ctx, path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
