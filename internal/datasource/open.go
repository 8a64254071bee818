package datasource

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
)

// FunctionsPath is the probe artifact: a source that cannot serve it
// cannot serve anything else.
const FunctionsPath = "data/functions.json"

// ArchiveStore is the durable home for a previously fetched data.zip. It is
// implemented by the viewstate store.
type ArchiveStore interface {
	// LoadArchive returns the persisted archive bytes, refreshing the
	// entry's access clock. ok is false when absent or expired.
	LoadArchive() (data []byte, ok bool)
	SaveArchive(data []byte) error
	EvictArchive()
}

// Options configures the session-start fallback chain.
type Options struct {
	// Root is the live data root, typically from --datasrc.
	Root string
	// ArchiveURL is where a remote data.zip bundle may be fetched.
	ArchiveURL string
	// Store persists fetched archives across sessions. Optional.
	Store ArchiveStore
	// Client overrides the HTTP client used by the live and archive steps.
	Client *http.Client
}

// Open attempts, in order: the live endpoint, a remote archive bundle, a
// locally persisted archive. Each step runs exactly once; Open never
// retries. All steps failing yields ErrUnavailable.
func Open(ctx context.Context, opts Options) (Source, error) {
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}

	if opts.Root != "" {
		live := NewHTTPSource(opts.Root, opts.Client)
		var probe any
		if err := live.FetchJSON(ctx, FunctionsPath, &probe); err == nil {
			return live, nil
		} else if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("datasource: live root %s unreachable, trying archive", opts.Root)
	}

	if opts.ArchiveURL != "" {
		if src := fetchRemoteArchive(ctx, opts); src != nil {
			return src, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	if opts.Store != nil {
		if data, ok := opts.Store.LoadArchive(); ok {
			src, err := NewArchiveSource(data)
			if err != nil {
				// A corrupt persisted archive is equivalent to an
				// absent one.
				log.Printf("datasource: evicting corrupt persisted archive: %v", err)
				opts.Store.EvictArchive()
			} else {
				return src, nil
			}
		}
	}

	return nil, ErrUnavailable
}

func fetchRemoteArchive(ctx context.Context, opts Options) *ArchiveSource {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.ArchiveURL, nil)
	if err != nil {
		return nil
	}
	resp, err := opts.Client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	src, err := NewArchiveSource(data)
	if err != nil {
		log.Printf("datasource: remote archive unusable: %v", err)
		return nil
	}
	if opts.Store != nil {
		if err := opts.Store.SaveArchive(data); err != nil {
			log.Printf("datasource: persisting archive failed: %v", err)
		}
	}
	return src
}

// Describe renders a one-line summary of a source for status output.
func Describe(s Source) string {
	if s == nil {
		return "unavailable"
	}
	return fmt.Sprintf("data source: %s", s.Origin())
}
