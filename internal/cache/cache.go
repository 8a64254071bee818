// Package cache memoizes the expensive per-function artifacts behind the
// data source.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/prusti/pcg/internal/datasource"
	"github.com/prusti/pcg/internal/model"
)

// dotTextEntries bounds the dot-graph text cache. Graph files are small
// but there is one per action per statement per phase.
const dotTextEntries = 512

// FunctionArtifacts bundles the two expensive payloads for one function.
// Entries are immutable once fetched; a refetch replaces the whole entry.
type FunctionArtifacts struct {
	Mir *model.MirGraph
	Pcg model.PcgData
}

type entry struct {
	ready     chan struct{}
	artifacts *FunctionArtifacts
	err       error
}

// ArtifactCache guarantees at most one underlying fetch per function per
// session. Concurrent lookups for the same key before the first completes
// await the in-flight result instead of issuing a duplicate fetch; the
// insert-if-absent happens under the lock.
type ArtifactCache struct {
	src datasource.Source

	mu      sync.Mutex
	entries map[string]*entry

	dotText *lru.Cache[string, string]
}

// New builds a cache over the given source. The cache is scoped to the
// session; there is no eviction of function entries.
func New(src datasource.Source) (*ArtifactCache, error) {
	dotText, err := lru.New[string, string](dotTextEntries)
	if err != nil {
		return nil, err
	}
	return &ArtifactCache{
		src:     src,
		entries: make(map[string]*entry),
		dotText: dotText,
	}, nil
}

// Functions fetches the function index. Small enough to not be cached.
func (c *ArtifactCache) Functions(ctx context.Context) (model.Functions, error) {
	var fns model.Functions
	if err := c.src.FetchJSON(ctx, datasource.FunctionsPath, &fns); err != nil {
		return nil, err
	}
	return fns, nil
}

// Function returns the memoized artifacts for a function, fetching them on
// first use.
func (c *ArtifactCache) Function(ctx context.Context, fn string) (*FunctionArtifacts, error) {
	c.mu.Lock()
	e, inflight := c.entries[fn]
	if !inflight {
		e = &entry{ready: make(chan struct{})}
		c.entries[fn] = e
	}
	c.mu.Unlock()

	if inflight {
		select {
		case <-e.ready:
			return e.artifacts, e.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	e.artifacts, e.err = c.fetch(ctx, fn)
	close(e.ready)
	return e.artifacts, e.err
}

// Invalidate drops a function's entry so the next lookup refetches. The
// entry is replaced wholesale, never partially updated.
func (c *ArtifactCache) Invalidate(fn string) {
	c.mu.Lock()
	delete(c.entries, fn)
	c.mu.Unlock()
}

func (c *ArtifactCache) fetch(ctx context.Context, fn string) (*FunctionArtifacts, error) {
	art := &FunctionArtifacts{Mir: &model.MirGraph{}, Pcg: model.PcgData{}}

	err := c.src.FetchJSON(ctx, fmt.Sprintf("data/%s/mir.json", fn), art.Mir)
	if err != nil && !errors.Is(err, datasource.ErrNotFound) {
		return nil, err
	}
	err = c.src.FetchJSON(ctx, fmt.Sprintf("data/%s/pcg_data.json", fn), &art.Pcg)
	if err != nil && !errors.Is(err, datasource.ErrNotFound) {
		return nil, err
	}
	return art, nil
}

// GraphText fetches one dot-graph description through a bounded LRU.
func (c *ArtifactCache) GraphText(ctx context.Context, fn, filename string) (string, error) {
	key := fn + "/" + filename
	if text, ok := c.dotText.Get(key); ok {
		return text, nil
	}
	text, err := c.src.FetchText(ctx, fmt.Sprintf("data/%s/%s", fn, filename))
	if err != nil {
		return "", err
	}
	c.dotText.Add(key, text)
	return text, nil
}

// GraphMeta fetches the metadata sidecar of a dot graph into v. A missing
// sidecar is recovered as absence, not an error.
func (c *ArtifactCache) GraphMeta(ctx context.Context, fn, filename string, v any) (bool, error) {
	path := fmt.Sprintf("data/%s/%s.meta.json", fn, strings.TrimSuffix(filename, ".dot"))
	err := c.src.FetchJSON(ctx, path, v)
	if errors.Is(err, datasource.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// BlockIterations fetches the dataflow-iteration graph listing for one
// block, preferring the bundled all_iterations.json. Absence is recovered
// as an empty listing.
func (c *ArtifactCache) BlockIterations(ctx context.Context, fn string, block int) (model.BlockIterations, error) {
	var all model.AllIterations
	err := c.src.FetchJSON(ctx, fmt.Sprintf("data/%s/all_iterations.json", fn), &all)
	if err == nil {
		if its, ok := all[model.BlockID(block)]; ok {
			return its, nil
		}
		return model.BlockIterations{}, nil
	}
	if !errors.Is(err, datasource.ErrNotFound) {
		return nil, err
	}

	var its model.BlockIterations
	err = c.src.FetchJSON(ctx, fmt.Sprintf("data/%s/block_%d_iterations.json", fn, block), &its)
	if errors.Is(err, datasource.ErrNotFound) {
		return model.BlockIterations{}, nil
	}
	if err != nil {
		return nil, err
	}
	return its, nil
}
