package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prusti/pcg/internal/cache"
	"github.com/prusti/pcg/internal/datasource"
	"github.com/prusti/pcg/internal/viewstate"
)

func openStore(cmd *cobra.Command) (*viewstate.DiskStore, error) {
	dir, err := cmd.Flags().GetString("state-dir")
	if err != nil {
		return nil, fmt.Errorf("failed to read --state-dir flag: %w", err)
	}
	if dir == "" {
		dir, err = viewstate.DefaultDir()
		if err != nil {
			return nil, err
		}
	}
	return viewstate.Open(dir)
}

func openSource(cmd *cobra.Command, store *viewstate.DiskStore) (datasource.Source, error) {
	root, err := cmd.Flags().GetString("datasrc")
	if err != nil {
		return nil, fmt.Errorf("failed to read --datasrc flag: %w", err)
	}
	if root == "" {
		root = os.Getenv("PCG_DATASRC")
	}
	archiveURL, err := cmd.Flags().GetString("archive-url")
	if err != nil {
		return nil, fmt.Errorf("failed to read --archive-url flag: %w", err)
	}

	src, err := datasource.Open(cmd.Context(), datasource.Options{
		Root:       root,
		ArchiveURL: archiveURL,
		Store:      store,
	})
	if err != nil {
		return nil, fmt.Errorf("no data source reachable (tried --datasrc, --archive-url, persisted archive): %w", err)
	}
	return src, nil
}

func openCache(cmd *cobra.Command) (*cache.ArtifactCache, *viewstate.DiskStore, error) {
	store, err := openStore(cmd)
	if err != nil {
		return nil, nil, err
	}
	src, err := openSource(cmd, store)
	if err != nil {
		return nil, nil, err
	}
	c, err := cache.New(src)
	if err != nil {
		return nil, nil, err
	}
	return c, store, nil
}
