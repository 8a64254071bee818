package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/prusti/pcg/internal/fileutil"
)

func RunFunctions(cmd *cobra.Command, args []string) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("failed to read --json flag: %w", err)
	}

	c, _, err := openCache(cmd)
	if err != nil {
		return err
	}
	fns, err := c.Functions(cmd.Context())
	if err != nil {
		return err
	}

	type entry struct {
		Slug string `json:"slug"`
		Name string `json:"name"`
		Line int    `json:"line"`
	}
	entries := make([]entry, 0, len(fns))
	for slug, meta := range fns {
		entries = append(entries, entry{Slug: slug, Name: meta.Name, Line: meta.Start.Line})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Slug < entries[j].Slug
	})

	if asJSON {
		return fileutil.PrintJSON(entries)
	}
	for _, e := range entries {
		fmt.Printf("%-40s %s\n", e.Name, e.Slug)
	}
	return nil
}
