package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prusti/pcg/internal/fileutil"
	"github.com/prusti/pcg/internal/layout"
	"github.com/prusti/pcg/internal/model"
	"github.com/prusti/pcg/internal/nav"
)

func RunLayout(cmd *cobra.Command, args []string) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("failed to read --json flag: %w", err)
	}
	showUnwind, err := cmd.Flags().GetBool("show-unwind")
	if err != nil {
		return fmt.Errorf("failed to read --show-unwind flag: %w", err)
	}
	pathSpec, err := cmd.Flags().GetString("path")
	if err != nil {
		return fmt.Errorf("failed to read --path flag: %w", err)
	}
	restriction, err := nav.ParsePath(pathSpec)
	if err != nil {
		return err
	}

	c, _, err := openCache(cmd)
	if err != nil {
		return err
	}
	arts, err := c.Function(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	filtered := layout.Filter(arts.Mir, layout.Options{
		ShowUnwind:      showUnwind,
		PathRestriction: restriction,
	})
	result := layout.Compute(filtered, layout.HeightInputs{})

	if asJSON {
		return fileutil.PrintJSON(result)
	}

	fmt.Printf("%d blocks, %d edges, %.0fx%.0f\n",
		len(result.Placements), len(result.Edges), result.Width, result.Height)
	for _, block := range filtered.Blocks() {
		p := result.Placements[block]
		fmt.Printf("%-6s x=%-7.1f y=%-7.1f h=%.1f\n", model.BlockID(p.Block), p.X, p.Y, p.Height)
	}
	return nil
}
