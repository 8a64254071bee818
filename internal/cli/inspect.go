package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prusti/pcg/internal/fileutil"
	"github.com/prusti/pcg/internal/nav"
)

func RunInspect(cmd *cobra.Command, args []string) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("failed to read --json flag: %w", err)
	}

	fn := args[0]
	point, err := nav.ParsePoint(args[1])
	if err != nil {
		return err
	}

	c, _, err := openCache(cmd)
	if err != nil {
		return err
	}
	arts, err := c.Function(cmd.Context(), fn)
	if err != nil {
		return err
	}

	var items []nav.Item
	switch p := point.(type) {
	case nav.StatementPoint:
		bd, ok := arts.Pcg.Block(p.Block)
		if !ok || p.StmtIndex >= len(bd.Statements) {
			return fmt.Errorf("no analysis data at %s", point)
		}
		items = nav.BuildStatementItems(&bd.Statements[p.StmtIndex])
	case nav.EdgePoint:
		bd, ok := arts.Pcg.Block(p.From)
		if !ok {
			return fmt.Errorf("no analysis data at %s", point)
		}
		sd, ok := bd.Successor(p.To)
		if !ok {
			return fmt.Errorf("no analysis data at %s", point)
		}
		items = nav.BuildEdgeItems(&sd)
	}

	if asJSON {
		type step struct {
			Position  string `json:"position"`
			Label     string `json:"label"`
			GraphFile string `json:"graph_file,omitempty"`
		}
		steps := make([]step, 0, len(items))
		for _, it := range items {
			steps = append(steps, step{Position: it.Position.String(), Label: it.Label, GraphFile: it.GraphFile})
		}
		return fileutil.PrintJSON(steps)
	}

	fmt.Printf("%s: %d steps\n", point, len(items))
	for i, it := range items {
		if it.GraphFile != "" {
			fmt.Printf("%3d. %-28s %s  (%s)\n", i+1, it.Position, it.Label, it.GraphFile)
			continue
		}
		fmt.Printf("%3d. %-28s %s\n", i+1, it.Position, it.Label)
	}
	return nil
}
