package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prusti/pcg/internal/fileutil"
	"github.com/prusti/pcg/internal/model"
)

func RunIterations(cmd *cobra.Command, args []string) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("failed to read --json flag: %w", err)
	}

	fn := args[0]
	block, err := model.ParseBlockID(args[1])
	if err != nil {
		return err
	}

	c, _, err := openCache(cmd)
	if err != nil {
		return err
	}
	its, err := c.BlockIterations(cmd.Context(), fn, block)
	if err != nil {
		return err
	}

	if asJSON {
		return fileutil.PrintJSON(its)
	}

	if len(its) == 0 {
		fmt.Printf("%s: no recorded fixpoint iterations\n", model.BlockID(block))
		return nil
	}
	for i, sg := range its {
		fmt.Printf("statement %d:\n", i)
		for _, pg := range sg.AtPhase {
			fmt.Printf("  %-16s %s\n", pg.Phase, pg.Filename)
		}
	}
	return nil
}
