package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pcgview",
		Short: "Explore place capability graph analysis output",
		Long: `Pcgview is an interactive client for step-by-step borrow analysis
output: it walks the control-flow graph of an analyzed function one
fixpoint phase and one action at a time, with the matching graph
snapshot and source span at every step.

Data is read from a live analysis server, a remote data.zip bundle,
or the archive persisted from a previous session.`,
	}

	rootCmd.PersistentFlags().String("datasrc", "", "Live data root URL (e.g. http://localhost:8080)")
	rootCmd.PersistentFlags().String("archive-url", "", "URL of a data.zip bundle to fall back to")
	rootCmd.PersistentFlags().String("state-dir", "", "Directory for persisted view state (default: user config dir)")

	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "Open the interactive terminal viewer",
		RunE:  RunView,
	}

	serveCmd := &cobra.Command{
		Use:   "serve [dir]",
		Short: "Serve an analysis output directory with upload and viewer sync",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunServe,
	}
	serveCmd.Flags().String("addr", "", "Listen address (default: $PCG_SERVE_ADDR or :8080)")

	functionsCmd := &cobra.Command{
		Use:   "functions",
		Short: "List the analyzed functions",
		RunE:  RunFunctions,
	}
	functionsCmd.Flags().Bool("json", false, "Print machine-readable function list")

	inspectCmd := &cobra.Command{
		Use:   "inspect <function> <point>",
		Short: "Print the step sequence at a program point",
		Long: `Inspect prints the flattened phase/action sequence the viewer steps
through at one program point. Points are written "bb<N>[<i>]" for the
i-th statement of block N (the index one past the last statement is
the terminator) or "bb<N> -> bb<M>" for a successor edge.`,
		Args: cobra.ExactArgs(2),
		RunE: RunInspect,
	}
	inspectCmd.Flags().Bool("json", false, "Print machine-readable step sequence")

	iterationsCmd := &cobra.Command{
		Use:   "iterations <function> <block>",
		Short: "Print the per-iteration graphs recorded for a loop block",
		Args:  cobra.ExactArgs(2),
		RunE:  RunIterations,
	}
	iterationsCmd.Flags().Bool("json", false, "Print machine-readable iteration listing")

	layoutCmd := &cobra.Command{
		Use:   "layout <function>",
		Short: "Print the computed CFG layout for a function",
		Args:  cobra.ExactArgs(1),
		RunE:  RunLayout,
	}
	layoutCmd.Flags().Bool("json", false, "Print machine-readable placements")
	layoutCmd.Flags().Bool("show-unwind", false, "Keep unwind edges and resume blocks")
	layoutCmd.Flags().String("path", "", `Restrict the graph to a block path, e.g. "bb0 -> bb2 -> bb5"`)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("pcgview %s\n", version)
		},
	}

	rootCmd.AddCommand(
		viewCmd,
		serveCmd,
		functionsCmd,
		inspectCmd,
		iterationsCmd,
		layoutCmd,
		versionCmd,
	)

	return rootCmd
}
