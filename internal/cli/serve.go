package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/prusti/pcg/internal/web"
)

func RunServe(cmd *cobra.Command, args []string) error {
	cfg := web.LoadConfig()
	if len(args) == 1 {
		cfg.DataRoot = args[0]
	}
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return web.NewServer(cfg).Run(ctx)
}
