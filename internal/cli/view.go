package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/prusti/pcg/internal/session"
	"github.com/prusti/pcg/internal/tui"
)

func RunView(cmd *cobra.Command, args []string) error {
	c, store, err := openCache(cmd)
	if err != nil {
		return err
	}

	s := session.New(c, store)
	program := tea.NewProgram(tui.InitialModel(s, store), tea.WithAltScreen())
	_, err = program.Run()
	return err
}
