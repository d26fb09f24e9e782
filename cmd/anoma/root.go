package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Vinod798751/anoma/internal/config"
	"github.com/Vinod798751/anoma/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "anoma",
	Short: "Versioned, namespaced key-value storage node",
	Long: `anoma runs the node's versioned storage engine: every write advances a
per-key version counter and is kept forever at its own (version, key)
coordinate. One-shot kv commands operate on the data directory directly;
serve runs the storage actor as a daemon.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Initialize(); err != nil {
			return err
		}
		logging.Setup(config.LogLevel(), config.LogFile())
		return nil
	},
}

// Output styles, disabled when stdout is not a terminal.
var (
	presentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	absentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Faint(true)
	labelStyle   = lipgloss.NewStyle().Bold(true)
)

func styled(style lipgloss.Style, s string) string {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return s
	}
	return style.Render(s)
}
