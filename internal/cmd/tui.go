package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/harrison/searchex/internal/config"
	"github.com/harrison/searchex/internal/engine"
	"github.com/harrison/searchex/internal/history"
	"github.com/harrison/searchex/internal/logger"
	"github.com/harrison/searchex/internal/tui"
)

// NewTUICommand creates the tui command
func NewTUICommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Interactive full-screen search",
		Long: `Open the interactive search screen: fill in a root and patterns,
watch matches stream in, and browse them with a preview pane.

Runs are recorded to history when history.enabled is set in the
config file.`,
		Args: cobra.NoArgs,
		RunE: tuiCommand,
	}
	cmd.Flags().String("config", "", "Path to config file (default: <home>/config.yaml)")
	return cmd
}

// tuiCommand implements the tui command logic
func tuiCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var store *history.Store
	if cfg.History.Enabled {
		if store, err = openStore(cfg); err != nil {
			return err
		}
		defer store.Close()
	}

	// Console logging would fight the alternate screen, so only the
	// file logger is attached.
	var log engine.Logger
	if cfg.Log.FileEnabled {
		dir := cfg.Log.Dir
		if dir == "" {
			if dir, err = config.GetLogsDir(); err != nil {
				return fmt.Errorf("resolve log directory: %w", err)
			}
		}
		fileLog, err := logger.NewFileLoggerWithLevel(dir, cfg.Log.Level)
		if err != nil {
			return fmt.Errorf("create file logger: %w", err)
		}
		defer fileLog.Close()
		log = fileLog
	}

	app := tui.NewApp(cfg, store, log)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
