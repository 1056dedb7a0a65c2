package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"stubrunner-agent/src/logger"
	"stubrunner-agent/src/pipeline"
	"stubrunner-agent/src/tui"
)

var monitorRefresh = tui.DefaultRefreshInterval

// monitorCmd runs the flows behind the terminal monitor.
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the stub runner with a live terminal monitor",
	Long: `Start every flow and show their counters, contracts and latest routing
events in a terminal UI. Logs are suppressed while the UI owns the screen;
routing events are still journaled.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		rt, err := pipeline.Start(ctx, pipeline.Options{Config: appConfig, Logger: logger.NewSilentLogger()})
		if err != nil {
			return wrapError(err)
		}
		defer rt.Close()

		source := tui.RegistrySource{Registry: rt.Registry, Journal: rt.Store}
		p := tea.NewProgram(tui.NewMainModel(source, monitorRefresh), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
			return err
		}
		return nil
	},
}

func init() {
	monitorCmd.Flags().DurationVar(&monitorRefresh, "refresh", tui.DefaultRefreshInterval, "refresh interval")
}
