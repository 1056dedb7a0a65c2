package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"stubrunner-agent/src/pipeline"
)

// runCmd starts every flow and serves until interrupted.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the stub runner and answer matching messages",
	Long: `Load the contracts, register one flow per stub and input destination,
and answer matching messages until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log := newLogger()
		rt, err := pipeline.Start(ctx, pipeline.Options{Config: appConfig, Logger: log})
		if err != nil {
			return wrapError(err)
		}
		defer rt.Close()

		fmt.Printf("🔧 Running in %s mode with %d flows\n", rt.Mode, rt.Registry.Len())
		if rt.Mode == pipeline.LocalMode {
			fmt.Println("💡 Tip: Set REDPANDA_BROKERS to serve a real broker")
		}
		for _, f := range rt.Registry.Flows() {
			fmt.Printf("   • %s ← %s (%d contracts)\n", f.Name, f.Destination, len(f.Router.Contracts()))
		}

		<-ctx.Done()
		fmt.Println("\nShutting down...")
		return nil
	},
}
