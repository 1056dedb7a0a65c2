package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"stubrunner-agent/src/logger"
	"stubrunner-agent/src/mcp"
	"stubrunner-agent/src/pipeline"
)

// mcpCmd serves the running flows over the Model Context Protocol.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the stub runner as an MCP server on stdio",
	Long: `Start every flow and expose them as MCP tools (list_flows, get_flow,
send_message, recent_events) over stdin/stdout. Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// stdout carries the protocol.
		var log logger.Logger = logger.NewSilentLogger()
		if appConfig.LogLevel != "silent" {
			log = logger.NewWriterLogger(os.Stderr, appConfig.LogLevel == "debug")
		}

		rt, err := pipeline.Start(ctx, pipeline.Options{Config: appConfig, Logger: log})
		if err != nil {
			return wrapError(err)
		}
		defer rt.Close()

		return mcp.NewServer(rt.Registry, rt.Broker, rt.Store).Run()
	},
}
