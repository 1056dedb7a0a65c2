// Package main provides the stub runner CLI: it loads messaging contracts,
// routes inbound messages to canned responses and exposes the running flows
// through a terminal monitor and an MCP server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stubrunner-agent/src/config"
	"stubrunner-agent/src/logger"
)

// Commands annotated with contractsOptional run without STUBRUNNER_CONTRACTS.
const (
	annotationContracts = "contracts"
	contractsOptional   = "optional"
)

var (
	appConfig *config.Config

	flagContracts string
	flagBrokers   string
	flagDatabase  string
	flagLogLevel  string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "stubrunner",
	Short: "Stub runner - serve messaging contracts as live broker stubs",
	Long: `The stub runner reads message contracts and answers every inbound message
that matches one with the contract's canned response.

It supports two modes:
- Local Mode: in-memory broker, useful for validating contracts (default)
- Redpanda Mode: real Kafka-compatible broker, shared with the system under test

Mode is auto-detected based on the REDPANDA_BROKERS environment variable.
Set DATABASE_URL to journal routing events to Postgres.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return wrapError(err)
		}
		appConfig = cfg
		return nil
	},
}

// loadConfig reads the environment and applies any flags given on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if flagContracts != "" {
		if err := os.Setenv(config.EnvContracts, flagContracts); err != nil {
			return nil, err
		}
	}

	load := config.LoadFromEnv
	if cmd.Annotations[annotationContracts] == contractsOptional {
		load = config.LoadBrokerFromEnv
	}
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("brokers") {
		cfg.RedpandaBrokers = config.SplitBrokers(flagBrokers)
	}
	if flags.Changed("database") {
		cfg.DatabaseURL = flagDatabase
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	return cfg, nil
}

func newLogger() logger.Logger {
	return logger.New(appConfig.LogLevel)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagContracts, "contracts", "c", "", "contract file or directory (overrides "+config.EnvContracts+")")
	pf.StringVar(&flagBrokers, "brokers", "", "comma-separated Redpanda brokers (overrides "+config.EnvBrokers+")")
	pf.StringVar(&flagDatabase, "database", "", "Postgres URL for the event journal (overrides "+config.EnvDatabase+")")
	pf.StringVar(&flagLogLevel, "log-level", "", "info, debug or silent (overrides "+config.EnvLogLevel+")")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(flowsCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(mcpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
