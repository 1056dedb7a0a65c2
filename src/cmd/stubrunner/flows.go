package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"stubrunner-agent/src/broker"
	"stubrunner-agent/src/flow"
	"stubrunner-agent/src/loader"
)

// flowsCmd validates the contracts and prints the flows they would register.
var flowsCmd = &cobra.Command{
	Use:   "flows",
	Short: "Validate contracts and list the flows they register",
	Long: `Load and validate the contracts without connecting to a broker, then list
every flow with its contracts in matching order.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		collection, err := loader.Load(appConfig.ContractsPath)
		if err != nil {
			return wrapError(&flow.ConfigurationError{Reason: "failed to load contracts", Err: err})
		}

		// Building never subscribes, so a throwaway broker is enough.
		registry, err := flow.NewBuilder(broker.Static(broker.NewInMemoryBroker()), flow.WithLogger(newLogger())).
			Build(collection)
		if err != nil {
			return wrapError(err)
		}

		printFlows(os.Stdout, registry)
		return nil
	},
}

func printFlows(w io.Writer, registry *flow.Registry) {
	if registry.Len() == 0 {
		fmt.Fprintln(w, "No message-driven contracts found")
		return
	}

	for _, f := range registry.Flows() {
		fmt.Fprintf(w, "%s\n", f.Name)
		fmt.Fprintf(w, "   stub: %s  listens on: %s\n", f.Stub, f.Destination)
		for i, c := range f.Router.Contracts() {
			fmt.Fprintf(w, "   %d. %-20s body %-8s → %s\n", i+1, c.Name, c.Input.Body.Kind(), c.Output.SentTo)
		}
	}
}
