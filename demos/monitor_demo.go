// Demo program to showcase the stub runner monitor with live synthetic traffic.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"stubrunner-agent/src/broker"
	"stubrunner-agent/src/contracts"
	"stubrunner-agent/src/flow"
	"stubrunner-agent/src/store"
	"stubrunner-agent/src/tui"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	brk := broker.NewInMemoryBroker()
	defer brk.Close()
	journal := store.NewMemoryStore(500)

	fmt.Println("Registering sample flows...")
	registry, err := flow.NewBuilder(broker.Static(brk), flow.WithStore(journal)).
		BuildAndStart(ctx, sampleContracts())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting flows: %v\n", err)
		os.Exit(1)
	}
	defer registry.Stop()

	fmt.Printf("Started %d flows. Launching monitor...\n", registry.Len())
	time.Sleep(500 * time.Millisecond)

	go generateTraffic(ctx, brk)

	source := tui.RegistrySource{Registry: registry, Journal: journal}
	p := tea.NewProgram(tui.NewMainModel(source, 500*time.Millisecond), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

// traffic is what the demo publishes; some bodies deliberately match nothing.
var traffic = []struct {
	destination string
	body        string
}{
	{"orders.in", "CREATE"},
	{"orders.in", "CANCEL"},
	{"orders.in", "ORD-1042"},
	{"orders.in", "REFUND"},
	{"billing.in", `{"amount": 10, "currency": "EUR"}`},
	{"billing.in", `{"currency":"EUR","amount":10}`},
	{"billing.in", "charge-77"},
	{"shipping.in", "dispatch"},
	{"shipping.in", "<xml/>"},
}

func generateTraffic(ctx context.Context, brk broker.Broker) {
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		msg := traffic[rand.Intn(len(traffic))]
		_ = brk.Publish(ctx, msg.destination, fmt.Sprintf("demo-%d", i), []byte(msg.body))
	}
}

func sampleContracts() contracts.Collection {
	reply := func(name, from string, body contracts.Pattern, to, response string) contracts.Contract {
		return contracts.Contract{
			Name:   name,
			Input:  contracts.Input{From: contracts.At(from), Body: body},
			Output: contracts.Output{SentTo: contracts.At(to), Body: response},
		}
	}

	return contracts.Collection{
		{Group: "com.acme", Artifact: "orders"}: {
			reply("create-order", "orders.in", contracts.Literal("CREATE"), "orders.out", `{"status":"CREATED"}`),
			reply("cancel-order", "orders.in", contracts.Literal("CANCEL"), "orders.out", `{"status":"CANCELLED"}`),
			reply("lookup-order", "orders.in", contracts.MustRegex("ORD-[0-9]+"), "orders.out", `{"status":"FOUND"}`),
		},
		{Group: "com.acme", Artifact: "billing"}: {
			reply("charge-eur", "billing.in", contracts.Literal(`{"amount":10,"currency":"EUR"}`), "billing.out", "CHARGED"),
			reply("charge-ref", "billing.in", contracts.MustRegex("charge-[0-9]+"), "billing.out", "CHARGED"),
		},
		{Group: "com.acme", Artifact: "shipping"}: {
			reply("dispatch", "shipping.in", contracts.Any(), "shipping.out", "DISPATCHED"),
		},
	}
}
