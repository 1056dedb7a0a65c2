package tui

import (
	"context"
	"fmt"
	"time"

	"stubrunner-agent/src/contracts"
	"stubrunner-agent/src/flow"
	"stubrunner-agent/src/store"
)

// Snapshot is everything the monitor renders for one refresh.
type Snapshot struct {
	Flows  []FlowStatus
	Events []store.Event
	Taken  time.Time
}

// Source produces snapshots. It is polled on every refresh tick.
type Source interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// RegistrySource reads flows from a registry and events from a journal.
type RegistrySource struct {
	Registry   *flow.Registry
	Journal    store.Store
	EventLimit int
}

// Snapshot implements Source.
func (s RegistrySource) Snapshot(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{Taken: time.Now()}

	if s.Registry != nil {
		for _, f := range s.Registry.Flows() {
			snap.Flows = append(snap.Flows, flowStatus(f))
		}
	}

	if s.Journal != nil {
		limit := s.EventLimit
		if limit <= 0 {
			limit = 100
		}
		events, err := s.Journal.Recent(ctx, "", limit)
		if err != nil {
			return snap, fmt.Errorf("failed to read events: %w", err)
		}
		snap.Events = events
	}

	return snap, nil
}

func flowStatus(f *flow.Flow) FlowStatus {
	status := FlowStatus{
		Name:        f.Name,
		Stub:        f.Stub.String(),
		Destination: f.Destination,
		State:       f.Router.State().String(),
		Metrics:     f.Router.Metrics(),
	}
	for _, c := range f.Router.Contracts() {
		status.Contracts = append(status.Contracts, ContractLine{
			Name:    c.Name,
			Trigger: describeTrigger(c),
			SentTo:  c.Output.SentTo.String(),
		})
	}
	return status
}

func describeTrigger(c contracts.Contract) string {
	body := c.Input.Body
	trigger := "any body"
	switch body.Kind() {
	case contracts.PatternLiteral:
		trigger = fmt.Sprintf("body = %q", body.Value())
	case contracts.PatternRegex:
		trigger = fmt.Sprintf("body ~ /%s/", body.Value())
	}
	if n := len(c.Input.Headers); n > 0 {
		trigger += fmt.Sprintf(" + %d headers", n)
	}
	return trigger
}
