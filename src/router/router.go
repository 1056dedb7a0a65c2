// Package router answers inbound messages on one destination using the
// contracts of a single flow.
package router

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"stubrunner-agent/src/broker"
	"stubrunner-agent/src/contracts"
	"stubrunner-agent/src/logger"
	"stubrunner-agent/src/matcher"
	"stubrunner-agent/src/sanitize"
	"stubrunner-agent/src/store"
)

// Sender delivers a message to a destination. broker.Broker satisfies it.
type Sender interface {
	Send(ctx context.Context, topic string, msg broker.Message) error
}

// State of a Router.
type State int

const (
	// Idle: holding its contracts, no message in flight.
	Idle State = iota
	// Active: at least one message is being matched or dispatched.
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "idle"
}

// SendError reports a failure to deliver a matched contract's response.
type SendError struct {
	Flow        string
	Contract    string
	Destination string
	Err         error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("flow %s: failed to send response of contract %q to %s: %v",
		e.Flow, e.Contract, e.Destination, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// Config holds what a Router needs. Contracts are copied; the router never mutates them.
type Config struct {
	Name        string
	Destination string
	Contracts   []contracts.Contract
	Sender      Sender
	Logger      logger.Logger
	// Store journals routing outcomes. Optional.
	Store store.Store
}

// Router services one contract group. It is immutable after construction apart
// from its counters, so OnMessage may be called from many goroutines at once.
type Router struct {
	name        string
	destination string
	contracts   []contracts.Contract
	sender      Sender
	logger      logger.Logger
	store       store.Store
	metrics     *Metrics
	inFlight    atomic.Int64
}

// New creates a Router in the Idle state.
func New(cfg Config) *Router {
	log := cfg.Logger
	if log == nil {
		log = logger.NewSilentLogger()
	}

	group := make([]contracts.Contract, len(cfg.Contracts))
	copy(group, cfg.Contracts)

	return &Router{
		name:        cfg.Name,
		destination: cfg.Destination,
		contracts:   group,
		sender:      cfg.Sender,
		logger:      log,
		store:       cfg.Store,
		metrics:     NewMetrics(),
	}
}

// Name returns the flow name the router serves.
func (r *Router) Name() string { return r.name }

// Destination returns the destination the router listens on.
func (r *Router) Destination() string { return r.destination }

// Contracts returns a copy of the router's contracts in match order.
func (r *Router) Contracts() []contracts.Contract {
	out := make([]contracts.Contract, len(r.contracts))
	copy(out, r.contracts)
	return out
}

// State reports whether a message is currently being handled.
func (r *Router) State() State {
	if r.inFlight.Load() > 0 {
		return Active
	}
	return Idle
}

// Metrics returns a snapshot of the router's counters.
func (r *Router) Metrics() MetricsSnapshot {
	return r.metrics.Snapshot()
}

// Match runs the matcher against this router's contracts without sending anything.
func (r *Router) Match(msg broker.Message) matcher.Result {
	return matcher.Match(msg, r.contracts)
}

// OnMessage handles one inbound message: match, then send exactly one response,
// or drop the message when no contract matches. An unmatched message is not an
// error. A failed send is returned as *SendError after being logged and journaled.
func (r *Router) OnMessage(ctx context.Context, msg broker.Message) error {
	r.inFlight.Add(1)
	defer r.inFlight.Add(-1)

	r.metrics.RecordReceived()

	result := matcher.Match(msg, r.contracts)
	if !result.Matched {
		r.metrics.RecordUnmatched()
		r.logger.Warn("[Router] %s: no contract matched message on '%s' (key=%q, %d bytes)",
			r.name, r.destination, msg.Key, len(msg.Value))

		event := store.NewEvent(store.EventUnmatched, r.name, r.destination)
		event.Detail = sanitize.Preview(msg.Value, 0)
		r.journal(ctx, event)
		return nil
	}

	r.metrics.RecordMatched()
	contract := result.Contract
	out := BuildOutbound(contract, msg)

	r.logger.Debug("[Router] %s: contract %q matched, responding on '%s'",
		r.name, contract.Name, out.Destination)

	if err := r.send(ctx, out); err != nil {
		r.metrics.RecordSendError()
		sendErr := &SendError{Flow: r.name, Contract: contract.Name, Destination: out.Destination, Err: err}
		r.logger.Error("[Router] %v", sendErr)

		event := store.NewEvent(store.EventSendError, r.name, r.destination)
		event.Contract = contract.Name
		event.Detail = err.Error()
		r.journal(ctx, event)
		return sendErr
	}

	r.metrics.RecordSent()
	event := store.NewEvent(store.EventMatched, r.name, r.destination)
	event.Contract = contract.Name
	r.journal(ctx, event)

	return nil
}

func (r *Router) send(ctx context.Context, out Outbound) error {
	if r.sender == nil {
		return fmt.Errorf("no sender configured")
	}

	if out.Delay > 0 {
		timer := time.NewTimer(out.Delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	return r.sender.Send(ctx, out.Destination, out.Message())
}

// journal records an event; journal failures are logged and never affect routing.
func (r *Router) journal(ctx context.Context, event store.Event) {
	if r.store == nil {
		return
	}
	if err := r.store.Record(ctx, event); err != nil {
		r.logger.Error("[Router] %s: failed to journal %s event: %v", r.name, event.Kind, err)
	}
}
