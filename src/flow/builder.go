// Package flow turns a contract collection into running message flows: one
// Router per (stub, input destination) group, fed by listener containers and
// registered under a deterministic flow name.
package flow

import (
	"context"
	"fmt"

	"stubrunner-agent/src/broker"
	"stubrunner-agent/src/contracts"
	"stubrunner-agent/src/logger"
	"stubrunner-agent/src/router"
	"stubrunner-agent/src/store"
)

// Builder constructs flows. It runs once, at startup, before any container receives.
type Builder struct {
	connect broker.ConnectionFactory
	logger  logger.Logger
	store   store.Store
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger handed to the builder, routers and containers.
func WithLogger(log logger.Logger) Option {
	return func(b *Builder) { b.logger = log }
}

// WithStore sets the journal routers record their outcomes to.
func WithStore(st store.Store) Option {
	return func(b *Builder) { b.store = st }
}

// NewBuilder creates a Builder that opens containers on the broker returned by connect.
func NewBuilder(connect broker.ConnectionFactory, opts ...Option) *Builder {
	b := &Builder{connect: connect, logger: logger.NewSilentLogger()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build validates the collection, groups it and returns a registry holding one
// flow per group. Nothing is subscribed until Registry.Start. Any error is a
// *ConfigurationError and leaves nothing registered.
func (b *Builder) Build(collection contracts.Collection) (*Registry, error) {
	if b.connect == nil {
		return nil, &ConfigurationError{Reason: "no connection factory", Err: ErrNoConnection}
	}
	brk, err := b.connect()
	if err != nil {
		return nil, &ConfigurationError{Reason: "broker connection failed", Err: fmt.Errorf("%w: %v", ErrNoConnection, err)}
	}
	if brk == nil {
		return nil, &ConfigurationError{Reason: "broker connection failed", Err: ErrNoConnection}
	}

	if err := validate(collection); err != nil {
		return nil, err
	}

	groups := GroupContracts(collection)
	registry := NewRegistry()

	for _, g := range groups {
		name := b.uniqueName(registry, g)

		rt := router.New(router.Config{
			Name:        name,
			Destination: g.Destination,
			Contracts:   g.Contracts,
			Sender:      brk,
			Logger:      b.logger,
			Store:       b.store,
		})

		// One subscription per distinct destination, shared by every contract of the group.
		var subs []*broker.Container
		for _, dest := range g.Destinations() {
			subs = append(subs, broker.NewContainer(brk, dest, name, rt, b.logger))
		}

		registry.add(&Flow{
			Name:          name,
			Stub:          g.Stub,
			Destination:   g.Destination,
			Router:        rt,
			Subscriptions: subs,
		})

		b.logger.Info("[FlowBuilder] Registered flow %s (%d contracts on '%s')",
			name, len(g.Contracts), g.Destination)
	}

	skipped := collection.Len() - countContracts(groups)
	if skipped > 0 {
		b.logger.Debug("[FlowBuilder] Skipped %d contracts without an input destination", skipped)
	}

	return registry, nil
}

// BuildAndStart builds the registry and opens every subscription.
func (b *Builder) BuildAndStart(ctx context.Context, collection contracts.Collection) (*Registry, error) {
	registry, err := b.Build(collection)
	if err != nil {
		return nil, err
	}
	if err := registry.Start(ctx); err != nil {
		return nil, err
	}
	return registry, nil
}

// uniqueName returns the group's flow name, suffixed with _2, _3, ... when an
// earlier group already took it. Collisions are reported, never overwritten.
func (b *Builder) uniqueName(registry *Registry, g Group) string {
	name := g.Name()
	if !registry.has(name) {
		return name
	}

	candidate := name
	for i := 2; registry.has(candidate); i++ {
		candidate = fmt.Sprintf("%s_%d", name, i)
	}

	b.logger.Warn("[FlowBuilder] Flow name collision on %s; registering stub %s destination '%s' as %s",
		name, g.Stub, g.Destination, candidate)

	if b.store != nil {
		event := store.NewEvent(store.EventCollision, candidate, g.Destination)
		event.Detail = "collided with " + name
		if err := b.store.Record(context.Background(), event); err != nil {
			b.logger.Error("[FlowBuilder] Failed to journal collision: %v", err)
		}
	}

	return candidate
}

func validate(collection contracts.Collection) error {
	for _, stub := range collection.Stubs() {
		for _, c := range collection[stub] {
			if err := c.Validate(); err != nil {
				return &ConfigurationError{Reason: "stub " + stub.String(), Err: err}
			}
		}
	}
	return nil
}

func countContracts(groups []Group) int {
	n := 0
	for _, g := range groups {
		n += len(g.Contracts)
	}
	return n
}
