// Package pipeline wires configuration, contract loading, the broker, the
// event journal and the flow registry into one running stub runner.
// It is shared by the CLI commands and the MCP server.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stubrunner-agent/src/broker"
	"stubrunner-agent/src/config"
	"stubrunner-agent/src/contracts"
	"stubrunner-agent/src/flow"
	"stubrunner-agent/src/loader"
	"stubrunner-agent/src/logger"
	"stubrunner-agent/src/store"
)

// Mode selects the transport and journal backing the runtime.
type Mode int

const (
	// LocalMode keeps everything in process: in-memory broker and journal.
	LocalMode Mode = iota
	// RedpandaMode uses Redpanda for transport and Postgres for the journal when configured.
	RedpandaMode
)

func (m Mode) String() string {
	switch m {
	case RedpandaMode:
		return "redpanda"
	default:
		return "local"
	}
}

// DetectMode picks RedpandaMode when brokers are configured.
func DetectMode(cfg *config.Config) Mode {
	if cfg != nil && cfg.UseRedpanda() {
		return RedpandaMode
	}
	return LocalMode
}

// connectTimeout bounds the broker and database reachability checks at startup.
const connectTimeout = 10 * time.Second

// Options configures Start. Broker and Store override what Config selects;
// overrides are not closed by Runtime.Close.
type Options struct {
	Config *config.Config
	Logger logger.Logger
	Broker broker.Broker
	Store  store.Store
}

// Runtime is a started stub runner.
type Runtime struct {
	Mode       Mode
	Broker     broker.Broker
	Store      store.Store
	Registry   *flow.Registry
	Collection contracts.Collection

	logger     logger.Logger
	ownsBroker bool
	ownsStore  bool
}

// Start loads the contracts, builds every flow and opens its subscriptions.
// Startup failures are returned as *flow.ConfigurationError.
func Start(ctx context.Context, opts Options) (*Runtime, error) {
	if opts.Config == nil {
		return nil, &flow.ConfigurationError{Reason: "missing configuration"}
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewSilentLogger()
	}

	rt := &Runtime{
		Mode:       DetectMode(opts.Config),
		Registry:   flow.NewRegistry(),
		Collection: contracts.Collection{},
		logger:     log,
	}

	if !opts.Config.Enabled {
		log.Info("[Pipeline] Stub runner disabled; no flows registered")
		return rt, nil
	}

	collection, err := loader.Load(opts.Config.ContractsPath)
	if err != nil {
		return nil, &flow.ConfigurationError{Reason: "failed to load contracts", Err: err}
	}
	rt.Collection = collection
	log.Info("[Pipeline] Loaded %d contracts for %d stubs from %s",
		collection.Len(), len(collection.Stubs()), opts.Config.ContractsPath)

	rt.Store = opts.Store
	if rt.Store == nil {
		st, err := OpenStore(ctx, opts.Config, log)
		if err != nil {
			return nil, &flow.ConfigurationError{Reason: "failed to open event journal", Err: err}
		}
		rt.Store, rt.ownsStore = st, true
	}

	connect := broker.Static(opts.Broker)
	if opts.Broker == nil {
		connect = func() (broker.Broker, error) {
			brk, err := Connect(ctx, opts.Config, log)
			if err != nil {
				return nil, err
			}
			rt.Broker, rt.ownsBroker = brk, true
			return brk, nil
		}
	} else {
		rt.Broker = opts.Broker
	}

	builder := flow.NewBuilder(connect, flow.WithLogger(log), flow.WithStore(rt.Store))
	registry, err := builder.BuildAndStart(ctx, collection)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Registry = registry

	log.Info("[Pipeline] Started %d flows (%s mode)", registry.Len(), rt.Mode)
	return rt, nil
}

// Connect opens the broker selected by cfg.
func Connect(ctx context.Context, cfg *config.Config, log logger.Logger) (broker.Broker, error) {
	if DetectMode(cfg) == LocalMode {
		return broker.NewInMemoryBroker(), nil
	}

	rp, err := broker.NewRedpandaBroker(cfg.RedpandaBrokers, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redpanda broker: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := rp.Ping(pingCtx); err != nil {
		rp.Close()
		return nil, err
	}
	return rp, nil
}

// OpenStore opens the Postgres journal when DATABASE_URL is set and an
// in-memory journal otherwise.
func OpenStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		return store.NewMemoryStore(0), nil
	}

	openCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	st, err := store.NewPostgresStore(openCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create Postgres store: %w", err)
	}
	log.Debug("[Pipeline] Journaling routing events to Postgres")
	return st, nil
}

// Close stops every flow and releases the broker and journal it opened.
func (r *Runtime) Close() error {
	if r.Registry != nil {
		r.Registry.Stop()
	}

	var errs []error
	if r.ownsBroker && r.Broker != nil {
		if err := r.Broker.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close broker: %w", err))
		}
	}
	if r.ownsStore && r.Store != nil {
		if err := r.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close store: %w", err))
		}
	}
	r.logger.Debug("[Pipeline] Runtime closed")
	return errors.Join(errs...)
}
