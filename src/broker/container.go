package broker

import (
	"context"
	"fmt"
	"sync"

	"stubrunner-agent/src/logger"
)

// Listener handles messages delivered to a Container.
type Listener interface {
	OnMessage(ctx context.Context, msg Message) error
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(ctx context.Context, msg Message) error

// OnMessage calls f.
func (f ListenerFunc) OnMessage(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// Container is a listener container: one subscription on one destination,
// drained by its own goroutine, dispatching each message to a Listener.
// The container holds the listener; listeners never know their containers.
type Container struct {
	broker      Broker
	destination string
	groupID     string
	listener    Listener
	logger      logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewContainer creates a stopped container.
func NewContainer(brk Broker, destination, groupID string, listener Listener, log logger.Logger) *Container {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &Container{
		broker:      brk,
		destination: destination,
		groupID:     groupID,
		listener:    listener,
		logger:      log,
	}
}

// Destination returns the subscribed destination name.
func (c *Container) Destination() string { return c.destination }

// GroupID returns the consumer group used for the subscription.
func (c *Container) GroupID() string { return c.groupID }

// Running reports whether the container is subscribed and dispatching.
func (c *Container) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Start subscribes and begins dispatching. Starting a running container is a no-op.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}
	if c.cancel != nil {
		// Previous loop ended on its own when the broker closed the channel.
		c.cancel()
	}

	subCtx, cancel := context.WithCancel(ctx)
	msgChan, err := c.broker.Subscribe(subCtx, c.destination, c.groupID)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe to %s: %w", c.destination, err)
	}

	c.cancel = cancel
	c.done = make(chan struct{})
	c.running = true

	go c.loop(subCtx, msgChan, c.done)

	c.logger.Debug("[Container] Listening on '%s' (group %s)", c.destination, c.groupID)
	return nil
}

// Stop cancels the subscription and waits for the dispatch goroutine to exit.
func (c *Container) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel = nil
	c.running = false
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (c *Container) loop(ctx context.Context, msgChan <-chan Message, done chan struct{}) {
	defer close(done)

	for {
		select {
		case msg, ok := <-msgChan:
			if !ok {
				c.logger.Debug("[Container] Channel for '%s' closed, stopping", c.destination)
				c.markStopped()
				return
			}
			c.dispatch(ctx, msg)

		case <-ctx.Done():
			return
		}
	}
}

// dispatch runs the listener for one message. A failing or panicking listener
// never stops the container.
func (c *Container) dispatch(ctx context.Context, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("[Container] Listener on '%s' panicked: %v", c.destination, r)
		}
	}()

	if err := c.listener.OnMessage(ctx, msg); err != nil {
		c.logger.Error("[Container] Error handling message on '%s': %v", c.destination, err)
	}
}

func (c *Container) markStopped() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
}
