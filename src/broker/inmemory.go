package broker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const subscriberBuffer = 100

var _ SinceSubscriber = (*InMemoryBroker)(nil)

type subscriber struct {
	topic   string
	groupID string
	ch      chan Message
	done    chan struct{}
	once    sync.Once

	// mu is held shared while delivering and exclusively to close ch.
	mu     sync.RWMutex
	closed bool
}

// deliver blocks until msg is buffered, the subscriber leaves, the broker
// closes or ctx ends. No broker lock is held while it waits.
func (s *subscriber) deliver(ctx context.Context, msg Message, brokerDone <-chan struct{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil
	}
	select {
	case s.ch <- msg:
		return nil
	case <-s.done:
		return nil
	case <-brokerDone:
		return ErrBrokerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shutdown releases blocked senders, then closes the channel.
func (s *subscriber) shutdown() {
	s.once.Do(func() { close(s.done) })

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// InMemoryBroker is a process-local Broker. Every subscriber of a topic
// receives every message published to it, regardless of group.
type InMemoryBroker struct {
	mu          sync.RWMutex
	subscribers map[string][]*subscriber
	offsets     map[string]int64
	closed      bool
	done        chan struct{}
	closeOnce   sync.Once
}

// NewInMemoryBroker creates a new InMemoryBroker instance.
func NewInMemoryBroker() *InMemoryBroker {
	return &InMemoryBroker{
		subscribers: make(map[string][]*subscriber),
		offsets:     make(map[string]int64),
		done:        make(chan struct{}),
	}
}

// Publish sends a raw value to every subscriber of topic.
func (b *InMemoryBroker) Publish(ctx context.Context, topic string, key string, value []byte) error {
	return b.Send(ctx, topic, Message{Key: key, Value: value})
}

// Send delivers msg to every subscriber of topic. It blocks while a
// subscriber's buffer is full, until ctx is done or the subscriber goes away.
func (b *InMemoryBroker) Send(ctx context.Context, topic string, msg Message) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBrokerClosed
	}
	msg.Topic = topic
	msg.Offset = b.offsets[topic]
	msg.Timestamp = time.Now().UnixMilli()
	b.offsets[topic]++
	subs := append([]*subscriber(nil), b.subscribers[topic]...)
	b.mu.Unlock()

	for _, sub := range subs {
		if err := sub.deliver(ctx, msg.clone(), b.done); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe registers a new subscriber on topic. The returned channel is
// closed when ctx is cancelled or the broker is closed.
func (b *InMemoryBroker) Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBrokerClosed
	}

	sub := &subscriber{
		topic:   topic,
		groupID: groupID,
		ch:      make(chan Message, subscriberBuffer),
		done:    make(chan struct{}),
	}
	b.subscribers[topic] = append(b.subscribers[topic], sub)

	go func() {
		select {
		case <-ctx.Done():
			b.unsubscribe(sub)
		case <-b.done:
		}
	}()

	return sub.ch, nil
}

// SubscriberCount returns the number of live subscribers on topic.
func (b *InMemoryBroker) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[topic])
}

// SubscribeSince subscribes under a private group. The in-memory broker keeps
// no history, so only messages sent after the call are received.
func (b *InMemoryBroker) SubscribeSince(ctx context.Context, topic string, since time.Time) (<-chan Message, error) {
	return b.Subscribe(ctx, topic, fmt.Sprintf("since-%d", since.UnixNano()))
}

func (b *InMemoryBroker) unsubscribe(sub *subscriber) {
	b.mu.Lock()
	subs := b.subscribers[sub.topic]
	for i, s := range subs {
		if s == sub {
			b.subscribers[sub.topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subscribers[sub.topic]) == 0 {
		delete(b.subscribers, sub.topic)
	}
	b.mu.Unlock()

	sub.shutdown()
}

// Close closes every subscriber channel. Further operations return ErrBrokerClosed.
func (b *InMemoryBroker) Close() error {
	b.closeOnce.Do(func() { close(b.done) })

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true

	var subs []*subscriber
	for _, topicSubs := range b.subscribers {
		subs = append(subs, topicSubs...)
	}
	b.subscribers = make(map[string][]*subscriber)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.shutdown()
	}
	return nil
}
