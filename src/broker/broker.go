// Package broker defines the interface for message brokers and provides implementations.
package broker

import (
	"context"
	"errors"
	"time"
)

// ErrBrokerClosed is returned by operations on a closed broker.
var ErrBrokerClosed = errors.New("broker is closed")

// Broker abstracts message publishing and consumption.
// This interface supports both in-memory and distributed (Redpanda/Kafka) implementations.
type Broker interface {
	// Publish sends a raw value to a topic with an optional key for partitioning.
	Publish(ctx context.Context, topic string, key string, value []byte) error

	// Send delivers a full message, headers included, to a topic.
	// msg.Topic is ignored; topic decides where the message goes.
	Send(ctx context.Context, topic string, msg Message) error

	// Subscribe returns a channel for consuming messages from a topic.
	// groupID is used for consumer group coordination in Kafka; every group
	// receives every message. The channel is closed when ctx is cancelled or
	// the broker is closed.
	Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error)

	// Close shuts down the broker connection gracefully.
	Close() error
}

// SinceSubscriber is implemented by brokers that can consume a topic from a
// point in time, without a consumer group. Used to wait for replies to a
// message that is about to be sent.
type SinceSubscriber interface {
	SubscribeSince(ctx context.Context, topic string, since time.Time) (<-chan Message, error)
}

// ConnectionFactory opens (or returns a shared) broker connection.
type ConnectionFactory func() (Broker, error)

// Static returns a ConnectionFactory that always hands out b.
func Static(b Broker) ConnectionFactory {
	return func() (Broker, error) {
		if b == nil {
			return nil, errors.New("no broker configured")
		}
		return b, nil
	}
}

// Message represents a message consumed from, or sent to, a broker.
type Message struct {
	Topic     string
	Key       string
	Value     []byte
	Headers   map[string]string
	Offset    int64
	Partition int32
	Timestamp int64
}

// Header returns the value of a header and whether it is present.
func (m Message) Header(name string) (string, bool) {
	v, ok := m.Headers[name]
	return v, ok
}

// clone copies the message so that subscribers never share header maps.
func (m Message) clone() Message {
	out := m
	if m.Value != nil {
		out.Value = append([]byte(nil), m.Value...)
	}
	if m.Headers != nil {
		out.Headers = make(map[string]string, len(m.Headers))
		for k, v := range m.Headers {
			out.Headers[k] = v
		}
	}
	return out
}
