// Package broker provides Redpanda/Kafka broker implementation.
package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"stubrunner-agent/src/logger"
)

var (
	_ Broker          = (*RedpandaBroker)(nil)
	_ SinceSubscriber = (*RedpandaBroker)(nil)
)

// assignTimeout bounds how long Subscribe waits for a group assignment.
const assignTimeout = 30 * time.Second

// RedpandaBroker is a Kafka-compatible broker implementation using franz-go.
type RedpandaBroker struct {
	client    *kgo.Client
	brokers   []string
	logger    logger.Logger
	mu        sync.RWMutex
	consumers map[string]*kgo.Client // topic+groupID -> consumer client
	closed    bool
}

// NewRedpandaBroker creates a new RedpandaBroker instance.
// brokers is a slice of broker addresses (e.g., ["localhost:19092"]).
func NewRedpandaBroker(brokers []string, log logger.Logger) (*RedpandaBroker, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker address is required")
	}
	if log == nil {
		log = logger.NewSilentLogger()
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka client: %w", err)
	}

	return &RedpandaBroker{
		client:    client,
		brokers:   brokers,
		logger:    log,
		consumers: make(map[string]*kgo.Client),
	}, nil
}

// Ping checks that the seed brokers are reachable.
func (b *RedpandaBroker) Ping(ctx context.Context) error {
	if err := b.client.Ping(ctx); err != nil {
		return fmt.Errorf("failed to reach brokers %v: %w", b.brokers, err)
	}
	return nil
}

// Publish sends a raw value to a topic with the specified key.
func (b *RedpandaBroker) Publish(ctx context.Context, topic string, key string, value []byte) error {
	return b.Send(ctx, topic, Message{Key: key, Value: value})
}

// Send produces msg to topic synchronously, headers included.
func (b *RedpandaBroker) Send(ctx context.Context, topic string, msg Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBrokerClosed
	}

	results := b.client.ProduceSync(ctx, toRecord(topic, msg))
	if err := results.FirstErr(); err != nil {
		return fmt.Errorf("failed to produce message to %s: %w", topic, err)
	}

	return nil
}

// Subscribe creates a consumer for the specified topic and consumer group and
// returns once the group has been assigned its partitions, so that nothing
// produced after Subscribe returns is missed. A group without committed
// offsets starts at the time of subscription; otherwise it resumes from its
// commits.
func (b *RedpandaBroker) Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error) {
	assigned := make(chan struct{})
	var once sync.Once

	start := kgo.NewOffset().AfterMilli(time.Now().UnixMilli())
	msgChan, consumerKey, consumer, err := b.startConsumer(ctx, topic, groupID,
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeResetOffset(start),
		kgo.OnPartitionsAssigned(func(context.Context, *kgo.Client, map[string][]int32) {
			once.Do(func() { close(assigned) })
		}),
	)
	if err != nil {
		return nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, assignTimeout)
	defer cancel()
	select {
	case <-assigned:
		b.logger.Debug("[RedpandaBroker] Group %s assigned on %s", groupID, topic)
		return msgChan, nil
	case <-waitCtx.Done():
		b.release(consumerKey, consumer)
		return nil, fmt.Errorf("consumer group %s was not assigned %s: %w", groupID, topic, waitCtx.Err())
	}
}

// SubscribeSince consumes topic directly, without a consumer group, starting
// at the first record produced at or after since.
func (b *RedpandaBroker) SubscribeSince(ctx context.Context, topic string, since time.Time) (<-chan Message, error) {
	groupless := fmt.Sprintf("direct-%d", since.UnixNano())
	msgChan, _, _, err := b.startConsumer(ctx, topic, groupless,
		kgo.ConsumeResetOffset(kgo.NewOffset().AfterMilli(since.UnixMilli())),
	)
	return msgChan, err
}

func (b *RedpandaBroker) startConsumer(ctx context.Context, topic, groupID string, opts ...kgo.Opt) (<-chan Message, string, *kgo.Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, "", nil, ErrBrokerClosed
	}

	consumerKey := fmt.Sprintf("%s:%s", topic, groupID)
	if _, exists := b.consumers[consumerKey]; exists {
		return nil, "", nil, fmt.Errorf("consumer already exists for topic %s and group %s", topic, groupID)
	}

	opts = append([]kgo.Opt{
		kgo.SeedBrokers(b.brokers...),
		kgo.ConsumeTopics(topic),
		kgo.AllowAutoTopicCreation(),
	}, opts...)
	consumer, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	b.consumers[consumerKey] = consumer

	msgChan := make(chan Message, subscriberBuffer)
	go b.consumeLoop(ctx, consumerKey, consumer, msgChan)

	return msgChan, consumerKey, consumer, nil
}

// consumeLoop continuously polls for messages and sends them to the channel.
func (b *RedpandaBroker) consumeLoop(ctx context.Context, consumerKey string, consumer *kgo.Client, msgChan chan<- Message) {
	defer close(msgChan)
	defer b.release(consumerKey, consumer)

	for {
		fetches := consumer.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return
		}

		// Log errors but continue
		if errs := fetches.Errors(); len(errs) > 0 {
			for _, err := range errs {
				b.logger.Error("[RedpandaBroker] Fetch error on %s: %v", err.Topic, err.Err)
			}
			continue
		}

		stop := false
		fetches.EachRecord(func(record *kgo.Record) {
			if stop {
				return
			}
			select {
			case msgChan <- fromRecord(record):
			case <-ctx.Done():
				stop = true
			}
		})
		if stop {
			return
		}
	}
}

// release drops a consumer once its loop exits.
func (b *RedpandaBroker) release(consumerKey string, consumer *kgo.Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if current, ok := b.consumers[consumerKey]; ok && current == consumer {
		delete(b.consumers, consumerKey)
		consumer.Close()
	}
}

// Close shuts down the broker and all consumer connections.
func (b *RedpandaBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for _, consumer := range b.consumers {
		consumer.Close()
	}
	b.consumers = make(map[string]*kgo.Client)

	b.client.Close()

	return nil
}

func toRecord(topic string, msg Message) *kgo.Record {
	record := &kgo.Record{
		Topic: topic,
		Value: msg.Value,
	}
	if msg.Key != "" {
		record.Key = []byte(msg.Key)
	}
	for name, value := range msg.Headers {
		record.Headers = append(record.Headers, kgo.RecordHeader{Key: name, Value: []byte(value)})
	}
	return record
}

func fromRecord(record *kgo.Record) Message {
	msg := Message{
		Topic:     record.Topic,
		Key:       string(record.Key),
		Value:     record.Value,
		Offset:    record.Offset,
		Partition: record.Partition,
		Timestamp: record.Timestamp.UnixMilli(),
	}
	if len(record.Headers) > 0 {
		msg.Headers = make(map[string]string, len(record.Headers))
		for _, h := range record.Headers {
			msg.Headers[h.Key] = string(h.Value)
		}
	}
	return msg
}
