package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"stubrunner-agent/src/broker"
	"stubrunner-agent/src/contracts"
	"stubrunner-agent/src/pipeline"
)

var (
	sendKey       string
	sendHeaders   []string
	sendReplyFrom string
	sendTimeout   time.Duration
)

// sendCmd publishes one message, optionally waiting for the stub's reply.
var sendCmd = &cobra.Command{
	Use:   "send [destination] [body]",
	Short: "Send a message to a destination on the shared broker",
	Long: `Publish a message to a destination, as the system under test would.

With --reply-from, wait for the reply carrying the same key on that destination
and print it.
Requires REDPANDA_BROKERS (or --brokers): the in-memory broker is not shared
between processes.`,
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{annotationContracts: contractsOptional},
	RunE: func(cmd *cobra.Command, args []string) error {
		destination, body := args[0], args[1]
		if !contracts.ValidDestinationName(destination) {
			return &UserError{Message: fmt.Sprintf("Invalid destination %q", destination)}
		}
		headers, err := parseHeaders(sendHeaders)
		if err != nil {
			return &UserError{Message: "Invalid header", Hint: "Use --header name=value", Err: err}
		}
		if !appConfig.UseRedpanda() {
			return wrapError(ErrLocalSend)
		}

		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		brk, err := pipeline.Connect(ctx, appConfig, newLogger())
		if err != nil {
			return wrapError(err)
		}
		defer brk.Close()

		key := sendKey
		if key == "" {
			key = uuid.NewString()
		}

		// Replies are read from just before the send, so a fast stub cannot beat us.
		var replies <-chan broker.Message
		if sendReplyFrom != "" {
			replies, err = subscribeReplies(ctx, brk, sendReplyFrom, time.Now())
			if err != nil {
				return fmt.Errorf("failed to subscribe to %s: %w", sendReplyFrom, err)
			}
		}

		msg := broker.Message{Key: key, Value: []byte(body), Headers: headers}
		if err := brk.Send(ctx, destination, msg); err != nil {
			return fmt.Errorf("failed to send to %s: %w", destination, err)
		}
		fmt.Printf("✅ Sent to %s (key %s)\n", destination, key)

		if replies == nil {
			return nil
		}
		reply, err := awaitReply(ctx, replies, key)
		if err != nil {
			return fmt.Errorf("no reply on %s within %s: %w", sendReplyFrom, sendTimeout, err)
		}
		fmt.Printf("📨 Reply on %s (key %s): %s\n", reply.Topic, reply.Key, reply.Value)
		return nil
	},
}

// subscribeReplies consumes topic from since when the broker supports it and
// through a private consumer group otherwise.
func subscribeReplies(ctx context.Context, brk broker.Broker, topic string, since time.Time) (<-chan broker.Message, error) {
	if s, ok := brk.(broker.SinceSubscriber); ok {
		return s.SubscribeSince(ctx, topic, since)
	}
	return brk.Subscribe(ctx, topic, "stubrunner-send-"+uuid.NewString())
}

// awaitReply returns the first message carrying key. Stubs reuse the request
// key, so unrelated traffic on the reply destination is skipped.
func awaitReply(ctx context.Context, replies <-chan broker.Message, key string) (broker.Message, error) {
	for {
		select {
		case reply, ok := <-replies:
			if !ok {
				return broker.Message{}, fmt.Errorf("reply subscription closed")
			}
			if reply.Key == key {
				return reply, nil
			}
		case <-ctx.Done():
			return broker.Message{}, ctx.Err()
		}
	}
}

// parseHeaders turns name=value pairs into a header map.
func parseHeaders(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("header %q is not name=value", pair)
		}
		headers[name] = value
	}
	return headers, nil
}

func init() {
	sendCmd.Flags().StringVarP(&sendKey, "key", "k", "", "message key (default: random UUID)")
	sendCmd.Flags().StringArrayVarP(&sendHeaders, "header", "H", nil, "header as name=value (repeatable)")
	sendCmd.Flags().StringVar(&sendReplyFrom, "reply-from", "", "destination to wait on for the reply")
	sendCmd.Flags().DurationVar(&sendTimeout, "timeout", 15*time.Second, "overall timeout")
}
