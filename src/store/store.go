// Package store defines the event journal that records routing outcomes.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventKind classifies a routing outcome.
type EventKind string

const (
	// EventMatched: an inbound message matched a contract and the response was sent.
	EventMatched EventKind = "matched"
	// EventUnmatched: no contract in the flow accepted the inbound message.
	EventUnmatched EventKind = "unmatched"
	// EventSendError: a contract matched but the response could not be sent.
	EventSendError EventKind = "send_error"
	// EventCollision: two flows computed the same name at startup.
	EventCollision EventKind = "collision"
)

// Event is one journal entry.
type Event struct {
	ID          string    `json:"id"`
	Kind        EventKind `json:"kind"`
	Flow        string    `json:"flow"`
	Destination string    `json:"destination"`
	Contract    string    `json:"contract,omitempty"`
	Detail      string    `json:"detail,omitempty"`
	Time        time.Time `json:"time"`
}

// NewEvent stamps an event with a fresh ID and the current time.
func NewEvent(kind EventKind, flow, destination string) Event {
	return Event{
		ID:          uuid.NewString(),
		Kind:        kind,
		Flow:        flow,
		Destination: destination,
		Time:        time.Now().UTC(),
	}
}

// Store persists routing events.
type Store interface {
	// Record appends an event to the journal
	Record(ctx context.Context, event Event) error

	// Recent returns up to limit events, newest first. A non-empty flow filters by flow name.
	Recent(ctx context.Context, flow string, limit int) ([]Event, error)

	// Counts returns the number of recorded events per kind. A non-empty flow filters by flow name.
	Counts(ctx context.Context, flow string) (map[EventKind]int, error)

	// Close closes the store connection
	Close() error
}
