package store

import (
	"context"
	"fmt"
	"testing"
)

func TestMemoryStore_RecordAndRecent(t *testing.T) {
	store := NewMemoryStore(10)
	defer store.Close()

	ctx := context.Background()

	first := NewEvent(EventMatched, "flow-a", "orders.in")
	first.Contract = "create"
	second := NewEvent(EventUnmatched, "flow-a", "orders.in")
	third := NewEvent(EventMatched, "flow-b", "shared.in")

	for _, e := range []Event{first, second, third} {
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	events, err := store.Recent(ctx, "", 0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}
	if events[0].ID != third.ID || events[2].ID != first.ID {
		t.Errorf("Expected newest first, got %v", events)
	}

	events, _ = store.Recent(ctx, "flow-a", 0)
	if len(events) != 2 {
		t.Fatalf("Expected 2 events for flow-a, got %d", len(events))
	}
	for _, e := range events {
		if e.Flow != "flow-a" {
			t.Errorf("Unexpected flow %s in filtered result", e.Flow)
		}
	}

	events, _ = store.Recent(ctx, "", 1)
	if len(events) != 1 || events[0].ID != third.ID {
		t.Errorf("Expected only the newest event, got %v", events)
	}
}

func TestMemoryStore_RingEviction(t *testing.T) {
	store := NewMemoryStore(3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		e := NewEvent(EventUnmatched, "flow", "q")
		e.Detail = fmt.Sprintf("event-%d", i)
		store.Record(ctx, e)
	}

	events, _ := store.Recent(ctx, "", 0)
	if len(events) != 3 {
		t.Fatalf("Expected capacity-bounded 3 events, got %d", len(events))
	}
	want := []string{"event-4", "event-3", "event-2"}
	for i, e := range events {
		if e.Detail != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], e.Detail)
		}
	}

	// Counts are not bounded by the ring.
	counts, _ := store.Counts(ctx, "")
	if counts[EventUnmatched] != 5 {
		t.Errorf("Expected 5 unmatched, got %d", counts[EventUnmatched])
	}
}

func TestMemoryStore_Counts(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	store.Record(ctx, NewEvent(EventMatched, "a", "q"))
	store.Record(ctx, NewEvent(EventMatched, "a", "q"))
	store.Record(ctx, NewEvent(EventSendError, "a", "q"))
	store.Record(ctx, NewEvent(EventMatched, "b", "q"))

	counts, err := store.Counts(ctx, "a")
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if counts[EventMatched] != 2 || counts[EventSendError] != 1 {
		t.Errorf("Unexpected counts for flow a: %v", counts)
	}

	all, _ := store.Counts(ctx, "")
	if all[EventMatched] != 3 {
		t.Errorf("Expected 3 matched overall, got %d", all[EventMatched])
	}
}

func TestNewEvent(t *testing.T) {
	a := NewEvent(EventMatched, "f", "d")
	b := NewEvent(EventMatched, "f", "d")

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("Expected unique non-empty IDs, got %q and %q", a.ID, b.ID)
	}
	if a.Time.IsZero() {
		t.Error("Expected timestamp to be set")
	}
}
