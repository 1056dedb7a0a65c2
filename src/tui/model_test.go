package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"stubrunner-agent/src/router"
	"stubrunner-agent/src/store"
)

type fakeSource struct {
	snap Snapshot
	err  error
}

func (f fakeSource) Snapshot(ctx context.Context) (Snapshot, error) {
	return f.snap, f.err
}

func testSnapshot() Snapshot {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	return Snapshot{
		Taken: now,
		Flows: []FlowStatus{
			{
				Name:        "com.example_orders_orders.in_3fa94c2e",
				Stub:        "com.example_orders",
				Destination: "orders.in",
				State:       "idle",
				Contracts: []ContractLine{
					{Name: "create", Trigger: `body = "CREATE"`, SentTo: "orders.out"},
					{Name: "fallback", Trigger: "any body", SentTo: "orders.out"},
				},
				Metrics: router.MetricsSnapshot{Received: 12, Matched: 10, Unmatched: 2, Sent: 10},
			},
			{
				Name:        "com.example_billing_billing.in_77d0e1aa",
				Stub:        "com.example_billing",
				Destination: "billing.in",
				State:       "active",
				Contracts:   []ContractLine{{Name: "charge", Trigger: "body ~ /charge-[0-9]+/", SentTo: "billing.out"}},
				Metrics:     router.MetricsSnapshot{Received: 1, SendErrors: 1},
			},
		},
		Events: []store.Event{
			{Kind: store.EventUnmatched, Flow: "com.example_orders_orders.in_3fa94c2e", Destination: "orders.in", Detail: "DELETE", Time: now},
			{Kind: store.EventMatched, Flow: "com.example_orders_orders.in_3fa94c2e", Destination: "orders.in", Contract: "create", Time: now},
		},
	}
}

// readyModel returns a sized model that has applied one snapshot.
func readyModel(t *testing.T, width, height int) MainModel {
	t.Helper()
	m := NewMainModel(fakeSource{snap: testSnapshot()}, time.Second)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	updated, _ = updated.Update(snapshotMsg{snapshot: testSnapshot()})
	return updated.(MainModel)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestMainModel_InitialView(t *testing.T) {
	m := NewMainModel(fakeSource{}, 0)
	if m.refresh != DefaultRefreshInterval {
		t.Errorf("Expected default refresh interval, got %v", m.refresh)
	}
	if view := m.View(); !strings.Contains(view, "Initializing") {
		t.Errorf("Expected initializing view before first resize, got %q", view)
	}
	if m.Init() == nil {
		t.Error("Expected Init to schedule commands")
	}
}

func TestMainModel_FetchDeliversSnapshot(t *testing.T) {
	m := NewMainModel(fakeSource{snap: testSnapshot()}, time.Second)
	msg := m.fetch()()
	snap, ok := msg.(snapshotMsg)
	if !ok {
		t.Fatalf("Expected snapshotMsg, got %T", msg)
	}
	if len(snap.snapshot.Flows) != 2 {
		t.Errorf("Expected 2 flows, got %d", len(snap.snapshot.Flows))
	}

	failing := NewMainModel(fakeSource{err: errors.New("journal down")}, time.Second)
	if _, ok := failing.fetch()().(snapshotErrMsg); !ok {
		t.Error("Expected snapshotErrMsg from a failing source")
	}
}

func TestMainModel_AppliesSnapshot(t *testing.T) {
	m := readyModel(t, 120, 30)

	if m.Status() != StatusReady {
		t.Fatalf("Expected ready status, got %v", m.Status())
	}
	if len(m.Items()) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(m.Items()))
	}

	view := ansi.Strip(m.View())
	for _, want := range []string{"2 flows", "1 active", "Contracts (first match wins)", "create", "unmatched"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected view to contain %q", want)
		}
	}
}

func TestMainModel_ViewFitsTerminal(t *testing.T) {
	for _, width := range []int{100, 160} {
		m := readyModel(t, width, 24)
		for i, line := range strings.Split(m.View(), "\n") {
			if w := VisualWidth(ansi.Strip(line)); w > width {
				t.Errorf("width %d: line %d is %d columns: %q", width, i, w, ansi.Strip(line))
			}
		}
	}
}

func TestMainModel_DestinationFilter(t *testing.T) {
	m := readyModel(t, 120, 30)

	// ALL -> billing.in (sorted) -> orders.in -> ALL
	updated, _ := m.Update(key("tab"))
	m = updated.(MainModel)
	if m.header.GetFilter() != "billing.in" {
		t.Fatalf("Expected billing.in filter, got %s", m.header.GetFilter())
	}
	if len(m.Items()) != 1 || m.Items()[0].Flow.Destination != "billing.in" {
		t.Errorf("Expected only the billing flow, got %+v", m.Items())
	}

	updated, _ = m.Update(key("tab"))
	updated, _ = updated.Update(key("tab"))
	m = updated.(MainModel)
	if m.header.GetFilter() != AllDestinations || len(m.Items()) != 2 {
		t.Errorf("Expected filter to cycle back to all flows")
	}
}

func TestMainModel_Search(t *testing.T) {
	m := readyModel(t, 120, 30)

	var model tea.Model = m
	for _, k := range []string{"/", "c", "h", "a", "r", "g", "e"} {
		model, _ = model.Update(key(k))
	}
	m = model.(MainModel)
	if !m.searchMode {
		t.Fatal("Expected search mode")
	}
	if len(m.Items()) != 1 || m.Items()[0].Flow.Stub != "com.example_billing" {
		t.Errorf("Expected search on contract name to find the billing flow, got %+v", m.Items())
	}

	model, _ = model.Update(key("backspace"))
	model, _ = model.Update(key("enter"))
	m = model.(MainModel)
	if m.searchMode || m.searchQuery != "charg" {
		t.Errorf("Expected search applied with query 'charg', got mode=%v query=%q", m.searchMode, m.searchQuery)
	}

	model, _ = model.Update(key("esc"))
	m = model.(MainModel)
	if m.searchQuery != "" || len(m.Items()) != 2 {
		t.Errorf("Expected esc to clear the search")
	}
}

func TestMainModel_SelectionSurvivesRefresh(t *testing.T) {
	m := readyModel(t, 120, 30)

	updated, _ := m.Update(key("j"))
	m = updated.(MainModel)
	selected, ok := m.listView.GetSelectedItem()
	if !ok {
		t.Fatal("Expected a selection")
	}

	snap := testSnapshot()
	snap.Flows[0], snap.Flows[1] = snap.Flows[1], snap.Flows[0]
	updated, _ = m.Update(snapshotMsg{snapshot: snap})
	m = updated.(MainModel)

	after, _ := m.listView.GetSelectedItem()
	if after.Flow.Name != selected.Flow.Name {
		t.Errorf("Expected selection to stay on %s, got %s", selected.Flow.Name, after.Flow.Name)
	}
}

func TestMainModel_RefreshError(t *testing.T) {
	m := NewMainModel(fakeSource{}, time.Second)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	updated, _ = updated.Update(snapshotErrMsg{err: errors.New("journal down")})
	m = updated.(MainModel)

	if m.Status() != StatusError {
		t.Errorf("Expected error status, got %v", m.Status())
	}
	if !strings.Contains(ansi.Strip(m.View()), "journal down") {
		t.Error("Expected error in view")
	}

	// A later successful refresh recovers.
	updated, _ = m.Update(snapshotMsg{snapshot: testSnapshot()})
	m = updated.(MainModel)
	if m.Status() != StatusReady || m.Err() != nil {
		t.Errorf("Expected recovery, got status=%v err=%v", m.Status(), m.Err())
	}
}

func TestMainModel_Quit(t *testing.T) {
	m := readyModel(t, 80, 20)
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
}

func TestDelegate_Row(t *testing.T) {
	d := NewDelegate()
	item := Item{Flow: testSnapshot().Flows[0]}

	row := d.Row(item, 60)
	if VisualWidth(row) > 60 {
		t.Errorf("Row exceeds width: %q", row)
	}
	if !strings.HasPrefix(row, "○ │  12 │  10 │   2 │   0 │ ") {
		t.Errorf("Unexpected row layout: %q", row)
	}

	d.SetColumnWidth(123456)
	if d.CountWidth != 6 {
		t.Errorf("Expected count width 6, got %d", d.CountWidth)
	}
}

func TestHeader_SetDestinationsResetsMissingFilter(t *testing.T) {
	h := NewHeader("status")
	h.SetDestinations([]string{"a.in", "b.in"})
	h.SetFilter("b.in")
	h.SetDestinations([]string{"a.in"})
	if h.GetFilter() != AllDestinations {
		t.Errorf("Expected filter reset to %s, got %s", AllDestinations, h.GetFilter())
	}
}
