package tui

import (
	"fmt"

	"stubrunner-agent/src/router"
)

// ContractLine is one contract of a flow, as shown in the detail panel.
type ContractLine struct {
	Name    string
	Trigger string
	SentTo  string
}

// FlowStatus is a point-in-time view of one flow.
type FlowStatus struct {
	Name        string
	Stub        string
	Destination string
	State       string
	Contracts   []ContractLine
	Metrics     router.MetricsSnapshot
}

// Item represents a flow displayed in the monitor list.
// It wraps FlowStatus and implements bubbles/list.Item.
type Item struct {
	Flow FlowStatus
}

// FilterValue is the value used for fuzzy filtering.
func (i Item) FilterValue() string { return i.Flow.Name }

// Title returns the primary text for the item (required by list.Item).
func (i Item) Title() string { return i.Flow.Name }

// Description returns the secondary text for the item (required by list.Item).
func (i Item) Description() string {
	return fmt.Sprintf("%s on %s", i.Flow.Stub, i.Flow.Destination)
}

// Active reports whether the flow is handling a message right now.
func (i Item) Active() bool {
	return i.Flow.State == router.Active.String()
}

// MaxCounter returns the largest counter, used to size the numeric columns.
func (i Item) MaxCounter() int64 {
	m := i.Flow.Metrics
	top := m.Received
	for _, v := range []int64{m.Matched, m.Unmatched, m.SendErrors} {
		if v > top {
			top = v
		}
	}
	return top
}
