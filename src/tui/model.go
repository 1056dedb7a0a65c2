// Package tui provides the terminal monitor for the stub runner: a live view
// of every registered flow, its routing counters, its contracts in matching
// order and the latest routing events.
package tui

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"stubrunner-agent/src/router"
	"stubrunner-agent/src/store"
)

// DefaultRefreshInterval is how often the monitor polls its source.
const DefaultRefreshInterval = time.Second

// Status of the monitor.
type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusError
)

// snapshotMsg delivers a fresh snapshot.
type snapshotMsg struct {
	snapshot Snapshot
}

// snapshotErrMsg reports a failed refresh.
type snapshotErrMsg struct {
	err error
}

// refreshTickMsg triggers the next poll.
type refreshTickMsg time.Time

// MainModel is the Bubble Tea model for the flow monitor.
type MainModel struct {
	source  Source
	refresh time.Duration
	styles  *StyleConfig

	header         Header
	listView       View
	detailViewport viewport.Model
	progress       ProgressModel

	items   []Item
	events  []store.Event
	status  Status
	err     error
	updated time.Time

	width         int
	height        int
	ready         bool
	detailFocused bool
	searchMode    bool
	searchQuery   string
}

// NewMainModel creates a monitor polling source every refresh interval.
func NewMainModel(source Source, refresh time.Duration) MainModel {
	if refresh <= 0 {
		refresh = DefaultRefreshInterval
	}
	styles := DefaultStyles()
	return MainModel{
		source:         source,
		refresh:        refresh,
		styles:         styles,
		header:         NewHeaderWithStyles("Connecting", styles),
		listView:       NewView(styles),
		detailViewport: viewport.New(0, 0),
		progress:       NewProgressModel(),
		status:         StatusLoading,
	}
}

// Init starts the first poll, the refresh loop and the spinner.
func (m MainModel) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.tick(), SpinnerTick())
}

func (m MainModel) fetch() tea.Cmd {
	source := m.source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		snap, err := source.Snapshot(ctx)
		if err != nil {
			return snapshotErrMsg{err: err}
		}
		return snapshotMsg{snapshot: snap}
	}
}

func (m MainModel) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}

// Update handles messages and updates the model state.
func (m MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeComponents()

	case refreshTickMsg:
		return m, tea.Batch(m.fetch(), m.tick())

	case snapshotMsg:
		m.applySnapshot(msg.snapshot)
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(ProgressMsg{Done: true})
		return m, cmd

	case snapshotErrMsg:
		m.err = msg.err
		if m.status == StatusLoading {
			m.status = StatusError
		}
		m.header.SetStatus(fmt.Sprintf("Refresh failed: %v", msg.err))
		return m, nil

	case SpinnerTickMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.searchMode {
			return m.updateSearch(msg)
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.fetch()
		case "/":
			m.searchMode = true
			m.header.SetSearch(m.searchQuery, true)
			return m, nil
		case "tab":
			m.header.CycleFilter()
			m.applyFilter()
			return m, nil
		case "enter":
			m.detailFocused = true
			return m, nil
		case "esc":
			if m.detailFocused {
				m.detailFocused = false
				return m, nil
			}
			if m.searchQuery != "" {
				m.searchQuery = ""
				m.header.SetSearch("", false)
				m.applyFilter()
			}
			return m, nil
		}

		if m.detailFocused {
			var cmd tea.Cmd
			m.detailViewport, cmd = m.detailViewport.Update(msg)
			return m, cmd
		}

		var cmd tea.Cmd
		m.listView, cmd = m.listView.Update(msg)
		cmds = append(cmds, cmd)
		m.refreshDetail()
	}

	return m, tea.Batch(cmds...)
}

// updateSearch edits the search query while search mode is on.
func (m MainModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter:
		m.searchMode = false
	case tea.KeyEsc:
		m.searchMode = false
		m.searchQuery = ""
	case tea.KeyBackspace:
		if r := []rune(m.searchQuery); len(r) > 0 {
			m.searchQuery = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.searchQuery += string(msg.Runes)
	}
	m.header.SetSearch(m.searchQuery, m.searchMode)
	m.applyFilter()
	return m, nil
}

// applySnapshot replaces flows and events with a fresh snapshot.
func (m *MainModel) applySnapshot(snap Snapshot) {
	m.status = StatusReady
	m.err = nil
	m.updated = snap.Taken
	m.events = snap.Events

	m.items = make([]Item, 0, len(snap.Flows))
	destinations := make(map[string]bool)
	active := 0
	for _, f := range snap.Flows {
		m.items = append(m.items, Item{Flow: f})
		destinations[f.Destination] = true
		if f.State == router.Active.String() {
			active++
		}
	}

	var dests []string
	for d := range destinations {
		dests = append(dests, d)
	}
	sort.Strings(dests)
	m.header.SetDestinations(dests)
	m.header.SetStatus(fmt.Sprintf("%d flows • %d active • %s", len(m.items), active, snap.Taken.Format("15:04:05")))

	m.applyFilter()
}

// Items returns the flows currently listed, after filtering.
func (m MainModel) Items() []Item {
	return m.listView.Items()
}

// Status returns the monitor status.
func (m MainModel) Status() Status {
	return m.status
}

// Err returns the last refresh error, cleared by the next successful refresh.
func (m MainModel) Err() error {
	return m.err
}
