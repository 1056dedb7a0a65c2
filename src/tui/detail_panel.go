package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// maxDetailEvents bounds the events listed per flow.
const maxDetailEvents = 15

// renderDetail renders the detail content for a flow item
func (m MainModel) renderDetail(item Item, maxWidth int) string {
	content := strings.Builder{}
	f := item.Flow

	label := lipgloss.NewStyle().Foreground(m.styles.TextSecondary).Bold(true)
	faint := lipgloss.NewStyle().Foreground(m.styles.TextSecondary).Faint(true)

	header := lipgloss.NewStyle().
		Foreground(m.styles.PrimaryBlue).
		Bold(true).
		Render(Wrap(fmt.Sprintf("Stub: %s | Destination: %s | State: %s", f.Stub, f.Destination, f.State), maxWidth))
	fmt.Fprintf(&content, "%s\n\n", header)

	// Counters
	mt := f.Metrics
	fmt.Fprintln(&content, label.Render("Counters:"))
	counters := fmt.Sprintf("received %d • matched %d • unmatched %d • sent %d • send errors %d",
		mt.Received, mt.Matched, mt.Unmatched, mt.Sent, mt.SendErrors)
	fmt.Fprintln(&content, Wrap(counters, maxWidth))
	fmt.Fprintln(&content)

	// Contracts in matching order
	fmt.Fprintln(&content, label.Render("Contracts (first match wins):"))
	for i, c := range f.Contracts {
		line := fmt.Sprintf("%d. %s: %s → %s", i+1, c.Name, c.Trigger, c.SentTo)
		fmt.Fprintln(&content, Wrap(line, maxWidth))
	}
	fmt.Fprintln(&content)

	// Recent events for this flow
	fmt.Fprintln(&content, label.Render("Recent events:"))
	shown := 0
	for _, e := range m.events {
		if e.Flow != f.Name {
			continue
		}
		if shown == maxDetailEvents {
			break
		}
		shown++

		kind := lipgloss.NewStyle().Foreground(m.styles.KindColor(string(e.Kind))).Render(string(e.Kind))
		text := e.Time.Local().Format("15:04:05")
		if e.Contract != "" {
			text += " " + e.Contract
		}
		if e.Detail != "" {
			text += " " + CleanText(e.Detail)
		}
		fmt.Fprintf(&content, "%s %s\n", kind, Wrap(text, maxWidth-VisualWidth(string(e.Kind))-1))
	}
	if shown == 0 {
		fmt.Fprintln(&content, faint.Render("none yet"))
	}

	return content.String()
}

// refreshDetail re-renders the viewport for the selected flow.
func (m *MainModel) refreshDetail() {
	item, ok := m.listView.GetSelectedItem()
	if !ok {
		m.detailViewport.SetContent("")
		return
	}
	m.updateDetailContent(item)
}

// updateDetailContent updates the viewport with content from the selected item
func (m *MainModel) updateDetailContent(item Item) {
	// 1 char padding on each side
	maxWidth := m.detailViewport.Width - 2
	content := m.renderDetail(item, maxWidth)
	m.detailViewport.SetContent(content)
}

// renderDetailPanel renders the right panel with detail viewport
func (m MainModel) renderDetailPanel(width, height int) string {
	if selectedItem, ok := m.listView.GetSelectedItem(); ok {
		headerRow := lipgloss.NewStyle().
			Foreground(m.styles.PrimaryBlue).
			Bold(true).
			Padding(0, 1).
			Render(Truncate(fmt.Sprintf("Flow: %s", selectedItem.Flow.Name), width-2, true))

		body := m.styles.PanelStyle(m.detailFocused).
			Width(width - 2).
			Height(height).
			Render(m.detailViewport.View())

		return lipgloss.JoinVertical(lipgloss.Left, headerRow, body)
	}

	placeholderRow := lipgloss.NewStyle().
		Foreground(m.styles.TextSecondary).
		Padding(0, 1).
		Render(" ")

	emptyStyle := m.styles.PanelStyle(false).
		Width(width-2).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(m.styles.TextSecondary).
		Faint(true)

	message := "← Navigate list to view details"
	if len(m.items) == 0 {
		message = "No message-driven contracts registered"
	}
	return lipgloss.JoinVertical(lipgloss.Left, placeholderRow, emptyStyle.Render(message))
}
