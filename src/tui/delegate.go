package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	// listRenderingOverhead accounts for padding added by bubbles/list and panel borders.
	// Breakdown: panel border (2) + list internal padding/margins (8) = 10 chars total.
	listRenderingOverhead = 10

	// minCountWidth keeps counter columns aligned for small numbers.
	minCountWidth = 3
)

// Delegate renders flow items as table rows.
type Delegate struct {
	CountWidth int
	styles     *StyleConfig
}

// NewDelegate creates a new flow table delegate with default styles
func NewDelegate() Delegate {
	return NewDelegateWithStyles(DefaultStyles())
}

// NewDelegateWithStyles creates a new delegate with custom styles
func NewDelegateWithStyles(styles *StyleConfig) Delegate {
	return Delegate{
		CountWidth: minCountWidth,
		styles:     styles,
	}
}

// SetColumnWidth sizes the counter columns for the largest counter shown.
func (d *Delegate) SetColumnWidth(maxCount int64) {
	d.CountWidth = len(fmt.Sprintf("%d", maxCount))
	if d.CountWidth < minCountWidth {
		d.CountWidth = minCountWidth
	}
}

// Height returns the height of a list item
func (d Delegate) Height() int {
	return 1
}

// Spacing returns spacing between items
func (d Delegate) Spacing() int {
	return 0
}

// Update handles item updates
func (d Delegate) Update(msg tea.Msg, m *list.Model) tea.Cmd {
	return nil
}

// fixedWidth is the width of the marker and counter columns plus separators.
func (d Delegate) fixedWidth() int {
	// marker (1) + 4 counters + 5 separators (3 each)
	return 1 + 4*d.CountWidth + 5*3
}

// Row formats one flow as a table row of at most width columns.
func (d Delegate) Row(item Item, width int) string {
	marker := "○"
	if item.Active() {
		marker = "●"
	}

	m := item.Flow.Metrics
	count := func(v int64) string { return fmt.Sprintf("%*d", d.CountWidth, v) }

	available := width - d.fixedWidth()
	var name string
	if available > 0 {
		name = TruncateAndPad(item.Flow.Name, available, true)
	}

	return fmt.Sprintf("%s │ %s │ %s │ %s │ %s │ %s",
		marker, count(m.Received), count(m.Matched), count(m.Unmatched), count(m.SendErrors), name)
}

// Header returns the column header matching Row.
func (d Delegate) Header() string {
	col := func(s string) string { return fmt.Sprintf("%*s", d.CountWidth, Truncate(s, d.CountWidth, false)) }
	return fmt.Sprintf("  │ %s │ %s │ %s │ %s │ Flow", col("In"), col("Hit"), col("Miss"), col("Err"))
}

// Render renders a list item
func (d Delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	entry, ok := item.(Item)
	if !ok {
		return
	}

	line := d.Row(entry, m.Width()-listRenderingOverhead)

	style := lipgloss.NewStyle().Foreground(d.styles.TextSecondary)
	switch {
	case index == m.Index():
		style = style.Bold(true).Foreground(d.styles.PrimaryBlue).Background(d.styles.SelectedColor)
	case entry.Flow.Metrics.SendErrors > 0:
		style = style.Foreground(d.styles.ErrorColor)
	case entry.Active():
		style = style.Foreground(d.styles.ActiveColor)
	}

	fmt.Fprint(w, style.Render(line))
}
