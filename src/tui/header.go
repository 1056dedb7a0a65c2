package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// AllDestinations is the filter value that shows every flow.
const AllDestinations = "ALL"

// Header represents the top status bar component.
type Header struct {
	status         string
	selectedFilter string
	destinations   []string
	searchQuery    string
	searchMode     bool
	styles         *StyleConfig
}

// NewHeader creates a new header with default styles
func NewHeader(status string) Header {
	return NewHeaderWithStyles(status, DefaultStyles())
}

// NewHeaderWithStyles creates a new header with custom styles
func NewHeaderWithStyles(status string, styles *StyleConfig) Header {
	return Header{
		status:         status,
		selectedFilter: AllDestinations,
		styles:         styles,
	}
}

// SetStatus replaces the status text.
func (h *Header) SetStatus(status string) {
	h.status = status
}

// SetDestinations replaces the destinations the filter cycles through. A
// filter on a destination that disappeared falls back to all.
func (h *Header) SetDestinations(destinations []string) {
	h.destinations = destinations
	if h.selectedFilter == AllDestinations {
		return
	}
	for _, d := range destinations {
		if d == h.selectedFilter {
			return
		}
	}
	h.selectedFilter = AllDestinations
}

// SetFilter sets the current filter
func (h *Header) SetFilter(filter string) {
	h.selectedFilter = filter
}

// GetFilter returns the current filter
func (h Header) GetFilter() string {
	return h.selectedFilter
}

// CycleFilter cycles to the next filter
func (h *Header) CycleFilter() {
	filters := append([]string{AllDestinations}, h.destinations...)
	currentIndex := 0
	for i, f := range filters {
		if f == h.selectedFilter {
			currentIndex = i
			break
		}
	}
	nextIndex := (currentIndex + 1) % len(filters)
	h.selectedFilter = filters[nextIndex]
}

// SetSearch updates the search state
func (h *Header) SetSearch(query string, mode bool) {
	h.searchQuery = query
	h.searchMode = mode
}

// Render renders the header
func (h Header) Render(width int) string {
	statusStyle := lipgloss.NewStyle().
		Foreground(h.styles.PrimaryBlue).
		Bold(true).
		Padding(0, 2)

	status := statusStyle.Render(fmt.Sprintf("📡 %s", h.status))

	filterStyle := lipgloss.NewStyle().
		Foreground(h.styles.PrimaryBlue).
		Bold(true).
		Padding(0, 2)

	filter := filterStyle.Render(fmt.Sprintf("⇢ Destination: %s", h.selectedFilter))

	var searchText string
	if h.searchMode {
		searchText = fmt.Sprintf("🔍 Search: %s█", h.searchQuery)
	} else if h.searchQuery != "" {
		searchText = fmt.Sprintf("🔍 Search: %s", h.searchQuery)
	} else {
		searchText = "🔍 [/] to search"
	}

	searchStyle := lipgloss.NewStyle().
		Foreground(h.styles.TextSecondary).
		Padding(0, 2)
	if h.searchMode {
		searchStyle = searchStyle.Foreground(h.styles.PrimaryBlue)
	}

	search := searchStyle.Render(searchText)

	leftSection := lipgloss.JoinHorizontal(lipgloss.Left, status, filter, search)
	if lipgloss.Width(leftSection) > width {
		leftSection = lipgloss.JoinHorizontal(lipgloss.Left, status, filter)
	}

	headerStyle := lipgloss.NewStyle().
		Background(h.styles.DarkBackground).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(h.styles.BorderColor).
		MaxWidth(width).
		Width(width)

	spacerWidth := width - lipgloss.Width(leftSection)
	if spacerWidth < 0 {
		spacerWidth = 0
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	content := lipgloss.JoinHorizontal(lipgloss.Left, leftSection, spacer)

	return headerStyle.Render(content)
}
