package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// renderListPanel renders the left panel with the flow list
func (m MainModel) renderListPanel(width, height int) string {
	listPanel := m.styles.PanelStyle(!m.detailFocused).
		Width(width - 2).
		Height(height).
		Render(m.listView.Render())

	// Truncate to width-4 to account for padding (2 chars)
	headerText := Truncate(m.listView.GetDelegate().Header(), width-4, true)
	headerRow := lipgloss.NewStyle().
		Foreground(m.styles.PrimaryBlue).
		Bold(true).
		Width(width-2).
		Padding(0, 1).
		Render(headerText)

	return lipgloss.JoinVertical(lipgloss.Left, headerRow, listPanel)
}
