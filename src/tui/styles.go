package tui

import "github.com/charmbracelet/lipgloss"

// StyleConfig holds all customizable style colors for the monitor UI.
type StyleConfig struct {
	// Primary colors
	PrimaryBlue    lipgloss.Color
	AccentBlue     lipgloss.Color
	DarkBackground lipgloss.Color
	CardBackground lipgloss.Color
	TextPrimary    lipgloss.Color
	TextSecondary  lipgloss.Color
	BorderColor    lipgloss.Color
	SelectedColor  lipgloss.Color

	// Outcome colors
	ActiveColor  lipgloss.Color
	MatchedColor lipgloss.Color
	MissColor    lipgloss.Color
	ErrorColor   lipgloss.Color
}

// DefaultStyles returns the default color palette
func DefaultStyles() *StyleConfig {
	return &StyleConfig{
		PrimaryBlue:    lipgloss.Color("#8AB4F8"),
		AccentBlue:     lipgloss.Color("#4285F4"),
		DarkBackground: lipgloss.Color("#1E1E1E"),
		CardBackground: lipgloss.Color("#2D2D2D"),
		TextPrimary:    lipgloss.Color("#E8EAED"),
		TextSecondary:  lipgloss.Color("#9AA0A6"),
		BorderColor:    lipgloss.Color("#5F6368"),
		SelectedColor:  lipgloss.Color("#303134"),
		ActiveColor:    lipgloss.Color("#24C1E0"), // Cyan
		MatchedColor:   lipgloss.Color("#34A853"), // Green
		MissColor:      lipgloss.Color("#FBBC04"), // Yellow
		ErrorColor:     lipgloss.Color("#EA4335"), // Red
	}
}

// KindColor returns the color used for a journal event kind.
func (s *StyleConfig) KindColor(kind string) lipgloss.Color {
	switch kind {
	case "matched":
		return s.MatchedColor
	case "unmatched", "collision":
		return s.MissColor
	case "send_error":
		return s.ErrorColor
	default:
		return s.TextSecondary
	}
}

// TitleStyle returns a title lipgloss style using this config
func (s *StyleConfig) TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.PrimaryBlue).
		Bold(true).
		Padding(0, 1)
}

// HelpStyle returns a help text lipgloss style using this config
func (s *StyleConfig) HelpStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.TextSecondary).
		Padding(0, 2)
}

// PanelStyle returns a bordered panel style; focused panels use the accent border.
func (s *StyleConfig) PanelStyle(focused bool) lipgloss.Style {
	border := s.BorderColor
	if focused {
		border = s.AccentBlue
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border)
}
