package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Banner lines for the loading screen
var banner = []string{
	"┌─┐┌┬┐┬ ┬┌┐ ┬─┐┬ ┬┌┐┌┌┐┌┌─┐┬─┐",
	"└─┐ │ │ │├┴┐├┬┘│ ││││││││├┤ ├┬┘",
	"└─┘ ┴ └─┘└─┘┴└─└─┘┘└┘┘└┘└─┘┴└─",
}

// Gradient colors from light (top) to dark (bottom)
var bannerGradientColors = []string{
	"#5DADE2",
	"#3498DB",
	"#2874A6",
}

// Spinner frames for the loading animation
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// ProgressMsg updates the loading stage
type ProgressMsg struct {
	Stage string
	Done  bool
}

// SpinnerTickMsg triggers spinner animation frame advance
type SpinnerTickMsg time.Time

// ProgressModel is the loading screen shown until the first snapshot arrives.
type ProgressModel struct {
	stage        string
	done         bool
	spinnerFrame int
}

func NewProgressModel() ProgressModel {
	return ProgressModel{stage: "Waiting for flows"}
}

// SpinnerTick returns a command that sends SpinnerTickMsg after a delay
func SpinnerTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return SpinnerTickMsg(t)
	})
}

// Done reports whether loading finished.
func (m ProgressModel) Done() bool {
	return m.done
}

func (m ProgressModel) Update(msg tea.Msg) (ProgressModel, tea.Cmd) {
	switch msg := msg.(type) {
	case ProgressMsg:
		if msg.Stage != "" {
			m.stage = msg.Stage
		}
		m.done = msg.Done
	case SpinnerTickMsg:
		m.spinnerFrame = (m.spinnerFrame + 1) % len(spinnerFrames)
		if !m.done {
			return m, SpinnerTick()
		}
	}
	return m, nil
}

func (m ProgressModel) View() string {
	var lines []string
	for i, line := range banner {
		color := bannerGradientColors[i%len(bannerGradientColors)]
		style := lipgloss.NewStyle().
			Foreground(lipgloss.Color(color)).
			Bold(true)
		lines = append(lines, style.Render(line))
	}
	logo := strings.Join(lines, "\n")

	if m.done {
		completeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
		return lipgloss.JoinVertical(lipgloss.Center, logo, "", completeStyle.Render("✓ Ready"))
	}

	spinner := spinnerFrames[m.spinnerFrame]
	spinnerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")) // Gold
	statusLine := fmt.Sprintf("%s %s...", spinnerStyle.Render(spinner), m.stage)

	return lipgloss.JoinVertical(lipgloss.Center, logo, "", statusLine)
}
