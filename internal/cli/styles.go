package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	colorPrimary   = lipgloss.Color("#6C63FF")
	colorSecondary = lipgloss.Color("#2EC4B6")
	colorMuted     = lipgloss.Color("#666666")
	colorSuccess   = lipgloss.Color("#2ECC71")
	colorWarning   = lipgloss.Color("#F39C12")
	colorError     = lipgloss.Color("#E74C3C")
	colorFg        = lipgloss.Color("#C0CAF5")
	colorSubtle    = lipgloss.Color("#414868")
)

// Output styles. Clocks use the success color while running and the warning
// color once stopped; break phases use the secondary color.
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorFg)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorError)

	timerRunningStyle = lipgloss.NewStyle().Bold(true).Foreground(colorSuccess)
	timerPausedStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorWarning)
	phaseBreakStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorSecondary)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(0, 1)
)

// formatClock renders a duration as HH:MM:SS, truncating sub-second parts.
func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

func formatHours(h float64) string {
	return fmt.Sprintf("%.2fh", h)
}

func activeLabel(active bool) string {
	if active {
		return successStyle.Render("active")
	}
	return mutedStyle.Render("inactive")
}
