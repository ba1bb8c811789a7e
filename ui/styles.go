package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/speakr/internal/controller"
)

var (
	normalFg = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#DDDDDD"}
	dimFg    = lipgloss.AdaptiveColor{Light: "#A49FA5", Dark: "#777777"}
	green    = lipgloss.Color("#04B575")
	fuchsia  = lipgloss.Color("#EE6FF8")
	red      = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	orange   = lipgloss.AdaptiveColor{Light: "#E07800", Dark: "#FFAA40"}
	blue     = lipgloss.AdaptiveColor{Light: "#2F6BE0", Dark: "#6FA8FF"}

	statusBarNoteFg = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	statusBarBg     = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}

	logoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ECFD65")).
			Background(fuchsia).
			Bold(true).
			Padding(0, 1)

	errorTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(red).
			Padding(0, 1)

	subtleStyle = lipgloss.NewStyle().Foreground(dimFg)

	labelStyle = lipgloss.NewStyle().
			Foreground(dimFg).
			Width(9)

	focusedLabelStyle = labelStyle.
				Foreground(fuchsia).
				Bold(true)

	valueStyle        = lipgloss.NewStyle().Foreground(normalFg)
	focusedValueStyle = lipgloss.NewStyle().Foreground(fuchsia)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(dimFg).
			Padding(0, 1)

	focusedPaneStyle = paneStyle.BorderForeground(fuchsia)

	onlineStyle  = lipgloss.NewStyle().Foreground(green)
	offlineStyle = lipgloss.NewStyle().Foreground(red)

	selectedItemStyle = lipgloss.NewStyle().
				Foreground(fuchsia).
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(fuchsia).
				PaddingLeft(1)

	itemStyle = lipgloss.NewStyle().PaddingLeft(2)

	helpStyle = lipgloss.NewStyle().
			Foreground(statusBarNoteFg).
			Background(statusBarBg)
)

// statusStyle colors the status line by level.
func statusStyle(level controller.Level) lipgloss.Style {
	s := lipgloss.NewStyle()
	switch level {
	case controller.LevelSuccess:
		return s.Foreground(green)
	case controller.LevelError:
		return s.Foreground(red)
	case controller.LevelWarning:
		return s.Foreground(orange)
	case controller.LevelInfo:
		return s.Foreground(blue)
	default:
		return s.Foreground(dimFg)
	}
}

// counterStyle colors the character counter as it nears the limit.
func counterStyle(level controller.CharLevel) lipgloss.Style {
	s := lipgloss.NewStyle()
	switch level {
	case controller.CharAtLimit:
		return s.Foreground(red)
	case controller.CharNearLimit:
		return s.Foreground(fuchsia)
	default:
		return s.Foreground(dimFg)
	}
}
