package tui

import (
	"github.com/charmbracelet/lipgloss"

	"grimm.is/swarmctl/internal/protocol"
)

// Palette
var (
	ColorIce   = lipgloss.Color("#A8D8EA") // accents, normal agents
	ColorDeep  = lipgloss.Color("#596E79") // borders, secondary text
	ColorDark  = lipgloss.Color("#2C3E50")
	ColorText  = lipgloss.Color("#E0E0E0")
	ColorAlert = lipgloss.Color("#FF6B6B") // errors, predators
	ColorGood  = lipgloss.Color("#4ECDC4") // success, prey
	ColorWarn  = lipgloss.Color("#FFE66D")
	ColorMuted = lipgloss.Color("#6c757d")
)

var (
	StyleBase = lipgloss.NewStyle().Foreground(ColorText)

	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorIce).
			Bold(true).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(ColorDeep).
			Padding(0, 1)

	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorIce).
			Bold(true)

	StyleSubtitle = lipgloss.NewStyle().
			Foreground(ColorDeep).
			Italic(true)

	StyleStatusGood = lipgloss.NewStyle().Foreground(ColorGood).Bold(true)
	StyleStatusBad  = lipgloss.NewStyle().Foreground(ColorAlert).Bold(true)
	StyleStatusWarn = lipgloss.NewStyle().Foreground(ColorWarn).Bold(true)

	StyleCard = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDeep).
			Padding(0, 1).
			Margin(0, 1)

	StyleFieldBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorIce)

	StyleApp = lipgloss.NewStyle().Margin(1, 2)

	StyleTopBar = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(ColorDeep).
			Padding(0, 1).
			MarginBottom(1)

	StyleMenuItem = lipgloss.NewStyle().
			Foreground(ColorDeep).
			Padding(0, 1)

	StyleMenuItemActive = lipgloss.NewStyle().
				Foreground(ColorDark).
				Background(ColorIce).
				Bold(true).
				Padding(0, 1)

	StyleMenuKey = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Faint(true)

	// Trail points fade in three steps as they age.
	StyleTrail = []lipgloss.Style{
		lipgloss.NewStyle().Foreground(ColorIce),
		lipgloss.NewStyle().Foreground(ColorDeep),
		lipgloss.NewStyle().Foreground(ColorMuted).Faint(true),
	}
)

// RoleStyle returns the agent style for a role.
func RoleStyle(r protocol.Role) lipgloss.Style {
	switch r {
	case protocol.RolePredator:
		return lipgloss.NewStyle().Foreground(ColorAlert).Bold(true)
	case protocol.RolePrey:
		return lipgloss.NewStyle().Foreground(ColorGood).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(ColorIce).Bold(true)
	}
}

// LevelStyle colours a log level.
func LevelStyle(level string) lipgloss.Style {
	switch level {
	case "error":
		return StyleStatusBad
	case "warn":
		return StyleStatusWarn
	case "debug":
		return lipgloss.NewStyle().Foreground(ColorMuted)
	default:
		return lipgloss.NewStyle().Foreground(ColorDeep)
	}
}
