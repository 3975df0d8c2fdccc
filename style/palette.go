package style

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/quadview-cli/quadview/group"
)

// Palette of the player interface.
var (
	Base    = lipgloss.Color("#1e1e2e")
	Text    = lipgloss.Color("#cdd6f4")
	Overlay = lipgloss.Color("#6c7086")

	Mauve    = lipgloss.Color("#cba6f7")
	Red      = lipgloss.Color("#f38ba8")
	Peach    = lipgloss.Color("#fab387")
	Yellow   = lipgloss.Color("#f9e2af")
	Green    = lipgloss.Color("#a6e3a1")
	Sky      = lipgloss.Color("#89dceb")
	Blue     = lipgloss.Color("#89b4fa")
	Lavender = lipgloss.Color("#b4befe")

	AccentColor = Mauve
	HiRed       = Red
	FaintColor  = Overlay
)

// angleColors tints each camera angle the same way in every view.
var angleColors = map[group.Position]lipgloss.Color{
	group.Front: Sky,
	group.Back:  Peach,
	group.Left:  Green,
	group.Right: Lavender,
	group.Full:  Yellow,
}

// AngleColor returns the tint of a camera angle, the accent color for the single view.
func AngleColor(p group.Position) lipgloss.Color {
	if c, ok := angleColors[p]; ok {
		return c
	}
	return AccentColor
}

// Angle renders s in the tint of p.
func Angle(p group.Position) func(string) string {
	return Fg(AngleColor(p))
}
