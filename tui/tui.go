// Package tui provides the primary terminal user interface implementation.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/quadview-cli/quadview/group"
	"github.com/quadview-cli/quadview/playback"
)

// Controller is the part of playback.Controller driven by the console.
type Controller interface {
	Snapshot() playback.State
	HasVideo(position group.Position) bool
	LoadGroup(g *group.Group)
	TogglePlayPause()
	Pause()
	SeekTo(ms int)
	SetSpeed(speed float64)
	CycleSpeed() float64
	SetSingleMode(enabled bool, position group.Position)
	Release()
}

// Options encapsulates the runtime configuration for the terminal user interface.
type Options struct {
	// Library is the directory scanned for recordings.
	Library string
	// Continue opens the resume list instead of the group list.
	Continue bool
	// Group plays the group with this key right away.
	Group string
	// NewController builds the playback controller reporting to listener.
	NewController func(listener playback.Listener) Controller
}

// Run initializes and executes the primary Bubble Tea application loop.
func Run(options *Options) error {
	bubble := newBubble(options)
	defer bubble.close()

	_, err := tea.NewProgram(bubble, tea.WithAltScreen()).Run()
	return err
}
