package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Init scans the library and starts listening for playback events.
func (b *statefulBubble) Init() tea.Cmd {
	b.setState(loadingState)
	return tea.Batch(
		b.startLoading(fmt.Sprintf("Scanning %s...", b.options.Library)),
		b.scanLibrary(),
		b.waitForEvent(),
	)
}
