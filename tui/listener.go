package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/quadview-cli/quadview/log"
)

type (
	preparedMsg       struct{ durationMs int }
	progressMsg       struct{ positionMs int }
	playingMsg        struct{ playing bool }
	completedMsg      struct{}
	singlePreparedMsg struct{}
	playbackErrorMsg  struct{ err error }
)

// eventListener forwards controller events to the bubble as messages.
// Progress updates are dropped while the bubble is behind.
type eventListener struct {
	events chan tea.Msg
}

func newEventListener() *eventListener {
	return &eventListener{events: make(chan tea.Msg, 64)}
}

func (l *eventListener) send(msg tea.Msg) {
	select {
	case l.events <- msg:
	default:
		log.Warnf("console is not keeping up, dropping %T", msg)
	}
}

func (l *eventListener) OnPrepared(durationMs int) {
	l.send(preparedMsg{durationMs: durationMs})
}

func (l *eventListener) OnProgressUpdate(positionMs int) {
	select {
	case l.events <- progressMsg{positionMs: positionMs}:
	default:
	}
}

func (l *eventListener) OnPlaybackStateChanged(playing bool) {
	l.send(playingMsg{playing: playing})
}

func (l *eventListener) OnCompletion() {
	l.send(completedMsg{})
}

func (l *eventListener) OnError(err error) {
	l.send(playbackErrorMsg{err: err})
}

func (l *eventListener) OnSingleVideoPrepared() {
	l.send(singlePreparedMsg{})
}
