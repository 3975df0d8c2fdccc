// Package mini implements a lightweight, prompt driven interface for browsing and playing recordings.
package mini

import (
	"context"
	"errors"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/quadview-cli/quadview/group"
	"github.com/quadview-cli/quadview/history"
	"github.com/quadview-cli/quadview/playback"
	"github.com/quadview-cli/quadview/util"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Controller is the part of playback.Controller driven by the prompts.
type Controller interface {
	Snapshot() playback.State
	HasVideo(position group.Position) bool
	LoadGroup(g *group.Group)
	TogglePlayPause()
	Pause()
	SeekTo(ms int)
	CycleSpeed() float64
	SetSingleMode(enabled bool, position group.Position)
	CurrentPosition(ctx context.Context) (int, error)
	Release()
}

type Options struct {
	Library  string
	Continue bool
	// NewController builds the playback controller reporting to listener.
	NewController func(listener playback.Listener) Controller
}

type mini struct {
	state         state
	statesHistory util.Stack[state]

	options    *Options
	controller Controller
	listener   *eventListener

	groups     []*group.Group
	current    *group.Group
	resume     mo.Option[*history.Entry]
	durationMs int
}

func newMini(options *Options) *mini {
	m := &mini{
		statesHistory: util.Stack[state]{},
		options:       options,
		listener:      newEventListener(),
	}
	m.controller = options.NewController(m.listener)
	return m
}

func (m *mini) previousState() {
	if m.statesHistory.Len() > 0 {
		m.setState(m.statesHistory.Pop())
	}
}

func (m *mini) setState(s state) {
	m.state = s
}

func (m *mini) newState(s state) {
	if m.state == s {
		return
	}

	if !lo.Contains([]state{playState}, m.state) {
		m.statesHistory.Push(m.state)
	}

	m.setState(s)
}

// Run loops over the prompts until the user quits.
func Run(options *Options) error {
	m := newMini(options)
	defer m.controller.Release()

	m.state = groupSelectState
	if options.Continue {
		m.state = historySelectState
	}

	for m.state != quitState {
		if err := m.handleState(); err != nil {
			if errors.Is(err, terminal.InterruptErr) {
				m.saveProgress()
				return nil
			}
			return err
		}
	}

	return nil
}

func (m *mini) handleState() error {
	switch m.state {
	case groupSelectState:
		return m.handleGroupSelectState()
	case historySelectState:
		return m.handleHistorySelectState()
	case playState:
		return m.handlePlayState()
	}

	return nil
}
