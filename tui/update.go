package tui

import (
	"errors"
	"fmt"

	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/quadview-cli/quadview/group"
	"github.com/quadview-cli/quadview/history"
	"github.com/quadview-cli/quadview/icon"
	"github.com/quadview-cli/quadview/internal/ui"
	"github.com/quadview-cli/quadview/key"
	"github.com/quadview-cli/quadview/log"
	"github.com/quadview-cli/quadview/playback"
	"github.com/quadview-cli/quadview/util"
	"github.com/samber/mo"
	"github.com/spf13/viper"
)

func (b *statefulBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if cmd := b.notifier.Update(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}

	switch msg := msg.(type) {
	case preparedMsg, progressMsg, playingMsg, completedMsg, singlePreparedMsg, playbackErrorMsg:
		cmds = append(cmds, b.waitForEvent(), b.handleEvent(msg))
		return b, tea.Batch(cmds...)
	case error:
		b.raiseError(msg)
		return b, tea.Batch(cmds...)
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
	case tea.KeyMsg:
		if bubblesKey.Matches(msg, b.keymap.forceQuit) {
			return b, tea.Quit
		}
	}

	var (
		model tea.Model
		cmd   tea.Cmd
	)

	switch b.state {
	case loadingState:
		model, cmd = b.updateLoading(msg)
	case groupsState:
		model, cmd = b.updateGroups(msg)
	case historyState:
		model, cmd = b.updateHistory(msg)
	case playState:
		model, cmd = b.updatePlay(msg)
	case errorState:
		model, cmd = b.updateError(msg)
	default:
		model = b
	}

	return model, tea.Batch(append(cmds, cmd)...)
}

// handleEvent applies a controller event to the transport view.
func (b *statefulBubble) handleEvent(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case preparedMsg:
		b.durationMs = msg.durationMs
		b.stopLoading()
		return b.applyResume()
	case progressMsg:
		b.positionMs = msg.positionMs
		b.saveProgress(false)
	case playingMsg:
		b.playing = msg.playing
		if msg.playing {
			b.completed = false
		} else {
			b.saveProgress(true)
		}
	case completedMsg:
		b.completed = true
		b.playing = false
		b.positionMs = b.durationMs
		b.saveProgress(true)
		return ui.Notify(fmt.Sprintf("%s End of recording", icon.Get(icon.Success)))
	case singlePreparedMsg:
		b.singleShown = true
	case playbackErrorMsg:
		switch {
		case errors.Is(msg.err, playback.ErrReleased):
			return nil
		case errors.Is(msg.err, playback.ErrNoMedia), errors.Is(msg.err, playback.ErrNoSurface):
			b.stopLoading()
			if b.state == playState {
				b.previousState()
			}
			b.raiseError(fmt.Errorf("%s: %w", b.current.Key, msg.err))
			return nil
		}
		log.Warn(msg.err)
		return ui.Notify(fmt.Sprintf("%s %s", icon.Get(icon.Fail), msg.err))
	}
	return nil
}

func (b *statefulBubble) updateLoading(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if bubblesKey.Matches(msg, b.keymap.back) {
			return b, tea.Quit
		}
	case []*group.Group:
		b.stopLoading()
		cmds = append(cmds, b.setGroups(msg))
		b.setState(groupsState)

		switch {
		case b.options.Group != "":
			g, ok := group.Find(msg, b.options.Group).Get()
			if !ok {
				b.raiseError(fmt.Errorf("group %s not found in %s", b.options.Group, b.options.Library))
				break
			}
			resume, err := history.Find(b.options.Library, g.Key)
			if err != nil {
				log.Warn(err)
			}
			b.play(g, resume)
			cmds = append(cmds, b.startLoading("Preparing angles..."))
		case b.options.Continue:
			cmds = append(cmds, b.setHistory())
			if len(b.historyC.Items()) == 0 {
				cmds = append(cmds, ui.Notify("Nothing to continue"))
				break
			}
			b.newState(historyState)
		}

		return b, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	b.spinnerC, cmd = b.spinnerC.Update(msg)
	return b, cmd
}

func (b *statefulBubble) updateGroups(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && b.groupsC.FilterState() != list.Filtering {
		switch {
		case bubblesKey.Matches(msg, b.keymap.confirm):
			item, ok := b.groupsC.SelectedItem().(*listItem)
			if !ok {
				return b, nil
			}
			resume := mo.None[*history.Entry]()
			if item.resume != nil {
				resume = mo.Some(item.resume)
			}
			b.play(item.internal.(*group.Group), resume)
			return b, b.startLoading("Preparing angles...")
		case bubblesKey.Matches(msg, b.keymap.reveal):
			if item, ok := b.groupsC.SelectedItem().(*listItem); ok {
				return b, b.reveal(item.internal.(*group.Group))
			}
			return b, nil
		case bubblesKey.Matches(msg, b.keymap.back):
			if b.groupsC.FilterState() == list.Unfiltered && b.statesHistory.Len() > 0 {
				b.previousState()
				return b, nil
			}
		}
	}

	var cmd tea.Cmd
	b.groupsC, cmd = b.groupsC.Update(msg)
	return b, cmd
}

func (b *statefulBubble) updateHistory(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && b.historyC.FilterState() != list.Filtering {
		item, selected := b.historyC.SelectedItem().(*listItem)

		switch {
		case bubblesKey.Matches(msg, b.keymap.confirm):
			if !selected {
				return b, nil
			}
			entry := item.internal.(*history.Entry)
			g, ok := group.Find(b.groups, entry.Key).Get()
			if !ok {
				return b, ui.Notify(fmt.Sprintf("%s is gone", entry.Key))
			}
			b.play(g, mo.Some(entry))
			return b, b.startLoading("Preparing angles...")
		case bubblesKey.Matches(msg, b.keymap.remove):
			if !selected {
				return b, nil
			}
			if err := history.Remove(item.internal.(*history.Entry)); err != nil {
				return b, ui.Notify(err.Error())
			}
			return b, tea.Batch(b.setHistory(), b.setGroups(b.groups))
		case bubblesKey.Matches(msg, b.keymap.reveal):
			if !selected {
				return b, nil
			}
			if g, ok := group.Find(b.groups, item.internal.(*history.Entry).Key).Get(); ok {
				return b, b.reveal(g)
			}
			return b, nil
		case bubblesKey.Matches(msg, b.keymap.back):
			if b.historyC.FilterState() == list.Unfiltered {
				b.previousState()
				return b, nil
			}
		}
	}

	var cmd tea.Cmd
	b.historyC, cmd = b.historyC.Update(msg)
	return b, cmd
}

func (b *statefulBubble) updatePlay(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		if b.loading {
			b.spinnerC, cmd = b.spinnerC.Update(msg)
		}
		return b, cmd
	}

	snapshot := b.controller.Snapshot()

	switch {
	case bubblesKey.Matches(keyMsg, b.keymap.quit):
		b.saveProgress(true)
		return b, tea.Quit
	case bubblesKey.Matches(keyMsg, b.keymap.back):
		if snapshot.Mode == playback.Single {
			b.showQuad(snapshot)
			return b, nil
		}
		b.saveProgress(true)
		b.controller.Pause()
		b.stopLoading()
		b.previousState()
		return b, tea.Batch(b.setGroups(b.groups), b.setHistory())
	case bubblesKey.Matches(keyMsg, b.keymap.quad):
		b.showQuad(snapshot)
	case bubblesKey.Matches(keyMsg, b.keymap.playPause):
		b.controller.TogglePlayPause()
	case bubblesKey.Matches(keyMsg, b.keymap.seekBackward):
		return b, b.seek(snapshot, -viper.GetInt(key.PlaybackSeekStepMs))
	case bubblesKey.Matches(keyMsg, b.keymap.seekForward):
		return b, b.seek(snapshot, viper.GetInt(key.PlaybackSeekStepMs))
	case bubblesKey.Matches(keyMsg, b.keymap.cycleSpeed):
		speed := b.controller.CycleSpeed()
		return b, ui.Notify(fmt.Sprintf("%s %gx", icon.Get(icon.Speed), speed))
	default:
		for i, binding := range b.keymap.angles() {
			if bubblesKey.Matches(keyMsg, binding) {
				return b, b.showSingle(snapshot, group.Quad()[i])
			}
		}
	}

	return b, nil
}

func (b *statefulBubble) seek(snapshot playback.State, deltaMs int) tea.Cmd {
	if !snapshot.IsPrepared {
		return ui.Notify("Still preparing")
	}

	target := util.Max(0, util.Min(b.positionMs+deltaMs, b.durationMs))
	b.controller.SeekTo(target)
	b.positionMs = target
	b.completed = false
	return nil
}

func (b *statefulBubble) showSingle(snapshot playback.State, position group.Position) tea.Cmd {
	if !b.controller.HasVideo(position) {
		return ui.Notify(fmt.Sprintf("No %s recording", position))
	}
	if snapshot.Mode == playback.Single && snapshot.SinglePosition == position {
		return nil
	}

	b.singleShown = false
	b.controller.SetSingleMode(true, position)
	return nil
}

func (b *statefulBubble) showQuad(snapshot playback.State) {
	if snapshot.Mode != playback.Single {
		return
	}
	b.singleShown = false
	b.controller.SetSingleMode(false, snapshot.SinglePosition)
}

func (b *statefulBubble) updateError(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case bubblesKey.Matches(msg, b.keymap.quit):
			return b, tea.Quit
		case bubblesKey.Matches(msg, b.keymap.back):
			if b.statesHistory.Len() == 0 {
				return b, tea.Quit
			}
			b.previousState()
		}
	}

	return b, nil
}
