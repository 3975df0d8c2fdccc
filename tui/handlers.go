package tui

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/quadview-cli/quadview/group"
	"github.com/quadview-cli/quadview/history"
	"github.com/quadview-cli/quadview/internal/cache"
	"github.com/quadview-cli/quadview/internal/ui"
	"github.com/quadview-cli/quadview/key"
	"github.com/quadview-cli/quadview/log"
	"github.com/quadview-cli/quadview/open"
	"github.com/quadview-cli/quadview/playback"
	"github.com/quadview-cli/quadview/util"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

// saveInterval throttles progress writes while playing.
const saveInterval = 5 * time.Second

func (b *statefulBubble) scanLibrary() tea.Cmd {
	return func() tea.Msg {
		go func() {
			groups, err := cache.Scan(b.options.Library)
			if err != nil {
				b.errorChannel <- fmt.Errorf("scan %s: %w", b.options.Library, err)
				return
			}
			b.groupsLoadedChannel <- groups
		}()

		return b.waitForGroups()()
	}
}

func (b *statefulBubble) waitForGroups() tea.Cmd {
	return func() tea.Msg {
		select {
		case groups := <-b.groupsLoadedChannel:
			return groups
		case err := <-b.errorChannel:
			return err
		}
	}
}

func (b *statefulBubble) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return <-b.listener.events
	}
}

// savedEntries returns the resume entries of the library, most recent first.
func (b *statefulBubble) savedEntries() []*history.Entry {
	saved, err := history.Get()
	if err != nil {
		log.Warnf("load history: %s", err)
		return nil
	}

	library := filepath.Clean(b.options.Library)
	entries := lo.Filter(lo.Values(saved), func(e *history.Entry, _ int) bool {
		return filepath.Clean(e.Library) == library
	})
	slices.SortFunc(entries, func(a, b *history.Entry) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return entries
}

func (b *statefulBubble) setGroups(groups []*group.Group) tea.Cmd {
	b.groups = groups

	resumes := lo.KeyBy(b.savedEntries(), func(e *history.Entry) string { return e.Key })

	items := make([]list.Item, len(groups))
	for i, g := range groups {
		item := &listItem{internal: g}
		if e, ok := resumes[g.Key]; ok && !e.Finished() {
			item.resume = e
		}
		items[i] = item
	}
	return b.groupsC.SetItems(items)
}

func (b *statefulBubble) setHistory() tea.Cmd {
	entries := lo.Filter(b.savedEntries(), func(e *history.Entry, _ int) bool {
		return group.Find(b.groups, e.Key).IsPresent()
	})

	items := lo.Map(entries, func(e *history.Entry, _ int) list.Item {
		return &listItem{internal: e}
	})
	return b.historyC.SetItems(items)
}

// play loads g into the controller and switches to the transport view.
func (b *statefulBubble) play(g *group.Group, resume mo.Option[*history.Entry]) {
	b.saveProgress(true)

	b.current = g
	b.resume = resume
	b.durationMs, b.positionMs = 0, 0
	b.playing, b.completed, b.singleShown = false, false, false
	b.lastSaved = time.Time{}

	log.Infof("playing group %s", g)
	b.controller.LoadGroup(g)
	b.newState(playState)
}

// applyResume restores the saved view of the current group.
func (b *statefulBubble) applyResume() tea.Cmd {
	entry, ok := b.resume.Get()
	if !ok {
		return nil
	}
	b.resume = mo.None[*history.Entry]()

	if entry.Speed > 0 {
		b.controller.SetSpeed(entry.Speed)
	}
	if entry.Single && b.controller.HasVideo(entry.SinglePosition) {
		b.controller.SetSingleMode(true, entry.SinglePosition)
	}
	if entry.PositionMs > 0 && !entry.Finished() {
		b.controller.SeekTo(entry.PositionMs)
		b.positionMs = entry.PositionMs
	}

	return ui.Notify(fmt.Sprintf("Resumed at %s", util.FormatMillis(entry.PositionMs)))
}

// saveProgress records the position of the current group.
// Unless forced, writes are throttled by saveInterval.
func (b *statefulBubble) saveProgress(force bool) {
	if b.current == nil || !viper.GetBool(key.HistorySaveProgress) {
		return
	}
	if b.durationMs == 0 {
		// never prepared
		return
	}
	if !force && time.Since(b.lastSaved) < saveInterval {
		return
	}

	snapshot := b.controller.Snapshot()
	entry := &history.Entry{
		Library:        b.options.Library,
		Key:            b.current.Key,
		PositionMs:     b.positionMs,
		DurationMs:     b.durationMs,
		Single:         snapshot.Mode == playback.Single,
		SinglePosition: snapshot.SinglePosition,
		Speed:          snapshot.Speed,
	}
	if b.completed {
		entry.PositionMs = b.durationMs
	}

	if err := history.Save(entry); err != nil {
		log.Warnf("save progress of %s: %s", b.current.Key, err)
		return
	}
	b.lastSaved = time.Now()
}

func (b *statefulBubble) reveal(g *group.Group) tea.Cmd {
	positions := g.Positions()
	if len(positions) == 0 {
		return nil
	}

	if err := open.Reveal(g.VideoFile(positions[0]), viper.GetString(key.LibraryOpener)); err != nil {
		return ui.Notify(err.Error())
	}
	return nil
}
