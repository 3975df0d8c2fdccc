package mini

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/quadview-cli/quadview/color"
	"github.com/quadview-cli/quadview/group"
	"github.com/quadview-cli/quadview/history"
	"github.com/quadview-cli/quadview/icon"
	"github.com/quadview-cli/quadview/internal/cache"
	"github.com/quadview-cli/quadview/key"
	"github.com/quadview-cli/quadview/log"
	"github.com/quadview-cli/quadview/playback"
	"github.com/quadview-cli/quadview/style"
	"github.com/quadview-cli/quadview/util"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

type state int

const (
	groupSelectState state = iota + 1
	historySelectState
	playState
	quitState
)

// prepareTimeout bounds the wait for every angle to become ready.
const prepareTimeout = 30 * time.Second

type action int

const (
	toggleAction action = iota
	rewindAction
	forwardAction
	speedAction
	singleAction
	quadAction
	refreshAction
	backAction
	quitAction
)

type choice struct {
	label    string
	action   action
	position group.Position
}

func title(s string) {
	fmt.Println(style.Title(s))
}

func progress(msg string) (eraser func()) {
	return util.PrintErasable(fmt.Sprintf("%s %s", icon.Get(icon.Progress), msg))
}

func menu(message string, labels []string) (int, error) {
	prompt := &survey.Select{
		Message:  message,
		Options:  labels,
		PageSize: 12,
	}

	var index int
	err := survey.AskOne(prompt, &index)
	return index, err
}

func groupLabel(g *group.Group) string {
	angles := lo.Map(g.Positions(), func(p group.Position, _ int) string { return p.String() })
	at, err := g.Time()
	if err != nil {
		return fmt.Sprintf("%s %v", g.Key, angles)
	}
	return fmt.Sprintf("%s %v", at.Format("2006-01-02 15:04:05"), angles)
}

func (m *mini) ensureGroups() error {
	if m.groups != nil {
		return nil
	}

	erase := progress(fmt.Sprintf("Scanning %s..", m.options.Library))
	groups, err := cache.Scan(m.options.Library)
	erase()
	if err != nil {
		return fmt.Errorf("scan %s: %w", m.options.Library, err)
	}
	if len(groups) == 0 {
		return fmt.Errorf("no recordings in %s", m.options.Library)
	}

	m.groups = groups
	return nil
}

func (m *mini) handleGroupSelectState() error {
	if err := m.ensureGroups(); err != nil {
		return err
	}

	title("Recordings")
	labels := append(lo.Map(m.groups, func(g *group.Group, _ int) string { return groupLabel(g) }), "Quit")
	i, err := menu("Select a recording", labels)
	if err != nil {
		return err
	}

	if i == len(m.groups) {
		m.newState(quitState)
		return nil
	}

	resume, err := history.Find(m.options.Library, m.groups[i].Key)
	if err != nil {
		log.Warn(err)
	}
	m.play(m.groups[i], resume)
	return nil
}

func (m *mini) handleHistorySelectState() error {
	if err := m.ensureGroups(); err != nil {
		return err
	}

	entries := m.savedEntries()
	if len(entries) == 0 {
		fmt.Println(style.Faint("Nothing to continue"))
		m.setState(groupSelectState)
		return nil
	}

	title("Continue Watching")
	labels := append(lo.Map(entries, func(e *history.Entry, _ int) string { return e.String() }), "All recordings", "Quit")
	i, err := menu("Select a recording", labels)
	if err != nil {
		return err
	}

	switch i {
	case len(entries):
		m.newState(groupSelectState)
	case len(entries) + 1:
		m.newState(quitState)
	default:
		g := group.Find(m.groups, entries[i].Key).MustGet()
		m.play(g, mo.Some(entries[i]))
	}
	return nil
}

// savedEntries lists the resume entries of groups still present, most recent first.
func (m *mini) savedEntries() []*history.Entry {
	saved, err := history.Get()
	if err != nil {
		log.Warnf("load history: %s", err)
		return nil
	}

	library := filepath.Clean(m.options.Library)
	entries := lo.Filter(lo.Values(saved), func(e *history.Entry, _ int) bool {
		return filepath.Clean(e.Library) == library && group.Find(m.groups, e.Key).IsPresent()
	})
	slices.SortFunc(entries, func(a, b *history.Entry) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return entries
}

func (m *mini) play(g *group.Group, resume mo.Option[*history.Entry]) {
	m.current = g
	m.resume = resume
	m.durationMs = 0
	m.newState(playState)
	m.controller.LoadGroup(g)
}

func (m *mini) handlePlayState() error {
	if m.durationMs == 0 {
		if err := m.waitPrepared(); err != nil {
			fmt.Printf("%s %s\n", style.Fg(color.Red)(icon.Get(icon.Fail)), err)
			m.current = nil
			m.previousState()
			return nil
		}
		m.applyResume()
	}

	m.report(m.listener.pending())

	snapshot := m.controller.Snapshot()
	fmt.Println(m.status(snapshot, m.position()))

	choices := m.choices(snapshot)
	i, err := menu(groupLabel(m.current), lo.Map(choices, func(c choice, _ int) string { return c.label }))
	if err != nil {
		return err
	}

	m.apply(choices[i], snapshot)
	return nil
}

// waitPrepared blocks until every angle of the current group is ready.
func (m *mini) waitPrepared() error {
	erase := progress("Preparing angles..")
	defer erase()

	timeout := time.After(prepareTimeout)
	for {
		select {
		case e := <-m.listener.events:
			switch {
			case e.prepared:
				m.durationMs = e.durationMs
				return nil
			case errors.Is(e.err, playback.ErrNoMedia), errors.Is(e.err, playback.ErrNoSurface):
				return e.err
			case e.err != nil:
				log.Warn(e.err)
			}
		case <-timeout:
			return fmt.Errorf("%s: angles not ready after %s", m.current.Key, prepareTimeout)
		}
	}
}

func (m *mini) applyResume() {
	entry, ok := m.resume.Get()
	if !ok {
		return
	}
	m.resume = mo.None[*history.Entry]()

	if entry.Single && m.controller.HasVideo(entry.SinglePosition) {
		m.controller.SetSingleMode(true, entry.SinglePosition)
	}
	if entry.PositionMs > 0 && !entry.Finished() {
		m.controller.SeekTo(entry.PositionMs)
		fmt.Printf("%s Resumed at %s\n", icon.Get(icon.Resume), util.FormatMillis(entry.PositionMs))
	}
}

func (m *mini) report(events []event) {
	for _, e := range events {
		switch {
		case e.completed:
			fmt.Printf("%s End of recording\n", style.Fg(color.Green)(icon.Get(icon.Success)))
		case e.err != nil:
			fmt.Printf("%s %s\n", style.Fg(color.Red)(icon.Get(icon.Fail)), e.err)
		}
	}
}

func (m *mini) position() int {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	pos, err := m.controller.CurrentPosition(ctx)
	if err != nil {
		log.Warnf("current position: %s", err)
		return 0
	}
	return pos
}

func (m *mini) status(snapshot playback.State, positionMs int) string {
	playing := lo.Ternary(snapshot.IsPlaying, icon.Get(icon.Play), icon.Get(icon.Pause))
	view := icon.Get(icon.Grid) + " all angles"
	if snapshot.Mode == playback.Single {
		view = fmt.Sprintf("%s %s", icon.Get(icon.Single), style.Angle(snapshot.SinglePosition)(snapshot.SinglePosition.String()))
	}

	return fmt.Sprintf(
		"%s %s / %s  %gx  %s",
		playing,
		util.FormatMillis(positionMs),
		util.FormatMillis(m.durationMs),
		snapshot.Speed,
		view,
	)
}

func (m *mini) choices(snapshot playback.State) []choice {
	choices := []choice{
		{label: lo.Ternary(snapshot.IsPlaying, "Pause", "Play"), action: toggleAction},
		{label: "Rewind", action: rewindAction},
		{label: "Forward", action: forwardAction},
		{label: fmt.Sprintf("Speed (%gx)", snapshot.Speed), action: speedAction},
	}

	for _, p := range group.Quad() {
		if !m.controller.HasVideo(p) {
			continue
		}
		if snapshot.Mode == playback.Single && snapshot.SinglePosition == p {
			continue
		}
		choices = append(choices, choice{label: "Show " + p.String(), action: singleAction, position: p})
	}

	if snapshot.Mode == playback.Single {
		choices = append(choices, choice{label: "Show all angles", action: quadAction})
	}

	return append(choices,
		choice{label: "Refresh", action: refreshAction},
		choice{label: "Back", action: backAction},
		choice{label: "Quit", action: quitAction},
	)
}

func (m *mini) apply(c choice, snapshot playback.State) {
	step := viper.GetInt(key.PlaybackSeekStepMs)

	switch c.action {
	case toggleAction:
		m.controller.TogglePlayPause()
	case rewindAction:
		m.controller.SeekTo(util.Max(0, m.position()-step))
	case forwardAction:
		m.controller.SeekTo(util.Min(m.position()+step, m.durationMs))
	case speedAction:
		fmt.Printf("%s %gx\n", icon.Get(icon.Speed), m.controller.CycleSpeed())
	case singleAction:
		m.controller.SetSingleMode(true, c.position)
	case quadAction:
		m.controller.SetSingleMode(false, snapshot.SinglePosition)
	case backAction:
		m.saveProgress()
		m.controller.Pause()
		m.current = nil
		m.previousState()
	case quitAction:
		m.saveProgress()
		m.setState(quitState)
	}
}

func (m *mini) saveProgress() {
	if m.current == nil || m.durationMs == 0 || !viper.GetBool(key.HistorySaveProgress) {
		return
	}

	snapshot := m.controller.Snapshot()
	entry := &history.Entry{
		Library:        m.options.Library,
		Key:            m.current.Key,
		PositionMs:     m.position(),
		DurationMs:     m.durationMs,
		Single:         snapshot.Mode == playback.Single,
		SinglePosition: snapshot.SinglePosition,
		Speed:          snapshot.Speed,
	}
	if err := history.Save(entry); err != nil {
		log.Warnf("save progress of %s: %s", m.current.Key, err)
	}
}
