package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/quadview-cli/quadview/group"
	"github.com/quadview-cli/quadview/history"
	"github.com/quadview-cli/quadview/icon"
	"github.com/quadview-cli/quadview/style"
	"github.com/quadview-cli/quadview/util"
	"github.com/samber/lo"
)

// listItem implements the list.Item interface, wrapping groups and resume entries for display.
type listItem struct {
	internal interface{}
	resume   *history.Entry
}

// Title retrieves the primary display text for the list item.
func (t *listItem) Title() string {
	var title string
	switch e := t.internal.(type) {
	case *group.Group:
		title = groupTitle(e)
	case *history.Entry:
		title = e.Key
	default:
		title = t.FilterValue()
	}

	if t.resume != nil {
		title = fmt.Sprintf("%s %s", title, icon.Get(icon.Resume))
	}
	return title
}

// Description retrieves the secondary metadata for the list item.
func (t *listItem) Description() string {
	switch e := t.internal.(type) {
	case *group.Group:
		angles := lo.Map(e.Positions(), func(p group.Position, _ int) string {
			return util.Capitalize(p.String())
		})
		description := fmt.Sprintf("%s • %s", util.Quantify(len(angles), "angle", "angles"), strings.Join(angles, ", "))
		if t.resume != nil {
			description += lipgloss.NewStyle().Foreground(style.Yellow).Render(" (" + util.FormatMillis(t.resume.PositionMs) + ")")
		}
		return description
	case *history.Entry:
		progress := fmt.Sprintf("%s / %s", util.FormatMillis(e.PositionMs), util.FormatMillis(e.DurationMs))
		if e.Finished() {
			progress = lipgloss.NewStyle().Foreground(style.Green).Render("watched")
		}
		view := "all angles"
		if e.Single {
			view = e.SinglePosition.String()
		}
		return fmt.Sprintf("%s • %s • %gx", progress, view, e.Speed)
	default:
		return ""
	}
}

// FilterValue returns the string used for real-time list filtering and searching.
func (t *listItem) FilterValue() string {
	switch e := t.internal.(type) {
	case *group.Group:
		return e.Key
	case *history.Entry:
		return e.Key
	case string:
		return e
	default:
		return ""
	}
}

// groupTitle renders the recording time of a group, falling back to its key.
func groupTitle(g *group.Group) string {
	at, err := g.Time()
	if err != nil {
		return g.Key
	}
	return fmt.Sprintf("%s %s", at.Format("2006-01-02 15:04:05"), style.Faint(g.Key))
}
