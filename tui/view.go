package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wrap"
	"github.com/quadview-cli/quadview/color"
	"github.com/quadview-cli/quadview/group"
	"github.com/quadview-cli/quadview/icon"
	"github.com/quadview-cli/quadview/playback"
	"github.com/quadview-cli/quadview/style"
	"github.com/quadview-cli/quadview/util"
	"github.com/samber/lo"
)

var (
	listExtraPaddingStyle = lipgloss.NewStyle().Padding(1, 2, 1, 0)
	paddingStyle          = lipgloss.NewStyle().Padding(1, 2)
)

func (b *statefulBubble) View() string {
	var output string

	switch b.state {
	case loadingState:
		output = b.viewLoading()
	case groupsState:
		output = listExtraPaddingStyle.Render(b.groupsC.View())
	case historyState:
		output = listExtraPaddingStyle.Render(b.historyC.View())
	case playState:
		output = b.viewPlay()
	case errorState:
		output = b.viewError()
	default:
		output = "Unknown state"
	}

	return b.notifier.View(output)
}

func (b *statefulBubble) viewLoading() string {
	return b.renderLines(
		true,
		[]string{
			style.Title("Loading"),
			"",
			b.spinnerC.View() + " " + b.progressStatus,
		},
	)
}

func (b *statefulBubble) viewPlay() string {
	if b.current == nil {
		return b.renderLines(true, []string{style.Title("Now Playing")})
	}

	snapshot := b.controller.Snapshot()

	var ratio float64
	if b.durationMs > 0 {
		ratio = float64(b.positionMs) / float64(b.durationMs)
	}

	timing := fmt.Sprintf(
		"%s / %s   %s %gx",
		util.FormatMillis(b.positionMs),
		util.FormatMillis(b.durationMs),
		icon.Get(icon.Speed),
		snapshot.Speed,
	)

	return b.renderLines(
		true,
		[]string{
			style.Title("Now Playing"),
			"",
			style.Truncate(b.width)(fmt.Sprintf("%s %s", icon.Get(icon.Camera), groupTitle(b.current))),
			"",
			b.viewStatus(snapshot),
			b.progressC.ViewAs(ratio),
			timing,
			"",
			b.viewMode(snapshot),
			b.viewAngles(snapshot),
		},
	)
}

func (b *statefulBubble) viewStatus(snapshot playback.State) string {
	switch {
	case snapshot.Phase == playback.Loading:
		return b.spinnerC.View() + " Preparing angles..."
	case snapshot.Phase == playback.Empty:
		return icon.Get(icon.Fail) + " Nothing to play"
	case b.completed:
		return style.Fg(color.Green)(icon.Get(icon.Success) + " Finished")
	case snapshot.IsPlaying:
		return icon.Get(icon.Play) + " Playing"
	default:
		return icon.Get(icon.Pause) + " Paused"
	}
}

func (b *statefulBubble) viewMode(snapshot playback.State) string {
	if snapshot.Mode != playback.Single {
		return icon.Get(icon.Grid) + " All angles"
	}

	mode := fmt.Sprintf("%s %s", icon.Get(icon.Single), style.Angle(snapshot.SinglePosition)(util.Capitalize(snapshot.SinglePosition.String())))
	if !b.singleShown {
		mode += " " + style.Faint("(positioning)")
	}
	return mode
}

func (b *statefulBubble) viewAngles(snapshot playback.State) string {
	labels := lo.Map(group.Quad(), func(p group.Position, i int) string {
		label := fmt.Sprintf("%d %s", i+1, util.Capitalize(p.String()))
		switch {
		case !b.controller.HasVideo(p):
			return style.Faint(label)
		case snapshot.Mode == playback.Single && snapshot.SinglePosition == p:
			return lipgloss.NewStyle().Bold(true).Underline(true).Foreground(style.AngleColor(p)).Render(label)
		default:
			return style.Angle(p)(label)
		}
	})
	return strings.Join(labels, "  ")
}

func (b *statefulBubble) viewError() string {
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	errorMsg := wrap.String(errorStyle.Render(b.lastError.Error()), b.width)
	return b.renderLines(
		true,
		[]string{
			style.ErrorTitle("Error"),
			"",
			icon.Get(icon.Fail) + " An error occurred:",
			"",
			errorMsg,
		},
	)
}

func (b *statefulBubble) renderLines(addHelp bool, lines []string) string {
	h := len(lines)
	l := strings.Join(lines, "\n")
	if addHelp {
		if b.height > h {
			l += strings.Repeat("\n", b.height-h)
		}
		l += b.helpC.View(b.keymap)
	}

	return paddingStyle.Render(l)
}
