package history

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/quadview-cli/quadview/group"
	"github.com/quadview-cli/quadview/util"
)

// Entry is the saved playback state of one group.
type Entry struct {
	Library        string         `json:"library"`
	Key            string         `json:"key"`
	PositionMs     int            `json:"position_ms"`
	DurationMs     int            `json:"duration_ms"`
	Single         bool           `json:"single"`
	SinglePosition group.Position `json:"single_position"`
	Speed          float64        `json:"speed"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (e *Entry) encode() string {
	return fmt.Sprintf("%s (%s)", e.Key, filepath.Clean(e.Library))
}

// Finished reports whether the saved position is at the end of the recording.
func (e *Entry) Finished() bool {
	return e.DurationMs > 0 && e.PositionMs >= e.DurationMs
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s : %s / %s", e.Key, util.FormatMillis(e.PositionMs), util.FormatMillis(e.DurationMs))
}
