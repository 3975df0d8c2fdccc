package playback

import (
	"math"

	"github.com/quadview-cli/quadview/group"
)

// Phase is the controller lifecycle stage.
type Phase int

const (
	// Empty means no group is loaded, or the last load had nothing playable.
	Empty Phase = iota
	// Loading means sessions were created and the readiness barrier is pending.
	Loading
	// Ready means every session prepared; it is immediately followed by Playing.
	Ready
	Playing
	Paused
)

func (p Phase) String() string {
	switch p {
	case Empty:
		return "empty"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// prepared reports whether transport controls apply in this phase.
func (p Phase) prepared() bool {
	return p == Ready || p == Playing || p == Paused
}

// Mode selects between the quad view and the enlarged single view.
type Mode int

const (
	Multi Mode = iota
	Single
)

func (m Mode) String() string {
	if m == Single {
		return "single"
	}
	return "multi"
}

// Speeds are the supported playback rates in cycling order.
var Speeds = []float64{0.5, 1.0, 1.5, 2.0}

// DefaultSpeedIndex points at 1.0x.
const DefaultSpeedIndex = 1

const speedTolerance = 0.01

// SpeedIndex returns the index of the option nearest to speed.
// Values outside the supported range report false.
func SpeedIndex(speed float64) (int, bool) {
	if speed < Speeds[0]-speedTolerance || speed > Speeds[len(Speeds)-1]+speedTolerance {
		return 0, false
	}

	best := 0
	for i, s := range Speeds {
		if math.Abs(s-speed) < math.Abs(Speeds[best]-speed) {
			best = i
		}
	}
	return best, true
}

// State is an immutable view of the controller, published after every change.
type State struct {
	Phase          Phase
	Mode           Mode
	SinglePosition group.Position
	Speed          float64
	IsPlaying      bool
	IsPrepared     bool
	DurationMs     int
	PositionMs     int

	// Group is the loaded group, nil when nothing was loaded.
	Group *group.Group
}
