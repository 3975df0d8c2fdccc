package playback

import "errors"

var (
	ErrNoMedia          = errors.New("no playable media in this group")
	ErrReleased         = errors.New("controller released")
	ErrUnsupportedSpeed = errors.New("unsupported playback speed")
	ErrNoSurface        = errors.New("no surface for position")
)
