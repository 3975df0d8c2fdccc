package playback

import (
	"time"

	"github.com/quadview-cli/quadview/crop"
	"github.com/quadview-cli/quadview/group"
	"github.com/quadview-cli/quadview/player"
	"github.com/samber/mo"
)

const (
	DefaultProgressInterval = 200 * time.Millisecond
	DefaultCropRetries      = 3
	DefaultCropRetryDelay   = 200 * time.Millisecond
	DefaultSeekTimeout      = 3 * time.Second
)

// CropProvider returns the crop region of a virtual angle for a car model.
type CropProvider interface {
	Region(model string, position group.Position) mo.Option[crop.Region]
}

// CropProviderFunc adapts a function to CropProvider.
type CropProviderFunc func(model string, position group.Position) mo.Option[crop.Region]

func (f CropProviderFunc) Region(model string, position group.Position) mo.Option[crop.Region] {
	return f(model, position)
}

// Profile describes the recording car.
type Profile struct {
	Model string
	// Panoramic cars record one full frame that is cropped into the four angles.
	Panoramic bool
}

// RetryPolicy bounds crop transform retries while sizes are unknown.
type RetryPolicy struct {
	Retries int
	Delay   time.Duration
}

// Options configure a Controller. Only NewDecoder and Surfaces are required.
type Options struct {
	NewDecoder func(position group.Position) player.Decoder
	Surfaces   map[group.Position]player.Surface

	Crops   CropProvider
	Profile Profile

	Listener Listener

	ProgressInterval time.Duration
	CropRetry        RetryPolicy
	SeekTimeout      time.Duration

	// AudioFocus is called once per load when all sessions are ready.
	AudioFocus func()

	// Speed is the initial playback rate, 1.0 when zero.
	Speed float64

	// SinglePosition is the initial angle of the single view, Front when unset.
	SinglePosition mo.Option[group.Position]
}

func (o *Options) setDefaults() {
	if o.Listener == nil {
		o.Listener = NopListener{}
	}
	if o.Crops == nil {
		o.Crops = CropProviderFunc(func(string, group.Position) mo.Option[crop.Region] {
			return mo.None[crop.Region]()
		})
	}
	if o.ProgressInterval <= 0 {
		o.ProgressInterval = DefaultProgressInterval
	}
	if o.CropRetry.Retries < 0 {
		o.CropRetry.Retries = 0
	} else if o.CropRetry.Retries == 0 && o.CropRetry.Delay == 0 {
		o.CropRetry.Retries = DefaultCropRetries
	}
	if o.CropRetry.Delay <= 0 {
		o.CropRetry.Delay = DefaultCropRetryDelay
	}
	if o.SeekTimeout <= 0 {
		o.SeekTimeout = DefaultSeekTimeout
	}
	if o.Surfaces == nil {
		o.Surfaces = make(map[group.Position]player.Surface)
	}
}
