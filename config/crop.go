package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/quadview-cli/quadview/crop"
	"github.com/quadview-cli/quadview/group"
	"github.com/quadview-cli/quadview/key"
	"github.com/quadview-cli/quadview/log"
	"github.com/quadview-cli/quadview/playback"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/viper"
)

// defaultCrops splits a panoramic frame into quadrants.
var defaultCrops = map[group.Position]string{
	group.Front: "0,0,0.5,0.5",
	group.Back:  "0.5,0,0.5,0.5",
	group.Left:  "0,0.5,0.5,0.5",
	group.Right: "0.5,0.5,0.5,0.5",
}

// CropKey returns the configuration key of the crop region of position for a car model.
func CropKey(model string, position group.Position) string {
	return strings.Join([]string{key.CropPrefix, strings.ToLower(model), position.String()}, ".")
}

// ParseRegion parses a region written as "x,y,w,h".
func ParseRegion(s string) (crop.Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return crop.Region{}, fmt.Errorf("region %q: expected x,y,w,h", s)
	}

	values := make([]float64, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return crop.Region{}, fmt.Errorf("region %q: %w", s, err)
		}
		values[i] = v
	}

	return crop.Region{X: values[0], Y: values[1], W: values[2], H: values[3]}, nil
}

// Crops reads crop regions from the configuration. A region can be written as an
// "x,y,w,h" string or as a table with x, y, w and h fields.
type Crops struct{}

func (Crops) Region(model string, position group.Position) mo.Option[crop.Region] {
	k := CropKey(model, position)
	if !viper.IsSet(k) {
		return mo.None[crop.Region]()
	}

	var (
		region crop.Region
		err    error
	)

	switch value := viper.Get(k).(type) {
	case string:
		region, err = ParseRegion(value)
	default:
		err = viper.UnmarshalKey(k, &region)
	}

	if err != nil {
		log.Warnf("ignoring crop %s: %v", k, err)
		return mo.None[crop.Region]()
	}

	if !region.Valid() {
		log.Warnf("ignoring crop %s: empty region %s", k, region)
		return mo.None[crop.Region]()
	}

	return mo.Some(region.Clamp())
}

// Profile returns the configured car and whether it records panoramic frames.
func Profile() playback.Profile {
	model := strings.ToLower(viper.GetString(key.CarModel))
	panoramic := lo.ContainsBy(viper.GetStringSlice(key.CarPanoramicModels), func(m string) bool {
		return strings.EqualFold(m, model)
	})

	return playback.Profile{Model: model, Panoramic: panoramic}
}

// SinglePosition returns the configured single view angle, Front when invalid.
func SinglePosition() group.Position {
	pos, err := group.ParsePosition(viper.GetString(key.PlaybackSinglePosition))
	if err != nil || !pos.IsQuad() {
		log.Warnf("invalid %s, using front", key.PlaybackSinglePosition)
		return group.Front
	}
	return pos
}

// ApplyPlayback fills the configurable parts of the playback options.
func ApplyPlayback(opts *playback.Options) {
	opts.Crops = Crops{}
	opts.Profile = Profile()
	opts.Speed = viper.GetFloat64(key.PlaybackSpeed)
	opts.ProgressInterval = milliseconds(key.PlaybackProgressIntervalMs)
	opts.SeekTimeout = milliseconds(key.PlaybackSeekTimeoutMs)
	opts.CropRetry = playback.RetryPolicy{
		Retries: viper.GetInt(key.PlaybackCropRetries),
		Delay:   milliseconds(key.PlaybackCropRetryDelayMs),
	}
	opts.SinglePosition = mo.Some(SinglePosition())
}

func milliseconds(k string) time.Duration {
	return time.Duration(viper.GetInt(k)) * time.Millisecond
}
