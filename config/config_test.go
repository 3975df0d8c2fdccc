package config

import (
	"testing"
	"time"

	"github.com/quadview-cli/quadview/crop"
	"github.com/quadview-cli/quadview/filesystem"
	"github.com/quadview-cli/quadview/group"
	"github.com/quadview-cli/quadview/key"
	"github.com/quadview-cli/quadview/playback"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		Convey("Should initialize without error", func() {
			err := Setup()
			So(err, ShouldBeNil)
		})

		Convey("Should have default values populated", func() {
			_ = Setup()
			for name := range Default {
				So(viper.Get(name), ShouldNotBeNil)
			}
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			result := EnvKeyReplacer.Replace("playback.seek_timeout_ms")
			So(result, ShouldEqual, "playback_seek_timeout_ms")
		})

		Convey("Fields should expose prefixed environment names", func() {
			field := Default[key.PlaybackSpeed]
			So(field.Env(), ShouldEqual, "QUADVIEW_PLAYBACK_SPEED")
			So(field.typeName(), ShouldEqual, "float64")
		})
	})
}

func TestParseRegion(t *testing.T) {
	Convey("Given region strings", t, func() {
		Convey("A well-formed region should parse", func() {
			r, err := ParseRegion("0.5, 0, 0.5,0.5")
			So(err, ShouldBeNil)
			So(r, ShouldResemble, crop.Region{X: 0.5, Y: 0, W: 0.5, H: 0.5})
		})

		Convey("Wrong arity or garbage should fail", func() {
			_, err := ParseRegion("0,0,1")
			So(err, ShouldNotBeNil)

			_, err = ParseRegion("0,0,one,1")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestCrops(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		So(Setup(), ShouldBeNil)
		Reset(viper.Reset)

		crops := Crops{}

		Convey("The panoramic car should have quadrant crops", func() {
			r, ok := crops.Region("lynkco07", group.Back).Get()
			So(ok, ShouldBeTrue)
			So(r, ShouldResemble, crop.Region{X: 0.5, Y: 0, W: 0.5, H: 0.5})
		})

		Convey("Model names should be case-insensitive", func() {
			So(crops.Region("LynkCo07", group.Front).IsPresent(), ShouldBeTrue)
		})

		Convey("Unknown models should have no crop", func() {
			So(crops.Region("generic", group.Front).IsAbsent(), ShouldBeTrue)
		})

		Convey("Empty regions should be ignored", func() {
			viper.Set(CropKey("lynkco07", group.Left), "0,0,0,0.5")
			So(crops.Region("lynkco07", group.Left).IsAbsent(), ShouldBeTrue)
		})

		Convey("Table regions should be decoded", func() {
			viper.Set(CropKey("custom", group.Right), map[string]any{"x": 0.25, "y": 0.25, "w": 0.5, "h": 0.5})
			r, ok := crops.Region("custom", group.Right).Get()
			So(ok, ShouldBeTrue)
			So(r, ShouldResemble, crop.Region{X: 0.25, Y: 0.25, W: 0.5, H: 0.5})
		})

		Convey("The profile should follow the car model", func() {
			So(Profile().Panoramic, ShouldBeFalse)

			viper.Set(key.CarModel, "lynkco07")
			So(Profile(), ShouldResemble, playback.Profile{Model: "lynkco07", Panoramic: true})
		})

		Convey("Playback options should be filled from the configuration", func() {
			viper.Set(key.PlaybackSinglePosition, "right")
			viper.Set(key.PlaybackSeekTimeoutMs, 1500)

			var opts playback.Options
			ApplyPlayback(&opts)

			So(opts.ProgressInterval, ShouldEqual, 200*time.Millisecond)
			So(opts.SeekTimeout, ShouldEqual, 1500*time.Millisecond)
			So(opts.CropRetry, ShouldResemble, playback.RetryPolicy{Retries: 3, Delay: 200 * time.Millisecond})
			So(opts.Speed, ShouldEqual, 1.0)
			So(opts.SinglePosition.MustGet(), ShouldEqual, group.Right)
		})

		Convey("An invalid single position should fall back to front", func() {
			viper.Set(key.PlaybackSinglePosition, "full")
			So(SinglePosition(), ShouldEqual, group.Front)
		})
	})
}
