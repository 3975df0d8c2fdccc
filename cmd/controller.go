package cmd

import (
	"os"

	"github.com/quadview-cli/quadview/config"
	"github.com/quadview-cli/quadview/group"
	"github.com/quadview-cli/quadview/key"
	"github.com/quadview-cli/quadview/log"
	"github.com/quadview-cli/quadview/playback"
	"github.com/quadview-cli/quadview/player"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

const (
	fallbackScreenWidth  = 1920
	fallbackScreenHeight = 1080
)

func screenSize() (width, height int) {
	width = lo.Ternary(viper.GetInt(key.PlayerScreenWidth) > 0, viper.GetInt(key.PlayerScreenWidth), fallbackScreenWidth)
	height = lo.Ternary(viper.GetInt(key.PlayerScreenHeight) > 0, viper.GetInt(key.PlayerScreenHeight), fallbackScreenHeight)
	return
}

// library returns the configured recordings directory or the working directory.
func library() string {
	if path := viper.GetString(key.LibraryPath); path != "" {
		return path
	}

	wd, err := os.Getwd()
	if err != nil {
		log.Warnf("working directory: %s", err)
		return "."
	}
	return wd
}

// newController wires a playback controller to mpv windows laid out on the screen.
func newController(listener playback.Listener) *playback.Controller {
	binary := viper.GetString(key.PlayerBinary)
	windows := player.Layout(screenSize())

	opts := playback.Options{
		NewDecoder: func(group.Position) player.Decoder { return player.NewMPV(binary) },
		Surfaces: lo.MapValues(windows, func(w *player.Window, _ group.Position) player.Surface {
			return w
		}),
		Listener: listener,
	}
	config.ApplyPlayback(&opts)

	controller := playback.New(opts)
	if viper.GetBool(key.PlaybackStartSingle) {
		controller.UpdateSingleModePosition(true, config.SinglePosition())
	}

	log.Infof("playback controller ready, car %q, %d windows", opts.Profile.Model, len(windows))
	return controller
}
