// Package player defines the decoder/renderer contract driven by the playback controller.
// The primary implementation targets 'mpv' via its JSON-IPC interface.
package player

import "github.com/quadview-cli/quadview/crop"

// Decoder decodes one video file into one attached Surface.
// Methods are called from the playback controller; Listener callbacks may arrive on any goroutine.
type Decoder interface {
	// SetSource selects the local video file to decode.
	SetSource(path string) error

	// AttachSurface binds the renderer surface the decoded frames are drawn into.
	AttachSurface(surface Surface) error

	// PrepareAsync starts preparing the decode pipeline and returns immediately.
	// Completion is reported through Listener.OnPrepared or Listener.OnError.
	PrepareAsync() error

	Start() error
	Pause() error
	Stop() error

	// Release frees the decoder. It is safe to call more than once.
	Release() error

	// SeekTo moves to an absolute position in milliseconds; Listener.OnSeekComplete acknowledges it.
	SeekTo(ms int) error

	SetSpeed(speed float64) error
	SetMuted(muted bool) error

	// CurrentPosition returns the playback position in milliseconds.
	CurrentPosition() int

	// Duration returns the media duration in milliseconds, or 0 while unknown.
	Duration() int

	// VideoSize returns the native frame size, or zeros while unknown.
	VideoSize() (width, height int)

	IsPlaying() bool

	SetListener(listener Listener)
}

// Surface is a renderer viewport that can display a cropped part of the decoded frame.
type Surface interface {
	// Viewport returns the current pixel size of the surface, zeros while not laid out.
	Viewport() (width, height int)

	// SetTransform applies an affine crop transform to everything drawn into the surface.
	SetTransform(t crop.Transform) error
}

// Listener receives asynchronous decoder events.
type Listener interface {
	OnPrepared()
	OnVideoSize(width, height int)
	OnSeekComplete()
	OnCompletion()
	OnError(err error)
}
