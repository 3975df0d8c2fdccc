package playback

// Listener receives high-level playback events from the Controller.
// Callbacks run on the controller goroutine: they must not block,
// and must not wait on Controller.CurrentPosition.
type Listener interface {
	// OnPrepared fires once per load when every session is ready, with the longest duration.
	OnPrepared(durationMs int)
	OnProgressUpdate(positionMs int)
	OnPlaybackStateChanged(playing bool)
	OnCompletion()
	OnError(err error)
	// OnSingleVideoPrepared fires when the single view is positioned and can be shown.
	OnSingleVideoPrepared()
}

// NopListener ignores every event. Embed it to implement only part of Listener.
type NopListener struct{}

func (NopListener) OnPrepared(int)              {}
func (NopListener) OnProgressUpdate(int)        {}
func (NopListener) OnPlaybackStateChanged(bool) {}
func (NopListener) OnCompletion()               {}
func (NopListener) OnError(error)               {}
func (NopListener) OnSingleVideoPrepared()      {}
