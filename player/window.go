package player

import (
	"fmt"
	"sync"

	"github.com/quadview-cli/quadview/crop"
	"github.com/quadview-cli/quadview/group"
)

// Window is a screen rectangle rendered by a single mpv process.
// It implements Surface: crop transforms become mpv video-scale and video-pan properties.
type Window struct {
	X, Y          int
	Width, Height int

	mu        sync.Mutex
	mpv       *MPV
	transform crop.Transform
}

// NewWindow returns a window at the given screen rectangle.
func NewWindow(x, y, width, height int) *Window {
	return &Window{
		X:         x,
		Y:         y,
		Width:     width,
		Height:    height,
		transform: crop.Identity,
	}
}

// Geometry returns the window rectangle in mpv --geometry syntax.
func (w *Window) Geometry() string {
	return fmt.Sprintf("%dx%d+%d+%d", w.Width, w.Height, w.X, w.Y)
}

// Viewport returns the window size in pixels.
func (w *Window) Viewport() (int, int) {
	return w.Width, w.Height
}

// Transform returns the last transform applied to the window.
func (w *Window) Transform() crop.Transform {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.transform
}

// SetTransform pushes t to the bound mpv process. The transform is remembered even
// when no process is bound yet.
func (w *Window) SetTransform(t crop.Transform) error {
	w.mu.Lock()
	w.transform = t
	m := w.mpv
	w.mu.Unlock()

	if m == nil {
		return errNotPrepared
	}

	pan := t.Pan(w.Width, w.Height)
	for _, p := range []struct {
		name  string
		value float64
	}{
		{"video-scale-x", pan.ScaleX},
		{"video-scale-y", pan.ScaleY},
		{"video-pan-x", pan.OffsetX},
		{"video-pan-y", pan.OffsetY},
	} {
		if err := m.Set(p.name, p.value); err != nil {
			return fmt.Errorf("set %s: %w", p.name, err)
		}
	}
	return nil
}

func (w *Window) bind(m *MPV) {
	w.mu.Lock()
	w.mpv = m
	w.mu.Unlock()
}

// Layout splits a screen into the four quad windows and one full-screen window for the
// single view. Front and Back share the top row, Left and Right the bottom row.
func Layout(screenWidth, screenHeight int) map[group.Position]*Window {
	halfW, halfH := screenWidth/2, screenHeight/2

	return map[group.Position]*Window{
		group.Front:  NewWindow(0, 0, halfW, halfH),
		group.Back:   NewWindow(halfW, 0, screenWidth-halfW, halfH),
		group.Left:   NewWindow(0, halfH, halfW, screenHeight-halfH),
		group.Right:  NewWindow(halfW, halfH, screenWidth-halfW, screenHeight-halfH),
		group.Single: NewWindow(0, 0, screenWidth, screenHeight),
	}
}
