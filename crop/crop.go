// Package crop maps normalized sub-regions of a panoramic frame onto renderer viewports.
//
// A panoramic recording carries all four camera angles in one frame. Each virtual angle
// is described by a Region in normalized source coordinates, and ForViewport derives the
// affine Transform that makes a renderer display exactly that region stretched to fill
// its viewport. Everything in this package is pure and safe for concurrent use.
package crop

import "fmt"

// Region is a normalized rectangle inside the source frame, all values in [0,1].
type Region struct {
	X float64 `json:"x" mapstructure:"x"`
	Y float64 `json:"y" mapstructure:"y"`
	W float64 `json:"w" mapstructure:"w"`
	H float64 `json:"h" mapstructure:"h"`
}

// Full is the pass-through region covering the whole frame.
var Full = Region{X: 0, Y: 0, W: 1, H: 1}

// Valid reports whether the region has a positive area.
func (r Region) Valid() bool {
	return r.W > 0 && r.H > 0
}

// Clamp restricts the region to the unit square, keeping its origin inside the frame
// and shrinking its extent so the far edges never cross 1.
func (r Region) Clamp() Region {
	r.X = clamp(r.X, 0, 1)
	r.Y = clamp(r.Y, 0, 1)
	r.W = clamp(r.W, 0, 1-r.X)
	r.H = clamp(r.H, 0, 1-r.Y)
	return r
}

func (r Region) String() string {
	return fmt.Sprintf("[%g,%g,%g,%g]", r.X, r.Y, r.W, r.H)
}

// Transform is a 2D affine transform restricted to scale followed by translation.
type Transform struct {
	ScaleX, ScaleY         float64
	TranslateX, TranslateY float64
}

// Identity leaves the decoded frame untouched.
var Identity = Transform{ScaleX: 1, ScaleY: 1}

// ForViewport derives the transform that shows region r of the source stretched over a
// vw×vh viewport. A degenerate region or viewport yields Identity.
func ForViewport(r Region, vw, vh int) Transform {
	if !r.Valid() || vw <= 0 || vh <= 0 {
		return Identity
	}

	sx := 1 / r.W
	sy := 1 / r.H

	return Transform{
		ScaleX:     sx,
		ScaleY:     sy,
		TranslateX: -r.X * sx * float64(vw),
		TranslateY: -r.Y * sy * float64(vh),
	}
}

// Apply maps a point of the full frame, expressed in viewport pixels, to its displayed position.
// Scale is applied first, then translation.
func (t Transform) Apply(px, py float64) (float64, float64) {
	return px*t.ScaleX + t.TranslateX, py*t.ScaleY + t.TranslateY
}

// MapNormalized maps a normalized source point to displayed viewport pixels.
func (t Transform) MapNormalized(nx, ny float64, vw, vh int) (float64, float64) {
	return t.Apply(nx*float64(vw), ny*float64(vh))
}

// IsIdentity reports whether t leaves the frame unchanged.
func (t Transform) IsIdentity() bool {
	return t == Identity
}

// Pan is the center-relative form of a Transform used by renderers that zoom around the
// middle of the viewport: Scale is the zoom factor per axis, and Offset is the shift of the
// video center expressed as a fraction of the scaled video size.
type Pan struct {
	ScaleX, ScaleY   float64
	OffsetX, OffsetY float64
}

// Pan converts t into its center-relative form for a vw×vh viewport.
//
// With the video stretched over the viewport and scaled by s around the center, its left
// edge sits at vw/2 - s*vw/2 + offset*s*vw. Solving for the edge at TranslateX gives the
// offset below, which simplifies to 0.5 - (x + w/2) for a region-derived transform.
func (t Transform) Pan(vw, vh int) Pan {
	if vw <= 0 || vh <= 0 || t.ScaleX == 0 || t.ScaleY == 0 {
		return Pan{ScaleX: 1, ScaleY: 1}
	}

	return Pan{
		ScaleX:  t.ScaleX,
		ScaleY:  t.ScaleY,
		OffsetX: t.TranslateX/(t.ScaleX*float64(vw)) + 0.5 - 1/(2*t.ScaleX),
		OffsetY: t.TranslateY/(t.ScaleY*float64(vh)) + 0.5 - 1/(2*t.ScaleY),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
