// Package group models a set of dash-cam recordings captured at the same instant and discovers them on disk.
package group

import (
	"fmt"
	"strings"
)

// Position identifies a camera angle inside a group.
type Position int

const (
	Front Position = iota
	Back
	Left
	Right
	// Full is a panoramic recording that carries all four angles in one frame.
	Full
	// Single is the virtual position of the enlarged single-view renderer; it never appears in a Group.
	Single
)

// PositionCount is the number of distinct positions, including the virtual Single.
const PositionCount = int(Single) + 1

var positionNames = [PositionCount]string{
	Front:  "front",
	Back:   "back",
	Left:   "left",
	Right:  "right",
	Full:   "full",
	Single: "single",
}

// Quad returns the four physical angles shown in multi-view, in display order.
func Quad() []Position {
	return []Position{Front, Back, Left, Right}
}

// String returns the lowercase position name.
func (p Position) String() string {
	if p < 0 || int(p) >= PositionCount {
		return fmt.Sprintf("position(%d)", int(p))
	}
	return positionNames[p]
}

// IsQuad reports whether p is one of the four physical multi-view angles.
func (p Position) IsQuad() bool {
	return p >= Front && p <= Right
}

// ParsePosition resolves a position by its case-insensitive name.
func ParsePosition(name string) (Position, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range positionNames {
		if n == name {
			return Position(i), nil
		}
	}
	return 0, fmt.Errorf("unknown position %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (p Position) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Position) UnmarshalText(text []byte) error {
	parsed, err := ParsePosition(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
