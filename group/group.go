// Package group models a set of dash-cam recordings captured at the same instant and discovers them on disk.
package group

import (
	"fmt"
	"time"

	"github.com/samber/lo"
)

// keyLayout is the timestamp layout used as a group key.
const keyLayout = "20060102_150405"

// Group is a set of video files keyed by camera position.
// At most one file is stored per position; Full is not exclusive with the quad angles,
// callers decide which one takes precedence.
type Group struct {
	Key   string              `json:"key" jsonschema:"description=Recording timestamp shared by every file of the group"`
	Files map[Position]string `json:"files" jsonschema:"description=Video file path per camera position"`
}

// New returns an empty group for the given key.
func New(key string) *Group {
	return &Group{Key: key, Files: make(map[Position]string)}
}

// Add registers path for position p, replacing any earlier file. Single is rejected.
func (g *Group) Add(p Position, path string) error {
	if p == Single {
		return fmt.Errorf("position %s cannot hold a file", p)
	}
	if g.Files == nil {
		g.Files = make(map[Position]string)
	}
	g.Files[p] = path
	return nil
}

// HasVideo reports whether a file is registered for p.
func (g *Group) HasVideo(p Position) bool {
	if g == nil {
		return false
	}
	_, ok := g.Files[p]
	return ok
}

// VideoFile returns the file registered for p, or an empty string.
func (g *Group) VideoFile(p Position) string {
	if g == nil {
		return ""
	}
	return g.Files[p]
}

// Positions lists the positions holding a file in canonical order.
func (g *Group) Positions() []Position {
	all := append(Quad(), Full)
	return lo.Filter(all, func(p Position, _ int) bool {
		return g.HasVideo(p)
	})
}

// Time parses the group key as a recording timestamp in the local zone.
func (g *Group) Time() (time.Time, error) {
	return time.ParseInLocation(keyLayout, g.Key, time.Local)
}

func (g *Group) String() string {
	names := lo.Map(g.Positions(), func(p Position, _ int) string {
		return p.String()
	})
	return fmt.Sprintf("%s %v", g.Key, names)
}
