// Package group models a set of dash-cam recordings captured at the same instant and discovers them on disk.
package group

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/quadview-cli/quadview/filesystem"
	"github.com/quadview-cli/quadview/log"
	"github.com/quadview-cli/quadview/util"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"golang.org/x/exp/slices"
)

// fileNamePattern matches recordings named <YYYYMMDD_HHMMSS>_<position>.<ext>.
var fileNamePattern = regexp.MustCompile(`^(?P<key>\d{8}_\d{6})_(?P<position>[a-zA-Z]+)\.(?P<ext>[a-zA-Z0-9]+)$`)

// videoExtensions lists the container formats recorded by the cameras.
var videoExtensions = []string{"mp4", "mkv", "mov", "ts", "avi"}

type entry struct {
	key      string
	position Position
	path     string
}

// Scan walks dir (non-recursively) and groups the recordings it finds by timestamp key.
// Files that do not follow the naming scheme are skipped. Groups are returned newest first.
func Scan(dir string) ([]*Group, error) {
	infos, err := filesystem.API().ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var entries []entry
	for _, info := range infos {
		if info.IsDir() {
			continue
		}

		e, ok := parseName(info.Name())
		if !ok {
			log.Debugf("skipping %s: not a recording", info.Name())
			continue
		}
		e.path = filepath.Join(dir, info.Name())
		entries = append(entries, e)
	}

	byKey := lo.GroupBy(entries, func(e entry) string { return e.key })

	groups := make([]*Group, 0, len(byKey))
	for k, es := range byKey {
		g := New(k)
		for _, e := range es {
			if prev := g.VideoFile(e.position); prev != "" {
				log.Warnf("group %s: %s shadows %s", k, e.path, prev)
			}
			_ = g.Add(e.position, e.path)
		}
		groups = append(groups, g)
	}

	slices.SortFunc(groups, func(a, b *Group) int {
		return strings.Compare(b.Key, a.Key)
	})

	return groups, nil
}

// Find returns the group with the given key.
func Find(groups []*Group, key string) mo.Option[*Group] {
	g, ok := lo.Find(groups, func(g *Group) bool { return g.Key == key })
	if !ok {
		return mo.None[*Group]()
	}
	return mo.Some(g)
}

func parseName(name string) (entry, bool) {
	groups := util.ReGroups(fileNamePattern, name)
	if len(groups) == 0 {
		return entry{}, false
	}

	if !lo.Contains(videoExtensions, strings.ToLower(groups["ext"])) {
		return entry{}, false
	}

	p, err := ParsePosition(groups["position"])
	if err != nil || p == Single {
		return entry{}, false
	}

	return entry{key: groups["key"], position: p}, true
}
