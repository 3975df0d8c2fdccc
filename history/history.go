// Package history persists the playback progress of every watched group.
package history

import (
	"time"

	"github.com/metafates/gache"
	"github.com/quadview-cli/quadview/filesystem"
	"github.com/quadview-cli/quadview/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// cacher provides an abstracted, disk-backed registry for playback progress records.
var cacher = gache.New[map[string]*Entry](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Get returns every saved entry.
func Get() (map[string]*Entry, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Entry), nil
	}
	return cached, nil
}

// Save stores the entry, replacing the previous state of the same group.
func Save(entry *Entry) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	entry.UpdatedAt = time.Now()
	saved[entry.encode()] = entry

	return cacher.Set(saved)
}

// Find returns the saved entry of a group.
func Find(library, key string) (mo.Option[*Entry], error) {
	saved, err := Get()
	if err != nil {
		return mo.None[*Entry](), err
	}

	probe := Entry{Library: library, Key: key}
	entry, ok := saved[probe.encode()]
	return lo.Ternary(ok, mo.Some(entry), mo.None[*Entry]()), nil
}

// Latest returns the most recently updated entry of a library.
func Latest(library string) (mo.Option[*Entry], error) {
	saved, err := Get()
	if err != nil {
		return mo.None[*Entry](), err
	}

	probe := Entry{Library: library}
	entries := lo.Filter(lo.Values(saved), func(e *Entry, _ int) bool {
		return (&Entry{Library: e.Library}).encode() == probe.encode()
	})
	if len(entries) == 0 {
		return mo.None[*Entry](), nil
	}

	return mo.Some(lo.MaxBy(entries, func(a, b *Entry) bool {
		return a.UpdatedAt.After(b.UpdatedAt)
	})), nil
}

// Remove permanently deletes the entry of a group.
func Remove(entry *Entry) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, entry.encode())
	return cacher.Set(saved)
}
