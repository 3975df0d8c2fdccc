// Package cache keeps the results of library scans on disk so large libraries open quickly.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/quadview-cli/quadview/filesystem"
	"github.com/quadview-cli/quadview/group"
	"github.com/quadview-cli/quadview/log"
	"github.com/quadview-cli/quadview/where"
)

const TTL = 7 * 24 * time.Hour

// scan is a cached library listing, valid while the directory is unchanged.
type scan struct {
	Library string         `json:"library"`
	ModTime time.Time      `json:"mod_time"`
	Groups  []*group.Group `json:"groups"`
}

func dir() string {
	path := filepath.Join(where.Cache(), "scans")
	_ = filesystem.API().MkdirAll(path, os.ModePerm)
	return path
}

// GenerateKey derives the cache identifier of a library directory.
func GenerateKey(library string) string {
	if abs, err := filepath.Abs(library); err == nil {
		library = abs
	}
	hash := sha256.Sum256([]byte(filepath.Clean(library)))
	return hex.EncodeToString(hash[:])
}

// Read decodes a cached entry into target if it exists and has not exceeded its TTL.
func Read(key string, target any) bool {
	path := filepath.Join(dir(), key)

	info, err := filesystem.API().Stat(path)
	if err != nil || time.Since(info.ModTime()) > TTL {
		return false
	}

	f, err := filesystem.API().Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	return json.NewDecoder(f).Decode(target) == nil
}

// Write persists data under key, swapping the file in once fully written.
func Write(key string, data any) error {
	path := filepath.Join(dir(), key)
	tmpPath := path + ".tmp"

	f, err := filesystem.API().Create(tmpPath)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(f).Encode(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return filesystem.API().Rename(tmpPath, path)
}

// Scan lists the groups of library, reusing the previous listing while the directory is unchanged.
func Scan(library string) ([]*group.Group, error) {
	info, err := filesystem.API().Stat(library)
	if err != nil {
		return nil, err
	}

	key := GenerateKey(library)

	var cached scan
	if Read(key, &cached) && cached.ModTime.Equal(info.ModTime()) {
		log.Debugf("using cached scan of %s, %d groups", library, len(cached.Groups))
		return cached.Groups, nil
	}

	groups, err := group.Scan(library)
	if err != nil {
		return nil, err
	}

	if err := Write(key, scan{Library: library, ModTime: info.ModTime(), Groups: groups}); err != nil {
		log.Warnf("caching scan of %s: %s", library, err)
	}

	return groups, nil
}

// CollectGarbage prunes expired scans in the background.
func CollectGarbage() {
	go func() {
		_ = filesystem.API().Walk(dir(), func(path string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() {
				return nil
			}
			if time.Since(info.ModTime()) > TTL {
				_ = filesystem.API().Remove(path)
			}
			return nil
		})
	}()
}
