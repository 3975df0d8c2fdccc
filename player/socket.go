package player

import (
	"crypto/rand"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/quadview-cli/quadview/constant"
	"github.com/quadview-cli/quadview/filesystem"
	"github.com/quadview-cli/quadview/log"
	"github.com/spf13/afero"
)

const staleDialTimeout = 200 * time.Millisecond

// socketPrefix names every IPC socket this program creates. Sockets live in the
// system temp dir, outside where.Temp, which is cleared on every startup.
var socketPrefix = constant.Quadview + "-mpv-"

func newSocketPath() (string, error) {
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("generate socket name: %w", err)
	}

	name := fmt.Sprintf("%s%d-%x.sock", socketPrefix, os.Getpid(), randomBytes)
	return filepath.Join(os.TempDir(), name), nil
}

// RemoveStaleSockets deletes IPC sockets nobody listens on anymore,
// leftovers of mpv processes that were killed before cleaning up.
func RemoveStaleSockets() {
	fs := filesystem.API()

	paths, err := afero.Glob(fs, filepath.Join(os.TempDir(), socketPrefix+"*.sock"))
	if err != nil {
		log.Debugf("glob sockets: %v", err)
		return
	}

	for _, path := range paths {
		if conn, err := net.DialTimeout("unix", path, staleDialTimeout); err == nil {
			_ = conn.Close()
			continue
		}

		if err := fs.Remove(path); err != nil {
			log.Debugf("remove stale socket %s: %v", path, err)
			continue
		}
		log.Debugf("removed stale socket %s", path)
	}
}
