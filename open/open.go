// Package open launches recordings and folders with the system's default handler.
package open

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/quadview-cli/quadview/constant"
	"github.com/quadview-cli/quadview/filesystem"
)

// Start opens the input using the default system handler without waiting for it.
func Start(input string) error {
	return StartWith(input, "")
}

// StartWith opens the input with a specific application, or the default handler when app is empty.
func StartWith(input, app string) error {
	cmd, ok := command(input, app)
	if !ok {
		return fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
	return cmd.Start()
}

// Reveal opens the folder holding path. Directories are opened as is.
func Reveal(path, app string) error {
	stat, err := filesystem.API().Stat(path)
	if err != nil {
		return err
	}

	if !stat.IsDir() {
		path = filepath.Dir(path)
	}
	return StartWith(path, app)
}

func command(input, app string) (*exec.Cmd, bool) {
	switch runtime.GOOS {
	case constant.Windows:
		if app == "" {
			rundll := filepath.Join(os.Getenv("SYSTEMROOT"), "System32", "rundll32.exe")
			return exec.Command(rundll, "url.dll,FileProtocolHandler", input), true
		}
		// cmd's start splits arguments on '&'
		escaped := strings.ReplaceAll(input, "&", "^&")
		return exec.Command("cmd", "/C", "start", "", app, escaped), true
	case constant.Darwin:
		if app == "" {
			return exec.Command("open", input), true
		}
		return exec.Command("open", "-a", app, input), true
	case constant.Linux:
		if app == "" {
			return exec.Command("xdg-open", input), true
		}
		return exec.Command(app, input), true
	case constant.Android:
		return exec.Command("termux-open", input), true
	default:
		return nil, false
	}
}
