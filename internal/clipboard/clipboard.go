// Package clipboard copies rendered citations to the system clipboard
// through the platform's paste utility.
package clipboard

import (
	"errors"
	"os/exec"
	"runtime"
	"strings"
)

// ErrUnavailable is returned when no clipboard utility is present.
var ErrUnavailable = errors.New("clipboard unavailable")

// command returns the writer command for this platform, or nil.
func command() *exec.Cmd {
	switch runtime.GOOS {
	case "darwin":
		if _, err := exec.LookPath("pbcopy"); err == nil {
			return exec.Command("pbcopy")
		}
	case "linux":
		if _, err := exec.LookPath("xclip"); err == nil {
			return exec.Command("xclip", "-selection", "clipboard")
		}
		if _, err := exec.LookPath("xsel"); err == nil {
			return exec.Command("xsel", "--clipboard", "--input")
		}
	case "windows":
		if _, err := exec.LookPath("clip"); err == nil {
			return exec.Command("clip")
		}
	}
	return nil
}

// IsAvailable reports whether Copy can work on this system.
func IsAvailable() bool {
	return command() != nil
}

// Copy writes text to the system clipboard.
func Copy(text string) error {
	cmd := command()
	if cmd == nil {
		return ErrUnavailable
	}
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}
