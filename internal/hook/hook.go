// Package hook wraps the global keyboard/mouse hook. The rest of the
// program only sees a callback registration point and a stop handle;
// the capture mechanics live entirely in the gohook library.
package hook

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	gohook "github.com/robotn/gohook"
)

// ErrPermission indicates the global input hook cannot attach with the
// current privileges.
var ErrPermission = errors.New("input hook: permission denied")

// Listener drains global input events and invokes the registered
// callback once per discrete action (key press or mouse button press).
// Mouse movement, wheel, and release events are not actions.
type Listener struct {
	onAction func()

	stopOnce sync.Once
	done     chan struct{}
}

// NewListener registers onAction to be called for every global input
// action. The callback runs on the hook goroutine and must be O(1).
func NewListener(onAction func()) *Listener {
	return &Listener{
		onAction: onAction,
		done:     make(chan struct{}),
	}
}

// Start attaches the global hook and begins delivering events. It
// returns immediately; events are drained on a background goroutine
// until Stop is called.
func (l *Listener) Start() error {
	events := gohook.Start()
	go func() {
		for {
			select {
			case <-l.done:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if isAction(ev) {
					l.onAction()
				}
			}
		}
	}()
	return nil
}

// isAction reports whether ev is a discrete user action. Physical key
// presses arrive as KeyHold (uiohook's EVENT_KEY_PRESSED) and mouse
// button presses as MouseHold (EVENT_MOUSE_PRESSED). KeyDown is the
// typed-character event: it never fires for modifiers, arrows, or
// function keys, and for character keys it would double-count the
// KeyHold already seen. MouseDown fires on button release.
func isAction(ev gohook.Event) bool {
	return ev.Kind == gohook.KeyHold || ev.Kind == gohook.MouseHold
}

// Stop detaches the global hook. Safe to call more than once.
func (l *Listener) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
		gohook.End()
	})
}

// Check probes whether the global hook is likely to attach before the
// TUI takes over the terminal, so permission problems surface as a
// plain message instead of a silent dead counter.
func Check() error {
	if runtime.GOOS != "linux" {
		// macOS prompts for Accessibility access on first attach and
		// Windows needs no special privilege; nothing to pre-check.
		return nil
	}

	// Under X11 the hook attaches through the display server.
	if os.Getenv("DISPLAY") != "" {
		return nil
	}

	// Headless or Wayland-only: the hook falls back to reading
	// /dev/input, which needs root or membership in the input group.
	f, err := os.Open("/dev/input")
	if err == nil {
		names, readErr := f.Readdirnames(1)
		f.Close()
		if readErr == nil && len(names) > 0 {
			return nil
		}
	}
	return permissionError()
}

// permissionError builds ErrPermission with platform remediation hints.
func permissionError() error {
	return fmt.Errorf("%w: %s", ErrPermission, Remediation(runtime.GOOS))
}

// Remediation returns the user-facing hint for fixing hook permissions
// on the given platform.
func Remediation(goos string) string {
	switch goos {
	case "darwin":
		return "grant Accessibility access in System Settings > Privacy & Security, then restart yalapm"
	case "linux":
		return "run with sudo, or add your user to the 'input' group (sudo usermod -aG input $USER) and re-login"
	default:
		return "run yalapm with administrator privileges"
	}
}
