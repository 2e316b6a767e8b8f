package hook

import (
	"errors"
	"strings"
	"testing"

	gohook "github.com/robotn/gohook"
)

func TestActionFilter(t *testing.T) {
	cases := []struct {
		name string
		kind uint8
		want bool
	}{
		// Physical presses count, including keys that produce no
		// character (modifiers, arrows, function keys).
		{"key pressed", gohook.KeyHold, true},
		{"mouse button pressed", gohook.MouseHold, true},
		// The typed-character event duplicates a press already seen.
		{"key typed", gohook.KeyDown, false},
		{"key released", gohook.KeyUp, false},
		{"mouse button released", gohook.MouseDown, false},
		{"mouse moved", gohook.MouseMove, false},
		{"mouse dragged", gohook.MouseDrag, false},
		{"wheel", gohook.MouseWheel, false},
	}
	for _, c := range cases {
		if got := isAction(gohook.Event{Kind: c.kind}); got != c.want {
			t.Errorf("%s (kind %d): isAction = %v, want %v", c.name, c.kind, got, c.want)
		}
	}
}

func TestPermissionErrorIsSentinel(t *testing.T) {
	err := permissionError()
	if !errors.Is(err, ErrPermission) {
		t.Fatalf("expected errors.Is(err, ErrPermission), got %v", err)
	}
}

func TestRemediationMentionsPlatformFix(t *testing.T) {
	cases := []struct {
		goos string
		want string
	}{
		{"linux", "input"},
		{"darwin", "Accessibility"},
		{"windows", "administrator"},
	}
	for _, c := range cases {
		got := Remediation(c.goos)
		if !strings.Contains(got, c.want) {
			t.Errorf("Remediation(%q): expected to mention %q, got %q", c.goos, c.want, got)
		}
	}
}
