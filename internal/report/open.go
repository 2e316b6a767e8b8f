package report

import (
	"fmt"
	"os/exec"
	"runtime"
)

// OpenDir opens the reports directory in the platform file manager.
func (s *Store) OpenDir() error {
	return open(s.dir)
}

// OpenIndex opens the HTML index in the default browser.
func (s *Store) OpenIndex() error {
	return open(s.IndexPath())
}

func open(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", target, err)
	}
	// Detach: the opener's exit status is not our concern.
	go cmd.Wait()
	return nil
}
