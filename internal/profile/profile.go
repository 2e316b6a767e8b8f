// Package profile manages the user's persistent yalapm profile.
// The profile is stored at ~/.config/yalapm/profile.json and is created
// once via the interactive setup flow, then referenced on every run.
package profile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Profile holds user-level preferences set during first-run setup.
type Profile struct {
	Name        string  `json:"name"`         // shown as report author
	DefaultTag  string  `json:"default_tag"`  // pre-filled in the start form
	VeAPMFactor float64 `json:"veapm_factor"` // default virtual-effective weighting
	ReportsDir  string  `json:"reports_dir"`  // default report output dir
	OpenOnStop  bool    `json:"open_on_stop"` // open the HTML index after quit
}

// profilePath returns the path to the profile file.
func profilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "yalapm", "profile.json"), nil
}

// Exists reports whether a profile file is present on disk.
func Exists() bool {
	p, err := profilePath()
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Load reads the profile from disk. Returns an error if the file is missing or malformed.
func Load() (*Profile, error) {
	p, err := profilePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("profile not found — run 'yalapm setup' to configure: %w", err)
	}
	var prof Profile
	if err := json.Unmarshal(data, &prof); err != nil {
		return nil, fmt.Errorf("malformed profile at %s: %w", p, err)
	}
	return &prof, nil
}

// Save writes the profile to disk, creating the config directory if needed.
func Save(prof *Profile) error {
	p, err := profilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(prof, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// RunSetup runs the interactive setup wizard and returns the resulting
// profile. If existing is non-nil, it is used as the default for each
// prompt (edit mode).
func RunSetup(existing *Profile) (*Profile, error) {
	r := bufio.NewReader(os.Stdin)

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Printf("%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Printf("%s: ", prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	askBool := func(prompt string, defaultVal bool) (bool, error) {
		def := "n"
		if defaultVal {
			def = "y"
		}
		ans, err := ask(prompt+" (y/n)", def)
		if err != nil {
			return false, err
		}
		return strings.ToLower(ans) == "y" || strings.ToLower(ans) == "yes", nil
	}

	prof := &Profile{
		DefaultTag:  "untagged",
		VeAPMFactor: 0.7,
	}
	if existing != nil {
		*prof = *existing
	}

	fmt.Println()
	fmt.Println("  ┌─────────────────────────────────┐")
	fmt.Println("  │   yalapm — first-time setup     │")
	fmt.Println("  └─────────────────────────────────┘")
	fmt.Println()

	var err error

	prof.Name, err = ask("  Your name (shown in reports)", prof.Name)
	if err != nil {
		return nil, err
	}

	prof.DefaultTag, err = ask("  Default session tag", prof.DefaultTag)
	if err != nil {
		return nil, err
	}

	pct, err := ask("  Virtual eAPM weighting % (0-100)", strconv.Itoa(int(prof.VeAPMFactor*100)))
	if err != nil {
		return nil, err
	}
	if v, convErr := strconv.ParseFloat(pct, 64); convErr == nil && v >= 0 && v <= 100 {
		prof.VeAPMFactor = v / 100
	}

	prof.ReportsDir, err = ask("  Reports directory (empty = default)", prof.ReportsDir)
	if err != nil {
		return nil, err
	}

	prof.OpenOnStop, err = askBool("  Open the HTML report after quitting", prof.OpenOnStop)
	if err != nil {
		return nil, err
	}

	fmt.Println()
	return prof, nil
}
