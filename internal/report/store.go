package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store reads and writes report documents in a single directory.
type Store struct {
	dir string
}

// NewStore returns a Store rooted in the default reports directory:
// $XDG_DATA_HOME/yalapm/reports or ~/.local/share/yalapm/reports.
func NewStore() (*Store, error) {
	dir, err := defaultDir()
	if err != nil {
		return nil, fmt.Errorf("resolving reports directory: %w", err)
	}
	return NewStoreAt(dir)
}

// NewStoreAt returns a Store rooted at dir, creating it if needed.
func NewStoreAt(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating reports directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func defaultDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "yalapm", "reports"), nil
}

// Dir returns the reports directory.
func (s *Store) Dir() string { return s.dir }

// IndexPath returns the path of the HTML index.
func (s *Store) IndexPath() string { return filepath.Join(s.dir, "index.html") }

// Save writes r as a new report document and regenerates the HTML
// index. The document write is atomic (temp file + rename) so a failed
// write never leaves a truncated report behind; on any error the
// caller keeps the in-memory report and may retry.
func (s *Store) Save(r *Report) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	stamp := r.WrittenAt.Format("2006-01-02_15-04-05")
	filename := "report_" + stamp + ".json"
	path := filepath.Join(s.dir, filename)
	// Filenames have second granularity; two sessions stopped within
	// the same second must not overwrite each other via the rename
	// below.
	for n := 2; ; n++ {
		if _, statErr := os.Stat(path); statErr != nil {
			break
		}
		filename = fmt.Sprintf("report_%s_%d.json", stamp, n)
		path = filepath.Join(s.dir, filename)
	}

	tmp, err := os.CreateTemp(s.dir, "report-*.json.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	r.Filename = filename
	if err := s.RebuildIndex(); err != nil {
		return path, err
	}
	return path, nil
}

// LoadAll reads every report document in the directory, oldest first.
// Malformed files are skipped, matching the index behavior: one bad
// document must not hide the rest of the archive.
func (s *Store) LoadAll() ([]*Report, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read reports directory: %w", err)
	}

	var reports []*Report
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		var r Report
		if err := json.Unmarshal(data, &r); err != nil {
			continue
		}
		r.Filename = name
		reports = append(reports, &r)
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].WrittenAt.Before(reports[j].WrittenAt)
	})
	return reports, nil
}

// ByTag groups all reports by tag. Reports without a tag fall under
// "untagged".
func (s *Store) ByTag() (map[string][]*Report, error) {
	reports, err := s.LoadAll()
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]*Report)
	for _, r := range reports {
		tag := r.Tag
		if tag == "" {
			tag = "untagged"
		}
		grouped[tag] = append(grouped[tag], r)
	}
	return grouped, nil
}

// Delete removes a single report document by file name and regenerates
// the index. Unknown file names are an error.
func (s *Store) Delete(filename string) error {
	if filepath.Base(filename) != filename {
		return fmt.Errorf("invalid report name: %s", filename)
	}
	path := filepath.Join(s.dir, filename)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no such report: %s", filename)
		}
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return s.RebuildIndex()
}

// DeleteTag removes every report carrying the given tag and
// regenerates the index. Returns the number of reports removed.
func (s *Store) DeleteTag(tag string) (int, error) {
	grouped, err := s.ByTag()
	if err != nil {
		return 0, err
	}
	reports, ok := grouped[tag]
	if !ok {
		return 0, fmt.Errorf("no reports with tag: %s", tag)
	}
	for _, r := range reports {
		if err := os.Remove(filepath.Join(s.dir, r.Filename)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("failed to delete report: %w", err)
		}
	}
	return len(reports), s.RebuildIndex()
}
