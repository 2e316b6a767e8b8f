package report_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/splitpierre/yalapm/internal/report"
)

// generateReport produces an arbitrary Report. Timestamps are second
// precision to match JSON round-trip fidelity.
func generateReport(t *rapid.T) *report.Report {
	sec := rapid.Int64Range(1_600_000_000, 1_700_000_000).Draw(t, "unix_sec")
	nTrend := rapid.IntRange(0, 30).Draw(t, "n_trend")
	trend := make([]int, nTrend)
	for i := range trend {
		trend[i] = rapid.IntRange(0, 1200).Draw(t, "trend_val")
	}
	return &report.Report{
		SessionID:       rapid.StringMatching(`[a-f0-9-]{8,36}`).Draw(t, "session_id"),
		Tag:             rapid.StringMatching(`[a-zA-Z0-9_-]{1,20}`).Draw(t, "tag"),
		Author:          rapid.StringMatching(`[a-zA-Z ]{0,20}`).Draw(t, "author"),
		VeFactor:        float64(rapid.IntRange(0, 100).Draw(t, "factor_pct")) / 100,
		TotalActions:    int64(rapid.IntRange(0, 100_000).Draw(t, "total")),
		PeakAPM:         rapid.IntRange(0, 2000).Draw(t, "peak"),
		AverageAPM:      rapid.IntRange(0, 2000).Draw(t, "avg"),
		AverageVeAPM:    rapid.IntRange(0, 2000).Draw(t, "veavg"),
		DurationSeconds: float64(rapid.IntRange(0, 86_400).Draw(t, "secs")),
		WrittenAt:       time.Unix(sec, 0).UTC(),
		Trend:           trend,
	}
}

// Property: a written report, reloaded, reproduces the same stats.
func TestReportPersistenceRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store, err := report.NewStoreAt(t.TempDir())
		if err != nil {
			rt.Fatalf("NewStoreAt: %v", err)
		}

		original := generateReport(rt)
		if _, err := store.Save(original); err != nil {
			rt.Fatalf("Save: %v", err)
		}

		loaded, err := store.LoadAll()
		if err != nil {
			rt.Fatalf("LoadAll: %v", err)
		}
		if len(loaded) != 1 {
			rt.Fatalf("LoadAll: want 1 report, got %d", len(loaded))
		}
		got := loaded[0]

		if got.TotalActions != original.TotalActions {
			rt.Errorf("TotalActions: got %d, want %d", got.TotalActions, original.TotalActions)
		}
		if got.PeakAPM != original.PeakAPM {
			rt.Errorf("PeakAPM: got %d, want %d", got.PeakAPM, original.PeakAPM)
		}
		if got.AverageAPM != original.AverageAPM {
			rt.Errorf("AverageAPM: got %d, want %d", got.AverageAPM, original.AverageAPM)
		}
		if got.AverageVeAPM != original.AverageVeAPM {
			rt.Errorf("AverageVeAPM: got %d, want %d", got.AverageVeAPM, original.AverageVeAPM)
		}
		if got.DurationSeconds != original.DurationSeconds {
			rt.Errorf("DurationSeconds: got %v, want %v", got.DurationSeconds, original.DurationSeconds)
		}
		if got.Tag != original.Tag {
			rt.Errorf("Tag: got %q, want %q", got.Tag, original.Tag)
		}
		if got.VeFactor != original.VeFactor {
			rt.Errorf("VeFactor: got %v, want %v", got.VeFactor, original.VeFactor)
		}
		if !got.WrittenAt.Equal(original.WrittenAt) {
			rt.Errorf("WrittenAt: got %v, want %v", got.WrittenAt, original.WrittenAt)
		}
		if len(got.Trend) != len(original.Trend) {
			rt.Fatalf("Trend length: got %d, want %d", len(got.Trend), len(original.Trend))
		}
		for i := range original.Trend {
			if got.Trend[i] != original.Trend[i] {
				rt.Errorf("Trend[%d]: got %d, want %d", i, got.Trend[i], original.Trend[i])
			}
		}
	})
}

func TestSaveRegeneratesIndex(t *testing.T) {
	store, err := report.NewStoreAt(t.TempDir())
	if err != nil {
		t.Fatalf("NewStoreAt: %v", err)
	}

	r := &report.Report{
		Tag:        "aoe2",
		AverageAPM: 180,
		WrittenAt:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	path, err := store.Save(r)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Base(path) != "report_2024-03-01_12-00-00.json" {
		t.Errorf("unexpected report file name: %s", filepath.Base(path))
	}

	html, err := os.ReadFile(store.IndexPath())
	if err != nil {
		t.Fatalf("reading index: %v", err)
	}
	for _, want := range []string{"Tag: aoe2", "report_2024-03-01_12-00-00.json", "apmChart"} {
		if !strings.Contains(string(html), want) {
			t.Errorf("index missing %q", want)
		}
	}
}

func TestSaveSameSecondDoesNotOverwrite(t *testing.T) {
	store, err := report.NewStoreAt(t.TempDir())
	if err != nil {
		t.Fatalf("NewStoreAt: %v", err)
	}

	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var paths []string
	for i := 0; i < 3; i++ {
		r := &report.Report{Tag: "aoe2", TotalActions: int64(i), WrittenAt: when}
		path, err := store.Save(r)
		if err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
		paths = append(paths, filepath.Base(path))
	}

	seen := map[string]bool{}
	for _, p := range paths {
		if seen[p] {
			t.Fatalf("duplicate report file name %s", p)
		}
		seen[p] = true
	}

	loaded, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("want 3 reports archived, got %d", len(loaded))
	}
}

func TestLoadAllSkipsMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := report.NewStoreAt(dir)
	if err != nil {
		t.Fatalf("NewStoreAt: %v", err)
	}

	good := &report.Report{Tag: "ok", WrittenAt: time.Now().UTC()}
	if _, err := store.Save(good); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "report_broken.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Tag != "ok" {
		t.Errorf("expected only the valid report, got %d entries", len(loaded))
	}
}

func TestByTagGroupsAndUntaggedFallback(t *testing.T) {
	store, err := report.NewStoreAt(t.TempDir())
	if err != nil {
		t.Fatalf("NewStoreAt: %v", err)
	}

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, tag := range []string{"coding", "coding", ""} {
		r := &report.Report{Tag: tag, WrittenAt: base.Add(time.Duration(i) * time.Minute)}
		if _, err := store.Save(r); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	grouped, err := store.ByTag()
	if err != nil {
		t.Fatalf("ByTag: %v", err)
	}
	if len(grouped["coding"]) != 2 {
		t.Errorf("coding: want 2 reports, got %d", len(grouped["coding"]))
	}
	if len(grouped["untagged"]) != 1 {
		t.Errorf("untagged: want 1 report, got %d", len(grouped["untagged"]))
	}
}

func TestDeleteReportAndTag(t *testing.T) {
	store, err := report.NewStoreAt(t.TempDir())
	if err != nil {
		t.Fatalf("NewStoreAt: %v", err)
	}

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var first string
	for i, tag := range []string{"a", "b", "b"} {
		r := &report.Report{Tag: tag, WrittenAt: base.Add(time.Duration(i) * time.Minute)}
		path, err := store.Save(r)
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		if i == 0 {
			first = filepath.Base(path)
		}
	}

	if err := store.Delete(first); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(first); err == nil {
		t.Error("deleting a missing report: want error, got nil")
	}
	if err := store.Delete("../evil.json"); err == nil {
		t.Error("path traversal name: want error, got nil")
	}

	n, err := store.DeleteTag("b")
	if err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}
	if n != 2 {
		t.Errorf("DeleteTag: want 2 removed, got %d", n)
	}
	if _, err := store.DeleteTag("b"); err == nil {
		t.Error("deleting a missing tag: want error, got nil")
	}

	remaining, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("want empty archive, got %d reports", len(remaining))
	}
}

func TestSaveFailurePropagatesError(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("running as root; permission checks are ineffective")
	}

	dir := t.TempDir()
	store, err := report.NewStoreAt(dir)
	if err != nil {
		t.Fatalf("NewStoreAt: %v", err)
	}
	if err := os.Chmod(dir, 0o555); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { os.Chmod(dir, 0o755) })

	r := &report.Report{Tag: "x", WrittenAt: time.Now().UTC()}
	if _, err := store.Save(r); err == nil {
		t.Fatal("expected error writing to read-only directory, got nil")
	}
}
