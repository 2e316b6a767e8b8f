// Package report persists finished session reports: one JSON document
// per session plus an HTML index regenerated from all of them.
package report

import (
	"time"

	"github.com/splitpierre/yalapm/internal/meter"
)

// Report is the archived summary of one session. Immutable once written.
type Report struct {
	SessionID       string    `json:"session_id"`
	Tag             string    `json:"tag"`
	Author          string    `json:"author,omitempty"`
	VeFactor        float64   `json:"veapm_factor"`
	TotalActions    int64     `json:"total_actions"`
	PeakAPM         int       `json:"peak_apm"`
	AverageAPM      int       `json:"average_apm"`
	AverageVeAPM    int       `json:"average_veapm"`
	DurationSeconds float64   `json:"duration_seconds"`
	WrittenAt       time.Time `json:"report_datetime"`
	Trend           []int     `json:"apm_trend,omitempty"`

	// Filename is the on-disk file name, set when loading. Not part of
	// the document itself.
	Filename string `json:"-"`
}

// FromSummary converts a finished session into its report document.
func FromSummary(s *meter.Summary, author string) *Report {
	return &Report{
		SessionID:       s.SessionID,
		Tag:             s.Tag,
		Author:          author,
		VeFactor:        s.VeFactor,
		TotalActions:    s.TotalActions,
		PeakAPM:         s.PeakAPM,
		AverageAPM:      s.AverageAPM,
		AverageVeAPM:    s.AverageVeAPM,
		DurationSeconds: s.ActiveDuration.Seconds(),
		WrittenAt:       s.StoppedAt,
		Trend:           s.Trend,
	}
}
