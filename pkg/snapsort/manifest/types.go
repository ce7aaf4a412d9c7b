// Package manifest keeps an on-disk history of organizer runs.
//
// Entries are an audit trail only: nothing reads them back while placing
// files, so every run still decides from the filesystem alone.
package manifest

import (
	"time"

	"github.com/jamesainslie/snapsort/pkg/snapsort/organizer"
	"github.com/jamesainslie/snapsort/pkg/snapsort/types"
)

// Entry is one recorded run.
type Entry struct {
	ID          string       `json:"id"`
	Timestamp   time.Time    `json:"timestamp"`
	Mode        string       `json:"mode"`
	Source      string       `json:"source"`
	Destination string       `json:"destination"`
	Files       []FileRecord `json:"files"`
	Summary     Summary      `json:"summary"`
}

// FileRecord is the outcome for one representative file.
type FileRecord struct {
	Source      string       `json:"source"`
	Destination string       `json:"destination,omitempty"`
	Fingerprint string       `json:"fingerprint"`
	Size        int64        `json:"size"`
	Status      types.Status `json:"status"`
	Error       string       `json:"error,omitempty"`
}

// Summary holds the run counters.
type Summary struct {
	Candidates  int           `json:"candidates"`
	Duplicates  int           `json:"duplicates"`
	Placed      int           `json:"placed"`
	Present     int           `json:"already_present"`
	Skipped     int           `json:"skipped"`
	Failed      int           `json:"failed"`
	PlacedBytes int64         `json:"placed_bytes"`
	Elapsed     time.Duration `json:"elapsed"`
}

// FromReport converts a run report into an unsaved entry.
func FromReport(r *organizer.Report) *Entry {
	files := make([]FileRecord, len(r.Files))
	for i, f := range r.Files {
		files[i] = FileRecord{
			Source:      f.Source,
			Destination: f.Destination,
			Fingerprint: f.Fingerprint,
			Size:        f.Size,
			Status:      f.Status,
			Error:       f.Error,
		}
	}
	return &Entry{
		Timestamp:   r.StartedAt.UTC(),
		Mode:        r.Mode,
		Source:      r.Source,
		Destination: r.Destination,
		Files:       files,
		Summary: Summary{
			Candidates:  r.Candidates,
			Duplicates:  r.Duplicates,
			Placed:      r.Placed,
			Present:     r.Present,
			Skipped:     r.Skipped,
			Failed:      r.Failed,
			PlacedBytes: r.PlacedBytes,
			Elapsed:     r.Elapsed,
		},
	}
}
