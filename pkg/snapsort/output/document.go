package output

import (
	"time"

	"github.com/jamesainslie/snapsort/pkg/snapsort/organizer"
	"github.com/jamesainslie/snapsort/pkg/snapsort/types"
)

// document is the serialized shape shared by the json and yaml formats.
type document struct {
	Run        runInfo        `json:"run" yaml:"run"`
	Summary    summary        `json:"summary" yaml:"summary"`
	Files      []fileEntry    `json:"files" yaml:"files"`
	ScanErrors []scanErrEntry `json:"scan_errors,omitempty" yaml:"scan_errors,omitempty"`
}

type runInfo struct {
	Source      string    `json:"source" yaml:"source"`
	Destination string    `json:"destination" yaml:"destination"`
	Mode        string    `json:"mode" yaml:"mode"`
	DryRun      bool      `json:"dry_run" yaml:"dry_run"`
	StartedAt   time.Time `json:"started_at" yaml:"started_at"`
	Elapsed     string    `json:"elapsed" yaml:"elapsed"`
}

type summary struct {
	Candidates  int    `json:"candidates" yaml:"candidates"`
	Unique      int    `json:"unique" yaml:"unique"`
	Duplicates  int    `json:"duplicates" yaml:"duplicates"`
	Placed      int    `json:"placed" yaml:"placed"`
	Present     int    `json:"already_present" yaml:"already_present"`
	Skipped     int    `json:"skipped" yaml:"skipped"`
	Failed      int    `json:"failed" yaml:"failed"`
	PlacedBytes int64  `json:"placed_bytes" yaml:"placed_bytes"`
	PlacedHuman string `json:"placed_human" yaml:"placed_human"`
}

type fileEntry struct {
	Source      string       `json:"source" yaml:"source"`
	Destination string       `json:"destination,omitempty" yaml:"destination,omitempty"`
	Fingerprint string       `json:"fingerprint" yaml:"fingerprint"`
	Timestamp   string       `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Size        int64        `json:"size" yaml:"size"`
	Status      types.Status `json:"status" yaml:"status"`
	Error       string       `json:"error,omitempty" yaml:"error,omitempty"`
}

type scanErrEntry struct {
	Path  string `json:"path" yaml:"path"`
	Error string `json:"error" yaml:"error"`
}

func buildDocument(r *organizer.Report) document {
	files := make([]fileEntry, len(r.Files))
	for i, f := range r.Files {
		files[i] = fileEntry{
			Source:      f.Source,
			Destination: f.Destination,
			Fingerprint: f.Fingerprint,
			Timestamp:   f.Timestamp,
			Size:        f.Size,
			Status:      f.Status,
			Error:       f.Error,
		}
	}
	var scanErrs []scanErrEntry
	for _, e := range r.ScanErrors {
		scanErrs = append(scanErrs, scanErrEntry{Path: e.Path, Error: e.Error})
	}

	return document{
		Run: runInfo{
			Source:      r.Source,
			Destination: r.Destination,
			Mode:        r.Mode,
			DryRun:      r.DryRun,
			StartedAt:   r.StartedAt,
			Elapsed:     r.Elapsed.String(),
		},
		Summary: summary{
			Candidates:  r.Candidates,
			Unique:      r.Unique,
			Duplicates:  r.Duplicates,
			Placed:      r.Placed,
			Present:     r.Present,
			Skipped:     r.Skipped,
			Failed:      r.Failed,
			PlacedBytes: r.PlacedBytes,
			PlacedHuman: types.FormatSize(r.PlacedBytes),
		},
		Files:      files,
		ScanErrors: scanErrs,
	}
}
