// Package organizer runs a complete snapsort batch: scan the source, collapse
// duplicate content, then place each unique file in discovery order.
package organizer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jamesainslie/snapsort/pkg/snapsort/collision"
	"github.com/jamesainslie/snapsort/pkg/snapsort/dedup"
	"github.com/jamesainslie/snapsort/pkg/snapsort/digest"
	"github.com/jamesainslie/snapsort/pkg/snapsort/logging"
	"github.com/jamesainslie/snapsort/pkg/snapsort/metadata"
	"github.com/jamesainslie/snapsort/pkg/snapsort/placer"
	"github.com/jamesainslie/snapsort/pkg/snapsort/scanner"
	"github.com/jamesainslie/snapsort/pkg/snapsort/types"
)

// Options configures a run.
type Options struct {
	Source      string
	Destination string
	Mode        types.Mode
	DryRun      bool

	// Workers is the digest concurrency; values below 1 mean sequential.
	Workers int

	// Exclude is passed to the scanner.
	Exclude []string

	// MaxCollisions bounds slot probing per file. Zero uses the default.
	MaxCollisions int

	// MtimeFallback uses modification times for files without metadata.
	MtimeFallback bool

	// Observer receives placement events in discovery order.
	Observer placer.Observer

	// Timestamps overrides the metadata resolver.
	Timestamps placer.TimestampResolver

	// Digest overrides the content digester.
	Digest digest.Func
}

// Report summarizes a run.
type Report struct {
	Source      string            `json:"source"`
	Destination string            `json:"destination"`
	Mode        string            `json:"mode"`
	DryRun      bool              `json:"dry_run"`
	StartedAt   time.Time         `json:"started_at"`
	Elapsed     time.Duration     `json:"elapsed"`
	Candidates  int               `json:"candidates"`
	Unique      int               `json:"unique"`
	Duplicates  int               `json:"duplicates"`
	Placed      int               `json:"placed"`
	Present     int               `json:"already_present"`
	Skipped     int               `json:"skipped"`
	Failed      int               `json:"failed"`
	PlacedBytes int64             `json:"placed_bytes"`
	Files       []FileRecord      `json:"files"`
	ScanErrors  []types.ScanError `json:"scan_errors,omitempty"`
}

// FileRecord is the per-representative line of a report.
type FileRecord struct {
	Source      string       `json:"source"`
	Destination string       `json:"destination,omitempty"`
	Fingerprint string       `json:"fingerprint"`
	Timestamp   string       `json:"timestamp,omitempty"`
	Size        int64        `json:"size"`
	Status      types.Status `json:"status"`
	Error       string       `json:"error,omitempty"`
}

// HasFailures reports whether any file failed with an I/O error.
func (r *Report) HasFailures() bool { return r.Failed > 0 }

// Organizer executes runs.
type Organizer struct {
	opts Options
}

// New returns an organizer for opts.
func New(opts Options) *Organizer {
	return &Organizer{opts: opts}
}

// Run performs the batch. Per-file problems are recorded in the report; the
// returned error is reserved for conditions that stop the run: an unusable
// source, a source file that cannot be digested, or cancellation. On
// cancellation the partial report is returned alongside the error.
func (o *Organizer) Run(ctx context.Context) (*Report, error) {
	log := logging.Get("organizer")
	opts := o.opts
	start := time.Now()

	skip, err := nestedDestination(opts.Source, opts.Destination)
	if err != nil {
		return nil, err
	}

	sc := scanner.New(scanner.Options{
		Root:     opts.Source,
		Exclude:  opts.Exclude,
		SkipDirs: skip,
	})
	scan, err := sc.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", opts.Source, err)
	}

	deduped, err := dedup.DeduplicateFiles(ctx, scan.Files, dedup.Options{
		Workers: opts.Workers,
		Digest:  opts.Digest,
	})
	if err != nil {
		return nil, err
	}

	report := &Report{
		Source:      opts.Source,
		Destination: opts.Destination,
		Mode:        opts.Mode.String(),
		DryRun:      opts.DryRun,
		StartedAt:   start,
		Candidates:  len(scan.Files),
		Unique:      len(deduped.Representatives),
		Duplicates:  deduped.DuplicateCount,
		ScanErrors:  scan.Errors,
	}

	ts := opts.Timestamps
	if ts == nil {
		ts = metadata.Resolver{MtimeFallback: opts.MtimeFallback}
	}
	p := placer.New(ts, collision.New(opts.Digest, opts.MaxCollisions), opts.Observer)

	log.Info("placement started", "representatives", report.Unique, "duplicates", report.Duplicates,
		"mode", opts.Mode.String(), "dry_run", opts.DryRun)

	for _, file := range deduped.Representatives {
		if err := ctx.Err(); err != nil {
			report.Elapsed = time.Since(start)
			return report, err
		}

		out, _ := p.Place(file, opts.Destination, opts.Mode, opts.DryRun)
		report.add(out)
	}

	report.Elapsed = time.Since(start)
	log.Info("run finished", "placed", report.Placed, "already_present", report.Present,
		"skipped", report.Skipped, "failed", report.Failed, "elapsed", report.Elapsed)
	return report, nil
}

func (r *Report) add(out placer.Outcome) {
	rec := FileRecord{
		Source:      out.File.Path,
		Destination: out.Destination,
		Fingerprint: out.File.Fingerprint.String(),
		Timestamp:   out.File.Timestamp,
		Size:        out.File.Size,
		Status:      out.Status,
	}
	if out.Err != nil {
		rec.Error = out.Err.Error()
	}
	r.Files = append(r.Files, rec)

	switch out.Status {
	case types.StatusPlaced:
		r.Placed++
		r.PlacedBytes += out.File.Size
	case types.StatusAlreadyPresent:
		r.Present++
	case types.StatusSkipped:
		r.Skipped++
	case types.StatusFailed:
		r.Failed++
	}
}

// nestedDestination returns the destination as a directory to prune from the
// scan when it lies strictly inside the source. Organizing a tree in place
// (source equal to destination) prunes nothing.
func nestedDestination(source, destination string) ([]string, error) {
	src, err := filepath.Abs(source)
	if err != nil {
		return nil, err
	}
	dst, err := filepath.Abs(destination)
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(src, dst)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, nil
	}
	return []string{dst}, nil
}
