// Package placer carries one representative file from its source location to
// its final destination.
package placer

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/jamesainslie/snapsort/pkg/snapsort/collision"
	"github.com/jamesainslie/snapsort/pkg/snapsort/fsops"
	"github.com/jamesainslie/snapsort/pkg/snapsort/logging"
	"github.com/jamesainslie/snapsort/pkg/snapsort/metadata"
	"github.com/jamesainslie/snapsort/pkg/snapsort/naming"
	"github.com/jamesainslie/snapsort/pkg/snapsort/types"
)

// TimestampResolver produces a capture timestamp for a file.
type TimestampResolver interface {
	ResolveTimestamp(path string) (string, error)
}

// Observer is notified as placement decisions are made. Methods are called
// synchronously from Place.
type Observer interface {
	// OnPlacing fires before the copy or move, and also in dry runs.
	OnPlacing(src, dst string, mode types.Mode)
	// OnAlreadyPresent fires when identical content already sits at dst.
	OnAlreadyPresent(src, dst string)
	// OnSkipped fires when no usable timestamp exists for src.
	OnSkipped(src string, err error)
	// OnFailed fires when an I/O error prevents placement of src.
	OnFailed(src string, err error)
}

// NopObserver ignores every event. Embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) OnPlacing(string, string, types.Mode) {}
func (NopObserver) OnAlreadyPresent(string, string)      {}
func (NopObserver) OnSkipped(string, error)              {}
func (NopObserver) OnFailed(string, error)               {}

// Outcome describes what happened to one file.
type Outcome struct {
	// File is the representative, with Timestamp filled when resolved.
	File types.MediaFile

	// Destination is the resolved path; empty when skipped or when
	// resolution itself failed.
	Destination string

	Status types.Status

	// Err is the per-file error for StatusSkipped and StatusFailed.
	Err error
}

// Placer resolves destinations and performs placements.
type Placer struct {
	timestamps TimestampResolver
	collisions *collision.Resolver
	observer   Observer

	copyFn  func(src, dst string) error
	moveFn  func(src, dst string) error
	mkdirFn func(dir string) error
}

// New returns a placer. A nil observer is replaced with NopObserver.
func New(ts TimestampResolver, cr *collision.Resolver, obs Observer) *Placer {
	if ts == nil {
		ts = metadata.Resolver{}
	}
	if cr == nil {
		cr = collision.New(nil, 0)
	}
	if obs == nil {
		obs = NopObserver{}
	}
	return &Placer{
		timestamps: ts,
		collisions: cr,
		observer:   obs,
		copyFn:     fsops.Copy,
		moveFn:     fsops.Move,
		mkdirFn:    fsops.EnsureDir,
	}
}

// Place resolves file's destination under root and, unless dryRun, copies
// or moves it there. Skips and failures are per-file: they are reported in
// the Outcome and returned as the error, and never affect later calls.
func (p *Placer) Place(file types.MediaFile, root string, mode types.Mode, dryRun bool) (Outcome, error) {
	log := logging.Get("placer")
	out := Outcome{File: file}

	ts, err := p.timestamps.ResolveTimestamp(file.Path)
	if err != nil {
		if errors.Is(err, metadata.ErrNoTimestamp) {
			return p.skip(out, err)
		}
		return p.fail(out, fmt.Errorf("reading metadata of %s: %w", file.Path, err))
	}
	out.File.Timestamp = ts

	cand, err := naming.NameFor(ts, filepath.Ext(file.Path))
	if err != nil {
		return p.skip(out, fmt.Errorf("%s: %w", file.Path, err))
	}

	res, err := p.collisions.Resolve(root, cand, file.Fingerprint)
	if err != nil {
		return p.fail(out, err)
	}
	out.Destination = res.Path

	if res.AlreadyPresent {
		out.Status = types.StatusAlreadyPresent
		log.Debug("already present", "src", file.Path, "dst", res.Path)
		p.observer.OnAlreadyPresent(file.Path, res.Path)
		return out, nil
	}

	p.observer.OnPlacing(file.Path, res.Path, mode)
	if dryRun {
		out.Status = types.StatusPlaced
		return out, nil
	}

	if err := p.mkdirFn(filepath.Dir(res.Path)); err != nil {
		p.collisions.Release(res.Path)
		return p.fail(out, err)
	}
	act := p.copyFn
	if mode == types.ModeMove {
		act = p.moveFn
	}
	if err := act(file.Path, res.Path); err != nil {
		p.collisions.Release(res.Path)
		return p.fail(out, fmt.Errorf("%s %s: %w", mode, file.Path, err))
	}

	out.Status = types.StatusPlaced
	log.Info("placed", "op", mode.String(), "src", file.Path, "dst", res.Path, "slot", res.Slot)
	return out, nil
}

func (p *Placer) skip(out Outcome, err error) (Outcome, error) {
	out.Status = types.StatusSkipped
	out.Err = err
	logging.Get("placer").Warn("skipped", "src", out.File.Path, "err", err)
	p.observer.OnSkipped(out.File.Path, err)
	return out, err
}

func (p *Placer) fail(out Outcome, err error) (Outcome, error) {
	out.Status = types.StatusFailed
	out.Err = err
	logging.Get("placer").Error("placement failed", "src", out.File.Path, "err", err)
	p.observer.OnFailed(out.File.Path, err)
	return out, err
}
