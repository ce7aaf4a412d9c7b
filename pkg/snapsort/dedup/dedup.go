// Package dedup collapses a list of candidate files into one representative
// per distinct fingerprint.
//
// Digesting may be spread across workers, but results are collected by
// discovery position, so the chosen representatives and their order depend
// only on the input order.
package dedup

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jamesainslie/snapsort/pkg/snapsort/digest"
	"github.com/jamesainslie/snapsort/pkg/snapsort/logging"
	"github.com/jamesainslie/snapsort/pkg/snapsort/media"
	"github.com/jamesainslie/snapsort/pkg/snapsort/types"
)

// Options configures Deduplicate.
type Options struct {
	// Workers is the number of concurrent digest goroutines. Values below 1
	// mean sequential digesting.
	Workers int

	// Digest computes a fingerprint. Defaults to digest.File.
	Digest digest.Func

	// OnDigest is called after each successful digest, from the worker
	// goroutine. Optional.
	OnDigest func(path string, fp types.Fingerprint)
}

// Result holds the outcome of deduplication.
type Result struct {
	// Representatives are the first-seen file per fingerprint, in discovery order.
	Representatives []types.MediaFile

	// Duplicates are the remaining files, in discovery order.
	Duplicates []types.MediaFile

	// DuplicateCount equals len(Duplicates).
	DuplicateCount int
}

// Deduplicate digests every path and keeps the first file per fingerprint.
// Any digest failure aborts with an error naming the file; when several files
// fail the one earliest in discovery order is reported.
func Deduplicate(ctx context.Context, paths []string, opts Options) (Result, error) {
	files := make([]types.MediaFile, len(paths))
	for i, p := range paths {
		files[i] = types.MediaFile{Path: p, Kind: media.Classify(p)}
	}
	return DeduplicateFiles(ctx, files, opts)
}

// DeduplicateFiles is Deduplicate for files that already carry scan metadata.
// Fingerprints are written into the returned records; the input slice is not
// modified.
func DeduplicateFiles(ctx context.Context, files []types.MediaFile, opts Options) (Result, error) {
	log := logging.Get("dedup")

	digestFn := opts.Digest
	if digestFn == nil {
		digestFn = digest.File
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	fps := make([]types.Fingerprint, len(files))
	errs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fp, err := digestFn(files[i].Path)
			if err != nil {
				errs[i] = err
				return err
			}
			fps[i] = fp
			if opts.OnDigest != nil {
				opts.OnDigest(files[i].Path, fp)
			}
			return nil
		})
	}
	waitErr := g.Wait()

	for i, err := range errs {
		if err != nil {
			return Result{}, fmt.Errorf("digesting source %s: %w", files[i].Path, err)
		}
	}
	if waitErr != nil {
		return Result{}, waitErr
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var res Result
	seen := make(map[types.Fingerprint]int, len(files))
	for i, f := range files {
		f.Fingerprint = fps[i]
		if first, ok := seen[f.Fingerprint]; ok {
			log.Debug("duplicate content", "path", f.Path, "first", res.Representatives[first].Path, "fingerprint", f.Fingerprint)
			res.Duplicates = append(res.Duplicates, f)
			continue
		}
		seen[f.Fingerprint] = len(res.Representatives)
		res.Representatives = append(res.Representatives, f)
	}
	res.DuplicateCount = len(res.Duplicates)

	log.Info("deduplicated sources", "files", len(files), "unique", len(res.Representatives), "duplicates", res.DuplicateCount, "workers", workers)
	return res, nil
}
