package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/jamesainslie/snapsort/pkg/snapsort/logging"
	"github.com/jamesainslie/snapsort/pkg/snapsort/media"
	"github.com/jamesainslie/snapsort/pkg/snapsort/types"
)

// ErrNotDirectory is returned when Root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Scanner walks a source tree for candidate media files.
type Scanner struct {
	opts Options

	root     string
	absRoot  string
	skipDirs []string

	dirs       atomic.Int64
	files      atomic.Int64
	candidates atomic.Int64

	mu      sync.Mutex
	results []types.MediaFile
	errs    []types.ScanError
}

// New returns a scanner for opts.
func New(opts Options) *Scanner {
	opts.applyDefaults()
	return &Scanner{opts: opts}
}

// Scan walks the tree and returns candidates sorted by path. Unreadable
// entries are recorded in the result's Errors and do not stop the walk.
func (s *Scanner) Scan(ctx context.Context) (*types.ScanResult, error) {
	start := time.Now()
	log := logging.Get("scanner")

	if err := s.prepare(); err != nil {
		return nil, err
	}
	log.Info("scan started", "root", s.root, "workers", s.opts.Workers)

	conf := fastwalk.Config{Follow: false, NumWorkers: s.opts.Workers}
	err := fastwalk.Walk(&conf, s.root, s.visit(ctx))
	if err != nil && !errors.Is(err, fastwalk.ErrSkipFiles) && !errors.Is(err, context.Canceled) {
		return nil, fmt.Errorf("walking %s: %w", s.root, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(s.results, func(a, b types.MediaFile) int { return strings.Compare(a.Path, b.Path) })
	slices.SortFunc(s.errs, func(a, b types.ScanError) int { return strings.Compare(a.Path, b.Path) })

	var total int64
	for _, f := range s.results {
		total += f.Size
	}

	res := &types.ScanResult{
		Files:        s.results,
		DirsScanned:  s.dirs.Load(),
		FilesScanned: s.files.Load(),
		TotalSize:    total,
		Elapsed:      time.Since(start),
		Errors:       s.errs,
	}
	log.Info("scan finished", "dirs", res.DirsScanned, "files", res.FilesScanned,
		"candidates", len(res.Files), "errors", len(res.Errors), "elapsed", res.Elapsed)
	return res, nil
}

func (s *Scanner) prepare() error {
	s.root = filepath.Clean(s.opts.Root)
	abs, err := filepath.Abs(s.root)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", s.root, ErrNotDirectory)
	}
	s.absRoot = abs

	s.skipDirs = s.skipDirs[:0]
	for _, d := range s.opts.SkipDirs {
		if a, err := filepath.Abs(d); err == nil {
			s.skipDirs = append(s.skipDirs, a)
		}
	}
	return nil
}

func (s *Scanner) visit(ctx context.Context) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fastwalk.ErrSkipFiles
		}
		if err != nil {
			s.addError(path, err)
			return nil
		}

		if d.IsDir() {
			if path != s.root && (s.isExcluded(path) || s.isSkipped(path)) {
				return fastwalk.SkipDir
			}
			n := s.dirs.Add(1)
			if s.opts.OnProgress != nil {
				s.opts.OnProgress(Progress{
					DirsScanned:  n,
					FilesScanned: s.files.Load(),
					Candidates:   s.candidates.Load(),
					CurrentPath:  path,
				})
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		s.files.Add(1)
		if !media.IsCandidate(path) || s.isExcluded(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			s.addError(path, err)
			return nil
		}
		s.candidates.Add(1)

		s.mu.Lock()
		s.results = append(s.results, types.MediaFile{
			Path: path,
			Size: info.Size(),
			Kind: media.Classify(path),
		})
		s.mu.Unlock()
		return nil
	}
}

func (s *Scanner) addError(path string, err error) {
	logging.Get("scanner").Warn("unreadable entry", "path", path, "err", err)
	s.mu.Lock()
	s.errs = append(s.errs, types.ScanError{Path: path, Error: err.Error()})
	s.mu.Unlock()
}

// isSkipped reports whether dir is one of SkipDirs.
func (s *Scanner) isSkipped(dir string) bool {
	if len(s.skipDirs) == 0 {
		return false
	}
	rel, err := filepath.Rel(s.root, dir)
	if err != nil {
		return false
	}
	return slices.Contains(s.skipDirs, filepath.Join(s.absRoot, rel))
}

func (s *Scanner) isExcluded(path string) bool {
	for _, p := range s.opts.Exclude {
		if MatchExclude(path, p) {
			return true
		}
	}
	return false
}

// MatchExclude reports whether path matches pattern: equal to it, below it,
// or a glob match against the base name or full path.
func MatchExclude(path, pattern string) bool {
	if pattern == "" {
		return false
	}
	if path == pattern || strings.HasPrefix(path, pattern+string(filepath.Separator)) {
		return true
	}
	if ok, err := filepath.Match(pattern, filepath.Base(path)); err == nil && ok {
		return true
	}
	if ok, err := filepath.Match(pattern, path); err == nil && ok {
		return true
	}
	return false
}
