// Package scanner discovers candidate media files under a source tree using
// a parallel fastwalk traversal. Results are sorted by path, which fixes the
// discovery order that later stages rely on.
package scanner

import (
	"runtime"
)

// Progress is a snapshot of scan counters.
type Progress struct {
	DirsScanned  int64
	FilesScanned int64
	Candidates   int64
	CurrentPath  string
}

// Options configures a Scanner.
type Options struct {
	// Root is the directory to scan.
	Root string

	// Exclude holds patterns for paths to skip. A pattern matches a path
	// equal to it or below it, or as a glob against the base name or the
	// full path.
	Exclude []string

	// SkipDirs are directories pruned from the walk, compared by absolute
	// path. The organizer adds the destination here when it lies inside
	// the source.
	SkipDirs []string

	// Workers is the number of fastwalk goroutines. Zero picks a default.
	Workers int

	// OnProgress, if set, is called as directories are entered. It must be
	// safe for concurrent use.
	OnProgress func(Progress)
}

// DefaultWorkers returns the walker concurrency used when Workers is zero.
func DefaultWorkers() int {
	n := runtime.NumCPU()
	if n < 4 {
		n = 4
	}
	return n
}

// applyDefaults fills unset fields.
func (o *Options) applyDefaults() {
	if o.Root == "" {
		o.Root = "."
	}
	if o.Workers < 1 {
		o.Workers = DefaultWorkers()
	}
}
