// Package collision picks the final destination path for a file given its
// canonical candidate and fingerprint.
//
// Slots are probed in order: the undecorated name, then "(0)", "(1)" and so
// on. A free slot is taken; a slot holding identical content means the file
// is already present; any other occupant moves the search to the next slot.
package collision

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/jamesainslie/snapsort/pkg/snapsort/digest"
	"github.com/jamesainslie/snapsort/pkg/snapsort/logging"
	"github.com/jamesainslie/snapsort/pkg/snapsort/types"
)

// DefaultMaxAttempts bounds the number of slots probed per file.
const DefaultMaxAttempts = 10000

// ErrTooManyCollisions is returned when every probed slot is taken by
// different content.
var ErrTooManyCollisions = errors.New("too many name collisions")

// Resolution is the outcome of Resolve.
type Resolution struct {
	// Path is the chosen destination.
	Path string

	// Slot is the disambiguator used: -1 for the undecorated name.
	Slot int

	// AlreadyPresent reports that Path already holds identical content.
	AlreadyPresent bool
}

// Resolver probes destination slots. It remembers every slot it hands out
// during its lifetime, so a dry run that never writes still produces the
// same decisions as a real one.
type Resolver struct {
	digest      digest.Func
	maxAttempts int

	mu     sync.Mutex
	claims map[string]types.Fingerprint
}

// New returns a resolver using digestFn for occupants. A nil digestFn uses
// digest.File; maxAttempts below 1 uses DefaultMaxAttempts.
func New(digestFn digest.Func, maxAttempts int) *Resolver {
	if digestFn == nil {
		digestFn = digest.File
	}
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Resolver{
		digest:      digestFn,
		maxAttempts: maxAttempts,
		claims:      make(map[string]types.Fingerprint),
	}
}

// Resolve returns the destination for content fp under root.
//
// Errors from reading an occupant are returned as-is; the caller decides
// whether they stop the batch.
func (r *Resolver) Resolve(root string, c types.DestinationCandidate, fp types.Fingerprint) (Resolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	log := logging.Get("collision")

	for attempt := range r.maxAttempts {
		slot := attempt - 1
		path := c.Path(root, slot)

		if owner, ok := r.claims[path]; ok {
			if owner == fp {
				return Resolution{Path: path, Slot: slot, AlreadyPresent: true}, nil
			}
			continue
		}

		same, free, err := r.probe(path, fp)
		if err != nil {
			return Resolution{}, err
		}
		switch {
		case free:
			r.claims[path] = fp
			if slot >= 0 {
				log.Debug("name collision resolved", "candidate", c.Path(root, -1), "slot", slot)
			}
			return Resolution{Path: path, Slot: slot}, nil
		case same:
			r.claims[path] = fp
			return Resolution{Path: path, Slot: slot, AlreadyPresent: true}, nil
		}
	}

	return Resolution{}, fmt.Errorf("%w: %s after %d attempts", ErrTooManyCollisions, c.Path(root, -1), r.maxAttempts)
}

// probe reports whether path is free, or holds content fp.
func (r *Resolver) probe(path string, fp types.Fingerprint) (same, free bool, err error) {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, true, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("checking destination %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return false, false, nil
	}

	occupant, err := r.digest(path)
	if err != nil {
		return false, false, fmt.Errorf("checking destination %s: %w", path, err)
	}
	return occupant == fp, false, nil
}

// Release forgets the claim on path, typically after placement failed.
func (r *Resolver) Release(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.claims, path)
}

// Claims returns the number of slots handed out so far.
func (r *Resolver) Claims() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.claims)
}
