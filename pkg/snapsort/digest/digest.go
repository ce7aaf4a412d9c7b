// Package digest computes content fingerprints for media files.
//
// Every call builds its own hash context, so the functions are safe for
// concurrent use and produce identical output for identical bytes regardless
// of file name, location or timestamps.
package digest

import (
	"crypto/md5"
	"fmt"
	"io"
	"os"

	"github.com/jamesainslie/snapsort/pkg/snapsort/types"
)

// Error reports a file that could not be opened or read while digesting.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("digest %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Func is the signature shared by File and test doubles.
type Func func(path string) (types.Fingerprint, error)

// File reads the full content of path and returns its fingerprint.
func File(path string) (types.Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Fingerprint{}, &Error{Path: path, Err: err}
	}
	defer f.Close()

	fp, err := Reader(f)
	if err != nil {
		return types.Fingerprint{}, &Error{Path: path, Err: err}
	}
	return fp, nil
}

// Reader consumes r to EOF and returns the fingerprint of the bytes read.
func Reader(r io.Reader) (types.Fingerprint, error) {
	h := md5.New()
	if _, err := io.Copy(h, r); err != nil {
		return types.Fingerprint{}, err
	}

	var fp types.Fingerprint
	copy(fp[:], h.Sum(nil))
	return fp, nil
}
