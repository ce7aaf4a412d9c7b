// Package metadata extracts capture timestamps from media files.
//
// Images report EXIF DateTimeOriginal, verbatim. MP4 videos report the movie
// header creation time rendered in UTC. Both come back in the canonical
// "YYYY:MM:DD HH:MM:SS" layout; callers are expected to validate the string
// before building paths from it.
package metadata

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jamesainslie/snapsort/pkg/snapsort/logging"
	"github.com/jamesainslie/snapsort/pkg/snapsort/media"
	"github.com/jamesainslie/snapsort/pkg/snapsort/types"
)

// Layout is the canonical timestamp layout in time.Format notation.
const Layout = "2006:01:02 15:04:05"

// ErrNoTimestamp means the file carries no usable capture time.
var ErrNoTimestamp = errors.New("no capture timestamp")

// Resolver resolves capture timestamps. The zero value is ready to use.
type Resolver struct {
	// MtimeFallback uses the file modification time, in local time, when
	// embedded metadata is absent.
	MtimeFallback bool
}

// ResolveTimestamp returns the capture timestamp of path.
//
// Missing metadata yields an error matching ErrNoTimestamp unless
// MtimeFallback is set. Failures to open the file are returned as-is.
func (r Resolver) ResolveTimestamp(path string) (string, error) {
	kind := media.Classify(path)

	var (
		ts  string
		err error
	)
	switch kind {
	case types.KindVideo:
		ts, err = videoTimestamp(path)
	case types.KindImage:
		ts, err = imageTimestamp(path)
	default:
		err = fmt.Errorf("%w: unsupported file type", ErrNoTimestamp)
	}
	if err == nil {
		return ts, nil
	}
	if !errors.Is(err, ErrNoTimestamp) {
		return "", err
	}

	if r.MtimeFallback {
		info, statErr := os.Stat(path)
		if statErr != nil {
			return "", statErr
		}
		logging.Get("metadata").Debug("using modification time", "path", path, "reason", err)
		return info.ModTime().Local().Format(Layout), nil
	}
	return "", fmt.Errorf("%s: %w", path, err)
}

// Func adapts a resolver to a plain function.
type Func func(path string) (string, error)

// ResolveTimestamp calls f.
func (f Func) ResolveTimestamp(path string) (string, error) { return f(path) }

// formatUTC renders t in UTC using Layout.
func formatUTC(t time.Time) string {
	return t.UTC().Format(Layout)
}
