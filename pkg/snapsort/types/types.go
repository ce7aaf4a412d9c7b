// Package types provides core data types for the snapsort media organizer.
// It includes the media file record, fingerprints, destination candidates and
// placement outcomes, along with helpers for formatting file sizes.
package types

import (
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
)

// FingerprintSize is the length in bytes of a content fingerprint.
const FingerprintSize = 16

// Fingerprint is a content digest of a file's full byte stream.
type Fingerprint [FingerprintSize]byte

// String returns the fingerprint as lowercase hex.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// IsZero reports whether the fingerprint has not been computed.
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}

// ErrInvalidFingerprint indicates that a hex string is not a valid fingerprint.
var ErrInvalidFingerprint = errors.New("invalid fingerprint")

// ParseFingerprint parses the hex form produced by Fingerprint.String.
func ParseFingerprint(s string) (Fingerprint, error) {
	var f Fingerprint
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != FingerprintSize {
		return f, fmt.Errorf("%w: %q", ErrInvalidFingerprint, s)
	}
	copy(f[:], b)
	return f, nil
}

// MediaKind distinguishes the metadata source used for a file.
type MediaKind int

const (
	// KindUnknown is any file that is not a candidate.
	KindUnknown MediaKind = iota
	// KindImage is a still image carrying EXIF metadata.
	KindImage
	// KindVideo is an MP4 container carrying an mvhd box.
	KindVideo
)

// String returns the lowercase name of the kind.
func (k MediaKind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	default:
		return "unknown"
	}
}

// MediaFile represents one discovered source file.
//
// Path is set at discovery and Fingerprint is computed once by the digester.
// Timestamp stays empty until the file is selected as a representative.
type MediaFile struct {
	// Path is the filesystem path as discovered by the scanner.
	Path string `json:"path"`

	// Size is the file size in bytes at discovery time.
	Size int64 `json:"size"`

	// Kind selects the metadata field used for the timestamp.
	Kind MediaKind `json:"kind"`

	// Fingerprint is the content digest of the file.
	Fingerprint Fingerprint `json:"-"`

	// Timestamp is the capture time in "YYYY:MM:DD HH:MM:SS" form.
	Timestamp string `json:"timestamp,omitempty"`
}

// ParsedTimestamp is a capture timestamp split into its six fields.
// Fields are kept verbatim; no calendar validation is performed.
type ParsedTimestamp struct {
	Year   string
	Month  string
	Day    string
	Hour   string
	Minute string
	Second string
}

// DestinationCandidate is the canonical placement derived from a timestamp.
type DestinationCandidate struct {
	// Subdirectory is "year/month/day" using the host separator.
	Subdirectory string

	// Basename is "year-month-day-hour.minute.second".
	Basename string

	// Extension is the original extension including the dot, case preserved.
	Extension string
}

// Name returns the file name for disambiguator n.
// A negative n yields the undecorated name; n >= 0 appends "(n)".
func (c DestinationCandidate) Name(n int) string {
	if n < 0 {
		return c.Basename + c.Extension
	}
	return fmt.Sprintf("%s(%d)%s", c.Basename, n, c.Extension)
}

// Path joins root, the subdirectory and the name for disambiguator n.
func (c DestinationCandidate) Path(root string, n int) string {
	return filepath.Join(root, c.Subdirectory, c.Name(n))
}

// Mode selects whether sources are retained after placement.
type Mode int

const (
	// ModeCopy copies the source, leaving it in place.
	ModeCopy Mode = iota
	// ModeMove moves the source to the destination.
	ModeMove
)

// Op returns the short operation name printed in progress lines.
func (m Mode) Op() string {
	if m == ModeMove {
		return "mv"
	}
	return "cp"
}

// String returns the long operation name.
func (m Mode) String() string {
	if m == ModeMove {
		return "move"
	}
	return "copy"
}

// Status is the terminal state of a representative after placement.
type Status string

const (
	// StatusPlaced means the file was (or in dry-run would be) copied or moved.
	StatusPlaced Status = "placed"
	// StatusAlreadyPresent means identical content already sits at the destination.
	StatusAlreadyPresent Status = "already_present"
	// StatusSkipped means no usable timestamp was found for the file.
	StatusSkipped Status = "skipped"
	// StatusFailed means an I/O error prevented placement.
	StatusFailed Status = "failed"
)

// ScanResult contains the candidates found by a scan.
type ScanResult struct {
	// Files contains candidate media files in discovery order.
	Files []MediaFile `json:"files"`

	// DirsScanned is the total number of directories traversed.
	DirsScanned int64 `json:"dirs_scanned"`

	// FilesScanned is the total number of regular files examined.
	FilesScanned int64 `json:"files_scanned"`

	// TotalSize is the sum of candidate sizes in bytes.
	TotalSize int64 `json:"total_size"`

	// Elapsed is the time taken by the walk.
	Elapsed time.Duration `json:"elapsed"`

	// Errors contains paths that could not be read during the walk.
	Errors []ScanError `json:"errors,omitempty"`
}

// Paths returns the candidate paths in discovery order.
func (r *ScanResult) Paths() []string {
	paths := make([]string, len(r.Files))
	for i, f := range r.Files {
		paths[i] = f.Path
	}
	return paths
}

// ScanError pairs a path with the error encountered while walking it.
type ScanError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// FormatSize converts a size in bytes to a human-readable string using
// binary (IEC) units.
func FormatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}
