package types

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestDestinationCandidate_Name(t *testing.T) {
	c := DestinationCandidate{
		Subdirectory: filepath.Join("2020", "02", "22"),
		Basename:     "2020-02-22-13.37.05",
		Extension:    ".JPG",
	}

	tests := []struct {
		n    int
		want string
	}{
		{n: -1, want: "2020-02-22-13.37.05.JPG"},
		{n: 0, want: "2020-02-22-13.37.05(0).JPG"},
		{n: 1, want: "2020-02-22-13.37.05(1).JPG"},
		{n: 12, want: "2020-02-22-13.37.05(12).JPG"},
	}

	for _, tt := range tests {
		if got := c.Name(tt.n); got != tt.want {
			t.Errorf("Name(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}

	wantPath := filepath.Join("/dest", "2020", "02", "22", "2020-02-22-13.37.05(0).JPG")
	if got := c.Path("/dest", 0); got != wantPath {
		t.Errorf("Path() = %q, want %q", got, wantPath)
	}
}

func TestFingerprint_RoundTrip(t *testing.T) {
	var f Fingerprint
	for i := range f {
		f[i] = byte(i * 17)
	}

	got, err := ParseFingerprint(f.String())
	if err != nil {
		t.Fatalf("ParseFingerprint() error = %v", err)
	}
	if got != f {
		t.Errorf("ParseFingerprint() = %v, want %v", got, f)
	}
	if f.IsZero() {
		t.Error("IsZero() = true for non-zero fingerprint")
	}
	if !(Fingerprint{}).IsZero() {
		t.Error("IsZero() = false for zero fingerprint")
	}
}

func TestParseFingerprint_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "zz000000000000000000000000000000", "00"} {
		if _, err := ParseFingerprint(in); !errors.Is(err, ErrInvalidFingerprint) {
			t.Errorf("ParseFingerprint(%q) error = %v, want ErrInvalidFingerprint", in, err)
		}
	}
}

func TestMode(t *testing.T) {
	if ModeCopy.Op() != "cp" || ModeMove.Op() != "mv" {
		t.Errorf("Op() = %q/%q, want cp/mv", ModeCopy.Op(), ModeMove.Op())
	}
	if ModeCopy.String() != "copy" || ModeMove.String() != "move" {
		t.Errorf("String() = %q/%q, want copy/move", ModeCopy.String(), ModeMove.String())
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{1024, "1.0 KiB"},
		{1536 * 1024, "1.5 MiB"},
		{-5, "0 B"},
	}

	for _, tt := range tests {
		if got := FormatSize(tt.bytes); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
