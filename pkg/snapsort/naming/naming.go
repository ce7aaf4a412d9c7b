// Package naming derives canonical destination names from capture timestamps.
//
// A timestamp "2020:02:22 13:37:05" with extension ".jpg" becomes the
// subdirectory 2020/02/22 and the file 2020-02-22-13.37.05.jpg. Field values
// are used verbatim: no zero-padding, calendar or timezone correction.
package naming

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/snapsort/pkg/snapsort/types"
)

// ErrMalformedTimestamp is matched by every MalformedTimestampError.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// MalformedTimestampError reports a timestamp that does not split into a
// date part and a time part of three non-empty fields each.
type MalformedTimestampError struct {
	Value  string
	Reason string
}

func (e *MalformedTimestampError) Error() string {
	return fmt.Sprintf("malformed timestamp %q: %s", e.Value, e.Reason)
}

// Is lets errors.Is match ErrMalformedTimestamp.
func (e *MalformedTimestampError) Is(target error) bool {
	return target == ErrMalformedTimestamp
}

// Parse splits a "YYYY:MM:DD HH:MM:SS" timestamp into its fields.
func Parse(ts string) (types.ParsedTimestamp, error) {
	parts := strings.Split(ts, " ")
	if len(parts) != 2 {
		return types.ParsedTimestamp{}, &MalformedTimestampError{
			Value:  ts,
			Reason: fmt.Sprintf("want date and time separated by one space, got %d part(s)", len(parts)),
		}
	}

	date, err := splitFields(ts, parts[0], "date")
	if err != nil {
		return types.ParsedTimestamp{}, err
	}
	clock, err := splitFields(ts, parts[1], "time")
	if err != nil {
		return types.ParsedTimestamp{}, err
	}

	return types.ParsedTimestamp{
		Year:   date[0],
		Month:  date[1],
		Day:    date[2],
		Hour:   clock[0],
		Minute: clock[1],
		Second: clock[2],
	}, nil
}

func splitFields(ts, part, label string) ([]string, error) {
	fields := strings.Split(part, ":")
	if len(fields) != 3 {
		return nil, &MalformedTimestampError{
			Value:  ts,
			Reason: fmt.Sprintf("%s part %q has %d field(s), want 3", label, part, len(fields)),
		}
	}
	for _, f := range fields {
		if f == "" {
			return nil, &MalformedTimestampError{
				Value:  ts,
				Reason: fmt.Sprintf("%s part %q has an empty field", label, part),
			}
		}
		if strings.ContainsAny(f, `/\`) || f == "." || f == ".." {
			return nil, &MalformedTimestampError{
				Value:  ts,
				Reason: fmt.Sprintf("%s field %q is not a valid path component", label, f),
			}
		}
	}
	return fields, nil
}

// Candidate builds the destination candidate for a parsed timestamp.
func Candidate(p types.ParsedTimestamp, ext string) types.DestinationCandidate {
	return types.DestinationCandidate{
		Subdirectory: filepath.Join(p.Year, p.Month, p.Day),
		Basename:     fmt.Sprintf("%s-%s-%s-%s.%s.%s", p.Year, p.Month, p.Day, p.Hour, p.Minute, p.Second),
		Extension:    ext,
	}
}

// NameFor parses ts and returns the canonical candidate for ext.
func NameFor(ts, ext string) (types.DestinationCandidate, error) {
	p, err := Parse(ts)
	if err != nil {
		return types.DestinationCandidate{}, err
	}
	return Candidate(p, ext), nil
}

// Format renders a parsed timestamp back into canonical form.
func Format(p types.ParsedTimestamp) string {
	return fmt.Sprintf("%s:%s:%s %s:%s:%s", p.Year, p.Month, p.Day, p.Hour, p.Minute, p.Second)
}
