package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/snapsort/pkg/snapsort/organizer"
	"github.com/jamesainslie/snapsort/pkg/snapsort/types"
)

func sampleReport() *organizer.Report {
	return &organizer.Report{
		Source:      "/photos/in",
		Destination: "/photos/lib",
		Mode:        "copy",
		StartedAt:   time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		Elapsed:     1500 * time.Millisecond,
		Candidates:  4,
		Unique:      3,
		Duplicates:  1,
		Placed:      1,
		Present:     1,
		Skipped:     1,
		PlacedBytes: 2048,
		Files: []organizer.FileRecord{
			{Source: "/photos/in/a.jpg", Destination: "/photos/lib/2021/01/01/2021-01-01-00.00.00.jpg",
				Fingerprint: "aa", Timestamp: "2021:01:01 00:00:00", Size: 2048, Status: types.StatusPlaced},
			{Source: "/photos/in/b.jpg", Destination: "/photos/lib/2020/05/05/2020-05-05-05.05.05.jpg",
				Fingerprint: "bb", Size: 10, Status: types.StatusAlreadyPresent},
			{Source: "/photos/in/c.png", Fingerprint: "cc", Status: types.StatusSkipped, Error: "no capture timestamp"},
		},
		ScanErrors: []types.ScanError{{Path: "/photos/in/locked", Error: "permission denied"}},
	}
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"json", "plain", "pretty", "yaml"}, Available())

	for _, name := range Available() {
		f, err := Get(name)
		require.NoError(t, err, name)
		assert.NotNil(t, f)
	}

	_, err := Get("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")

	r := NewRegistry()
	r.Register("x", func() Formatter { return &PlainFormatter{} })
	assert.Equal(t, []string{"x"}, r.Available())
}

func TestPlainFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PlainFormatter{}).Format(&buf, sampleReport()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "STATUS"))
	assert.Contains(t, lines[1], "placed")
	assert.Contains(t, lines[1], "2021-01-01-00.00.00.jpg")
	assert.Contains(t, lines[3], "skipped")
	assert.True(t, strings.HasSuffix(lines[3], "-"))
	assert.NotContains(t, buf.String(), "\x1b[", "plain output has no escapes")
}

func TestPlainFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PlainFormatter{}).Format(&buf, &organizer.Report{}))
	assert.Len(t, strings.Split(strings.TrimSpace(buf.String()), "\n"), 1)
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, sampleReport()))

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Contains(t, parsed, "run")
	assert.Contains(t, parsed, "summary")
	assert.Contains(t, parsed, "scan_errors")

	summary := parsed["summary"].(map[string]any)
	assert.Equal(t, float64(1), summary["duplicates"])
	assert.Equal(t, "2.0 KiB", summary["placed_human"])

	files := parsed["files"].([]any)
	require.Len(t, files, 3)
	assert.Equal(t, "skipped", files[2].(map[string]any)["status"])
	assert.NotContains(t, files[2], "destination")
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&YAMLFormatter{}).Format(&buf, sampleReport()))

	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &parsed))
	run := parsed["run"].(map[string]any)
	assert.Equal(t, "/photos/in", run["source"])
	assert.Equal(t, "1.5s", run["elapsed"])
	assert.Len(t, parsed["files"], 3)
}

func TestPrettyFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, sampleReport()))

	out := buf.String()
	for _, want := range []string{
		"/photos/in", "/photos/lib", "STATUS", "already_present",
		"2021-01-01-00.00.00.jpg", "no capture timestamp", "2.0 KiB", "permission denied",
	} {
		assert.Contains(t, out, want)
	}
}

func TestPrettyFormatter_DryRunAndEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, &organizer.Report{Mode: "move", DryRun: true}))
	assert.Contains(t, buf.String(), "move (dry run)")
	assert.Contains(t, buf.String(), "No media files found")
}

func TestFormatDuration(t *testing.T) {
	tests := map[time.Duration]string{
		250 * time.Millisecond:      "250ms",
		2500 * time.Millisecond:     "2.5s",
		125 * time.Second:           "2m 5s",
		2*time.Hour + 3*time.Minute: "2h 3m",
	}
	for d, want := range tests {
		assert.Equal(t, want, formatDuration(d))
	}
}
