package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/snapsort/pkg/snapsort/organizer"
	"github.com/jamesainslie/snapsort/pkg/snapsort/types"
)

func setupTestManifest(t *testing.T) *Manifest {
	t.Helper()
	m, err := New(filepath.Join(t.TempDir(), "manifest"))
	require.NoError(t, err)
	return m
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := New("")
	assert.Error(t, err, "empty directory")

	m, err := New("/tmp/x")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x", m.Dir())
}

func TestFromReport(t *testing.T) {
	t.Parallel()

	started := time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local)
	rep := &organizer.Report{
		Source:      "/src",
		Destination: "/dst",
		Mode:        "move",
		StartedAt:   started,
		Candidates:  3,
		Duplicates:  1,
		Placed:      1,
		Skipped:     1,
		PlacedBytes: 42,
		Files: []organizer.FileRecord{
			{Source: "/src/a.jpg", Destination: "/dst/2021/01/01/x.jpg", Fingerprint: "ab", Size: 42, Status: types.StatusPlaced},
			{Source: "/src/b.jpg", Fingerprint: "cd", Status: types.StatusSkipped, Error: "no timestamp"},
		},
	}

	e := FromReport(rep)
	assert.Empty(t, e.ID)
	assert.True(t, e.Timestamp.Equal(started))
	assert.Equal(t, "move", e.Mode)
	assert.Equal(t, 3, e.Summary.Candidates)
	assert.Equal(t, int64(42), e.Summary.PlacedBytes)
	require.Len(t, e.Files, 2)
	assert.Equal(t, "no timestamp", e.Files[1].Error)
	assert.Equal(t, types.StatusSkipped, e.Files[1].Status)
}

func TestManifest_SaveAndGet(t *testing.T) {
	t.Parallel()
	m := setupTestManifest(t)

	e := &Entry{Mode: "copy", Source: "/src", Destination: "/dst",
		Files: []FileRecord{{Source: "/src/a.jpg", Status: types.StatusPlaced}}}
	require.NoError(t, m.Save(e))
	require.NotEmpty(t, e.ID)
	assert.False(t, e.Timestamp.IsZero())

	got, err := m.Get(e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, "/src/a.jpg", got.Files[0].Source)

	byPrefix, err := m.Get(e.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, e.ID, byPrefix.ID)

	leftovers, err := filepath.Glob(filepath.Join(m.Dir(), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestManifest_GetErrors(t *testing.T) {
	t.Parallel()
	m := setupTestManifest(t)

	_, err := m.Get("")
	assert.Error(t, err)

	_, err = m.Get("missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, m.Save(&Entry{ID: "abc-1"}))
	require.NoError(t, m.Save(&Entry{ID: "abc-2"}))
	_, err = m.Get("abc")
	assert.True(t, errors.Is(err, ErrAmbiguous))

	got, err := m.Get("abc-2")
	require.NoError(t, err)
	assert.Equal(t, "abc-2", got.ID)
}

func TestManifest_List(t *testing.T) {
	t.Parallel()
	m := setupTestManifest(t)

	entries, err := m.List(0)
	require.NoError(t, err)
	assert.Empty(t, entries, "missing directory lists nothing")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		require.NoError(t, m.Save(&Entry{ID: id, Timestamp: base.Add(time.Duration(i) * time.Hour)}))
	}
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "junk.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "notes.txt"), []byte("x"), 0o644))

	entries, err = m.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "third", entries[0].ID)
	assert.Equal(t, "first", entries[2].ID)

	entries, err = m.List(2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestManifest_Clean(t *testing.T) {
	t.Parallel()
	m := setupTestManifest(t)

	require.NoError(t, m.Save(&Entry{ID: "old", Timestamp: time.Now().AddDate(0, 0, -30)}))
	require.NoError(t, m.Save(&Entry{ID: "new", Timestamp: time.Now()}))

	removed, err := m.Clean(0)
	require.NoError(t, err)
	assert.Equal(t, 0, removed, "zero retention keeps everything")

	removed, err = m.Clean(7)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	entries, err := m.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "new", entries[0].ID)
}
