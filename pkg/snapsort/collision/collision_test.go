package collision

import (
	"crypto/md5"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/snapsort/pkg/snapsort/types"
)

var candidate = types.DestinationCandidate{
	Subdirectory: filepath.Join("2020", "02", "22"),
	Basename:     "2020-02-22-13.37.05",
	Extension:    ".jpg",
}

func fpOf(s string) types.Fingerprint {
	return types.Fingerprint(md5.Sum([]byte(s)))
}

func place(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestResolve_CollisionSequence(t *testing.T) {
	root := t.TempDir()
	r := New(nil, 0)

	path0 := filepath.Join(root, "2020", "02", "22", "2020-02-22-13.37.05.jpg")
	want := []struct {
		content string
		path    string
		present bool
	}{
		{"first", path0, false},
		{"second", filepath.Join(root, "2020", "02", "22", "2020-02-22-13.37.05(0).jpg"), false},
		{"third", filepath.Join(root, "2020", "02", "22", "2020-02-22-13.37.05(1).jpg"), false},
		{"first", path0, true},
	}

	for i, w := range want {
		res, err := r.Resolve(root, candidate, fpOf(w.content))
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, w.path, res.Path, "step %d", i)
		assert.Equal(t, w.present, res.AlreadyPresent, "step %d", i)
		if !res.AlreadyPresent {
			place(t, res.Path, w.content)
		}
	}
}

func TestResolve_ExistingDestination(t *testing.T) {
	root := t.TempDir()
	path0 := candidate.Path(root, -1)
	path1 := candidate.Path(root, 0)
	place(t, path0, "old photo")
	place(t, path1, "new photo")

	res, err := New(nil, 0).Resolve(root, candidate, fpOf("new photo"))
	require.NoError(t, err)
	assert.Equal(t, path1, res.Path)
	assert.Equal(t, 0, res.Slot)
	assert.True(t, res.AlreadyPresent)

	res, err = New(nil, 0).Resolve(root, candidate, fpOf("third photo"))
	require.NoError(t, err)
	assert.Equal(t, candidate.Path(root, 1), res.Path)
	assert.False(t, res.AlreadyPresent)
}

func TestResolve_ClaimsWithoutWriting(t *testing.T) {
	root := t.TempDir()
	r := New(nil, 0)

	a, err := r.Resolve(root, candidate, fpOf("a"))
	require.NoError(t, err)
	b, err := r.Resolve(root, candidate, fpOf("b"))
	require.NoError(t, err)
	again, err := r.Resolve(root, candidate, fpOf("a"))
	require.NoError(t, err)

	assert.Equal(t, candidate.Path(root, -1), a.Path)
	assert.Equal(t, candidate.Path(root, 0), b.Path)
	assert.Equal(t, a.Path, again.Path)
	assert.True(t, again.AlreadyPresent)
	assert.Equal(t, 2, r.Claims())

	_, err = os.Stat(filepath.Join(root, "2020"))
	assert.True(t, errors.Is(err, os.ErrNotExist), "resolve must not create directories")
}

func TestResolve_Release(t *testing.T) {
	root := t.TempDir()
	r := New(nil, 0)

	a, err := r.Resolve(root, candidate, fpOf("a"))
	require.NoError(t, err)
	r.Release(a.Path)

	b, err := r.Resolve(root, candidate, fpOf("b"))
	require.NoError(t, err)
	assert.Equal(t, a.Path, b.Path, "released slot should be reused")
}

func TestResolve_NonRegularOccupant(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(candidate.Path(root, -1), 0o755))

	res, err := New(nil, 0).Resolve(root, candidate, fpOf("a"))
	require.NoError(t, err)
	assert.Equal(t, candidate.Path(root, 0), res.Path)
}

func TestResolve_TooManyCollisions(t *testing.T) {
	root := t.TempDir()
	place(t, candidate.Path(root, -1), "x")
	place(t, candidate.Path(root, 0), "y")

	_, err := New(nil, 2).Resolve(root, candidate, fpOf("z"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooManyCollisions))
}

func TestResolve_OccupantDigestError(t *testing.T) {
	root := t.TempDir()
	place(t, candidate.Path(root, -1), "x")

	boom := errors.New("read failed")
	r := New(func(string) (types.Fingerprint, error) { return types.Fingerprint{}, boom }, 0)

	_, err := r.Resolve(root, candidate, fpOf("z"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), candidate.Path(root, -1))
	assert.Zero(t, r.Claims())
}
