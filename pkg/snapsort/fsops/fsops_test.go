package fsops

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), mode))
}

func TestCopy_PreservesContentModeAndTime(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "a.jpg")
	dst := filepath.Join(dir, "dst", "b.jpg")
	writeFile(t, src, "pixels", 0o600)
	mtime := time.Date(2020, 2, 22, 13, 37, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, mtime, mtime))
	require.NoError(t, EnsureDir(filepath.Dir(dst)))

	require.NoError(t, Copy(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	assert.True(t, info.ModTime().Equal(mtime), "mtime = %v, want %v", info.ModTime(), mtime)

	_, err = os.Stat(src)
	assert.NoError(t, err, "source must remain after copy")

	entries, err := os.ReadDir(filepath.Dir(dst))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.Name(), ".tmp-"), "temporary file left behind: %s", e.Name())
	}
}

func TestCopy_RefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.jpg")
	dst := filepath.Join(dir, "b.jpg")
	writeFile(t, src, "new", 0o644)
	writeFile(t, dst, "old", 0o644)

	err := Copy(src, dst)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrExist))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestCopy_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := Copy(filepath.Join(dir, "missing.jpg"), filepath.Join(dir, "out.jpg"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCopy_MissingDestinationDir(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.jpg")
	writeFile(t, src, "x", 0o644)

	err := Copy(src, filepath.Join(dir, "no", "such", "dir", "a.jpg"))
	assert.Error(t, err)
}

func TestMove_SameFilesystem(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mp4")
	dst := filepath.Join(dir, "out", "b.mp4")
	writeFile(t, src, "frames", 0o644)
	require.NoError(t, EnsureDir(filepath.Dir(dst)))

	require.NoError(t, Move(src, dst))

	_, err := os.Stat(src)
	assert.True(t, errors.Is(err, os.ErrNotExist), "source still present")
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "frames", string(data))
}

func TestMove_RefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mp4")
	dst := filepath.Join(dir, "b.mp4")
	writeFile(t, src, "new", 0o644)
	writeFile(t, dst, "old", 0o644)

	err := Move(src, dst)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrExist))

	_, err = os.Stat(src)
	assert.NoError(t, err, "source must remain when move is refused")
}

func TestMove_CrossDeviceFallsBackToCopy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.jpg")
	dst := filepath.Join(dir, "out", "a.jpg")
	writeFile(t, src, "across", 0o644)
	require.NoError(t, EnsureDir(filepath.Dir(dst)))

	orig := renameFunc
	t.Cleanup(func() { renameFunc = orig })
	renameFunc = func(oldpath, newpath string) error {
		if oldpath == src {
			return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EXDEV}
		}
		return orig(oldpath, newpath)
	}

	require.NoError(t, Move(src, dst))

	_, err := os.Stat(src)
	assert.True(t, errors.Is(err, os.ErrNotExist), "source still present after cross-device move")
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "across", string(data))
}

func TestRename_MarksCrossDevice(t *testing.T) {
	orig := renameFunc
	t.Cleanup(func() { renameFunc = orig })
	renameFunc = func(oldpath, newpath string) error {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EXDEV}
	}

	err := Rename("/a", "/b")
	require.Error(t, err)
	assert.True(t, IsCrossDevice(err))
	assert.True(t, errors.Is(err, syscall.EXDEV))

	var cde *CrossDeviceError
	require.True(t, errors.As(err, &cde))
	assert.Equal(t, "/a", cde.Src)
	assert.Equal(t, "/b", cde.Dst)
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "2020", "02", "22")
	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
