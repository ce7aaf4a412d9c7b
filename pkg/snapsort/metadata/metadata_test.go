package metadata

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/snapsort/pkg/snapsort/testmedia"
)

func TestResolveTimestamp_JPEG(t *testing.T) {
	dir := t.TempDir()
	path := testmedia.Write(t, filepath.Join(dir, "IMG_0001.JPG"), testmedia.JPEG("2021:01:01 00:00:00", "payload"))

	ts, err := Resolver{}.ResolveTimestamp(path)
	require.NoError(t, err)
	assert.Equal(t, "2021:01:01 00:00:00", ts)
}

func TestResolveTimestamp_PNG(t *testing.T) {
	dir := t.TempDir()
	path := testmedia.Write(t, filepath.Join(dir, "shot.png"), testmedia.PNG("2019:07:04 18:30:00", "x"))

	ts, err := Resolver{}.ResolveTimestamp(path)
	require.NoError(t, err)
	assert.Equal(t, "2019:07:04 18:30:00", ts)
}

func TestResolveTimestamp_Verbatim(t *testing.T) {
	dir := t.TempDir()
	path := testmedia.Write(t, filepath.Join(dir, "odd.jpeg"), testmedia.JPEG("2020:2:3 4:5:6", ""))

	ts, err := Resolver{}.ResolveTimestamp(path)
	require.NoError(t, err)
	assert.Equal(t, "2020:2:3 4:5:6", ts)
}

func TestResolveTimestamp_MP4(t *testing.T) {
	dir := t.TempDir()
	created := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	path := testmedia.Write(t, filepath.Join(dir, "clip.MP4"), testmedia.MP4(created, "frames"))

	ts, err := Resolver{}.ResolveTimestamp(path)
	require.NoError(t, err)
	assert.Equal(t, "2021:01:01 00:00:00", ts)
}

func TestMvhdTime(t *testing.T) {
	got, err := mvhdTime(uint64(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC).Sub(mp4Epoch) / time.Second))
	require.NoError(t, err)
	assert.Equal(t, "2021:01:01 00:00:00", formatUTC(got))

	got, err = mvhdTime(uint64(maxMvhdSeconds))
	require.NoError(t, err)
	assert.True(t, got.After(mp4Epoch))

	for _, secs := range []uint64{0, uint64(maxMvhdSeconds) + 1, 1 << 40, math.MaxUint64} {
		_, err := mvhdTime(secs)
		assert.True(t, errors.Is(err, ErrNoTimestamp), "secs=%d err=%v", secs, err)
	}
}

func TestResolveTimestamp_Missing(t *testing.T) {
	dir := t.TempDir()
	cases := map[string][]byte{
		"bare.jpg":    testmedia.JPEG("", "no exif here"),
		"bare.png":    testmedia.PNG("", "no exif here"),
		"zero.mp4":    testmedia.MP4(time.Time{}, "frames"),
		"garbage.mp4": []byte("not an mp4 at all"),
		"empty.jpg":   nil,
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			path := testmedia.Write(t, filepath.Join(dir, name), data)

			_, err := Resolver{}.ResolveTimestamp(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNoTimestamp), "error = %v", err)
			assert.Contains(t, err.Error(), path)
		})
	}
}

func TestResolveTimestamp_MtimeFallback(t *testing.T) {
	dir := t.TempDir()
	path := testmedia.Write(t, filepath.Join(dir, "bare.jpg"), testmedia.JPEG("", "x"))
	mtime := time.Date(2018, 5, 6, 7, 8, 9, 0, time.Local)
	require.NoError(t, os.Chtimes(path, mtime, mtime))

	ts, err := Resolver{MtimeFallback: true}.ResolveTimestamp(path)
	require.NoError(t, err)
	assert.Equal(t, "2018:05:06 07:08:09", ts)

	// Embedded metadata still wins.
	tagged := testmedia.Write(t, filepath.Join(dir, "tagged.jpg"), testmedia.JPEG("2021:01:01 00:00:00", ""))
	require.NoError(t, os.Chtimes(tagged, mtime, mtime))
	ts, err = Resolver{MtimeFallback: true}.ResolveTimestamp(tagged)
	require.NoError(t, err)
	assert.Equal(t, "2021:01:01 00:00:00", ts)
}

func TestResolveTimestamp_OpenError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.jpg")

	_, err := Resolver{MtimeFallback: true}.ResolveTimestamp(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.False(t, errors.Is(err, ErrNoTimestamp))
}

func TestFunc(t *testing.T) {
	f := Func(func(string) (string, error) { return "2000:01:01 00:00:00", nil })
	ts, err := f.ResolveTimestamp("any")
	require.NoError(t, err)
	assert.Equal(t, "2000:01:01 00:00:00", ts)
}
