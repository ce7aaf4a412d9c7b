package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collector receives batches from Run.
type collector struct {
	mu      sync.Mutex
	batches [][]string
}

func (c *collector) onBatch(_ context.Context, paths []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, paths)
}

func (c *collector) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, b := range c.batches {
		out = append(out, b...)
	}
	return out
}

func start(t *testing.T, w *Watcher) *collector {
	t.Helper()
	c := &collector{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx, 50*time.Millisecond, c.onBatch)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = w.Close()
	})
	return c
}

func write(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestWatch_TracksSubdirectories(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "a", "b")
	skip := filepath.Join(root, "library")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(skip, "2021"), 0o755))

	w, err := New(skip)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Watch(root))
	assert.Equal(t, []string{root, filepath.Join(root, "a"), sub}, w.Paths())
}

func TestWatch_Errors(t *testing.T) {
	w, err := New()
	require.NoError(t, err)
	defer w.Close()

	assert.Error(t, w.Watch(filepath.Join(t.TempDir(), "nope")))

	file := filepath.Join(t.TempDir(), "f.jpg")
	write(t, file)
	assert.Error(t, w.Watch(file))
}

func TestRun_BatchesMediaFiles(t *testing.T) {
	root := t.TempDir()
	w, err := New()
	require.NoError(t, err)
	require.NoError(t, w.Watch(root))
	c := start(t, w)

	write(t, filepath.Join(root, "a.jpg"))
	write(t, filepath.Join(root, "notes.txt"))

	assert.Eventually(t, func() bool { return len(c.all()) > 0 }, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{filepath.Join(root, "a.jpg")}, c.all())
}

func TestRun_NewDirectory(t *testing.T) {
	root := t.TempDir()
	w, err := New()
	require.NoError(t, err)
	require.NoError(t, w.Watch(root))
	c := start(t, w)

	clip := filepath.Join(root, "trip", "day1", "clip.MP4")
	write(t, clip)

	assert.Eventually(t, func() bool {
		for _, p := range c.all() {
			if p == clip {
				return true
			}
		}
		return false
	}, 3*time.Second, 20*time.Millisecond)
	assert.Contains(t, w.Paths(), filepath.Join(root, "trip", "day1"))
}

func TestRun_SkipsDestination(t *testing.T) {
	root := t.TempDir()
	skip := filepath.Join(root, "library")
	w, err := New(skip)
	require.NoError(t, err)
	require.NoError(t, w.Watch(root))
	c := start(t, w)

	write(t, filepath.Join(skip, "2021", "01", "01", "x.jpg"))
	marker := filepath.Join(root, "marker.png")
	write(t, marker)

	assert.Eventually(t, func() bool { return len(c.all()) > 0 }, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{marker}, c.all())
	assert.NotContains(t, w.Paths(), skip)
}

func TestRun_RemovedDirectoryIsUnwatched(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	w, err := New()
	require.NoError(t, err)
	require.NoError(t, w.Watch(root))
	start(t, w)

	require.NoError(t, os.RemoveAll(sub))
	assert.Eventually(t, func() bool {
		for _, p := range w.Paths() {
			if p == sub {
				return false
			}
		}
		return true
	}, 3*time.Second, 20*time.Millisecond)
}

func TestClose_Idempotent(t *testing.T) {
	w, err := New()
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.Empty(t, w.Paths())
}
