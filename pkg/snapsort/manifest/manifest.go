package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jamesainslie/snapsort/pkg/snapsort/logging"
)

// ErrNotFound is returned by Get when no entry matches.
var ErrNotFound = errors.New("manifest entry not found")

// ErrAmbiguous is returned by Get when an ID prefix matches several entries.
var ErrAmbiguous = errors.New("ambiguous manifest entry id")

const stampLayout = "2006-01-02T15-04-05"

// Manifest stores entries as JSON files in one directory.
type Manifest struct {
	dir string
	mu  sync.Mutex
}

// New returns a manifest rooted at dir. The directory is created on the
// first Save.
func New(dir string) (*Manifest, error) {
	if dir == "" {
		return nil, errors.New("manifest directory cannot be empty")
	}
	return &Manifest{dir: dir}, nil
}

// Dir returns the manifest directory.
func (m *Manifest) Dir() string { return m.dir }

// Save assigns the entry an ID when it has none and writes it atomically.
func (m *Manifest) Save(e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	path := filepath.Join(m.dir, filename(e))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	logging.Get("manifest").Debug("entry saved", "id", e.ID, "path", path)
	return nil
}

// List returns entries newest first. A limit of zero or less returns all.
func (m *Manifest) List(limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.readAll()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Get returns the entry whose ID equals id, or the single entry whose ID
// starts with it.
func (m *Manifest) Get(id string) (*Entry, error) {
	if id == "" {
		return nil, errors.New("entry ID cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.readAll()
	if err != nil {
		return nil, err
	}

	var match *Entry
	for i := range entries {
		e := &entries[i]
		if e.ID == id {
			return e, nil
		}
		if strings.HasPrefix(e.ID, id) {
			if match != nil {
				return nil, fmt.Errorf("%w: %s", ErrAmbiguous, id)
			}
			match = e
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return match, nil
}

// Clean removes entries recorded more than retentionDays ago and returns how
// many were removed. A retention of zero keeps everything.
func (m *Manifest) Clean(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	names, err := m.entryFiles()
	if err != nil {
		return 0, err
	}

	log := logging.Get("manifest")
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, name := range names {
		e, err := m.readFile(name)
		if err != nil {
			continue
		}
		if !e.Timestamp.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, name)); err != nil {
			log.Warn("failed to remove entry", "file", name, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

func (m *Manifest) readAll() ([]Entry, error) {
	names, err := m.entryFiles()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		e, err := m.readFile(name)
		if err != nil {
			logging.Get("manifest").Debug("skipping unreadable entry", "file", name, "error", err)
			continue
		}
		entries = append(entries, *e)
	}
	return entries, nil
}

func (m *Manifest) entryFiles() ([]string, error) {
	dirents, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read manifest directory: %w", err)
	}
	var names []string
	for _, d := range dirents {
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			continue
		}
		names = append(names, d.Name())
	}
	return names, nil
}

func (m *Manifest) readFile(name string) (*Entry, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
	}
	return &e, nil
}

// filename sorts lexically by time and stays unique through the ID.
func filename(e *Entry) string {
	return fmt.Sprintf("%s_%s.json", e.Timestamp.UTC().Format(stampLayout), e.ID)
}
