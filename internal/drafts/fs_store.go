package drafts

import (
	"bytes"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const defaultRetentionDays = 14

// FSStore keeps drafts as JSON files under basePath/drafts and records every
// write in basePath/manifest.json. Writes go through a temp file and rename.
type FSStore struct {
	basePath      string
	retentionDays int
	now           func() time.Time

	mu sync.Mutex
}

// NewFSStore constructs a filesystem store with a rolling retention window.
func NewFSStore(basePath string, retentionDays int) *FSStore {
	if retentionDays <= 0 {
		retentionDays = defaultRetentionDays
	}
	return &FSStore{
		basePath:      basePath,
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

// BasePath exposes the store root.
func (s *FSStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// Get reads a draft. A missing file is reported as ok=false without error.
func (s *FSStore) Get(key string) ([]byte, bool, error) {
	if s == nil {
		return nil, false, errNotConfigured
	}
	if key == "" {
		return nil, false, errors.New("draft key required")
	}
	data, err := os.ReadFile(DraftPath(s.basePath, key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set writes a draft and stamps it in the manifest.
func (s *FSStore) Set(key string, value []byte) error {
	if s == nil {
		return errNotConfigured
	}
	if key == "" {
		return errors.New("draft key required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	target := DraftPath(s.basePath, key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if existing, err := os.ReadFile(target); err != nil || !bytes.Equal(existing, value) {
		if err := writeBytesAtomic(target, value); err != nil {
			return err
		}
	}
	return s.updateManifest(func(m *Manifest) {
		m.Drafts[key] = s.now().UTC()
	})
}

// Remove deletes a draft and its manifest entry.
func (s *FSStore) Remove(key string) error {
	if s == nil {
		return errNotConfigured
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(DraftPath(s.basePath, key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return s.updateManifest(func(m *Manifest) {
		delete(m.Drafts, key)
	})
}

// Prune removes drafts whose last write is older than the retention window and
// returns the removed keys in sorted order. Files missing from the manifest are
// aged by their modification time.
func (s *FSStore) Prune() ([]string, error) {
	if s == nil {
		return nil, errNotConfigured
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	cutoff := now.AddDate(0, 0, -s.retentionDays)
	m, _ := readManifest(manifestPath(s.basePath), s.retentionDays)

	keys, err := s.listKeys()
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, key := range keys {
		written, ok := m.Drafts[key]
		if !ok {
			info, err := os.Stat(DraftPath(s.basePath, key))
			if err != nil {
				continue
			}
			written = info.ModTime().UTC()
		}
		if !written.Before(cutoff) {
			m.Drafts[key] = written
			continue
		}
		if err := os.Remove(DraftPath(s.basePath, key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, err
		}
		delete(m.Drafts, key)
		removed = append(removed, key)
	}
	for key := range m.Drafts {
		if !containsKey(keys, key) {
			delete(m.Drafts, key)
		}
	}
	m.Retention.DraftDays = s.retentionDays
	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return removed, err
	}
	return removed, writeManifest(s.basePath, m, now)
}

// Manifest returns the current manifest contents.
func (s *FSStore) Manifest() (Manifest, error) {
	if s == nil {
		return Manifest{}, errNotConfigured
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return readManifest(manifestPath(s.basePath), s.retentionDays)
}

func (s *FSStore) updateManifest(apply func(*Manifest)) error {
	m, _ := readManifest(manifestPath(s.basePath), s.retentionDays)
	apply(&m)
	m.Retention.DraftDays = s.retentionDays
	return writeManifest(s.basePath, m, s.now())
}

func (s *FSStore) listKeys() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.basePath, "drafts"))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if filepath.Ext(name) != ".json" {
			continue
		}
		key, err := url.QueryUnescape(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func containsKey(keys []string, key string) bool {
	i := sort.SearchStrings(keys, key)
	return i < len(keys) && keys[i] == key
}
