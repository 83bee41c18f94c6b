package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rayhunter-go/rayhunter/internal/constants"
	"github.com/rayhunter-go/rayhunter/internal/logging"
	"github.com/rayhunter-go/rayhunter/internal/qmdl"
	"github.com/rayhunter-go/rayhunter/internal/rherr"
)

// Store is the recording store guarded by a single RW lock (spec §4.4,
// §5). Mutators take the write lock; the critical section is always the
// manifest and size fields, never I/O against the diag device.
type Store struct {
	mu       sync.RWMutex
	root     string
	manifest manifestFile
	logger   *logging.Logger
}

// Open loads (or initializes) the recording store rooted at dir.
func Open(dir string) (*Store, error) {
	const op = "store.Open"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, rherr.Wrap(op, rherr.CodeIoError, err)
	}

	m, err := loadManifest(filepath.Join(dir, constants.ManifestFileName))
	if err != nil {
		return nil, rherr.Wrap(op, rherr.CodeStoreError, err)
	}

	return &Store{root: dir, manifest: m, logger: logging.Default()}, nil
}

func (s *Store) manifestPath() string {
	return filepath.Join(s.root, constants.ManifestFileName)
}

func (s *Store) qmdlPath(name string) string     { return filepath.Join(s.root, name+".qmdl") }
func (s *Store) analysisPath(name string) string { return filepath.Join(s.root, name+".ndjson") }

func (s *Store) flushLocked() error {
	return saveManifest(s.manifestPath(), s.manifest)
}

// Entries returns a snapshot of every entry in store order.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.manifest.Entries))
	copy(out, s.manifest.Entries)
	return out
}

// CurrentIndex returns the index of the entry currently being recorded, or
// -1 if none.
func (s *Store) CurrentIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.manifest.CurrentEntry == nil {
		return -1
	}
	return *s.manifest.CurrentEntry
}

// EntryForName returns the index and a copy of the entry named name.
func (s *Store) EntryForName(name string) (int, Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, e := range s.manifest.Entries {
		if e.Name == name {
			return i, e, true
		}
	}
	return -1, Entry{}, false
}

func uniqueName(existing map[string]bool, now time.Time) string {
	base := now.UTC().Format("20060102T150405Z")
	name := base
	for i := 1; existing[name]; i++ {
		name = fmt.Sprintf("%s-%d", base, i)
	}
	return name
}

// NewEntry closes any current entry, allocates a new collision-free name,
// creates both backing files, and returns its index and a QMDL writer
// bound to its file (spec §4.4).
func (s *Store) NewEntry() (int, *qmdl.Writer, error) {
	const op = "store.NewEntry"
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.manifest.CurrentEntry != nil {
		if err := s.closeCurrentEntryLocked(); err != nil {
			return 0, nil, rherr.Wrap(op, rherr.CodeStoreError, err)
		}
	}

	existing := make(map[string]bool, len(s.manifest.Entries))
	for _, e := range s.manifest.Entries {
		existing[e.Name] = true
	}
	name := uniqueName(existing, time.Now())

	qmdlPath := s.qmdlPath(name)
	analysisPath := s.analysisPath(name)
	if _, err := os.Stat(qmdlPath); err == nil {
		return 0, nil, rherr.Wrap(op, rherr.CodeStoreError, rherr.ErrStoreNameCollision)
	}

	qf, err := os.OpenFile(qmdlPath, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, nil, rherr.Wrap(op, rherr.CodeIoError, err)
	}
	af, err := os.OpenFile(analysisPath, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		qf.Close()
		os.Remove(qmdlPath)
		return 0, nil, rherr.Wrap(op, rherr.CodeIoError, err)
	}
	af.Close() // the analysis task owns its own handle when it runs

	entry := Entry{Name: name, StartTime: time.Now().UTC()}
	s.manifest.Entries = append(s.manifest.Entries, entry)
	idx := len(s.manifest.Entries) - 1
	s.manifest.CurrentEntry = &idx

	if err := s.flushLocked(); err != nil {
		return 0, nil, rherr.Wrap(op, rherr.CodeStoreError, err)
	}

	s.logger.Info("new recording entry", "name", name, "index", idx)
	return idx, qmdl.NewWriter(qf), nil
}

// UpdateEntrySize advances an entry's byte counters. Either counter may be
// left nil to leave it untouched; a non-nil value that would decrease its
// counter is rejected. Both counters are monotonic (spec §3, §4.4, §8).
func (s *Store) UpdateEntrySize(index int, qmdlBytes *uint64, analysisBytes *uint64) error {
	const op = "store.UpdateEntrySize"
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.manifest.Entries) {
		return rherr.Wrap(op, rherr.CodeStoreError, rherr.ErrStoreEntryNotFound)
	}
	e := &s.manifest.Entries[index]
	if qmdlBytes != nil && *qmdlBytes < e.QmdlSizeBytes {
		return rherr.Wrap(op, rherr.CodeStoreError, rherr.ErrStoreSizeWentBack)
	}
	if analysisBytes != nil && *analysisBytes < e.AnalysisSizeBytes {
		return rherr.Wrap(op, rherr.CodeStoreError, rherr.ErrStoreSizeWentBack)
	}

	if qmdlBytes != nil {
		e.QmdlSizeBytes = *qmdlBytes
	}
	now := time.Now().UTC()
	e.LastMessageTime = &now
	if analysisBytes != nil {
		e.AnalysisSizeBytes = *analysisBytes
	}

	return s.flushLocked()
}

// CloseCurrentEntry clears the current-entry marker and flushes the
// manifest.
func (s *Store) CloseCurrentEntry() error {
	const op = "store.CloseCurrentEntry"
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.closeCurrentEntryLocked(); err != nil {
		return rherr.Wrap(op, rherr.CodeStoreError, err)
	}
	return nil
}

func (s *Store) closeCurrentEntryLocked() error {
	s.manifest.CurrentEntry = nil
	return s.flushLocked()
}

// DeleteEntry removes an entry's files and manifest record. Deleting the
// current entry is forbidden (spec §4.4, §7).
func (s *Store) DeleteEntry(name string) error {
	const op = "store.DeleteEntry"
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, e := range s.manifest.Entries {
		if e.Name == name {
			idx = i
			break
		}
	}
	if idx == -1 {
		return rherr.Wrap(op, rherr.CodeStoreError, rherr.ErrStoreEntryNotFound)
	}
	if s.manifest.CurrentEntry != nil && *s.manifest.CurrentEntry == idx {
		return rherr.Wrap(op, rherr.CodeStoreError, rherr.ErrStoreCurrentEntry)
	}

	if err := os.Remove(s.qmdlPath(name)); err != nil && !os.IsNotExist(err) {
		return rherr.Wrap(op, rherr.CodeIoError, err)
	}
	if err := os.Remove(s.analysisPath(name)); err != nil && !os.IsNotExist(err) {
		return rherr.Wrap(op, rherr.CodeIoError, err)
	}

	s.manifest.Entries = append(s.manifest.Entries[:idx], s.manifest.Entries[idx+1:]...)
	if s.manifest.CurrentEntry != nil && *s.manifest.CurrentEntry > idx {
		*s.manifest.CurrentEntry--
	}

	return s.flushLocked()
}

// OpenEntryQmdl opens a read-only handle on an entry's QMDL file.
func (s *Store) OpenEntryQmdl(index int) (*os.File, error) {
	const op = "store.OpenEntryQmdl"
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.manifest.Entries) {
		return nil, rherr.Wrap(op, rherr.CodeStoreError, rherr.ErrStoreEntryNotFound)
	}
	f, err := os.Open(s.qmdlPath(s.manifest.Entries[index].Name))
	if err != nil {
		return nil, rherr.Wrap(op, rherr.CodeIoError, err)
	}
	return f, nil
}

// OpenEntryAnalysis opens a read-write handle on an entry's analysis file
// (read-write because the analysis task appends rows to it).
func (s *Store) OpenEntryAnalysis(index int) (*os.File, error) {
	const op = "store.OpenEntryAnalysis"
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.manifest.Entries) {
		return nil, rherr.Wrap(op, rherr.CodeStoreError, rherr.ErrStoreEntryNotFound)
	}
	f, err := os.OpenFile(s.analysisPath(s.manifest.Entries[index].Name), os.O_RDWR, 0o644)
	if err != nil {
		return nil, rherr.Wrap(op, rherr.CodeIoError, err)
	}
	return f, nil
}

// Root returns the store's backing directory.
func (s *Store) Root() string { return s.root }
