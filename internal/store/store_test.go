package store

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rayhunter-go/rayhunter/internal/rherr"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	return s
}

func TestNewEntryCreatesFilesAndMarksCurrent(t *testing.T) {
	s := newTestStore(t)

	idx, w, err := s.NewEntry()
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 0, s.CurrentIndex())

	entries := s.Entries()
	require.Len(t, entries, 1)
	_, err = os.Stat(s.qmdlPath(entries[0].Name))
	assert.NoError(t, err)
	_, err = os.Stat(s.analysisPath(entries[0].Name))
	assert.NoError(t, err)
}

func TestNewEntryClosesPriorCurrent(t *testing.T) {
	s := newTestStore(t)

	idx1, _, err := s.NewEntry()
	require.NoError(t, err)
	idx2, _, err := s.NewEntry()
	require.NoError(t, err)

	assert.NotEqual(t, idx1, idx2)
	assert.Equal(t, idx2, s.CurrentIndex())
}

func TestUpdateEntrySizeRejectsDecrease(t *testing.T) {
	s := newTestStore(t)
	idx, _, err := s.NewEntry()
	require.NoError(t, err)

	hundred, fifty := uint64(100), uint64(50)
	require.NoError(t, s.UpdateEntrySize(idx, &hundred, nil))
	err = s.UpdateEntrySize(idx, &fifty, nil)
	assert.ErrorIs(t, err, rherr.ErrStoreSizeWentBack)

	entries := s.Entries()
	assert.Equal(t, uint64(100), entries[idx].QmdlSizeBytes)
}

func TestUpdateEntrySizeUnknownIndex(t *testing.T) {
	s := newTestStore(t)
	one := uint64(1)
	err := s.UpdateEntrySize(7, &one, nil)
	assert.ErrorIs(t, err, rherr.ErrStoreEntryNotFound)
}

func TestCloseCurrentEntryClearsMarker(t *testing.T) {
	s := newTestStore(t)
	_, _, err := s.NewEntry()
	require.NoError(t, err)

	require.NoError(t, s.CloseCurrentEntry())
	assert.Equal(t, -1, s.CurrentIndex())
}

func TestDeleteEntryForbidsCurrent(t *testing.T) {
	s := newTestStore(t)
	_, _, err := s.NewEntry()
	require.NoError(t, err)
	entries := s.Entries()

	err = s.DeleteEntry(entries[0].Name)
	assert.ErrorIs(t, err, rherr.ErrStoreCurrentEntry)
}

func TestDeleteEntryRemovesFiles(t *testing.T) {
	s := newTestStore(t)
	_, _, err := s.NewEntry()
	require.NoError(t, err)
	first := s.Entries()[0]

	_, _, err = s.NewEntry() // closes first, makes a new current
	require.NoError(t, err)

	require.NoError(t, s.DeleteEntry(first.Name))
	_, err = os.Stat(s.qmdlPath(first.Name))
	assert.True(t, os.IsNotExist(err))

	_, _, found := s.EntryForName(first.Name)
	assert.False(t, found)
}

func TestEntryForNameMissing(t *testing.T) {
	s := newTestStore(t)
	_, _, found := s.EntryForName("does-not-exist")
	assert.False(t, found)
}

func TestOpenEntryQmdlAndAnalysis(t *testing.T) {
	s := newTestStore(t)
	idx, w, err := s.NewEntry()
	require.NoError(t, err)
	require.NotNil(t, w)

	qf, err := s.OpenEntryQmdl(idx)
	require.NoError(t, err)
	qf.Close()

	af, err := s.OpenEntryAnalysis(idx)
	require.NoError(t, err)
	af.Close()
}

func TestOpenReopensManifestAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	s1, err := Open(dir)
	require.NoError(t, err)
	idx, _, err := s1.NewEntry()
	require.NoError(t, err)
	fortyTwo := uint64(42)
	require.NoError(t, s1.UpdateEntrySize(idx, &fortyTwo, nil))

	s2, err := Open(dir)
	require.NoError(t, err)
	entries := s2.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(42), entries[0].QmdlSizeBytes)
	assert.Equal(t, 0, s2.CurrentIndex())
}
