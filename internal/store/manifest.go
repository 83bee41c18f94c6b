// Package store implements the rolling recording store (spec §3, §4.4): a
// directory of QMDL+analysis pairs bound together by manifest.toml, with
// single-writer semantics for whichever entry is current.
//
// manifest.toml is read/written with pelletier/go-toml/v2, the TOML codec
// used by marmos91-dittofs and guiperry-HASHER in the reference pack (see
// SPEC_FULL.md's domain-stack table).
package store

import (
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/rayhunter-go/rayhunter/internal/rherr"
)

// Entry is one recording: a name, its QMDL/analysis byte counters, and its
// timestamps (spec §3).
type Entry struct {
	Name              string     `toml:"name"`
	StartTime         time.Time  `toml:"start_time"`
	LastMessageTime   *time.Time `toml:"last_message_time,omitempty"`
	QmdlSizeBytes     uint64     `toml:"qmdl_size_bytes"`
	AnalysisSizeBytes uint64     `toml:"analysis_size_bytes"`
}

// manifestFile is the on-disk shape of manifest.toml.
type manifestFile struct {
	Entries      []Entry `toml:"entries"`
	CurrentEntry *int    `toml:"current_entry,omitempty"`
}

func loadManifest(path string) (manifestFile, error) {
	const op = "store.loadManifest"
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return manifestFile{}, nil
	}
	if err != nil {
		return manifestFile{}, rherr.Wrap(op, rherr.CodeIoError, err)
	}

	var m manifestFile
	if err := toml.Unmarshal(data, &m); err != nil {
		return manifestFile{}, rherr.Wrap(op, rherr.CodeStoreError, err)
	}
	return m, nil
}

func saveManifest(path string, m manifestFile) error {
	const op = "store.saveManifest"
	data, err := toml.Marshal(m)
	if err != nil {
		return rherr.Wrap(op, rherr.CodeStoreError, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return rherr.Wrap(op, rherr.CodeIoError, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return rherr.Wrap(op, rherr.CodeIoError, err)
	}
	return nil
}
