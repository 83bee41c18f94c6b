package httpapi

import (
	"net/http"
	"sync"

	"github.com/rayhunter-go/rayhunter/internal/config"
)

// ConfigStore guards the live *config.Config with a reader/writer lock so
// HTTP handlers can read it concurrently with PUT /api/config swapping it
// out, and so read-only mode can be checked on every mutating request
// (spec §6 "403 if read-only mode").
type ConfigStore struct {
	mu   sync.RWMutex
	path string
	cfg  *config.Config
}

// NewConfigStore wraps an already-loaded config bound to the file it came
// from, used to persist PUT /api/config.
func NewConfigStore(path string, cfg *config.Config) *ConfigStore {
	return &ConfigStore{path: path, cfg: cfg}
}

// Get returns a copy-free snapshot pointer; callers must not mutate it.
func (c *ConfigStore) Get() *config.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// ReadOnly reports whether the live config has read_only_mode set.
func (c *ConfigStore) ReadOnly() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.ReadOnlyMode
}

// Replace saves newCfg to disk and swaps it in as the live config.
func (c *ConfigStore) Replace(newCfg *config.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := config.Save(c.path, newCfg); err != nil {
		return err
	}
	c.cfg = newCfg
	return nil
}

// guarded rejects the request with 403 when the config's read_only_mode
// is set, otherwise dispatches to next (spec §6).
func (s *Server) guarded(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg != nil && s.cfg.ReadOnly() {
			writeError(w, http.StatusForbidden, "read-only mode")
			return
		}
		next(w, r)
	}
}
