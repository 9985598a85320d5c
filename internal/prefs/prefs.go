// Package prefs persists user-facing selections (the active currency pair)
// between runs, the way a frontend would keep them in local storage.
package prefs

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Prefs is the persisted preference document.
type Prefs struct {
	QuoteCurrencyKey string `json:"quoteCurrencyKey,omitempty"`
	BaseCurrencyKey  string `json:"baseCurrencyKey,omitempty"`
	WalletAddress    string `json:"walletAddress,omitempty"`
}

// Store reads and writes preferences as a JSON file.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the preference file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "kwentad", "prefs.json"), nil
}

// Load reads the preference file. A missing file yields empty preferences.
func (s *Store) Load() (Prefs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Prefs{}, nil
		}
		return Prefs{}, err
	}

	var p Prefs
	if err := json.Unmarshal(data, &p); err != nil {
		// A corrupt file is treated as empty rather than fatal.
		return Prefs{}, nil
	}
	return p, nil
}

// Save writes the preference file, creating parent directories as needed.
func (s *Store) Save(p Prefs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
