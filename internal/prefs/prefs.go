package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Documented keys. Values are plain strings; booleans are stored as "true".
const (
	// KeyMapPreference remembers the driver's map app choice: "google" or
	// "apple". No expiry.
	KeyMapPreference = "map_preference"

	// KeyBannerDismissed records that the iOS "add to home screen" hint
	// was dismissed and must not be shown again.
	KeyBannerDismissed = "install_banner_dismissed"
)

// Store is a small durable key-value preference store backed by one JSON
// file. It replaces ambient access to device-local storage: collaborators
// get a *Store injected and read the documented keys explicitly.
type Store struct {
	path string

	mu     sync.Mutex
	values map[string]string
}

// Open loads the store at path, creating an empty one if the file does not
// exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read preferences %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("parse preferences %s: %w", path, err)
	}
	return s, nil
}

// Get returns the stored value for key, or "" when unset.
func (s *Store) Get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

// GetBool returns whether key is stored as "true".
func (s *Store) GetBool(key string) bool {
	return s.Get(key) == "true"
}

// Set stores a value durably.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return s.save()
}

// SetBool stores a boolean durably.
func (s *Store) SetBool(key string, v bool) error {
	if v {
		return s.Set(key, "true")
	}
	return s.Set(key, "false")
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create preferences dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write preferences %s: %w", s.path, err)
	}
	return nil
}
