package client

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"staffsync/models"
)

// Session is the locally persisted snapshot: the credential plus the last
// known user and company. It is never authoritative; Restore overwrites or
// discards it based on what the server says.
type Session struct {
	Token   string          `json:"token"`
	User    *models.User    `json:"user,omitempty"`
	Company *models.Company `json:"company,omitempty"`
}

// Cache stores the session as a single JSON file.
type Cache struct {
	path string
}

func NewCache(dir string) *Cache {
	return &Cache{path: filepath.Join(dir, "session.json")}
}

// DefaultCache places the session file under the user config directory.
func DefaultCache() (*Cache, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return NewCache(filepath.Join(dir, "staffsync")), nil
}

// Load returns the cached session, or (nil, nil) when none exists.
func (c *Cache) Load() (*Session, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Cache) Save(session *Session) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o600)
}

func (c *Cache) Clear() error {
	err := os.Remove(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
