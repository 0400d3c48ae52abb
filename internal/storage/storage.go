package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/forrev/forrev-cli/internal/crypto"
	"github.com/forrev/forrev-cli/internal/logger"
)

// DefaultDataDir is where session state lives unless configured otherwise
const DefaultDataDir = "~/.local/share/forrev"

const sessionFile = "session.json"

// StoredCookie is one persisted cookie
type StoredCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SessionFile is the on-disk form of a session
type SessionFile struct {
	BaseURL   string         `json:"base_url"`
	Cookies   []StoredCookie `json:"cookies"`
	Encrypted bool           `json:"encrypted"`
	SavedAt   time.Time      `json:"saved_at"`
}

// Storage handles persistence of the session cookie jar
type Storage struct {
	dataDir string
	enc     *crypto.Encryptor
}

// New creates a Storage rooted at dataDir, creating it if needed. enc may be
// nil to store cookie values in the clear.
func New(dataDir string, enc *crypto.Encryptor) (*Storage, error) {
	dir, err := ExpandHome(dataDir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{dataDir: dir, enc: enc}, nil
}

// ExpandHome replaces a leading ~/ with the user's home directory
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// Path returns the location of the session file
func (s *Storage) Path() string {
	return filepath.Join(s.dataDir, sessionFile)
}

// SaveSession writes the cookies held for baseURL
func (s *Storage) SaveSession(baseURL string, cookies []*http.Cookie) error {
	file := SessionFile{
		BaseURL:   baseURL,
		Cookies:   make([]StoredCookie, 0, len(cookies)),
		Encrypted: s.enc.Enabled(),
		SavedAt:   time.Now().UTC(),
	}

	for _, c := range cookies {
		value, err := s.enc.Seal(c.Value)
		if err != nil {
			return fmt.Errorf("sealing cookie %s: %w", c.Name, err)
		}
		file.Cookies = append(file.Cookies, StoredCookie{Name: c.Name, Value: value})
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	// Write then rename so a crash never leaves a truncated session
	tmp := s.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	if err := os.Rename(tmp, s.Path()); err != nil {
		return fmt.Errorf("replacing session: %w", err)
	}

	logger.Debug("Saved session", logger.Fields{"path": s.Path(), "cookies": len(file.Cookies), "encrypted": file.Encrypted})
	return nil
}

// LoadSession returns the cookies stored for baseURL. A missing file, or one
// written for a different service, yields no cookies.
func (s *Storage) LoadSession(baseURL string) ([]*http.Cookie, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session: %w", err)
	}

	var file SessionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing session: %w", err)
	}

	if file.BaseURL != baseURL {
		logger.Info("Ignoring session stored for another service", logger.Fields{
			"stored":  file.BaseURL,
			"current": baseURL,
		})
		return nil, nil
	}

	cookies := make([]*http.Cookie, 0, len(file.Cookies))
	for _, c := range file.Cookies {
		value, err := s.enc.Open(c.Value)
		if err != nil {
			return nil, fmt.Errorf("opening cookie %s: %w", c.Name, err)
		}
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: value, Path: "/"})
	}
	return cookies, nil
}

// ClearSession removes the session file
func (s *Storage) ClearSession() error {
	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}
