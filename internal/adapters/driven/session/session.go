package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	jsonv2 "encoding/json/v2"

	"encoding/json/jsontext"
)

// blob mirrors what the browser build kept in its "auth-storage" entry, so a
// session written by either side reads the same.
type blob struct {
	IsAuthenticated bool           `json:"isAuthenticated"`
	Token           string         `json:"token"`
	User            map[string]any `json:"user,omitempty"`
}

// Store is the persisted admin session: a token plus the logged-in user,
// surviving restarts in a JSON file. It is written on login and cleared on
// logout or a 401 from the backend.
type Store struct {
	path string

	mu   sync.RWMutex
	data blob
}

// Open loads the session file if one exists. A missing file is simply a
// logged-out session, not an error.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("session: could not read %s: %w", path, err)
	}

	if len(raw) == 0 {
		return s, nil
	}

	if err := jsonv2.Unmarshal(raw, &s.data); err != nil {
		// a corrupt session file should force a fresh login, not break startup
		s.data = blob{}
	}

	return s, nil
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Token
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.IsAuthenticated && s.data.Token != ""
}

func (s *Store) User() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.User
}

// Login persists the token and user returned by the backend.
func (s *Store) Login(token string, user map[string]any) error {
	s.mu.Lock()
	s.data = blob{
		IsAuthenticated: true,
		Token:           token,
		User:            user,
	}
	s.mu.Unlock()

	return s.persist()
}

// Clear wipes the session. Used by logout and by the HTTP layer on a 401.
// Clearing an already-empty session is a no-op, so the 401 path cannot clear
// twice.
func (s *Store) Clear() error {
	s.mu.Lock()
	wasEmpty := s.data.Token == "" && !s.data.IsAuthenticated
	s.data = blob{}
	s.mu.Unlock()

	if wasEmpty {
		return nil
	}
	return s.persist()
}

func (s *Store) persist() error {
	s.mu.RLock()
	data := s.data
	s.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("session: could not create directory: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("session: could not open %s: %w", s.path, err)
	}
	defer f.Close()

	opts := jsonv2.JoinOptions(jsontext.Multiline(true), jsontext.WithIndent("  "))
	if err := jsonv2.MarshalWrite(f, data, opts); err != nil {
		return fmt.Errorf("session: could not write %s: %w", s.path, err)
	}

	return nil
}
