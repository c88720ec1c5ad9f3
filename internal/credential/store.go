// Package credential persists the session credential between invocations.
package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"

	"tasker/internal/service"
)

// record is the on-disk layout of the session file.
type record struct {
	Token *oauth2.Token   `json:"token"`
	User  service.Profile `json:"user"`
}

// Store keeps the token, token type and user profile in a single file.
// All three are written and removed together.
type Store struct {
	path string
}

// NewStore returns a Store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Set persists the session. The file is replaced atomically with mode 0600.
func (s *Store) Set(session service.Session) error {
	if session.AccessToken == "" {
		return service.NewInvalidArgument("access token is required")
	}

	rec := record{
		Token: &oauth2.Token{
			AccessToken: session.AccessToken,
			TokenType:   session.TokenType,
		},
		User: session.Profile,
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}

// Session returns the stored session, or ErrMissingCredential.
func (s *Store) Session() (service.Session, error) {
	rec, err := s.load()
	if err != nil {
		return service.Session{}, err
	}
	return service.Session{
		AccessToken: rec.Token.AccessToken,
		TokenType:   rec.Token.Type(),
		Profile:     rec.User,
	}, nil
}

// Profile returns the stored user profile, or ErrMissingCredential.
func (s *Store) Profile() (service.Profile, error) {
	rec, err := s.load()
	if err != nil {
		return service.Profile{}, err
	}
	return rec.User, nil
}

// AuthorizationHeader returns "<tokenType> <token>".
// The token type defaults to Bearer.
func (s *Store) AuthorizationHeader() (string, error) {
	rec, err := s.load()
	if err != nil {
		return "", err
	}
	return rec.Token.Type() + " " + rec.Token.AccessToken, nil
}

// HasToken reports whether a usable token is stored.
func (s *Store) HasToken() bool {
	_, err := s.load()
	return err == nil
}

// Clear removes the stored session. Clearing an empty store is not an error.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) load() (record, error) {
	var rec record
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return rec, service.ErrMissingCredential
	}
	if err != nil {
		return rec, fmt.Errorf("failed to read %s: %w", filepath.Base(s.path), err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("invalid %s: %w", filepath.Base(s.path), err)
	}
	if rec.Token == nil || rec.Token.AccessToken == "" {
		return rec, service.ErrMissingCredential
	}
	return rec, nil
}

var _ service.Credentials = (*Store)(nil)
