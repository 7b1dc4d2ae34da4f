// Package store persists per-server session tokens between invocations.
package store

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Record is one saved session. Expires is RFC 3339 and optional; a record
// whose expiry has passed is treated as absent and purged on the next load.
type Record struct {
	Token   string `toml:"token"`
	Expires string `toml:"expires,omitempty"`
	SavedAt string `toml:"saved_at"`
}

// Store is a TOML file keyed by normalized server URL, written with
// owner-only permissions. It holds nothing in memory between calls.
type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

// NormalizeServer reduces a server spec to a stable key: lowercase scheme
// and host, https when no scheme was given, no path or trailing slash.
func NormalizeServer(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimRight(s, "/"))
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}

// Load returns the record for the server, or nil when there is none. An
// expired record is removed from disk and reported as absent.
func (s *Store) Load(server string) (*Record, error) {
	all, err := s.readAll()
	if err != nil {
		return nil, err
	}
	key := NormalizeServer(server)
	rec, ok := all[key]
	if !ok {
		return nil, nil
	}
	if rec.Expires != "" {
		expires, err := time.Parse(time.RFC3339, rec.Expires)
		if err != nil || !expires.After(time.Now()) {
			delete(all, key)
			if err := s.writeAll(all); err != nil {
				return nil, err
			}
			return nil, nil
		}
	}
	return &rec, nil
}

// Save stores a token for the server, replacing any previous record. A zero
// expires means the token has no known expiry.
func (s *Store) Save(server, token string, expires time.Time) error {
	all, err := s.readAll()
	if err != nil {
		return err
	}
	rec := Record{
		Token:   token,
		SavedAt: time.Now().Format(time.RFC3339),
	}
	if !expires.IsZero() {
		rec.Expires = expires.Format(time.RFC3339)
	}
	all[NormalizeServer(server)] = rec
	return s.writeAll(all)
}

// Delete removes the record for the server, if any.
func (s *Store) Delete(server string) error {
	all, err := s.readAll()
	if err != nil {
		return err
	}
	key := NormalizeServer(server)
	if _, ok := all[key]; !ok {
		return nil
	}
	delete(all, key)
	return s.writeAll(all)
}

// All returns every stored record without purging expired ones. Used by the
// doctor command.
func (s *Store) All() (map[string]Record, error) {
	return s.readAll()
}

func (s *Store) readAll() (map[string]Record, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	all := map[string]Record{}
	if err := toml.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("parse session file %s: %w", s.path, err)
	}
	return all, nil
}

func (s *Store) writeAll(all map[string]Record) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(all); err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}
	if err := os.WriteFile(s.path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}
