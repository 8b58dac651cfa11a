// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package identity is the single owner of the persisted login record.
//
// Every read of "who is logged in" and every write of that fact goes
// through a Store. Nothing else in the application touches the identity
// file, so a sign-out in one place is immediately visible everywhere.
package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/taskdesk/taskchat-tui/internal/model"
	"github.com/taskdesk/taskchat-tui/internal/util"
)

// ErrNotSignedIn is returned when no identity record is stored.
var ErrNotSignedIn = errors.New("identity: not signed in")

// Identity is the persisted login record.
type Identity struct {
	// Name is the worker name used as the chat sender.
	Name string `json:"workerName"`
	// RoleName is the raw role string the backend issued at login.
	RoleName string `json:"role"`
}

// Role parses the raw role string into the closed role set.
func (id Identity) Role() model.Role {
	return model.ParseRole(id.RoleName)
}

// Valid reports whether the record is usable as a chat identity.
func (id Identity) Valid() bool {
	return strings.TrimSpace(id.Name) != ""
}

// =============================================================================
// STORE
// =============================================================================

// Store reads and writes the identity file. Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	path string

	// cached is the last record read or written. Reads hit the cache;
	// Reload refreshes it from disk.
	cached *Identity
}

// DefaultPath returns the identity file location under the user's home.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".taskchat", "identity.json"), nil
}

// NewStore creates a store over the given file path. An empty path uses
// the default location.
func NewStore(path string) (*Store, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &Store{path: path}, nil
}

// Path returns the file the store persists to.
func (s *Store) Path() string {
	return s.path
}

// Current returns the signed-in identity, loading from disk on first use.
// Returns ErrNotSignedIn when no usable record exists.
func (s *Store) Current() (Identity, error) {
	s.mu.RLock()
	if s.cached != nil {
		id := *s.cached
		s.mu.RUnlock()
		if !id.Valid() {
			return Identity{}, ErrNotSignedIn
		}
		return id, nil
	}
	s.mu.RUnlock()
	return s.Reload()
}

// Reload re-reads the identity file, replacing the cache.
func (s *Store) Reload() (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.cached = &Identity{}
			return Identity{}, ErrNotSignedIn
		}
		return Identity{}, fmt.Errorf("failed to read identity file: %w", err)
	}

	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return Identity{}, fmt.Errorf("failed to decode identity file: %w", err)
	}

	s.cached = &id
	if !id.Valid() {
		return Identity{}, ErrNotSignedIn
	}
	return id, nil
}

// SignIn persists a new identity record.
// RELIABILITY: Atomic write with fsync prevents data loss on crash
func (s *Store) SignIn(name, roleName string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("identity: worker name must not be empty")
	}

	id := Identity{Name: name, RoleName: strings.TrimSpace(roleName)}
	data, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := util.AtomicWriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write identity file: %w", err)
	}
	s.cached = &id
	return nil
}

// SignOut removes the identity record. Missing files are not an error, so
// sign-out is idempotent.
func (s *Store) SignOut() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached = &Identity{}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove identity file: %w", err)
	}
	return nil
}
