// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/greenroom-live/greenroom/lib/codec"
)

// Well-known preference keys.
const (
	// KeyServerURL is the endpoint of the last successful connection.
	KeyServerURL = "last_server_url"
	// KeyRole is the role used in the last session.
	KeyRole = "last_role"
	// KeyWorld is the world joined in the last session.
	KeyWorld = "last_world"
)

// Store is a small persistent string-to-string preference store.
// Every Set writes through to disk, so a crash never loses more than
// the in-flight write. Not safe for concurrent use; Greenroom keeps
// one Store per process.
type Store struct {
	path string
	data map[string]string
}

// Open loads the store at path, or initializes an empty one if the
// file does not exist yet. The parent directory is created as
// needed.
func Open(path string) (*Store, error) {
	s := &Store{path: path, data: make(map[string]string)}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("prefs: %w", err)
	}
	if err := codec.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("prefs: parse %s: %w", path, err)
	}
	if s.data == nil {
		s.data = make(map[string]string)
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Get returns the value for key, with ok false when unset.
func (s *Store) Get(key string) (value string, ok bool) {
	value, ok = s.data[key]
	return value, ok
}

// Set stores key=value and persists the whole store. An empty value
// deletes the key.
func (s *Store) Set(key, value string) error {
	if value == "" {
		delete(s.data, key)
	} else {
		s.data[key] = value
	}
	return s.save()
}

// save writes the store atomically: encode, write a sibling temp
// file, rename over the target. Readers never observe a torn file.
func (s *Store) save() error {
	raw, err := codec.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("prefs: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("prefs: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*")
	if err != nil {
		return fmt.Errorf("prefs: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("prefs: write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("prefs: close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("prefs: %w", err)
	}
	return nil
}

// DefaultPath is the conventional location of the preference file,
// under the user cache directory.
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("prefs: %w", err)
	}
	return filepath.Join(dir, "greenroom", "prefs.cbor"), nil
}
