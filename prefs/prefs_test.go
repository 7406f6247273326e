// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenMissingFileInitializesEmpty(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "prefs.cbor"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := s.Get(KeyServerURL); ok {
		t.Fatal("fresh store is not empty")
	}
}

func TestSetPersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.cbor")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Set(KeyServerURL, "ws://stage.example.net/ws"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(KeyRole, "director"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// A fresh Open sees every write: Set writes through.
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if v, ok := s2.Get(KeyServerURL); !ok || v != "ws://stage.example.net/ws" {
		t.Fatalf("server url = %q, %v", v, ok)
	}
	if v, ok := s2.Get(KeyRole); !ok || v != "director" {
		t.Fatalf("role = %q, %v", v, ok)
	}
}

func TestSetEmptyDeletes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.cbor")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Set(KeyWorld, "w1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(KeyWorld, ""); err != nil {
		t.Fatalf("delete: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, ok := s2.Get(KeyWorld); ok {
		t.Fatal("deleted key survived reopen")
	}
}

func TestOpenCreatesParentDirOnSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "prefs.cbor")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Set(KeyRole, "player"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("prefs file not created: %v", err)
	}
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.cbor")
	if err := os.WriteFile(path, []byte("not cbor at all"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("expected error for corrupt file, got nil")
	}
}

func TestDeterministicBytes(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, keys [][2]string) []byte {
		t.Helper()
		path := filepath.Join(dir, name)
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		for _, kv := range keys {
			if err := s.Set(kv[0], kv[1]); err != nil {
				t.Fatalf("Set: %v", err)
			}
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read back: %v", err)
		}
		return raw
	}

	// Same data, different insertion order, identical bytes.
	a := write("a.cbor", [][2]string{{KeyServerURL, "u"}, {KeyRole, "player"}})
	b := write("b.cbor", [][2]string{{KeyRole, "player"}, {KeyServerURL, "u"}})
	if string(a) != string(b) {
		t.Fatal("preference files differ for identical content")
	}
}
