package storage

import (
	"path/filepath"
	"testing"
)

func TestPreferencesMemDB(t *testing.T) {
	prefs := NewPreferences(NewMemDB())
	network, err := prefs.DefaultNetwork()
	if err != nil {
		t.Fatalf("read unset network: %v", err)
	}
	if network != "" {
		t.Fatalf("expected empty network, got %q", network)
	}
	if err := prefs.SetDefaultNetwork("testnet"); err != nil {
		t.Fatalf("set network: %v", err)
	}
	if network, _ = prefs.DefaultNetwork(); network != "testnet" {
		t.Fatalf("expected testnet, got %q", network)
	}
	if err := prefs.SetDefaultNetwork(""); err != nil {
		t.Fatalf("clear network: %v", err)
	}
	if network, _ = prefs.DefaultNetwork(); network != "" {
		t.Fatalf("expected cleared network, got %q", network)
	}
}

func TestPreferencesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs")
	db, err := NewLevelDB(path)
	if err != nil {
		t.Fatalf("open leveldb: %v", err)
	}
	prefs := NewPreferences(db)
	if err := prefs.SetLastAddress("16313739661670634666L"); err != nil {
		t.Fatalf("set address: %v", err)
	}
	if err := prefs.SetDefaultNetwork("customNode"); err != nil {
		t.Fatalf("set network: %v", err)
	}
	if err := prefs.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err = NewLevelDB(path)
	if err != nil {
		t.Fatalf("reopen leveldb: %v", err)
	}
	prefs = NewPreferences(db)
	defer prefs.Close()
	address, err := prefs.LastAddress()
	if err != nil || address != "16313739661670634666L" {
		t.Fatalf("unexpected address %q (%v)", address, err)
	}
	network, err := prefs.DefaultNetwork()
	if err != nil || network != "customNode" {
		t.Fatalf("unexpected network %q (%v)", network, err)
	}
}

func TestLevelDBMissingKey(t *testing.T) {
	db, err := NewLevelDB(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatalf("open leveldb: %v", err)
	}
	defer db.Close()
	if _, err := db.Get([]byte("absent")); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPreferencesBoltSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")
	db, err := Open(BackendBolt, path)
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	prefs := NewPreferences(db)
	if err := prefs.SetDefaultNetwork("testnet"); err != nil {
		t.Fatalf("set network: %v", err)
	}
	if err := prefs.SetLastAddress("123L"); err != nil {
		t.Fatalf("set address: %v", err)
	}
	if err := prefs.SetLastAddress(""); err != nil {
		t.Fatalf("clear address: %v", err)
	}
	if err := prefs.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err = Open(BackendBolt, path)
	if err != nil {
		t.Fatalf("reopen bolt: %v", err)
	}
	prefs = NewPreferences(db)
	defer prefs.Close()
	if network, err := prefs.DefaultNetwork(); err != nil || network != "testnet" {
		t.Fatalf("unexpected network %q (%v)", network, err)
	}
	if address, err := prefs.LastAddress(); err != nil || address != "" {
		t.Fatalf("expected cleared address, got %q (%v)", address, err)
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	if _, err := Open("rocksdb", filepath.Join(t.TempDir(), "x")); err == nil {
		t.Fatalf("expected unsupported backend error")
	}
}
