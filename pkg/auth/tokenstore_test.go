package auth

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTokenStore_SetAndReload(t *testing.T) {
	dir := t.TempDir()

	store, err := NewTokenStore(dir)
	if err != nil {
		t.Fatalf("NewTokenStore: %v", err)
	}
	if _, _, ok := store.StoredCredential(); ok {
		t.Fatal("expected no credential in a fresh store")
	}

	if err := store.SetCredential("user1", []byte("blob-data")); err != nil {
		t.Fatalf("SetCredential: %v", err)
	}

	reloaded, err := NewTokenStore(dir)
	if err != nil {
		t.Fatalf("NewTokenStore (reload): %v", err)
	}
	username, data, ok := reloaded.StoredCredential()
	if !ok || username != "user1" || string(data) != "blob-data" {
		t.Fatalf("got (%q, %q, %v), want (user1, blob-data, true)", username, data, ok)
	}

	info, err := os.Stat(filepath.Join(dir, "credentials.json"))
	if err != nil {
		t.Fatalf("stat credentials file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Fatalf("expected 0600 permissions, got %v", perm)
	}
}
