package tokenstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "svault")

	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat dir: %v", err)
	}
	if info.Mode().Perm() != 0700 {
		t.Errorf("dir permissions = %04o, want 0700", info.Mode().Perm())
	}

	if _, err := store.Read(ctx, "secure-vault-token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Read before write: got %v, want ErrNotFound", err)
	}

	if err := store.Write(ctx, "secure-vault-token", "  abc.def.ghi \n"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	info, err = os.Stat(filepath.Join(dir, "secure-vault-token"))
	if err != nil {
		t.Fatalf("stat token file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("file permissions = %04o, want 0600", info.Mode().Perm())
	}

	got, err := store.Read(ctx, "secure-vault-token")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != "abc.def.ghi" {
		t.Errorf("Read = %q, want %q", got, "abc.def.ghi")
	}

	if err := store.Delete(ctx, "secure-vault-token"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Read(ctx, "secure-vault-token"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read after delete: got %v, want ErrNotFound", err)
	}

	// Deleting twice is not an error
	if err := store.Delete(ctx, "secure-vault-token"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestFileStoreRejectsInsecurePermissions(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "token"), []byte("secret"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := store.Read(ctx, "token"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Read with 0644 permissions: got %v, want permission error", err)
	}
}

func TestFileStoreEmptyFileIsNotFound(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "token"), []byte("  \n"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := store.Read(ctx, "token"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read empty file: got %v, want ErrNotFound", err)
	}
}

func TestFileStoreInvalidKeys(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	for _, key := range []string{"", ".", "..", "../escape", "a/b", ".hidden"} {
		t.Run(key, func(t *testing.T) {
			if err := store.Write(ctx, key, "v"); err == nil {
				t.Errorf("Write(%q) succeeded, want error", key)
			}
			if _, err := store.Read(ctx, key); err == nil {
				t.Errorf("Read(%q) succeeded, want error", key)
			}
		})
	}
}

func TestFileStoreCanceledContext(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Write(ctx, "token", "v"); !errors.Is(err, context.Canceled) {
		t.Errorf("Write: got %v, want context.Canceled", err)
	}
	if _, err := store.Read(ctx, "token"); !errors.Is(err, context.Canceled) {
		t.Errorf("Read: got %v, want context.Canceled", err)
	}
	if err := store.Delete(ctx, "token"); !errors.Is(err, context.Canceled) {
		t.Errorf("Delete: got %v, want context.Canceled", err)
	}
}

func TestNewFileStoreEmptyDir(t *testing.T) {
	if _, err := NewFileStore(""); err == nil {
		t.Error("NewFileStore(\"\") succeeded, want error")
	}
}
