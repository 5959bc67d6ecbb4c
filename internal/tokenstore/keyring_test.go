package tokenstore

import (
	"context"
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestKeyringStoreRoundTrip(t *testing.T) {
	keyring.MockInit()
	ctx := context.Background()

	store, err := NewKeyringStore("svault-test")
	if err != nil {
		t.Fatalf("NewKeyringStore: %v", err)
	}

	if _, err := store.Read(ctx, "secure-vault-token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Read before write: got %v, want ErrNotFound", err)
	}

	if err := store.Write(ctx, "secure-vault-token", "abc"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := store.Read(ctx, "secure-vault-token")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != "abc" {
		t.Errorf("Read = %q, want %q", got, "abc")
	}

	if err := store.Delete(ctx, "secure-vault-token"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, "secure-vault-token"); err != nil {
		t.Errorf("Delete missing entry: %v", err)
	}
	if _, err := store.Read(ctx, "secure-vault-token"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read after delete: got %v, want ErrNotFound", err)
	}
}

func TestKeyringStoreUnavailable(t *testing.T) {
	keyring.MockInitWithError(errors.New("secret service not running"))
	t.Cleanup(keyring.MockInit)

	store, err := NewKeyringStore("svault-test")
	if err != nil {
		t.Fatalf("NewKeyringStore: %v", err)
	}

	if err := store.Write(context.Background(), "k", "v"); err == nil {
		t.Error("Write succeeded with failing keyring, want error")
	}
}

func TestNewKeyringStoreEmptyService(t *testing.T) {
	if _, err := NewKeyringStore(""); err == nil {
		t.Error("NewKeyringStore(\"\") succeeded, want error")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Read(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Read empty: got %v, want ErrNotFound", err)
	}
	if err := store.Write(ctx, "k", "v"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got, err := store.Read(ctx, "k"); err != nil || got != "v" {
		t.Fatalf("Read = %q, %v; want %q, nil", got, err, "v")
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Read(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read after delete: got %v, want ErrNotFound", err)
	}
}
