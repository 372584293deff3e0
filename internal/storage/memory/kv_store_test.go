package memory

import (
	"errors"
	"testing"

	"github.com/AlexZinkM/token-dapp/internal/storage"
)

func TestKVStore_SetGetRemove(t *testing.T) {
	s := NewKVStore()

	if _, ok, _ := s.Get("solana-network"); ok {
		t.Fatal("expected missing key")
	}

	if err := s.Set("solana-network", "devnet"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	v, ok, err := s.Get("solana-network")
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	if v != "devnet" {
		t.Errorf("value mismatch: got %s, want devnet", v)
	}

	if err := s.Remove("solana-network"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, ok, _ := s.Get("solana-network"); ok {
		t.Error("expected key to be removed")
	}

	if err := s.Remove("never-set"); err != nil {
		t.Errorf("Remove of missing key should not error: %v", err)
	}
}

func TestKVStore_EmptyKey(t *testing.T) {
	s := NewKVStore()
	if err := s.Set("", "x"); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
