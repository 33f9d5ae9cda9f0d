package agent

import (
	"context"
	"errors"
	"testing"
)

func TestValidateKey(t *testing.T) {
	a := &Config{PublicAPIKey: "pk_live_secret"}

	if !a.ValidateKey("pk_live_secret") {
		t.Error("ValidateKey() = false for matching key, want true")
	}
	if a.ValidateKey("pk_live_wrong") {
		t.Error("ValidateKey() = true for wrong key, want false")
	}
	if a.ValidateKey("") {
		t.Error("ValidateKey() = true for empty key, want false")
	}

	unset := &Config{}
	if unset.ValidateKey("") {
		t.Error("ValidateKey() = true when no key configured, want false")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(&Config{ID: "agt_1", Name: "Helper"})

	t.Run("returns seeded agent", func(t *testing.T) {
		a, err := store.Get(ctx, "agt_1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if a.Name != "Helper" {
			t.Errorf("Name = %q, want Helper", a.Name)
		}
	})

	t.Run("unknown ID returns ErrNotFound", func(t *testing.T) {
		_, err := store.Get(ctx, "agt_missing")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("Put replaces", func(t *testing.T) {
		store.Put(&Config{ID: "agt_1", Name: "Renamed"})
		a, _ := store.Get(ctx, "agt_1")
		if a.Name != "Renamed" {
			t.Errorf("Name = %q, want Renamed", a.Name)
		}
	})
}
