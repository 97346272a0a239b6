package kv

import (
	"context"
	"encoding/json"
	"testing"
)

func TestMemoryRoundTrip(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	if err := store.Set(ctx, "settings", map[string]any{"taxRate": 7.0}); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	raw, err := store.Get(ctx, "settings")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	var decoded map[string]float64
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["taxRate"] != 7.0 {
		t.Fatalf("expected taxRate 7.0, got %v", decoded["taxRate"])
	}
}

func TestMemoryGetAbsentKeyReturnsNil(t *testing.T) {
	store := NewMemory()

	raw, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if raw != nil {
		t.Fatalf("expected nil for absent key, got %s", raw)
	}
}

func TestMemoryOverwrite(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	if err := store.Set(ctx, "counter", 1); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := store.Set(ctx, "counter", 2); err != nil {
		t.Fatalf("second set failed: %v", err)
	}

	raw, err := store.Get(ctx, "counter")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(raw) != "2" {
		t.Fatalf("expected overwritten value 2, got %s", raw)
	}
}
