package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
)

func TestMemory_GetReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.Set(ctx, map[string]json.RawMessage{"a": json.RawMessage(`{"x":1}`)}); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := m.Get(ctx, "a", "missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, ok := got["missing"]; ok {
		t.Fatalf("expected missing key to be absent")
	}
	got["a"][0] = '['

	again, _ := m.Get(ctx, "a")
	if string(again["a"]) != `{"x":1}` {
		t.Fatalf("stored value was mutated through Get result: %s", again["a"])
	}
}

func TestMemory_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMemory().Get(ctx); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}

func TestSQLite_RoundTripAndUpsert(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "wintoggle.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if err := s.Set(ctx, map[string]json.RawMessage{
		"toggles": json.RawMessage(`[1,2]`),
		"general": json.RawMessage(`{"allowMultiple":false}`),
	}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, map[string]json.RawMessage{"toggles": json.RawMessage(`[3]`)}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.Get(ctx, "toggles")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 || string(got["toggles"]) != `[3]` {
		t.Fatalf("unexpected get result: %v", got)
	}

	all, err := s.Get(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(all))
	}
}

func TestSQLite_RejectsInvalidJSONAtomically(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "wintoggle.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	err = s.Set(ctx, map[string]json.RawMessage{
		"good": json.RawMessage(`true`),
		"bad":  json.RawMessage(`{`),
	})
	if err == nil {
		t.Fatalf("expected invalid JSON error")
	}

	got, err := s.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected rollback to leave store empty, got %v", got)
	}
}
