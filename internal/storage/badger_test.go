package storage

import (
	"context"
	"strings"
	"testing"
)

func TestBadgerKV_RoundTrip(t *testing.T) {
	kv, err := OpenBadger(":memory:")
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	ctx := context.Background()

	if _, ok, err := kv.Get(ctx, "@favorites"); err != nil || ok {
		t.Fatalf("Get on empty db: ok=%v err=%v", ok, err)
	}

	if err := kv.Set(ctx, "@favorites", `{"outfit":["o1"]}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := kv.Get(ctx, "@favorites")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if v != `{"outfit":["o1"]}` {
		t.Errorf("value = %q", v)
	}

	if err := kv.Remove(ctx, "@favorites"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "@favorites"); ok {
		t.Error("key still present after Remove")
	}
	if err := kv.Remove(ctx, "@favorites"); err != nil {
		t.Errorf("Remove of absent key: %v", err)
	}
}

func TestBadgerKV_Persists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	kv, err := OpenBadger(dir)
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	if err := kv.Set(ctx, "@watchlist", `[]`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := kv.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	kv2, err := OpenBadger(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer kv2.Close()
	if v, ok, _ := kv2.Get(ctx, "@watchlist"); !ok || v != `[]` {
		t.Errorf("after reopen Get = %q, %v", v, ok)
	}
}

func TestBadgerKV_Entries(t *testing.T) {
	kv, err := OpenBadger(":memory:")
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	ctx := context.Background()

	kv.Set(ctx, "@watchlist", "[]")
	kv.Set(ctx, "@favorites", "{}")

	entries, err := kv.Entries(ctx)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 2 || entries[0].Key != "@favorites" || entries[1].Key != "@watchlist" {
		t.Errorf("entries = %+v, want @favorites then @watchlist", entries)
	}
}

func TestMemoryKV_EntriesSorted(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()
	kv.Set(ctx, "c", "3")
	kv.Set(ctx, "a", "1")
	kv.Set(ctx, "b", "2")

	var e Enumerator = kv
	entries, _ := e.Entries(ctx)
	var keys []string
	for _, en := range entries {
		keys = append(keys, en.Key)
	}
	if strings.Join(keys, ",") != "a,b,c" {
		t.Errorf("keys = %v, want a,b,c", keys)
	}
}
