package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/kalambet/lookbook/internal/storage"
	"github.com/kalambet/lookbook/internal/watchlist"
)

func TestExportEntries_JSONL(t *testing.T) {
	kv := storage.NewMemoryKV()
	kv.Set(ctx, watchlist.StorageKey, `[{"id":"603","title":"The Matrix"}]`)
	kv.Set(ctx, "@favorites", `{"outfit":["o1"]}`)

	var buf bytes.Buffer
	n, err := exportEntries(ctx, kv, &buf)
	if err != nil {
		t.Fatalf("exportEntries: %v", err)
	}
	if n != 2 {
		t.Errorf("n = %d, want 2", n)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 JSONL lines, got %d", len(lines))
	}
	var first storage.Entry
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("invalid JSONL: %v", err)
	}
	if first.Key != "@favorites" || first.Value != `{"outfit":["o1"]}` {
		t.Errorf("first = %+v", first)
	}
}

// plainKV hides MemoryKV's Entries method.
type plainKV struct{ storage.KV }

func TestExportEntries_BackendCannotList(t *testing.T) {
	_, err := exportEntries(ctx, plainKV{storage.NewMemoryKV()}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for a backend without Entries")
	}
}

type failingRemoveKV struct {
	*storage.MemoryKV
	fail string
}

func (f failingRemoveKV) Remove(ctx context.Context, key string) error {
	if key == f.fail {
		return errors.New("disk full")
	}
	return f.MemoryKV.Remove(ctx, key)
}

func TestPurgeKeys_CollectsFailures(t *testing.T) {
	mem := storage.NewMemoryKV()
	for _, k := range storeKeys {
		mem.Set(ctx, k, "[]")
	}
	kv := failingRemoveKV{MemoryKV: mem, fail: watchlist.StorageKey}

	if failures := purgeKeys(ctx, kv, storeKeys); failures != 1 {
		t.Errorf("failures = %d, want 1", failures)
	}
	entries, _ := mem.Entries(ctx)
	if len(entries) != 1 || entries[0].Key != watchlist.StorageKey {
		t.Errorf("remaining = %+v, want only the watchlist key", entries)
	}
}
