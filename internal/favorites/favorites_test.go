package favorites

import (
	"context"
	"errors"
	"testing"

	"github.com/kalambet/lookbook/internal/storage"
)

type readOnlyKV struct{ *storage.MemoryKV }

func (readOnlyKV) Set(context.Context, string, string) error { return errors.New("read-only") }

func TestToggle(t *testing.T) {
	s := NewStore(storage.NewMemoryKV())
	ctx := context.Background()

	fav, ok := s.Toggle(ctx, Outfit, "o-1")
	if !ok || !fav {
		t.Fatalf("first Toggle = %v, %v, want true, true", fav, ok)
	}
	if !s.IsFavorite(ctx, Outfit, "o-1") {
		t.Error("o-1 should be a favorite")
	}
	if s.IsFavorite(ctx, Beauty, "o-1") {
		t.Error("kinds must not share membership")
	}

	fav, ok = s.Toggle(ctx, Outfit, "o-1")
	if !ok || fav {
		t.Fatalf("second Toggle = %v, %v, want false, true", fav, ok)
	}
	if s.Count(ctx, Outfit) != 0 {
		t.Errorf("Count = %d, want 0", s.Count(ctx, Outfit))
	}
}

func TestCountAndList(t *testing.T) {
	s := NewStore(storage.NewMemoryKV())
	ctx := context.Background()

	s.Toggle(ctx, Beauty, "b-1")
	s.Toggle(ctx, Beauty, "b-2")
	s.Toggle(ctx, Outfit, "o-1")

	if got := s.Count(ctx, Beauty); got != 2 {
		t.Errorf("Count(beauty) = %d, want 2", got)
	}
	got := s.List(ctx, Beauty)
	if len(got) != 2 || got[0] != "b-1" || got[1] != "b-2" {
		t.Errorf("List(beauty) = %v", got)
	}
}

func TestToggle_WriteFailure(t *testing.T) {
	s := NewStore(readOnlyKV{storage.NewMemoryKV()})
	ctx := context.Background()

	if _, ok := s.Toggle(ctx, Outfit, "o-1"); ok {
		t.Error("Toggle should report failure")
	}
	if s.IsFavorite(ctx, Outfit, "o-1") {
		t.Error("failed Toggle must not change membership")
	}
}

func TestParseKind(t *testing.T) {
	if k, ok := ParseKind("outfit"); !ok || k != Outfit {
		t.Errorf("ParseKind(outfit) = %q, %v", k, ok)
	}
	if _, ok := ParseKind("movie"); ok {
		t.Error("ParseKind(movie) should fail")
	}
}
