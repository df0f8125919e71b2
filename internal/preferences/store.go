package preferences

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kalambet/lookbook/internal/clock"
	"github.com/kalambet/lookbook/internal/metrics"
	"github.com/kalambet/lookbook/internal/storage"
)

// Store provides access to the single style-preferences record. Every call
// reads through to storage; there is no cache.
type Store struct {
	kv     storage.KV
	clock  clock.Clock
	logger *slog.Logger
}

// NewStore creates a Store over kv.
func NewStore(kv storage.KV) *Store {
	return NewStoreWithClock(kv, clock.Real{})
}

// NewStoreWithClock creates a Store with a custom clock (for testing).
func NewStoreWithClock(kv storage.KV, c clock.Clock) *Store {
	return &Store{
		kv:     kv,
		clock:  c,
		logger: slog.Default().With("store", "preferences"),
	}
}

// Get returns the stored record, if any.
func (s *Store) Get(ctx context.Context) (Preferences, bool) {
	var p Preferences
	ok, err := storage.GetJSON(ctx, s.kv, StorageKey, &p)
	if err != nil {
		s.fail("read", err)
		return Preferences{}, false
	}
	return p, ok
}

// Save overwrites the record with u and a fresh UpdatedAt. Attributes saved
// earlier but absent from u are dropped.
func (s *Store) Save(ctx context.Context, u Update) bool {
	p := Preferences{
		Hair:      strings.TrimSpace(u.Hair),
		Eyes:      strings.TrimSpace(u.Eyes),
		Skin:      strings.TrimSpace(u.Skin),
		UpdatedAt: s.clock.Now().UTC(),
	}
	if err := storage.SetJSON(ctx, s.kv, StorageKey, p); err != nil {
		s.fail("write", err)
		return false
	}
	return true
}

// HasPreferences is true iff a record exists with at least one attribute set.
func (s *Store) HasPreferences(ctx context.Context) bool {
	p, ok := s.Get(ctx)
	return ok && p.IsSet()
}

// Clear removes the record.
func (s *Store) Clear(ctx context.Context) bool {
	if err := s.kv.Remove(ctx, StorageKey); err != nil {
		s.fail("remove", err)
		return false
	}
	return true
}

// Summary returns a one-line description for display, e.g.
// "Hair: brown. Eyes: green."
func (s *Store) Summary(ctx context.Context) string {
	p, ok := s.Get(ctx)
	if !ok || !p.IsSet() {
		return "Style preferences: not yet configured."
	}
	return summarize(p)
}

func summarize(p Preferences) string {
	var parts []string
	if p.Hair != "" {
		parts = append(parts, fmt.Sprintf("Hair: %s.", p.Hair))
	}
	if p.Eyes != "" {
		parts = append(parts, fmt.Sprintf("Eyes: %s.", p.Eyes))
	}
	if p.Skin != "" {
		parts = append(parts, fmt.Sprintf("Skin: %s.", p.Skin))
	}
	return strings.Join(parts, " ")
}

func (s *Store) fail(op string, err error) {
	metrics.StorageErrors.WithLabelValues("preferences", op).Inc()
	s.logger.Error("preferences storage failure", "op", op, "error", err)
}
