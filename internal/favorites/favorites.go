// Package favorites tracks set membership of favorited outfits and beauty
// items. It does no aggregation beyond counting.
package favorites

import (
	"context"
	"log/slog"
	"slices"

	"github.com/kalambet/lookbook/internal/metrics"
	"github.com/kalambet/lookbook/internal/storage"
)

const StorageKey = "@favorites"

// Kind partitions favorites; ids are unique within a kind.
type Kind string

const (
	Outfit Kind = "outfit"
	Beauty Kind = "beauty"
)

// ParseKind validates s as a Kind.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case Outfit, Beauty:
		return k, true
	}
	return "", false
}

// Store is the persisted favorites set.
type Store struct {
	kv     storage.KV
	logger *slog.Logger
}

func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv, logger: slog.Default().With("store", "favorites")}
}

// Toggle flips membership of id and reports whether it is now a favorite.
// The second return is false if the change could not be persisted.
func (s *Store) Toggle(ctx context.Context, kind Kind, id string) (favorite, ok bool) {
	all, err := s.load(ctx)
	if err != nil {
		s.fail("read", err)
		return false, false
	}
	ids := all[kind]
	if i := slices.Index(ids, id); i >= 0 {
		all[kind] = slices.Delete(ids, i, i+1)
	} else {
		all[kind] = append(ids, id)
		favorite = true
	}
	if err := storage.SetJSON(ctx, s.kv, StorageKey, all); err != nil {
		s.fail("write", err)
		return false, false
	}
	return favorite, true
}

func (s *Store) IsFavorite(ctx context.Context, kind Kind, id string) bool {
	return slices.Contains(s.List(ctx, kind), id)
}

// Count returns the number of favorites of kind.
func (s *Store) Count(ctx context.Context, kind Kind) int {
	return len(s.List(ctx, kind))
}

// List returns the favorited ids of kind in the order they were added.
func (s *Store) List(ctx context.Context, kind Kind) []string {
	all, err := s.load(ctx)
	if err != nil {
		s.fail("read", err)
		return []string{}
	}
	if ids := all[kind]; ids != nil {
		return ids
	}
	return []string{}
}

func (s *Store) load(ctx context.Context) (map[Kind][]string, error) {
	all := map[Kind][]string{}
	if _, err := storage.GetJSON(ctx, s.kv, StorageKey, &all); err != nil {
		return nil, err
	}
	if all == nil {
		all = map[Kind][]string{}
	}
	return all, nil
}

func (s *Store) fail(op string, err error) {
	metrics.StorageErrors.WithLabelValues("favorites", op).Inc()
	s.logger.Error("favorites storage failure", "op", op, "error", err)
}
