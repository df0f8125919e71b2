// Package wardrobe reads and maintains the closet items the outfit
// generator draws from.
package wardrobe

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/goccy/go-json"

	"github.com/kalambet/lookbook/internal/metrics"
	"github.com/kalambet/lookbook/internal/storage"
)

// StorageKey is the persisted key of the closet.
const StorageKey = "@closet_items"

// Category values the generator groups on. Stored categories are compared
// case-insensitively.
const (
	Tops      = "tops"
	Bottoms   = "bottoms"
	Shoes     = "shoes"
	Outerwear = "outerwear"
)

var ErrDuplicateItem = errors.New("wardrobe item already exists")

// Item is one closet piece.
type Item struct {
	ID       string `json:"id" validate:"required"`
	Category string `json:"category" validate:"required"`
	Image    string `json:"image,omitempty"`
	Name     string `json:"name,omitempty"`
	Color    string `json:"color,omitempty"`
}

// NormalizedCategory returns the lower-cased, trimmed category.
func (i Item) NormalizedCategory() string {
	return strings.ToLower(strings.TrimSpace(i.Category))
}

// Store is the persisted closet.
type Store struct {
	kv     storage.KV
	logger *slog.Logger
}

func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv, logger: slog.Default().With("store", "wardrobe")}
}

// List returns every well-formed item. Entries that fail to decode or carry
// no id are skipped here but left in storage. A read failure yields an empty
// list.
func (s *Store) List(ctx context.Context) []Item {
	entries, err := s.load(ctx)
	if err != nil {
		s.fail("read", err)
		return []Item{}
	}
	items := make([]Item, 0, len(entries))
	for i, raw := range entries {
		var it Item
		if err := json.Unmarshal(raw, &it); err != nil || it.ID == "" {
			s.logger.Warn("skipping malformed wardrobe item", "index", i, "error", err)
			continue
		}
		items = append(items, it)
	}
	return items
}

// Add appends item, rejecting an id that is already present. Existing
// entries are written back unchanged.
func (s *Store) Add(ctx context.Context, item Item) error {
	entries, err := s.load(ctx)
	if err != nil {
		s.fail("read", err)
		return err
	}
	for _, raw := range entries {
		if id, ok := storage.EntryID(raw); ok && id == item.ID {
			return ErrDuplicateItem
		}
	}
	b, err := json.Marshal(item)
	if err != nil {
		return err
	}
	if err := storage.SetJSON(ctx, s.kv, StorageKey, append(entries, b)); err != nil {
		s.fail("write", err)
		return err
	}
	return nil
}

// Remove drops the item with id. It reports whether anything was removed.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	entries, err := s.load(ctx)
	if err != nil {
		s.fail("read", err)
		return false, err
	}
	kept := make([]json.RawMessage, 0, len(entries))
	for _, raw := range entries {
		if got, ok := storage.EntryID(raw); ok && got == id {
			continue
		}
		kept = append(kept, raw)
	}
	if len(kept) == len(entries) {
		return false, nil
	}
	if err := storage.SetJSON(ctx, s.kv, StorageKey, kept); err != nil {
		s.fail("write", err)
		return false, err
	}
	return true, nil
}

func (s *Store) load(ctx context.Context) ([]json.RawMessage, error) {
	var entries []json.RawMessage
	if _, err := storage.GetJSON(ctx, s.kv, StorageKey, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) fail(op string, err error) {
	metrics.StorageErrors.WithLabelValues("wardrobe", op).Inc()
	s.logger.Error("wardrobe storage failure", "op", op, "error", err)
}
