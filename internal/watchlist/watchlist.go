// Package watchlist keeps the user's deduplicated list of saved movies.
package watchlist

import (
	"context"
	"errors"
	"log/slog"

	"github.com/goccy/go-json"

	"github.com/kalambet/lookbook/internal/metrics"
	"github.com/kalambet/lookbook/internal/storage"
)

// StorageKey is the persisted key of the watchlist.
const StorageKey = "@watchlist"

// ErrAlreadyPresent is reported when adding a movie whose id is already listed.
var ErrAlreadyPresent = errors.New("movie already in watchlist")

// Movie is the typed view of a catalog record. Only ID is interpreted
// here. Stored entries are rewritten byte for byte, so catalog fields not
// declared below survive every Add and Remove.
type Movie struct {
	ID          string  `json:"id" validate:"required"`
	Title       string  `json:"title" validate:"required"`
	Year        string  `json:"year,omitempty"`
	Poster      string  `json:"poster,omitempty"`
	Overview    string  `json:"overview,omitempty"`
	VoteAverage float64 `json:"voteAverage,omitempty"`
}

// Result is the outcome of a mutating call. Err is set for expected
// rejections (ErrAlreadyPresent) and storage failures.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Err     error  `json:"-"`
}

// Store is the persisted watchlist. Every call re-reads the full list.
type Store struct {
	kv     storage.KV
	logger *slog.Logger
}

// NewStore creates a Store over kv.
func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv, logger: slog.Default().With("store", "watchlist")}
}

// List returns the movies in insertion order. Never nil. Entries that do
// not decode as a Movie are left out of the result but stay in storage.
func (s *Store) List(ctx context.Context) []Movie {
	entries, err := s.load(ctx)
	if err != nil {
		s.fail("read", err)
		return []Movie{}
	}
	movies := make([]Movie, 0, len(entries))
	for i, raw := range entries {
		m, err := decodeMovie(raw)
		if err != nil {
			s.logger.Warn("skipping malformed watchlist entry", "index", i, "error", err)
			continue
		}
		movies = append(movies, m)
	}
	return movies
}

// Add appends m unless a movie with the same id is already listed.
func (s *Store) Add(ctx context.Context, m Movie) Result {
	entries, err := s.load(ctx)
	if err != nil {
		s.fail("read", err)
		s.count("add", "error")
		return Result{Message: "Could not update your watchlist.", Err: err}
	}
	for _, raw := range entries {
		if id, ok := storage.EntryID(raw); ok && id == m.ID {
			s.count("add", "duplicate")
			return Result{Message: "This movie is already in your watchlist.", Err: ErrAlreadyPresent}
		}
	}
	b, err := json.Marshal(m)
	if err != nil {
		s.count("add", "error")
		return Result{Message: "Could not update your watchlist.", Err: err}
	}
	entries = append(entries, b)
	if err := storage.SetJSON(ctx, s.kv, StorageKey, entries); err != nil {
		s.fail("write", err)
		s.count("add", "error")
		return Result{Message: "Could not update your watchlist.", Err: err}
	}
	s.count("add", "ok")
	return Result{Success: true, Message: "Added to your watchlist."}
}

// Remove drops the movie with id. Removing an unknown id succeeds without
// touching storage.
func (s *Store) Remove(ctx context.Context, id string) Result {
	entries, err := s.load(ctx)
	if err != nil {
		s.fail("read", err)
		s.count("remove", "error")
		return Result{Err: err}
	}
	kept := make([]json.RawMessage, 0, len(entries))
	for _, raw := range entries {
		if got, ok := storage.EntryID(raw); ok && got == id {
			continue
		}
		kept = append(kept, raw)
	}
	if len(kept) == len(entries) {
		s.count("remove", "noop")
		return Result{Success: true}
	}
	if err := storage.SetJSON(ctx, s.kv, StorageKey, kept); err != nil {
		s.fail("write", err)
		s.count("remove", "error")
		return Result{Err: err}
	}
	s.count("remove", "ok")
	return Result{Success: true}
}

// Contains reports whether id is listed. A read failure reports false.
func (s *Store) Contains(ctx context.Context, id string) bool {
	_, ok := s.Get(ctx, id)
	return ok
}

// Get returns the listed movie with id.
func (s *Store) Get(ctx context.Context, id string) (Movie, bool) {
	for _, m := range s.List(ctx) {
		if m.ID == id {
			return m, true
		}
	}
	return Movie{}, false
}

func (s *Store) load(ctx context.Context) ([]json.RawMessage, error) {
	var entries []json.RawMessage
	if _, err := storage.GetJSON(ctx, s.kv, StorageKey, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// decodeMovie accepts numeric catalog ids by reading id separately.
func decodeMovie(raw json.RawMessage) (Movie, error) {
	id, ok := storage.EntryID(raw)
	if !ok {
		return Movie{}, errors.New("missing id")
	}
	var v struct {
		Movie
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return Movie{}, err
	}
	m := v.Movie
	m.ID = id
	return m, nil
}

func (s *Store) count(op, result string) {
	metrics.WatchlistOps.WithLabelValues(op, result).Inc()
}

func (s *Store) fail(op string, err error) {
	metrics.StorageErrors.WithLabelValues("watchlist", op).Inc()
	s.logger.Error("watchlist storage failure", "op", op, "error", err)
}
