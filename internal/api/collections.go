package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/lookbook/internal/favorites"
	"github.com/kalambet/lookbook/internal/preferences"
	"github.com/kalambet/lookbook/internal/wardrobe"
	"github.com/kalambet/lookbook/internal/watchlist"
)

type PreferencesRequest struct {
	Hair string `json:"hair" validate:"max=64"`
	Eyes string `json:"eyes" validate:"max=64"`
	Skin string `json:"skin" validate:"max=64"`
}

type PreferencesResponse struct {
	Preferences    *preferences.Preferences `json:"preferences"`
	HasPreferences bool                     `json:"hasPreferences"`
	Summary        string                   `json:"summary"`
}

func preferencesView(deps AppDeps, r *http.Request) PreferencesResponse {
	ctx := r.Context()
	resp := PreferencesResponse{Summary: deps.Preferences.Summary(ctx)}
	if p, ok := deps.Preferences.Get(ctx); ok {
		resp.Preferences = &p
		resp.HasPreferences = p.IsSet()
	}
	return resp
}

func handleGetPreferences(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, preferencesView(deps, r))
	}
}

func handleSavePreferences(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PreferencesRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if !deps.Preferences.Save(r.Context(), preferences.Update{Hair: req.Hair, Eyes: req.Eyes, Skin: req.Skin}) {
			httpError(w, http.StatusInternalServerError, "api_error", "preferences could not be saved")
			return
		}
		writeJSON(w, http.StatusOK, preferencesView(deps, r))
	}
}

func handleClearPreferences(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !deps.Preferences.Clear(r.Context()) {
			httpError(w, http.StatusInternalServerError, "api_error", "preferences could not be cleared")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleListWatchlist(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Watchlist.List(r.Context()))
	}
}

func handleAddWatchlist(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m watchlist.Movie
		if !decodeBody(w, r, &m) {
			return
		}
		res := deps.Watchlist.Add(r.Context(), m)
		switch {
		case res.Success:
			writeJSON(w, http.StatusCreated, res)
		case errors.Is(res.Err, watchlist.ErrAlreadyPresent):
			writeJSON(w, http.StatusConflict, res)
		default:
			writeJSON(w, http.StatusInternalServerError, res)
		}
	}
}

func handleGetWatchlist(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		m, ok := deps.Watchlist.Get(r.Context(), id)
		if !ok {
			httpError(w, http.StatusNotFound, "not_found", "movie %q is not in the watchlist", id)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func handleRemoveWatchlist(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := deps.Watchlist.Remove(r.Context(), chi.URLParam(r, "id"))
		if !res.Success {
			writeJSON(w, http.StatusInternalServerError, res)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleListWardrobe(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Wardrobe.List(r.Context()))
	}
}

func handleAddWardrobe(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var item wardrobe.Item
		if !decodeBody(w, r, &item) {
			return
		}
		err := deps.Wardrobe.Add(r.Context(), item)
		switch {
		case err == nil:
			writeJSON(w, http.StatusCreated, item)
		case errors.Is(err, wardrobe.ErrDuplicateItem):
			httpError(w, http.StatusConflict, "conflict_error", "wardrobe item %q already exists", item.ID)
		default:
			httpError(w, http.StatusInternalServerError, "api_error", "wardrobe item could not be saved")
		}
	}
}

func handleRemoveWardrobe(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		removed, err := deps.Wardrobe.Remove(r.Context(), id)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "wardrobe item could not be removed")
			return
		}
		if !removed {
			httpError(w, http.StatusNotFound, "not_found", "wardrobe item %q not found", id)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type FavoritesResponse struct {
	Kind  favorites.Kind `json:"kind"`
	IDs   []string       `json:"ids"`
	Count int            `json:"count"`
}

type ToggleResponse struct {
	ID       string `json:"id"`
	Favorite bool   `json:"favorite"`
	Count    int    `json:"count"`
}

func favoriteKind(w http.ResponseWriter, r *http.Request) (favorites.Kind, bool) {
	raw := chi.URLParam(r, "kind")
	kind, ok := favorites.ParseKind(raw)
	if !ok {
		httpError(w, http.StatusNotFound, "not_found", "unknown favorites kind %q", raw)
	}
	return kind, ok
}

func handleListFavorites(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok := favoriteKind(w, r)
		if !ok {
			return
		}
		ids := deps.Favorites.List(r.Context(), kind)
		writeJSON(w, http.StatusOK, FavoritesResponse{Kind: kind, IDs: ids, Count: len(ids)})
	}
}

func handleToggleFavorite(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok := favoriteKind(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		fav, ok := deps.Favorites.Toggle(r.Context(), kind, id)
		if !ok {
			httpError(w, http.StatusInternalServerError, "api_error", "favorite could not be saved")
			return
		}
		writeJSON(w, http.StatusOK, ToggleResponse{ID: id, Favorite: fav, Count: deps.Favorites.Count(r.Context(), kind)})
	}
}
