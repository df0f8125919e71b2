package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/kalambet/lookbook/internal/favorites"
	"github.com/kalambet/lookbook/internal/feedback"
	"github.com/kalambet/lookbook/internal/intel"
	"github.com/kalambet/lookbook/internal/metrics"
	"github.com/kalambet/lookbook/internal/outfit"
	"github.com/kalambet/lookbook/internal/preferences"
	"github.com/kalambet/lookbook/internal/wardrobe"
	"github.com/kalambet/lookbook/internal/watchlist"
	"github.com/kalambet/lookbook/internal/weather"
)

const maxRequestBodySize = 1 << 20 // 1MB

// AppDeps holds the stores and services the HTTP API serves.
type AppDeps struct {
	Ledger      *feedback.Ledger
	Preferences *preferences.Store
	Watchlist   *watchlist.Store
	Wardrobe    *wardrobe.Store
	Favorites   *favorites.Store
	Narrator    *intel.Narrator
	Weather     weather.Provider
	Generator   *outfit.Generator

	// MinWardrobe gates /outfits/generate. Defaults to 3.
	MinWardrobe int
	// Token enables bearer auth when non-empty.
	Token string
	// RequestsPerMinute limits each client IP; 0 disables limiting.
	RequestsPerMinute int
}

// NewAppHandler returns the lookbook REST API.
func NewAppHandler(deps AppDeps) http.Handler {
	if deps.MinWardrobe <= 0 {
		deps.MinWardrobe = 3
	}

	r := chi.NewRouter()
	if deps.RequestsPerMinute > 0 {
		r.Use(httprate.LimitByIP(deps.RequestsPerMinute, time.Minute))
	}

	r.Get("/health", handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		if deps.Token != "" {
			r.Use(BearerAuth(deps.Token))
		}

		r.Get("/catalog", handleCatalog)

		r.Post("/feedback", handleRecordFeedback(deps))
		r.Get("/feedback", handleListFeedback(deps))
		r.Delete("/feedback", handleResetFeedback(deps))
		r.Get("/feedback/stats", handleFeedbackStats(deps))
		r.Get("/feedback/{subjectID}", handleGetFeedback(deps))

		r.Get("/preferences", handleGetPreferences(deps))
		r.Put("/preferences", handleSavePreferences(deps))
		r.Delete("/preferences", handleClearPreferences(deps))

		r.Get("/watchlist", handleListWatchlist(deps))
		r.Post("/watchlist", handleAddWatchlist(deps))
		r.Get("/watchlist/{id}", handleGetWatchlist(deps))
		r.Delete("/watchlist/{id}", handleRemoveWatchlist(deps))

		r.Get("/wardrobe", handleListWardrobe(deps))
		r.Post("/wardrobe", handleAddWardrobe(deps))
		r.Delete("/wardrobe/{id}", handleRemoveWardrobe(deps))

		r.Get("/weather", handleWeather(deps))
		r.Post("/outfits/generate", handleGenerateOutfit(deps))

		r.Get("/intel/proactive", handleProactive(deps))
		r.Get("/intel/ack", handleAcknowledgment)
		r.Get("/intel/state", handleIntelState(deps))
		r.Delete("/intel/state", handleResetIntelState(deps))

		r.Get("/favorites/{kind}", handleListFavorites(deps))
		r.Post("/favorites/{kind}/{id}/toggle", handleToggleFavorite(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"occasions":  outfit.Occasions,
		"styles":     outfit.Styles,
		"max_styles": outfit.MaxStyles,
		"reasons":    feedback.Reasons,
	})
}
