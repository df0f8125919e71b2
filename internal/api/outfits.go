package api

import (
	"net/http"

	"github.com/kalambet/lookbook/internal/outfit"
	"github.com/kalambet/lookbook/internal/weather"
)

type GenerateRequest struct {
	Occasion *string  `json:"occasion,omitempty"`
	Styles   []string `json:"styles,omitempty" validate:"max=2"`
}

func handleWeather(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, weather.CurrentOrFallback(r.Context(), deps.Weather))
	}
}

// handleGenerateOutfit applies the same wardrobe-size gate as the wizard
// before invoking the generator.
func handleGenerateOutfit(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Occasion != nil {
			if _, ok := outfit.OccasionLabel(*req.Occasion); !ok {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown occasion %q", *req.Occasion)
				return
			}
		}
		for _, s := range req.Styles {
			if _, ok := outfit.StyleLabel(s); !ok {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown style %q", s)
				return
			}
		}

		ctx := r.Context()
		items := deps.Wardrobe.List(ctx)
		if len(items) < deps.MinWardrobe {
			httpError(w, http.StatusUnprocessableEntity, "wardrobe_too_small",
				"add at least %d wardrobe items to get a suggestion (have %d)", deps.MinWardrobe, len(items))
			return
		}

		o := deps.Generator.Generate(outfit.Input{
			Wardrobe: items,
			Weather:  weather.CurrentOrFallback(ctx, deps.Weather),
			Occasion: req.Occasion,
			Styles:   req.Styles,
		})
		writeJSON(w, http.StatusOK, o)
	}
}
