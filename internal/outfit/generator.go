// Package outfit assembles a single outfit suggestion from a wardrobe
// snapshot, the current weather, and the requested occasion and styles.
//
// Generate never fails. Missing categories shorten the outfit; a wardrobe
// with no tops, bottoms or shoes yields an outfit with no items. Callers
// gate generation on wardrobe size themselves (the wizard refuses to
// generate with fewer than three items) so that users are not shown
// near-empty suggestions.
package outfit

import (
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/kalambet/lookbook/internal/metrics"
	"github.com/kalambet/lookbook/internal/wardrobe"
	"github.com/kalambet/lookbook/internal/weather"
)

const (
	// OuterwearBelowF adds an outerwear piece when the temperature is under it.
	OuterwearBelowF = 65
	layeringBelowF  = 60
	lightAboveF     = 80

	fallbackOccasion = "Today"
	fallbackStyle    = "Your Style"
)

const (
	TipLayering    = "Layer up: a light knit under your jacket keeps you warm without the bulk."
	TipLightweight = "Keep it breezy with lightweight, breathable fabrics like linen and cotton."
	TipMixMatch    = "Mix textures and tones to make simple pieces feel intentional."
)

// Input is everything a generation depends on.
type Input struct {
	Wardrobe []wardrobe.Item
	Weather  weather.Reading
	// Occasion is an id from Occasions; nil when skipped.
	Occasion *string
	// Styles holds up to MaxStyles ids from Styles; only the first labels the result.
	Styles []string
}

// Outfit is a generated suggestion. It is never persisted.
type Outfit struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Items    []wardrobe.Item `json:"items"`
	Occasion string          `json:"occasion"`
	Style    string          `json:"style"`
	Tip      string          `json:"tip"`
}

// Generator builds outfits. The zero value is not usable; use NewGenerator.
type Generator struct {
	intn  func(n int) int
	newID func() string
}

// NewGenerator returns a Generator picking items uniformly at random.
func NewGenerator() *Generator {
	return &Generator{
		intn:  rand.IntN,
		newID: func() string { return uuid.Must(uuid.NewV7()).String() },
	}
}

// Generate produces one outfit for in.
func (g *Generator) Generate(in Input) Outfit {
	groups := make(map[string][]wardrobe.Item)
	for _, it := range in.Wardrobe {
		c := it.NormalizedCategory()
		groups[c] = append(groups[c], it)
	}

	items := make([]wardrobe.Item, 0, 4)
	for _, c := range []string{wardrobe.Tops, wardrobe.Bottoms, wardrobe.Shoes} {
		if group := groups[c]; len(group) > 0 {
			items = append(items, group[g.intn(len(group))])
		}
	}
	if outer := groups[wardrobe.Outerwear]; len(outer) > 0 && in.Weather.TemperatureF < OuterwearBelowF {
		items = append(items, outer[0])
	}

	occasion := fallbackOccasion
	if in.Occasion != nil {
		if label, ok := OccasionLabel(*in.Occasion); ok {
			occasion = label
		}
	}
	style := fallbackStyle
	if len(in.Styles) > 0 {
		if label, ok := StyleLabel(in.Styles[0]); ok {
			style = label
		} else if in.Styles[0] != "" {
			style = in.Styles[0]
		}
	}

	metrics.OutfitsGenerated.Inc()
	metrics.OutfitItems.Observe(float64(len(items)))

	return Outfit{
		ID:       g.newID(),
		Title:    occasion + " · " + style,
		Items:    items,
		Occasion: occasion,
		Style:    style,
		Tip:      Tip(in.Weather.TemperatureF),
	}
}

// Tip picks the styling tip for a temperature.
func Tip(tempF float64) string {
	switch {
	case tempF < layeringBelowF:
		return TipLayering
	case tempF > lightAboveF:
		return TipLightweight
	default:
		return TipMixMatch
	}
}
