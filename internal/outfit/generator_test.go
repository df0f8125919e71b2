package outfit

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kalambet/lookbook/internal/wardrobe"
	"github.com/kalambet/lookbook/internal/weather"
)

func ptr(s string) *string { return &s }

var (
	tee    = wardrobe.Item{ID: "t1", Category: "Tops"}
	blouse = wardrobe.Item{ID: "t2", Category: "tops"}
	chinos = wardrobe.Item{ID: "b1", Category: "BOTTOMS"}
	boots  = wardrobe.Item{ID: "s1", Category: "shoes"}
	parka  = wardrobe.Item{ID: "o1", Category: "outerwear"}
	trench = wardrobe.Item{ID: "o2", Category: "Outerwear"}
	scarf  = wardrobe.Item{ID: "a1", Category: "accessories"}
)

func fixedGenerator(pick int) *Generator {
	return &Generator{
		intn:  func(n int) int { return pick % n },
		newID: func() string { return "outfit-1" },
	}
}

func ids(items []wardrobe.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestGenerate_OuterwearByTemperature(t *testing.T) {
	closet := []wardrobe.Item{parka, tee, chinos, boots}
	tests := []struct {
		temp float64
		want []string
	}{
		{50, []string{"t1", "b1", "s1", "o1"}},
		{64.9, []string{"t1", "b1", "s1", "o1"}},
		{65, []string{"t1", "b1", "s1"}},
		{90, []string{"t1", "b1", "s1"}},
	}
	for _, tt := range tests {
		out := NewGenerator().Generate(Input{Wardrobe: closet, Weather: weather.Describe(tt.temp)})
		if diff := cmp.Diff(tt.want, ids(out.Items)); diff != "" {
			t.Errorf("temp %v items mismatch (-want +got):\n%s", tt.temp, diff)
		}
	}
}

func TestGenerate_FirstOuterwearNotRandom(t *testing.T) {
	closet := []wardrobe.Item{tee, trench, parka}
	for pick := range 3 {
		out := fixedGenerator(pick).Generate(Input{Wardrobe: closet, Weather: weather.Describe(40)})
		last := out.Items[len(out.Items)-1]
		if last.ID != "o2" {
			t.Errorf("pick %d: outerwear = %s, want o2", pick, last.ID)
		}
	}
}

func TestGenerate_RandomPickWithinGroup(t *testing.T) {
	closet := []wardrobe.Item{tee, blouse, chinos}
	out := fixedGenerator(1).Generate(Input{Wardrobe: closet, Weather: weather.Describe(70)})
	if diff := cmp.Diff([]string{"t2", "b1"}, ids(out.Items)); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerate_MissingCategoriesDegrade(t *testing.T) {
	out := NewGenerator().Generate(Input{Wardrobe: []wardrobe.Item{scarf, parka}, Weather: weather.Describe(80)})
	if out.Items == nil || len(out.Items) != 0 {
		t.Errorf("items = %#v, want empty", out.Items)
	}
	if out.Tip == "" || out.ID == "" {
		t.Errorf("outfit should still be fully labelled: %+v", out)
	}
}

func TestGenerate_Labels(t *testing.T) {
	tests := []struct {
		name     string
		occasion *string
		styles   []string
		title    string
	}{
		{"skipped", nil, nil, "Today · Your Style"},
		{"known", ptr("date"), []string{"minimal", "edgy"}, "Date Night · Minimal"},
		{"unknown occasion", ptr("funeral"), nil, "Today · Your Style"},
		{"unknown style kept verbatim", ptr("work"), []string{"preppy"}, "Work · preppy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := fixedGenerator(0).Generate(Input{
				Wardrobe: []wardrobe.Item{tee},
				Weather:  weather.Describe(70),
				Occasion: tt.occasion,
				Styles:   tt.styles,
			})
			if out.Title != tt.title {
				t.Errorf("Title = %q, want %q", out.Title, tt.title)
			}
			if !strings.HasPrefix(out.Title, out.Occasion) || !strings.HasSuffix(out.Title, out.Style) {
				t.Errorf("Title %q does not match occasion %q and style %q", out.Title, out.Occasion, out.Style)
			}
		})
	}
}

func TestGenerate_FreshIDs(t *testing.T) {
	g := NewGenerator()
	in := Input{Wardrobe: []wardrobe.Item{tee, chinos, boots}, Weather: weather.Fallback()}
	a, b := g.Generate(in), g.Generate(in)
	if a.ID == b.ID {
		t.Errorf("ids should differ, both %q", a.ID)
	}
}

func TestTip(t *testing.T) {
	tests := []struct {
		temp float64
		want string
	}{
		{59, TipLayering},
		{60, TipMixMatch},
		{80, TipMixMatch},
		{80.5, TipLightweight},
	}
	for _, tt := range tests {
		if got := Tip(tt.temp); got != tt.want {
			t.Errorf("Tip(%v) = %q, want %q", tt.temp, got, tt.want)
		}
	}
}

func TestCatalogLookup(t *testing.T) {
	if l, ok := OccasionLabel("interview"); !ok || l != "Interview" {
		t.Errorf("OccasionLabel(interview) = %q, %v", l, ok)
	}
	if _, ok := StyleLabel("grunge"); ok {
		t.Error("StyleLabel(grunge) should be unknown")
	}
}
