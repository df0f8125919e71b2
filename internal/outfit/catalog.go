package outfit

// Option is a selectable occasion or style tag.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Occasions in display order.
var Occasions = []Option{
	{ID: "work", Label: "Work"},
	{ID: "date", Label: "Date Night"},
	{ID: "casual", Label: "Casual"},
	{ID: "party", Label: "Party"},
	{ID: "interview", Label: "Interview"},
	{ID: "wedding", Label: "Wedding"},
}

// Styles in display order.
var Styles = []Option{
	{ID: "classic", Label: "Classic"},
	{ID: "minimal", Label: "Minimal"},
	{ID: "street", Label: "Street"},
	{ID: "bohemian", Label: "Bohemian"},
	{ID: "sporty", Label: "Sporty"},
	{ID: "edgy", Label: "Edgy"},
}

// MaxStyles is how many style tags a single request may carry.
const MaxStyles = 2

// OccasionLabel resolves id to its label.
func OccasionLabel(id string) (string, bool) {
	return lookup(Occasions, id)
}

// StyleLabel resolves id to its label.
func StyleLabel(id string) (string, bool) {
	return lookup(Styles, id)
}

func lookup(opts []Option, id string) (string, bool) {
	for _, o := range opts {
		if o.ID == id {
			return o.Label, true
		}
	}
	return "", false
}
