package preferences

import "time"

// StorageKey is the persisted key of the singleton record.
const StorageKey = "@style_preferences"

// Preferences captures the appearance attributes suggestions can factor in.
type Preferences struct {
	Hair      string    `json:"hair,omitempty"`
	Eyes      string    `json:"eyes,omitempty"`
	Skin      string    `json:"skin,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsSet reports whether at least one attribute is non-empty.
func (p Preferences) IsSet() bool {
	return p.Hair != "" || p.Eyes != "" || p.Skin != ""
}

// Update is what a caller supplies to Save. Fields left empty are not
// carried over from the stored record: Save replaces the record wholesale.
type Update struct {
	Hair string `json:"hair,omitempty"`
	Eyes string `json:"eyes,omitempty"`
	Skin string `json:"skin,omitempty"`
}
