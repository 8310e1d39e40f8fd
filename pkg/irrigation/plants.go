// Package irrigation estimates how much water a potted plant needs.
//
// The estimate follows the FAO-56 crop coefficient method: the reference
// evapotranspiration (ET0) forecast for the next 24 hours is scaled by the
// plant's crop coefficient (Kc) and spread over the pot's surface.
package irrigation

import (
	"sort"
	"strings"
)

// Plant is a species the classifier can report.
type Plant struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Coefficient float64 `json:"coefficient"` // crop coefficient Kc
}

// Water need levels derived from Kc.
const (
	NeedHigh   = "high"
	NeedMedium = "medium"
	NeedLow    = "low"
)

// WaterNeed buckets the crop coefficient.
func (p Plant) WaterNeed() string {
	switch {
	case p.Coefficient > 1:
		return NeedHigh
	case p.Coefficient > 0.8:
		return NeedMedium
	default:
		return NeedLow
	}
}

// Known plant IDs.
const (
	Menta  = "menta"
	Romero = "romero"
)

// DefaultPlant is used when a label is not in the catalog.
const DefaultPlant = Romero

var catalog = map[string]Plant{
	Menta: {
		ID:          Menta,
		Name:        "Menta",
		Description: "Thirsty, juicy leaves",
		Coefficient: 1.2,
	},
	Romero: {
		ID:          Romero,
		Name:        "Romero",
		Description: "Drought tolerant mediterranean herb",
		Coefficient: 0.6,
	},
}

// Lookup returns the plant with the given ID.
func Lookup(id string) (Plant, bool) {
	p, ok := catalog[strings.ToLower(strings.TrimSpace(id))]
	return p, ok
}

// Resolve maps a classifier label to a catalog plant. Unknown labels
// resolve to DefaultPlant and ok is false.
func Resolve(label string) (Plant, bool) {
	if p, ok := Lookup(label); ok {
		return p, true
	}
	return catalog[DefaultPlant], false
}

// Plants returns the catalog sorted by ID.
func Plants() []Plant {
	out := make([]Plant, 0, len(catalog))
	for _, p := range catalog {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PlantIDs returns the catalog IDs sorted.
func PlantIDs() []string {
	plants := Plants()
	ids := make([]string, len(plants))
	for i, p := range plants {
		ids[i] = p.ID
	}
	return ids
}
