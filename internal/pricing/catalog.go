package pricing

import "strings"

// Addon is a standard extra with a fixed time cost.
type Addon struct {
	Key         string  `json:"key"`
	DisplayName string  `json:"displayName"`
	Hours       float64 `json:"hours"`
}

var catalog = []Addon{
	{Key: "inside_oven_clean", Hours: 0.75},
	{Key: "inside_fridge_clean", Hours: 0.75},
	{Key: "inside_freezer_clean", Hours: 0.75},
	{Key: "inside_windows_and_tracks", Hours: 1.5},
	{Key: "blinds_up_to_5_sets", Hours: 0.75},
	{Key: "balcony_clean", Hours: 0.75},
	{Key: "garage_sweep_and_cobwebs", Hours: 0.75},
	{Key: "carpet_steam_clean_1_room", Hours: 1.0},
	{Key: "wall_spot_cleaning", Hours: 1.0},
	{Key: "extra_bathroom", Hours: 1.0},
	{Key: "extra_bedroom", Hours: 1.0},
}

var catalogHours = func() map[string]float64 {
	m := make(map[string]float64, len(catalog))
	for _, a := range catalog {
		m[a.Key] = a.Hours
	}
	return m
}()

// Catalog returns the standard add-ons in display order.
func Catalog() []Addon {
	out := make([]Addon, len(catalog))
	for i, a := range catalog {
		a.DisplayName = DisplayName(a.Key)
		out[i] = a
	}
	return out
}

// AddonHours reports the hours for a catalog key.
func AddonHours(key string) (float64, bool) {
	h, ok := catalogHours[key]
	return h, ok
}

// DisplayName turns an add-on key such as "inside_oven_clean" into "Inside Oven Clean".
func DisplayName(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
