package domain

import (
	"encoding/json"
	"fmt"
)

// Default world-map color scale: a five-step Blues palette keyed by total
// medal count, and a neutral fill for countries with no row at all.
var (
	MapThresholds = []int{1, 20, 50, 100, 150}
	MapPalette    = []string{"#eff3ff", "#bdd7e7", "#6baed6", "#3182bd", "#08519c"}
)

// MapNoDataColor fills countries absent from the totals table.
const MapNoDataColor = "#dfdfdf"

// MapOptions configures the threshold color scale.
type MapOptions struct {
	Thresholds  []int
	Palette     []string
	NoDataColor string
}

// DefaultMapOptions returns the Blues scale.
func DefaultMapOptions() MapOptions {
	return MapOptions{
		Thresholds:  MapThresholds,
		Palette:     MapPalette,
		NoDataColor: MapNoDataColor,
	}
}

// Validate checks that the scale is usable: one color per threshold and
// strictly ascending thresholds.
func (o MapOptions) Validate() error {
	if len(o.Thresholds) == 0 {
		return fmt.Errorf("map scale: no thresholds")
	}
	if len(o.Palette) != len(o.Thresholds) {
		return fmt.Errorf("map scale: %d colors for %d thresholds", len(o.Palette), len(o.Thresholds))
	}
	for i := 1; i < len(o.Thresholds); i++ {
		if o.Thresholds[i] <= o.Thresholds[i-1] {
			return fmt.Errorf("map scale: thresholds not ascending at %d", o.Thresholds[i])
		}
	}
	return nil
}

// bucket returns the number of thresholds <= v, clamped to the last color.
func (o MapOptions) bucket(v int) int {
	b := 0
	for _, t := range o.Thresholds {
		if v >= t {
			b++
		}
	}
	if b >= len(o.Palette) {
		b = len(o.Palette) - 1
	}
	return b
}

// Color maps a medal total to its fill.
func (o MapOptions) Color(total int) string {
	return o.Palette[o.bucket(total)]
}

// CountryShade is the fill of one country.
type CountryShade struct {
	CountryCode string `json:"country_code"`
	Total       int    `json:"total"`
	Bucket      int    `json:"bucket"`
	Color       string `json:"color"`
}

// LegendEntry is one swatch of the map legend.
type LegendEntry struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// MapFeature is a GeoJSON feature reduced to what the map needs. Geometry is
// passed through untouched.
type MapFeature struct {
	ID       string          `json:"id"`
	Name     string          `json:"name,omitempty"`
	Geometry json.RawMessage `json:"geometry,omitempty"`
}

// ShadedFeature is a map feature with its fill resolved.
type ShadedFeature struct {
	MapFeature
	Total int    `json:"total"`
	Color string `json:"color"`
}

// Choropleth is the world-map document.
type Choropleth struct {
	Shades      []CountryShade  `json:"shades"`
	Legend      []LegendEntry   `json:"legend"`
	NoDataColor string          `json:"no_data_color"`
	Features    []ShadedFeature `json:"features,omitempty"`
}

// ShadeCountries colors every country of the totals table and builds the
// legend. Output keeps the table order.
func ShadeCountries(totals []CountryTotal, opts MapOptions) Choropleth {
	c := Choropleth{
		Shades:      make([]CountryShade, 0, len(totals)),
		Legend:      Legend(opts),
		NoDataColor: opts.NoDataColor,
	}
	for _, t := range totals {
		b := opts.bucket(t.Total)
		c.Shades = append(c.Shades, CountryShade{
			CountryCode: t.CountryCode,
			Total:       t.Total,
			Bucket:      b,
			Color:       opts.Palette[b],
		})
	}
	return c
}

// Legend labels the scale: "0" with the no-data color, one range per
// threshold, and an open-ended last range ("150+").
func Legend(opts MapOptions) []LegendEntry {
	entries := make([]LegendEntry, 0, len(opts.Thresholds)+1)
	entries = append(entries, LegendEntry{Label: "0", Color: opts.NoDataColor})
	for i, t := range opts.Thresholds {
		label := fmt.Sprintf("%d+", t)
		if i < len(opts.Thresholds)-1 {
			label = fmt.Sprintf("%d-%d", t, opts.Thresholds[i+1]-1)
		}
		entries = append(entries, LegendEntry{Label: label, Color: opts.Color(t)})
	}
	return entries
}

// JoinFeatures resolves a fill for each feature by matching its id against
// the shaded country codes. Unmatched features get the no-data color.
func JoinFeatures(c Choropleth, features []MapFeature) Choropleth {
	byCode := make(map[string]CountryShade, len(c.Shades))
	for _, s := range c.Shades {
		if _, dup := byCode[s.CountryCode]; !dup {
			byCode[s.CountryCode] = s
		}
	}

	c.Features = make([]ShadedFeature, 0, len(features))
	for _, f := range features {
		sf := ShadedFeature{MapFeature: f, Color: c.NoDataColor}
		if s, ok := byCode[f.ID]; ok {
			sf.Total = s.Total
			sf.Color = s.Color
		}
		c.Features = append(c.Features, sf)
	}
	return c
}
