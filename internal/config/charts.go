package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/couchcryptid/medal-flow-etl/internal/domain"
	"gopkg.in/yaml.v3"
)

// Charts holds the chart parameters that CHART_CONFIG may override. Keys
// left out of the file keep their defaults.
type Charts struct {
	TopCountries       int      `yaml:"top_countries"`
	FlowDisciplines    []string `yaml:"flow_disciplines"`
	ScatterCountries   []string `yaml:"scatter_countries"`
	ScatterDisciplines []string `yaml:"scatter_disciplines"`
	MapThresholds      []int    `yaml:"map_thresholds"`
	MapPalette         []string `yaml:"map_palette"`
	MapNoDataColor     string   `yaml:"map_no_data_color"`
}

// DefaultCharts returns the original dashboard parameters.
func DefaultCharts() Charts {
	return Charts{
		TopCountries:       domain.DefaultTopCountries,
		FlowDisciplines:    slices.Clone(domain.AquaticDisciplines),
		ScatterCountries:   slices.Clone(domain.ScatterCountries),
		ScatterDisciplines: slices.Clone(domain.ScatterDisciplines),
		MapThresholds:      slices.Clone(domain.MapThresholds),
		MapPalette:         slices.Clone(domain.MapPalette),
		MapNoDataColor:     domain.MapNoDataColor,
	}
}

// LoadCharts reads a YAML chart-config file on top of the defaults.
func LoadCharts(path string) (Charts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Charts{}, fmt.Errorf("read CHART_CONFIG: %w", err)
	}

	charts := DefaultCharts()
	if err := yaml.Unmarshal(data, &charts); err != nil {
		return Charts{}, fmt.Errorf("parse CHART_CONFIG: %w", err)
	}
	if err := charts.Validate(); err != nil {
		return Charts{}, fmt.Errorf("invalid CHART_CONFIG: %w", err)
	}
	return charts, nil
}

// Validate rejects parameters that would make a chart meaningless.
func (c Charts) Validate() error {
	if c.TopCountries < 1 {
		return errors.New("top_countries must be at least 1")
	}
	if len(c.FlowDisciplines) == 0 {
		return errors.New("flow_disciplines must not be empty")
	}
	return c.mapOptions().Validate()
}

// Options converts the chart parameters into domain options.
func (c Charts) Options(referenceYear int) domain.Options {
	return domain.Options{
		Flow: domain.FlowOptions{
			TopCountries: c.TopCountries,
			Disciplines:  c.FlowDisciplines,
		},
		Scatter: domain.ScatterOptions{
			Countries:     c.ScatterCountries,
			Disciplines:   c.ScatterDisciplines,
			ReferenceYear: referenceYear,
		},
		Map: c.mapOptions(),
	}
}

func (c Charts) mapOptions() domain.MapOptions {
	return domain.MapOptions{
		Thresholds:  c.MapThresholds,
		Palette:     c.MapPalette,
		NoDataColor: c.MapNoDataColor,
	}
}
