package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Chart names, used as message keys and HTTP paths.
const (
	ChartFlow    = "flow"
	ChartMap     = "map"
	ChartScatter = "scatter"
)

// Options bundles the per-chart configuration.
type Options struct {
	Flow    FlowOptions
	Scatter ScatterOptions
	Map     MapOptions
}

// DefaultOptions returns the dashboard as originally designed.
func DefaultOptions() Options {
	return Options{
		Flow:    DefaultFlowOptions(),
		Scatter: DefaultScatterOptions(),
		Map:     DefaultMapOptions(),
	}
}

// Dashboard is the full output of one render cycle.
type Dashboard struct {
	RenderID    string     `json:"render_id"`
	GeneratedAt time.Time  `json:"generated_at"`
	Flow        FlowGraph  `json:"flow"`
	Map         Choropleth `json:"map"`
	Scatter     Scatter    `json:"scatter"`
}

// ChartMessage is one chart document ready for a sink.
type ChartMessage struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Build derives all three charts from the parsed tables. Each call starts
// from scratch; nothing is carried over from a previous render.
func Build(tables Tables, opts Options) Dashboard {
	return Dashboard{
		RenderID:    uuid.NewString(),
		GeneratedAt: clock.Now().UTC(),
		Flow:        AggregateFlow(tables.Medallists, tables.Totals, opts.Flow),
		Map:         ShadeCountries(tables.Totals, opts.Map),
		Scatter:     ClusterAthletes(tables.Medallists, opts.Scatter),
	}
}

// Chart returns the document for a chart name, or false if the name is unknown.
func (d Dashboard) Chart(name string) (any, bool) {
	switch name {
	case ChartFlow:
		return d.Flow, true
	case ChartMap:
		return d.Map, true
	case ChartScatter:
		return d.Scatter, true
	default:
		return nil, false
	}
}

// Serialize splits a dashboard into one message per chart, keyed by chart name.
func Serialize(d Dashboard) ([]ChartMessage, error) {
	names := []string{ChartFlow, ChartMap, ChartScatter}
	msgs := make([]ChartMessage, 0, len(names))
	for _, name := range names {
		doc, _ := d.Chart(name)
		data, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("serialize %s chart: %w", name, err)
		}
		msgs = append(msgs, ChartMessage{
			Key:   []byte(name),
			Value: data,
			Headers: map[string]string{
				"chart":        name,
				"render_id":    d.RenderID,
				"generated_at": d.GeneratedAt.Format(time.RFC3339),
			},
		})
	}
	return msgs, nil
}
