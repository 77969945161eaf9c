package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/medal-flow-etl/internal/domain"
)

// DashboardTransformer implements Transformer using the domain chart builders
// with optional map-geometry enrichment.
type DashboardTransformer struct {
	opts     domain.Options
	features domain.FeatureSource
	logger   *slog.Logger
}

// NewTransformer creates a DashboardTransformer. Pass a nil feature source to
// publish the choropleth without geometry.
func NewTransformer(opts domain.Options, features domain.FeatureSource, logger *slog.Logger) *DashboardTransformer {
	return &DashboardTransformer{
		opts:     opts,
		features: features,
		logger:   logger,
	}
}

func (t *DashboardTransformer) Transform(ctx context.Context, tables domain.Tables) (domain.Dashboard, error) {
	d := domain.Build(tables, t.opts)
	d.Map = domain.EnrichWithFeatures(ctx, d.Map, t.features, t.logger)
	return d, nil
}
