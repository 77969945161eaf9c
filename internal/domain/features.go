package domain

import (
	"context"
	"log/slog"
)

// FeatureSource supplies world-map geometry.
type FeatureSource interface {
	// Features returns the country features of the configured map.
	Features(ctx context.Context) ([]MapFeature, error)
}

// EnrichWithFeatures attaches map geometry to a choropleth. A nil source or a
// failed fetch leaves the choropleth without features (graceful degradation);
// the shades and legend are still valid on their own.
func EnrichWithFeatures(ctx context.Context, c Choropleth, src FeatureSource, logger *slog.Logger) Choropleth {
	if src == nil {
		return c
	}
	features, err := src.Features(ctx)
	if err != nil {
		logger.Warn("map features unavailable, publishing shades only", "error", err)
		return c
	}
	if len(features) == 0 {
		return c
	}
	return JoinFeatures(c, features)
}
