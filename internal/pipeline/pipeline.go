package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/medal-flow-etl/internal/domain"
	"github.com/couchcryptid/medal-flow-etl/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

// Extractor reads and parses the input tables of one render cycle.
type Extractor interface {
	Extract(ctx context.Context) (domain.Tables, error)
}

// Transformer builds a dashboard from the parsed tables.
type Transformer interface {
	Transform(ctx context.Context, tables domain.Tables) (domain.Dashboard, error)
}

// Loader publishes a rendered dashboard to one sink.
type Loader interface {
	Name() string
	Load(ctx context.Context, d domain.Dashboard) error
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Pipeline orchestrates the extract-transform-load render cycle.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	loaders     []Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(e Extractor, t Transformer, loaders []Loader, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loaders:     loaders,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once a dashboard has been published, or an
// error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not rendered a dashboard yet")
	}
	return nil
}

// Run renders once immediately and again on every trigger until ctx is
// cancelled. A nil triggers channel renders once and then waits for ctx.
func (p *Pipeline) Run(ctx context.Context, triggers <-chan struct{}) error {
	p.logger.Info("pipeline started", "loaders", len(p.loaders))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	p.renderWithRetry(ctx, triggers)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-triggers:
			p.logger.Info("input changed, re-rendering")
			p.renderWithRetry(ctx, triggers)
		}
	}
}

// RenderOnce runs a single cycle without retrying. Used by one-shot tools.
func (p *Pipeline) RenderOnce(ctx context.Context) (domain.Dashboard, error) {
	return p.render(ctx)
}

// renderWithRetry retries failed cycles with exponential backoff. A trigger
// arriving during the wait retries at once since the input has changed.
func (p *Pipeline) renderWithRetry(ctx context.Context, triggers <-chan struct{}) {
	backoff := initialBackoff
	for {
		_, err := p.render(ctx)
		if err == nil || ctx.Err() != nil {
			return
		}
		p.logger.Error("render failed", "error", err, "retry_in", backoff)

		select {
		case <-ctx.Done():
			return
		case <-triggers:
			backoff = initialBackoff
		case <-time.After(backoff):
			backoff = retry.NextBackoff(backoff, maxBackoff)
		}
	}
}

// render runs one extract-transform-load cycle. Load failures are isolated
// per sink and do not fail the cycle.
func (p *Pipeline) render(ctx context.Context) (domain.Dashboard, error) {
	start := time.Now()

	tables, err := p.extractor.Extract(ctx)
	if err != nil {
		p.metrics.RenderErrors.Inc()
		return domain.Dashboard{}, fmt.Errorf("extract: %w", err)
	}
	p.recordTables(tables)

	d, err := p.transformer.Transform(ctx, tables)
	if err != nil {
		p.metrics.RenderErrors.Inc()
		return domain.Dashboard{}, fmt.Errorf("transform: %w", err)
	}

	loaded := p.load(ctx, d)

	p.metrics.RendersTotal.Inc()
	p.metrics.RenderDuration.Observe(time.Since(start).Seconds())
	p.metrics.FlowNodes.Set(float64(len(d.Flow.Nodes)))
	p.metrics.FlowEdges.Set(float64(len(d.Flow.Links)))
	if loaded > 0 {
		p.ready.Store(true)
	}

	p.logger.Info("render completed",
		"render_id", d.RenderID,
		"flow_nodes", len(d.Flow.Nodes),
		"flow_links", len(d.Flow.Links),
		"map_shades", len(d.Map.Shades),
		"scatter_points", len(d.Scatter.Points),
		"sinks", loaded,
		"duration", time.Since(start),
	)
	return d, nil
}

// load fans the dashboard out to every loader and returns how many succeeded.
func (p *Pipeline) load(ctx context.Context, d domain.Dashboard) int {
	loaded := 0
	for _, l := range p.loaders {
		if err := l.Load(ctx, d); err != nil {
			p.logger.Error("load failed", "sink", l.Name(), "render_id", d.RenderID, "error", err)
			p.metrics.LoadErrors.WithLabelValues(l.Name()).Inc()
			continue
		}
		loaded++
	}
	return loaded
}

func (p *Pipeline) recordTables(t domain.Tables) {
	p.metrics.RowsLoaded.WithLabelValues(domain.TableMedallists).Add(float64(len(t.Medallists)))
	p.metrics.RowsLoaded.WithLabelValues(domain.TableMedalsTotal).Add(float64(len(t.Totals)))
	for table, n := range t.SkippedRows {
		if n > 0 {
			p.metrics.RowsSkipped.WithLabelValues(table).Add(float64(n))
		}
	}
}
