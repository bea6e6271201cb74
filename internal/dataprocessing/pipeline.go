package dataprocessing

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"housepulse/internal/geo"
	"housepulse/internal/infrastructure"
	"housepulse/pkg/contracts/domain"
)

// Options tunes the pipeline stages.
type Options struct {
	// TopN is the number of most expensive listings placed on the map.
	// Zero or negative selects DefaultTopN.
	TopN int
	// OutlierTrim is the number of most expensive listings removed during
	// cleaning. Negative values are treated as zero.
	OutlierTrim int
	// Sheet selects the worksheet of Excel inputs.
	Sheet string
}

// DefaultOptions returns the options of the reference dashboard.
func DefaultOptions() Options {
	return Options{
		TopN:        DefaultTopN,
		OutlierTrim: DefaultOutlierTrim,
	}
}

// Pipeline turns a listing dataset into the three dashboard views:
//
//	load -> clean -> aggregate        -> bar chart
//	              -> project          -> scatter chart
//	              -> top N -> enrich  -> map
//
// A Pipeline holds no per-run state and may be shared between goroutines.
type Pipeline struct {
	opts    Options
	table   *geo.CoordinateTable
	loader  *Loader
	cleaner *Cleaner
	tracer  trace.Tracer
	metrics *infrastructure.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewPipeline creates a pipeline that places listings with table.
func NewPipeline(opts Options, table *geo.CoordinateTable, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	cleaner := NewCleaner(opts.OutlierTrim)
	opts.OutlierTrim = cleaner.Trim()

	return &Pipeline{
		opts:    opts,
		table:   table,
		loader:  NewLoader(opts.Sheet, logger),
		cleaner: cleaner,
		tracer:  otel.Tracer("housepulse/dataprocessing"),
		logger:  logger.With(slog.String("component", "pipeline")),
		now:     time.Now,
	}
}

// WithTelemetry makes the pipeline report spans to tracer and stage figures to
// metrics. Either may be nil.
func (p *Pipeline) WithTelemetry(tracer trace.Tracer, metrics *infrastructure.Metrics) *Pipeline {
	if tracer != nil {
		p.tracer = tracer
	}
	p.metrics = metrics
	return p
}

// Options returns the effective options.
func (p *Pipeline) Options() Options {
	return p.opts
}

// Run loads the dataset at path and builds its views. A load error aborts the
// run and no views are returned.
func (p *Pipeline) Run(ctx context.Context, path string) (*domain.Views, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, span := p.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(attribute.String("input.path", path)))
	defer span.End()

	start := time.Now()
	p.logger.InfoContext(ctx, "pipeline run started",
		slog.String("input", path),
		slog.Int("top_n", p.opts.TopN),
		slog.Int("outlier_trim", p.opts.OutlierTrim))

	var (
		dataset domain.Dataset
		err     error
	)
	p.stage(ctx, "load", func(ctx context.Context) int {
		dataset, err = p.loader.LoadFile(ctx, path)
		return len(dataset)
	})
	if err != nil {
		infrastructure.RecordError(ctx, err)
		p.metrics.RecordRun(ctx, time.Since(start), err)
		p.logger.ErrorContext(ctx, "pipeline run failed",
			slog.String("input", path),
			slog.String("error", err.Error()))
		return nil, err
	}

	views := p.Build(ctx, dataset)
	p.metrics.RecordRun(ctx, time.Since(start), nil)
	return views, nil
}

// Build derives the views from an already loaded dataset. dataset is not
// modified.
func (p *Pipeline) Build(ctx context.Context, dataset domain.Dataset) *domain.Views {
	stats := domain.PipelineStats{Loaded: len(dataset)}

	var cleaned domain.Dataset
	p.stage(ctx, "clean", func(ctx context.Context) int {
		valid := FilterValid(dataset)
		cleaned = p.cleaner.Clean(valid)

		stats.Incomplete = len(dataset) - len(valid)
		stats.Trimmed = len(valid) - len(cleaned)
		stats.Cleaned = len(cleaned)
		p.metrics.RecordDropped(ctx, "incomplete", stats.Incomplete)
		p.metrics.RecordDropped(ctx, "outlier", stats.Trimmed)
		return len(cleaned)
	})

	var bar []domain.BarChartPoint
	p.stage(ctx, "aggregate", func(ctx context.Context) int {
		rows := MeanPriceByType(cleaned)
		bar = domain.NewBarChart(rows)
		stats.HouseTypes = len(rows)
		return len(rows)
	})

	var scatter []domain.ScatterPoint
	p.stage(ctx, "scatter", func(ctx context.Context) int {
		scatter = domain.NewScatter(cleaned)
		return len(scatter)
	})

	var top domain.Dataset
	p.stage(ctx, "rank", func(ctx context.Context) int {
		top = TopN(cleaned, p.opts.TopN)
		stats.TopN = len(top)
		return len(top)
	})

	var mapPoints []domain.MapPoint
	p.stage(ctx, "enrich", func(ctx context.Context) int {
		enriched, unmapped := enrich(top, p.table)
		mapPoints = domain.NewMap(enriched)

		stats.Mapped = len(enriched)
		stats.Unmapped = len(top) - len(enriched)
		p.metrics.RecordUnmapped(ctx, stats.Unmapped)
		if len(unmapped) > 0 {
			p.logger.DebugContext(ctx, "localities without coordinates left off the map",
				slog.Any("localities", unmapped))
		}
		return len(enriched)
	})

	p.logger.InfoContext(ctx, "pipeline complete",
		slog.Int("loaded", stats.Loaded),
		slog.Int("incomplete", stats.Incomplete),
		slog.Int("trimmed", stats.Trimmed),
		slog.Int("cleaned", stats.Cleaned),
		slog.Int("house_types", stats.HouseTypes),
		slog.Int("mapped", stats.Mapped),
		slog.Int("unmapped", stats.Unmapped))

	return &domain.Views{
		BarChart:    bar,
		Scatter:     scatter,
		Map:         mapPoints,
		Stats:       stats,
		GeneratedAt: p.now().UTC(),
	}
}

// stage runs fn inside its own span and records its duration and output size.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(ctx context.Context) int) {
	ctx, span := p.tracer.Start(ctx, "pipeline."+name)
	start := time.Now()

	n := fn(ctx)

	elapsed := time.Since(start)
	span.SetAttributes(attribute.Int("records.out", n))
	span.End()

	p.metrics.RecordStage(ctx, name, elapsed, n)
	p.logger.DebugContext(ctx, "stage finished",
		slog.String("stage", name),
		slog.Int("records", n),
		slog.Duration("duration", elapsed))
}
