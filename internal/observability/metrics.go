package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const (
	meterScope         = "github.com/ugobe007/hotmatch/internal/observability"
	defaultServiceName = "hotmatch"
)

// scoreHistogramBoundaries track the audit bands so the exported histogram
// can be compared against the target distribution directly.
var scoreHistogramBoundaries = []float64{20, 35, 50, 65, 80, 99}

// MatchMetrics records pipeline-level counters. A nil MatchMetrics is valid
// at every call site and records nothing.
type MatchMetrics interface {
	RecordStartupProcessed(ctx context.Context)
	RecordCorruptSkipped(ctx context.Context, kind string)
	RecordMatchPersisted(ctx context.Context, score int)
	RecordBatchRetry(ctx context.Context)
}

// MeterProviderShutdown is the subset of the SDK MeterProvider needed for shutdown.
type MeterProviderShutdown interface {
	Shutdown(ctx context.Context) error
}

// NewMeterProvider creates a MeterProvider with a periodic stdout exporter
// and the MatchMetrics bound to it. Caller must call provider.Shutdown on
// exit so the final export flushes.
func NewMeterProvider(serviceName string) (MeterProviderShutdown, MatchMetrics, error) {
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	)

	exporter, err := stdoutmetric.New()
	if err != nil {
		return nil, nil, fmt.Errorf("create stdout metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(time.Minute),
		)),
		sdkmetric.WithView(
			sdkmetric.NewView(
				sdkmetric.Instrument{Name: "match.score"},
				sdkmetric.Stream{Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
					Boundaries: scoreHistogramBoundaries,
				}},
			),
		),
	)

	metrics, err := newMatchMetrics(mp.Meter(meterScope))
	if err != nil {
		shutdownErr := mp.Shutdown(context.Background())
		if shutdownErr != nil {
			return nil, nil, fmt.Errorf("create match metrics: %w (shutdown: %w)", err, shutdownErr)
		}

		return nil, nil, fmt.Errorf("create match metrics: %w", err)
	}

	return mp, metrics, nil
}

type matchMetrics struct {
	startupsProcessed metric.Int64Counter
	corruptSkipped    metric.Int64Counter
	matchesPersisted  metric.Int64Counter
	batchRetries      metric.Int64Counter
	matchScore        metric.Int64Histogram
}

func newMatchMetrics(meter metric.Meter) (*matchMetrics, error) {
	startupsProcessed, err := meter.Int64Counter("match.startups.processed",
		metric.WithDescription("Startups run through the match pipeline"))
	if err != nil {
		return nil, fmt.Errorf("create startups counter: %w", err)
	}

	corruptSkipped, err := meter.Int64Counter("match.records.corrupt",
		metric.WithDescription("Records skipped as corrupt, by kind"))
	if err != nil {
		return nil, fmt.Errorf("create corrupt counter: %w", err)
	}

	matchesPersisted, err := meter.Int64Counter("match.matches.persisted",
		metric.WithDescription("Match rows written"))
	if err != nil {
		return nil, fmt.Errorf("create persisted counter: %w", err)
	}

	batchRetries, err := meter.Int64Counter("match.batch.retries",
		metric.WithDescription("Batch write retries after transient storage errors"))
	if err != nil {
		return nil, fmt.Errorf("create retry counter: %w", err)
	}

	matchScore, err := meter.Int64Histogram("match.score",
		metric.WithDescription("Final compatibility scores of persisted matches"))
	if err != nil {
		return nil, fmt.Errorf("create score histogram: %w", err)
	}

	return &matchMetrics{
		startupsProcessed: startupsProcessed,
		corruptSkipped:    corruptSkipped,
		matchesPersisted:  matchesPersisted,
		batchRetries:      batchRetries,
		matchScore:        matchScore,
	}, nil
}

func (m *matchMetrics) RecordStartupProcessed(ctx context.Context) {
	m.startupsProcessed.Add(ctx, 1)
}

func (m *matchMetrics) RecordCorruptSkipped(ctx context.Context, kind string) {
	m.corruptSkipped.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *matchMetrics) RecordMatchPersisted(ctx context.Context, score int) {
	m.matchesPersisted.Add(ctx, 1)
	m.matchScore.Record(ctx, int64(score))
}

func (m *matchMetrics) RecordBatchRetry(ctx context.Context) {
	m.batchRetries.Add(ctx, 1)
}
