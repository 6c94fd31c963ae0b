package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFetchedBytes    = "colprofile.fetch.bytes"
	metricDecodeAttempts  = "colprofile.decode.attempts"
	metricRowsParsed      = "colprofile.rows.parsed"
	metricColumnsProfiled = "colprofile.columns.profiled"
	metricRunDuration     = "colprofile.run.duration.seconds"

	attrEncoding = "encoding"
	attrOutcome  = "outcome"
	attrStatus   = "status"
	attrStage    = "stage"
)

// Outcomes recorded on decode attempts and runs.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// runBucketBoundaries covers 10ms to 5 minutes, from small local files to
// slow downloads.
var runBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// IngestMetrics holds the instruments for one ingest pipeline.
type IngestMetrics struct {
	fetchedBytes    metric.Int64Counter
	decodeAttempts  metric.Int64Counter
	rowsParsed      metric.Int64Counter
	columnsProfiled metric.Int64Counter
	runDuration     metric.Float64Histogram
}

// NewIngestMetrics creates the ingest instruments from mt.
func NewIngestMetrics(mt metric.Meter) (*IngestMetrics, error) {
	fetched, err := mt.Int64Counter(metricFetchedBytes,
		metric.WithDescription("Bytes fetched from CSV sources"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFetchedBytes, err)
	}

	attempts, err := mt.Int64Counter(metricDecodeAttempts,
		metric.WithDescription("Candidate encodings tried, by encoding and outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricDecodeAttempts, err)
	}

	rows, err := mt.Int64Counter(metricRowsParsed,
		metric.WithDescription("Data rows parsed"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRowsParsed, err)
	}

	columns, err := mt.Int64Counter(metricColumnsProfiled,
		metric.WithDescription("Columns profiled, by status"),
		metric.WithUnit("{column}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricColumnsProfiled, err)
	}

	duration, err := mt.Float64Histogram(metricRunDuration,
		metric.WithDescription("Duration of an ingest run in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(runBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunDuration, err)
	}

	return &IngestMetrics{
		fetchedBytes:    fetched,
		decodeAttempts:  attempts,
		rowsParsed:      rows,
		columnsProfiled: columns,
		runDuration:     duration,
	}, nil
}

// RecordFetch adds the size of a fetched resource.
func (m *IngestMetrics) RecordFetch(ctx context.Context, size int) {
	m.fetchedBytes.Add(ctx, int64(size))
}

// RecordDecodeAttempt counts one candidate encoding attempt.
func (m *IngestMetrics) RecordDecodeAttempt(ctx context.Context, encoding, outcome string) {
	m.decodeAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrEncoding, encoding),
		attribute.String(attrOutcome, outcome),
	))
}

// RecordRows adds parsed data rows.
func (m *IngestMetrics) RecordRows(ctx context.Context, rows int) {
	m.rowsParsed.Add(ctx, int64(rows))
}

// RecordColumn counts one profiled column by status.
func (m *IngestMetrics) RecordColumn(ctx context.Context, status string) {
	m.columnsProfiled.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, status)))
}

// RecordRun records the run duration. stage is the last stage reached
// ("done" on success) and outcome is OutcomeOK or OutcomeFailed.
func (m *IngestMetrics) RecordRun(ctx context.Context, stage, outcome string, d time.Duration) {
	m.runDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String(attrStage, stage),
		attribute.String(attrOutcome, outcome),
	))
}
