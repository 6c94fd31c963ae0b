// Package ingest runs one CSV resource through fetch, decode, parse and
// profile.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/colprofile/pkg/observability"
	"github.com/Sumatoshi-tech/colprofile/pkg/profile"
	"github.com/Sumatoshi-tech/colprofile/pkg/source"
	"github.com/Sumatoshi-tech/colprofile/pkg/table"
	"github.com/Sumatoshi-tech/colprofile/pkg/textenc"
)

const tracerName = "colprofile"

// Stage names used in spans, logs and the run metric.
const (
	StageFetch   = "fetch"
	StageDecode  = "decode"
	StageParse   = "parse"
	StageProfile = "profile"
	StageDone    = "done"
)

var (
	errNoFetcher  = errors.New("pipeline has no fetcher")
	errNoResolver = errors.New("pipeline has no encoding resolver")
)

// Pipeline wires the ingest stages. Fetcher, Resolver and Profiler are
// required for Run; Process needs no Fetcher. Logger, Tracer and Metrics
// may be nil.
type Pipeline struct {
	Fetcher      source.Fetcher
	Resolver     *textenc.Resolver
	ParseOptions table.ParseOptions
	Profiler     *profile.Profiler
	Logger       *slog.Logger
	Tracer       trace.Tracer
	Metrics      *observability.IngestMetrics
	// RequireData turns an empty table into a MalformedTableError.
	RequireData bool
	// SkipProfile stops after parsing; Result.Profiles stays nil.
	SkipProfile bool
}

// Result carries every intermediate product of a run.
type Result struct {
	Resource *source.Resource
	Decoded  textenc.Result
	Table    *table.Table
	Profiles []profile.ColumnProfile
	Duration time.Duration
}

// Run fetches location and processes it.
func (p *Pipeline) Run(ctx context.Context, location string, specs []profile.ColumnSpec) (*Result, error) {
	start := time.Now()

	if p.Fetcher == nil {
		return nil, errNoFetcher
	}

	ctx, span := p.tracer().Start(ctx, "colprofile.run",
		trace.WithAttributes(attribute.String("source.location", location)))
	defer span.End()

	res, err := p.fetch(ctx, location)
	if err != nil {
		p.finish(ctx, span, StageFetch, start, err)

		return nil, err
	}

	return p.process(ctx, span, res, specs, start)
}

// Process decodes, parses and profiles an already fetched resource.
func (p *Pipeline) Process(ctx context.Context, res *source.Resource, specs []profile.ColumnSpec) (*Result, error) {
	ctx, span := p.tracer().Start(ctx, "colprofile.process",
		trace.WithAttributes(attribute.String("source.location", res.Location)))
	defer span.End()

	return p.process(ctx, span, res, specs, time.Now())
}

func (p *Pipeline) process(
	ctx context.Context, span trace.Span, res *source.Resource, specs []profile.ColumnSpec, start time.Time,
) (*Result, error) {
	result := &Result{Resource: res}

	decoded, err := p.decode(ctx, res)
	if err != nil {
		p.finish(ctx, span, StageDecode, start, err)

		return nil, err
	}

	result.Decoded = decoded

	tbl, err := p.parse(ctx, decoded.Text)
	if err != nil {
		p.finish(ctx, span, StageParse, start, err)

		return nil, err
	}

	result.Table = tbl

	if !p.SkipProfile {
		result.Profiles = p.profile(ctx, tbl, specs)
	}

	result.Duration = time.Since(start)

	p.finish(ctx, span, StageDone, start, nil)

	return result, nil
}

func (p *Pipeline) fetch(ctx context.Context, location string) (*source.Resource, error) {
	ctx, span := p.tracer().Start(ctx, "colprofile."+StageFetch)
	defer span.End()

	res, err := p.Fetcher.Fetch(ctx, location)
	if err != nil {
		recordError(span, err)
		p.logger().ErrorContext(ctx, "fetch failed", "location", location, "error", err)

		return nil, err
	}

	span.SetAttributes(attribute.Int("source.bytes", res.Size()), attribute.String("source.content_type", res.ContentType))
	p.logger().InfoContext(ctx, "fetched", "location", location, "bytes", res.Size(), "content_type", res.ContentType)

	if p.Metrics != nil {
		p.Metrics.RecordFetch(ctx, res.Size())
	}

	return res, nil
}

func (p *Pipeline) decode(ctx context.Context, res *source.Resource) (textenc.Result, error) {
	ctx, span := p.tracer().Start(ctx, "colprofile."+StageDecode)
	defer span.End()

	if p.Resolver == nil {
		return textenc.Result{}, errNoResolver
	}

	decoded, err := p.Resolver.Resolve(res.Data, res.ContentType)

	var decodeErr *textenc.DecodeError
	if errors.As(err, &decodeErr) {
		p.recordAttempts(ctx, decodeErr.Attempts, "")
	}

	if err != nil {
		recordError(span, err)
		p.logger().ErrorContext(ctx, "decode failed", "candidates", p.Resolver.Candidates(), "error", err)

		return textenc.Result{}, fmt.Errorf("decode: %w", err)
	}

	p.recordAttempts(ctx, decoded.Failed, decoded.Encoding)

	for _, a := range decoded.Failed {
		p.logger().DebugContext(ctx, "candidate rejected", "encoding", a.Encoding, "error", a.Err)
	}

	attrs := []any{"encoding", decoded.Encoding, "rejected", len(decoded.Failed)}
	if d := decoded.Detected; d != nil {
		attrs = append(attrs, "detected", d.Encoding, "certain", d.Certain)
	}

	span.SetAttributes(attribute.String("decode.encoding", decoded.Encoding), attribute.Int("decode.rejected", len(decoded.Failed)))
	p.logger().InfoContext(ctx, "decoded", attrs...)

	return decoded, nil
}

func (p *Pipeline) recordAttempts(ctx context.Context, failed []textenc.Attempt, winner string) {
	if p.Metrics == nil {
		return
	}

	for _, a := range failed {
		p.Metrics.RecordDecodeAttempt(ctx, a.Encoding, observability.OutcomeFailed)
	}

	if winner != "" {
		p.Metrics.RecordDecodeAttempt(ctx, winner, observability.OutcomeOK)
	}
}

func (p *Pipeline) parse(ctx context.Context, text string) (*table.Table, error) {
	ctx, span := p.tracer().Start(ctx, "colprofile."+StageParse)
	defer span.End()

	tbl, err := table.Parse(text, p.ParseOptions)
	if err != nil {
		recordError(span, err)
		p.logger().ErrorContext(ctx, "parse failed", "error", err)

		return nil, fmt.Errorf("parse: %w", err)
	}

	if p.RequireData {
		if _, err := tbl.Header(); err != nil {
			recordError(span, err)
			p.logger().ErrorContext(ctx, "table has no header", "error", err)

			return nil, fmt.Errorf("parse: %w", err)
		}
	}

	if tbl.Empty() {
		p.logger().WarnContext(ctx, "table is empty, every column will report no data")
	}

	span.SetAttributes(attribute.Int("table.rows", tbl.Len()), attribute.Int("table.width", tbl.Width()))
	p.logger().InfoContext(ctx, "parsed", "rows", tbl.Len(), "width", tbl.Width())

	if p.Metrics != nil {
		p.Metrics.RecordRows(ctx, tbl.Len())
	}

	return tbl, nil
}

func (p *Pipeline) profile(ctx context.Context, tbl *table.Table, specs []profile.ColumnSpec) []profile.ColumnProfile {
	ctx, span := p.tracer().Start(ctx, "colprofile."+StageProfile)
	defer span.End()

	profiler := p.Profiler
	if profiler == nil {
		profiler = profile.NewProfiler(profile.Options{})
	}

	profiles := profiler.Profile(tbl, specs)

	for i := range profiles {
		col := &profiles[i]

		switch col.Status {
		case profile.StatusMissingColumn:
			p.logger().WarnContext(ctx, "column not found",
				"label", col.Label, "name", col.Spec.Name, "index", col.Spec.Index, "did_you_mean", col.Suggestion)
		case profile.StatusNoData:
			p.logger().InfoContext(ctx, "column has no data", "label", col.Label, "short_rows", col.ShortRows)
		default:
			p.logger().DebugContext(ctx, "column profiled",
				"label", col.Label, "index", col.Index, "distinct", col.Distinct(), "short_rows", col.ShortRows)
		}

		if p.Metrics != nil {
			p.Metrics.RecordColumn(ctx, string(col.Status))
		}
	}

	span.SetAttributes(attribute.Int("profile.columns", len(profiles)))

	return profiles
}

func (p *Pipeline) finish(ctx context.Context, span trace.Span, stage string, start time.Time, err error) {
	outcome := observability.OutcomeOK
	if err != nil {
		outcome = observability.OutcomeFailed

		recordError(span, err)
	}

	if p.Metrics != nil {
		p.Metrics.RecordRun(ctx, stage, outcome, time.Since(start))
	}
}

func (p *Pipeline) tracer() trace.Tracer {
	if p.Tracer != nil {
		return p.Tracer
	}

	return otel.Tracer(tracerName)
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}

	return slog.Default()
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
