// Package commands implements CLI command handlers for colprofile.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/colprofile/pkg/config"
	"github.com/Sumatoshi-tech/colprofile/pkg/ingest"
	"github.com/Sumatoshi-tech/colprofile/pkg/observability"
	"github.com/Sumatoshi-tech/colprofile/pkg/persist"
	"github.com/Sumatoshi-tech/colprofile/pkg/profile"
	"github.com/Sumatoshi-tech/colprofile/pkg/report"
	"github.com/Sumatoshi-tech/colprofile/pkg/source"
	"github.com/Sumatoshi-tech/colprofile/pkg/textenc"
)

// stdinLocation is the source location reported for --stdin input.
const stdinLocation = "stdin"

var (
	// ErrNoLocation is returned when neither an argument, --url, --stdin nor
	// source.url names the CSV to read.
	ErrNoLocation = errors.New("no CSV location given: pass a URL or path, --url, --stdin or set source.url")
	// ErrConflictingInput is returned when --stdin is combined with a
	// location argument or --url.
	ErrConflictingInput = errors.New("--stdin cannot be combined with a location or --url")
)

type configLoader func(path string) (*config.Config, error)

type telemetryInitializer func(ctx context.Context, cfg observability.Config) (observability.Providers, error)

type fetcherFactory func(cfg *config.Config, tracer trace.Tracer) (source.Fetcher, error)

// deps are the collaborators a command needs; tests replace them.
type deps struct {
	loadConfig    configLoader
	initTelemetry telemetryInitializer
	newFetcher    fetcherFactory
}

func defaultDeps() deps {
	return deps{
		loadConfig:    config.LoadConfig,
		initTelemetry: observability.Init,
		newFetcher:    newRemoteFetcher,
	}
}

// newRemoteFetcher routes http(s) locations through a traced HTTP client
// and everything else to the local filesystem.
func newRemoteFetcher(cfg *config.Config, tracer trace.Tracer) (source.Fetcher, error) {
	maxBytes, err := cfg.Source.MaxBytes()
	if err != nil {
		return nil, err
	}

	httpFetcher := source.NewHTTPFetcher(
		source.WithTimeout(cfg.Source.Timeout),
		source.WithUserAgent(cfg.Source.UserAgent),
		source.WithMaxBytes(maxBytes),
		source.WithTransport(observability.TracingTransport(tracer, nil)),
	)

	return source.Router{HTTP: httpFetcher, File: source.FileFetcher{}}, nil
}

// inputFlags are shared by the profile and inspect commands.
type inputFlags struct {
	configPath string
	url        string
	encodings  []string
	delimiter  string
	format     string
	output     string
	samples    int
	timeout    time.Duration
	stdin      bool
	detect     bool
	trim       bool
	noColor    bool
}

func (f *inputFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()

	fl.StringVar(&f.configPath, "config", "", "Config file (default .colprofile.yaml in . or $HOME)")
	fl.StringVar(&f.url, "url", "", "CSV location (URL or path); overrides source.url")
	fl.BoolVar(&f.stdin, "stdin", false, "Read the CSV from standard input")
	fl.StringSliceVar(&f.encodings, "encodings", nil, "Candidate encodings in priority order, e.g. utf-8,euc-kr")
	fl.BoolVar(&f.detect, "detect", false, "Let BOM and charset detection reorder the candidates")
	fl.StringVar(&f.delimiter, "delimiter", "", "Field delimiter: a single character, tab, comma, semicolon or pipe")
	fl.BoolVar(&f.trim, "trim", false, "Trim surrounding whitespace from every field")
	fl.IntVar(&f.samples, "samples", config.DefaultSampleRows, "Number of sample rows to show")
	fl.StringVarP(&f.format, "format", "f", config.DefaultFormat,
		"Output format: "+strings.Join(report.Formats(), ", "))
	fl.StringVarP(&f.output, "output", "o", "", "Write the report to a file instead of stdout")
	fl.BoolVar(&f.noColor, "no-color", false, "Disable colored text output")
	fl.DurationVar(&f.timeout, "timeout", config.DefaultTimeout, "HTTP fetch timeout")
}

// apply copies every flag set on the command line over cfg.
func (f *inputFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	fl := cmd.Flags()

	if fl.Changed("url") {
		cfg.Source.URL = f.url
	}

	if fl.Changed("timeout") {
		cfg.Source.Timeout = f.timeout
	}

	if fl.Changed("encodings") {
		cfg.Encoding.Candidates = f.encodings
	}

	if fl.Changed("detect") {
		cfg.Encoding.Detect = f.detect
	}

	if fl.Changed("delimiter") {
		cfg.Parse.Delimiter = f.delimiter
	}

	if fl.Changed("trim") {
		cfg.Parse.TrimSpace = f.trim
	}

	if fl.Changed("samples") {
		cfg.Profile.SampleRows = f.samples
	}

	if fl.Changed("format") {
		cfg.Output.Format = f.format
	}

	if fl.Changed("output") {
		cfg.Output.Path = f.output
	}

	if fl.Changed("no-color") {
		cfg.Output.NoColor = f.noColor
	}
}

// session is one configured run of the ingest pipeline.
type session struct {
	cfg       *config.Config
	providers observability.Providers
	pipeline  *ingest.Pipeline
	location  string
}

// open loads configuration, applies flag overrides, starts telemetry and
// assembles the pipeline. override may further adjust the configuration
// before it is validated.
func (d deps) open(cmd *cobra.Command, flags *inputFlags, args []string, override func(*config.Config)) (*session, error) {
	cfg, err := d.loadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}

	flags.apply(cmd, cfg)

	if override != nil {
		override(cfg)
	}

	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	location, err := resolveLocation(cfg, flags.stdin, cmd.Flags().Changed("url"), args)
	if err != nil {
		return nil, err
	}

	obsCfg := cfg.Observability()
	obsCfg.LogWriter = cmd.ErrOrStderr()

	providers, err := d.initTelemetry(cmd.Context(), obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	s := &session{cfg: cfg, providers: providers, location: location}

	s.pipeline, err = d.pipeline(cmd, s, flags.stdin)
	if err != nil {
		return nil, errors.Join(err, s.close(cmd.Context()))
	}

	return s, nil
}

func (d deps) pipeline(cmd *cobra.Command, s *session, stdin bool) (*ingest.Pipeline, error) {
	cfg := s.cfg

	var resolverOpts []textenc.Option
	if cfg.Encoding.Detect {
		resolverOpts = append(resolverOpts, textenc.WithDetector())
	}

	resolver, err := textenc.NewResolver(cfg.Encoding.Candidates, resolverOpts...)
	if err != nil {
		return nil, err
	}

	parseOpts, err := cfg.Parse.Options()
	if err != nil {
		return nil, err
	}

	var fetcher source.Fetcher

	if stdin {
		data, readErr := io.ReadAll(cmd.InOrStdin())
		if readErr != nil {
			return nil, fmt.Errorf("read stdin: %w", readErr)
		}

		fetcher = source.StaticFetcher{Data: data}
	} else {
		fetcher, err = d.newFetcher(cfg, s.providers.Tracer)
		if err != nil {
			return nil, err
		}
	}

	metrics, err := observability.NewIngestMetrics(s.providers.Meter)
	if err != nil {
		return nil, err
	}

	return &ingest.Pipeline{
		Fetcher:      fetcher,
		Resolver:     resolver,
		ParseOptions: parseOpts,
		Profiler: profile.NewProfiler(profile.Options{
			TopN:      cfg.Profile.TopN,
			SkipEmpty: cfg.Profile.SkipEmpty,
			Exclude:   cfg.Profile.Exclude,
		}),
		Logger:      s.providers.Logger,
		Tracer:      s.providers.Tracer,
		Metrics:     metrics,
		RequireData: cfg.Profile.RequireData,
	}, nil
}

// resolveLocation picks the argument, then source.url. A configured
// source.url does not conflict with --stdin; only the command line does.
func resolveLocation(cfg *config.Config, stdin, urlFlag bool, args []string) (string, error) {
	if stdin {
		if len(args) > 0 || urlFlag {
			return "", ErrConflictingInput
		}

		return stdinLocation, nil
	}

	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}

	if cfg.Source.URL != "" {
		return cfg.Source.URL, nil
	}

	return "", ErrNoLocation
}

func (s *session) close(ctx context.Context) error {
	if s.providers.Shutdown == nil {
		return nil
	}

	return s.providers.Shutdown(context.WithoutCancel(ctx))
}

// runAndReport runs the pipeline and writes the rendered report. When
// withProfiles is false no column is profiled and only the header and
// sample rows are reported.
func (s *session) runAndReport(cmd *cobra.Command, specs []profile.ColumnSpec, withProfiles bool) error {
	s.pipeline.SkipProfile = !withProfiles

	result, err := s.pipeline.Run(cmd.Context(), s.location, specs)
	if err != nil {
		return err
	}

	in := report.Input{
		Location:    result.Resource.Location,
		ContentType: result.Resource.ContentType,
		Bytes:       result.Resource.Size(),
		Decoded:     result.Decoded,
		Table:       result.Table,
		SampleRows:  s.cfg.Profile.SampleRows,
		Profiles:    result.Profiles,
	}

	return s.write(cmd, report.Build(in))
}

func (s *session) write(cmd *cobra.Command, rep *report.Report) error {
	renderer, err := report.ForFormat(s.cfg.Output.Format, report.RenderOptions{NoColor: s.cfg.Output.NoColor})
	if err != nil {
		return err
	}

	if s.cfg.Output.Path == "" {
		return renderer.Render(cmd.OutOrStdout(), rep)
	}

	err = persist.WriteFile(s.cfg.Output.Path, func(w io.Writer) error {
		return renderer.Render(w, rep)
	})
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	s.providers.Logger.Info("report written", "path", s.cfg.Output.Path, "format", s.cfg.Output.Format)

	return nil
}
