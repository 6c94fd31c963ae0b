// Package config loads colprofile settings from a YAML file, COLPROFILE_*
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/colprofile/pkg/observability"
	"github.com/Sumatoshi-tech/colprofile/pkg/profile"
	"github.com/Sumatoshi-tech/colprofile/pkg/report"
	"github.com/Sumatoshi-tech/colprofile/pkg/safeconv"
	"github.com/Sumatoshi-tech/colprofile/pkg/table"
	"github.com/Sumatoshi-tech/colprofile/pkg/textenc"
	"github.com/Sumatoshi-tech/colprofile/pkg/version"
)

// Sentinel validation errors.
var (
	ErrInvalidTimeout    = errors.New("source timeout must be positive")
	ErrInvalidMaxSize    = errors.New("invalid source max size")
	ErrInvalidEncoding   = errors.New("invalid candidate encodings")
	ErrInvalidDelimiter  = errors.New("invalid delimiter")
	ErrInvalidTopN       = errors.New("top_n must be positive")
	ErrInvalidSampleRows = errors.New("sample_rows must not be negative")
	ErrInvalidColumn     = errors.New("invalid column")
	ErrInvalidFormat     = errors.New("invalid output format")
	ErrInvalidLogLevel   = errors.New("invalid log level")
	ErrInvalidLogFormat  = errors.New("invalid log format")
	ErrInvalidSampling   = errors.New("sample ratio must be within [0, 1]")
)

// Config holds all colprofile settings.
type Config struct {
	Source    SourceConfig    `mapstructure:"source"`
	Encoding  EncodingConfig  `mapstructure:"encoding"`
	Parse     ParseConfig     `mapstructure:"parse"`
	Profile   ProfileConfig   `mapstructure:"profile"`
	Output    OutputConfig    `mapstructure:"output"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// SourceConfig controls fetching.
type SourceConfig struct {
	URL       string        `mapstructure:"url"`
	UserAgent string        `mapstructure:"user_agent"`
	MaxSize   string        `mapstructure:"max_size"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// MaxBytes parses MaxSize ("64MB", "1GiB", "0" for unlimited).
func (s SourceConfig) MaxBytes() (int64, error) {
	n, err := humanize.ParseBytes(s.MaxSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidMaxSize, s.MaxSize, err)
	}

	return safeconv.ClampToInt64(n), nil
}

// EncodingConfig lists candidate encodings in priority order.
type EncodingConfig struct {
	Candidates []string `mapstructure:"candidates"`
	Detect     bool     `mapstructure:"detect"`
}

// ParseConfig controls CSV splitting.
type ParseConfig struct {
	Delimiter string `mapstructure:"delimiter"`
	TrimSpace bool   `mapstructure:"trim_space"`
}

// Options converts the settings for table.Parse.
func (p ParseConfig) Options() (table.ParseOptions, error) {
	delim, err := table.ParseDelimiter(p.Delimiter)
	if err != nil {
		return table.ParseOptions{}, fmt.Errorf("%w: %w", ErrInvalidDelimiter, err)
	}

	return table.ParseOptions{Delimiter: delim, TrimSpace: p.TrimSpace}, nil
}

// ProfileConfig controls column profiling.
type ProfileConfig struct {
	Exclude     []string       `mapstructure:"exclude"`
	Columns     []ColumnConfig `mapstructure:"columns"`
	TopN        int            `mapstructure:"top_n"`
	SampleRows  int            `mapstructure:"sample_rows"`
	SkipEmpty   bool           `mapstructure:"skip_empty"`
	RequireData bool           `mapstructure:"require_data"`
}

// Specs converts the configured columns.
func (p ProfileConfig) Specs() []profile.ColumnSpec {
	specs := make([]profile.ColumnSpec, 0, len(p.Columns))
	for _, c := range p.Columns {
		specs = append(specs, c.Spec())
	}

	return specs
}

// ColumnConfig names one column. Index is optional so that a name-only
// column never falls back to column 0.
type ColumnConfig struct {
	Index *int   `mapstructure:"index"`
	Name  string `mapstructure:"name"`
	Label string `mapstructure:"label"`
	Sort  string `mapstructure:"sort"`
	Limit int    `mapstructure:"limit"`
}

// Spec converts the column for the profiler.
func (c ColumnConfig) Spec() profile.ColumnSpec {
	index := -1
	if c.Index != nil {
		index = *c.Index
	}

	return profile.ColumnSpec{
		Index: index,
		Name:  c.Name,
		Label: c.Label,
		Sort:  profile.Sort(strings.ToLower(c.Sort)),
		Limit: c.Limit,
	}
}

// OutputConfig controls rendering.
type OutputConfig struct {
	Format  string `mapstructure:"format"`
	Path    string `mapstructure:"path"`
	NoColor bool   `mapstructure:"no_color"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	OTLPEndpoint    string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders     string  `mapstructure:"otlp_headers"`
	MetricsTextfile string  `mapstructure:"metrics_textfile"`
	Environment     string  `mapstructure:"environment"`
	SampleRatio     float64 `mapstructure:"sample_ratio"`
	OTLPInsecure    bool    `mapstructure:"otlp_insecure"`
}

// Observability converts logging and telemetry settings.
func (c *Config) Observability() observability.Config {
	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = version.Version
	cfg.Environment = c.Telemetry.Environment
	cfg.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	cfg.OTLPHeaders = observability.ParseOTLPHeaders(c.Telemetry.OTLPHeaders)
	cfg.OTLPInsecure = c.Telemetry.OTLPInsecure
	cfg.SampleRatio = c.Telemetry.SampleRatio
	cfg.MetricsTextfile = c.Telemetry.MetricsTextfile
	cfg.LogLevel, _ = observability.ParseLevel(c.Logging.Level)
	cfg.LogJSON = strings.EqualFold(c.Logging.Format, logFormatJSON)

	return cfg
}

// LoadConfig reads configPath, or .colprofile.yaml from the working
// directory or $HOME when configPath is empty. A missing default file is
// not an error; a missing explicit file is.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	v.SetEnvPrefix(DefaultEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundErr) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.url", "")
	v.SetDefault("source.timeout", DefaultTimeout)
	v.SetDefault("source.user_agent", version.UserAgent())
	v.SetDefault("source.max_size", DefaultMaxSize)

	v.SetDefault("encoding.candidates", textenc.DefaultCandidates)
	v.SetDefault("encoding.detect", false)

	v.SetDefault("parse.delimiter", DefaultDelimiter)
	v.SetDefault("parse.trim_space", false)

	v.SetDefault("profile.top_n", DefaultTopN)
	v.SetDefault("profile.sample_rows", DefaultSampleRows)
	v.SetDefault("profile.skip_empty", false)
	v.SetDefault("profile.exclude", []string{})
	v.SetDefault("profile.require_data", false)

	v.SetDefault("output.format", DefaultFormat)
	v.SetDefault("output.no_color", false)
	v.SetDefault("output.path", "")

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.otlp_headers", "")
	v.SetDefault("telemetry.otlp_insecure", false)
	v.SetDefault("telemetry.metrics_textfile", "")
	v.SetDefault("telemetry.environment", "")
	v.SetDefault("telemetry.sample_ratio", defaultSampleRatio)
}

// Validate checks every setting and returns the first problem found.
func (c *Config) Validate() error {
	if c.Source.Timeout <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, c.Source.Timeout)
	}

	if _, err := c.Source.MaxBytes(); err != nil {
		return err
	}

	if len(c.Encoding.Candidates) == 0 {
		return fmt.Errorf("%w: empty list", ErrInvalidEncoding)
	}

	for _, name := range c.Encoding.Candidates {
		if _, err := textenc.Lookup(name); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
		}
	}

	if _, err := c.Parse.Options(); err != nil {
		return err
	}

	if c.Profile.TopN <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTopN, c.Profile.TopN)
	}

	if c.Profile.SampleRows < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSampleRows, c.Profile.SampleRows)
	}

	for i, col := range c.Profile.Columns {
		if err := validateColumn(col); err != nil {
			return fmt.Errorf("%w %d: %w", ErrInvalidColumn, i, err)
		}
	}

	if !slices.Contains(report.Formats(), strings.ToLower(c.Output.Format)) {
		return fmt.Errorf("%w: %q (supported: %s)", ErrInvalidFormat, c.Output.Format, strings.Join(report.Formats(), ", "))
	}

	if _, ok := observability.ParseLevel(c.Logging.Level); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	if f := strings.ToLower(c.Logging.Format); f != DefaultLogFormat && f != logFormatJSON {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampling, c.Telemetry.SampleRatio)
	}

	return nil
}

var (
	errColumnRef  = errors.New("needs a name or a non-negative index")
	errColumnSort = errors.New("sort must be value or count")
)

func validateColumn(col ColumnConfig) error {
	spec := col.Spec()

	if spec.Name == "" && spec.Index < 0 {
		return errColumnRef
	}

	if !spec.Sort.Valid() {
		return fmt.Errorf("%w, got %q", errColumnSort, col.Sort)
	}

	return nil
}
