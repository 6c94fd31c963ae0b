// Package observability sets up structured logging, OpenTelemetry tracing
// and the ingest metrics for colprofile runs.
package observability

import (
	"io"
	"log/slog"
	"strings"
)

const (
	defaultServiceName        = "colprofile"
	defaultShutdownTimeoutSec = 5
)

// Config holds all observability configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables OTLP export.
	OTLPEndpoint string
	OTLPHeaders  map[string]string
	OTLPInsecure bool

	// SampleRatio is the trace sampling ratio. Zero samples every trace.
	SampleRatio float64

	// MetricsTextfile, when set, receives a Prometheus text exposition of
	// the run's metrics on shutdown (node_exporter textfile collector).
	MetricsTextfile string

	LogLevel slog.Level
	LogJSON  bool
	// LogWriter defaults to os.Stderr.
	LogWriter io.Writer

	ShutdownTimeoutSec int
}

// DefaultConfig returns a Config for zero-config startup: info-level text
// logs on stderr and no telemetry export.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}

// ParseLevel maps debug, info, warn and error to slog levels. Unknown
// names yield info and false.
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
