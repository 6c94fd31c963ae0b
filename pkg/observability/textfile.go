package observability

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

var errEmptyTextfilePath = errors.New("metrics textfile path is empty")

// Textfile exports OTel metrics in the Prometheus text format to a file,
// for one-shot runs scraped through node_exporter's textfile collector.
type Textfile struct {
	path     string
	registry *prometheus.Registry
	reader   sdkmetric.Reader
}

// NewTextfile creates an exporter backed by its own Prometheus registry.
func NewTextfile(path string) (*Textfile, error) {
	if path == "" {
		return nil, errEmptyTextfilePath
	}

	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return &Textfile{path: path, registry: registry, reader: exporter}, nil
}

// Reader is the metric reader to attach to a MeterProvider.
func (t *Textfile) Reader() sdkmetric.Reader {
	return t.reader
}

// Gatherer exposes the registry, mainly for tests.
func (t *Textfile) Gatherer() prometheus.Gatherer {
	return t.registry
}

// Write atomically replaces the textfile with the current metric values.
func (t *Textfile) Write() error {
	if err := prometheus.WriteToTextfile(t.path, t.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", t.path, err)
	}

	return nil
}
