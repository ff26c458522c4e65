package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// TextfileExporter collects OTel metrics into a private Prometheus registry and writes
// them to a file in the text exposition format, for node_exporter's textfile collector
// or CI artifacts.
type TextfileExporter struct {
	path     string
	registry *prometheus.Registry
	reader   sdkmetric.Reader
}

// NewTextfileExporter creates an exporter that writes to path.
func NewTextfileExporter(path string) (*TextfileExporter, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(
		promexporter.WithRegisterer(registry),
	)
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return &TextfileExporter{path: path, registry: registry, reader: exporter}, nil
}

// Reader returns the metric reader to attach to a MeterProvider.
func (e *TextfileExporter) Reader() sdkmetric.Reader {
	return e.reader
}

// Write gathers the current metric values and atomically replaces the file.
func (e *TextfileExporter) Write() error {
	err := prometheus.WriteToTextfile(e.path, e.registry)
	if err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}

	return nil
}
