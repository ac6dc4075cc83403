// Package metrics exposes ringlog instruments through OpenTelemetry with a
// Prometheus exporter.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"reflect"

	prometheus2 "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	api "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

const defaultEndpoint = "/metrics"

// Metrics holds the meter and the HTTP server exposing it.
type Metrics struct {
	Meter    api.Meter
	provider *metric.MeterProvider
	registry *prometheus2.Registry
	Endpoint string

	*http.Server
}

// NewServer builds a meter backed by its own Prometheus registry and an HTTP
// server for addr that serves it on endpoint.
func NewServer(addr, endpoint string) (*Metrics, error) {
	registry := prometheus2.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	pkg := reflect.TypeOf(Metrics{}).PkgPath()
	meter := provider.Meter(pkg)

	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	m := &Metrics{
		Meter:    meter,
		provider: provider,
		registry: registry,
		Endpoint: endpoint,
	}
	router := http.NewServeMux()
	router.Handle(endpoint, m.Handler())
	m.Server = &http.Server{Addr: addr, Handler: router}
	return m, nil
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Shutdown stops the metrics server and flushes the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if err := m.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	if err := m.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("meter provider: %w", err)
	}
	return nil
}
