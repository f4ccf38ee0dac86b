package metrics

import (
	"strings"

	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/prometheus/client_golang/prometheus"
)

// Config identifies the service on exported metrics.
type Config struct {
	ServiceName string
	Environment string
}

func (c Config) serviceName() string {
	name := strings.TrimSpace(c.ServiceName)
	if name == "" {
		return "procura"
	}
	return name
}

// Registry bundles the prometheus registry with the otel meter provider
// reading from it.
type Registry struct {
	Prometheus *prometheus.Registry
	Provider   metric.MeterProvider
}

// NewRegistry builds a dedicated prometheus registry and an otel meter
// provider exporting into it.
func NewRegistry() (*Registry, error) {
	reg := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, err
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	return &Registry{Prometheus: reg, Provider: provider}, nil
}
