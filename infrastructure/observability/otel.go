package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMeter adapts an OpenTelemetry meter to the Meter port.
type OTelMeter struct {
	meter metric.Meter
}

// NewOTelMeter creates a meter from the global OpenTelemetry provider.
func NewOTelMeter(name string) *OTelMeter {
	return &OTelMeter{meter: otel.Meter(name)}
}

// Counter implements Meter.
func (m *OTelMeter) Counter(name, description string) Counter {
	counter, err := m.meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		return noopCounter{}
	}
	return &otelCounter{counter: counter}
}

// Gauge implements Meter.
func (m *OTelMeter) Gauge(name, description string) Gauge {
	gauge, err := m.meter.Float64Gauge(name, metric.WithDescription(description))
	if err != nil {
		return noopGauge{}
	}
	return &otelGauge{gauge: gauge}
}

type otelCounter struct {
	counter metric.Int64Counter
}

func (c *otelCounter) Add(ctx context.Context, value int64, attrs ...Attribute) {
	c.counter.Add(ctx, value, metric.WithAttributes(convertAttributes(attrs)...))
}

type otelGauge struct {
	gauge metric.Float64Gauge
}

func (g *otelGauge) Record(ctx context.Context, value float64, attrs ...Attribute) {
	g.gauge.Record(ctx, value, metric.WithAttributes(convertAttributes(attrs)...))
}

func convertAttributes(attrs []Attribute) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, attribute.String(a.Key, a.Value))
	}
	return out
}

var (
	_ Meter   = (*OTelMeter)(nil)
	_ Counter = (*otelCounter)(nil)
	_ Gauge   = (*otelGauge)(nil)
)
