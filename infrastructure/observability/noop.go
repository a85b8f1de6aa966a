package observability

import "context"

// NoopMeter discards all measurements. It is the default when no meter
// is configured.
type NoopMeter struct{}

// NewNoopMeter creates a meter that records nothing.
func NewNoopMeter() NoopMeter { return NoopMeter{} }

// Counter implements Meter.
func (NoopMeter) Counter(name, description string) Counter { return noopCounter{} }

// Gauge implements Meter.
func (NoopMeter) Gauge(name, description string) Gauge { return noopGauge{} }

type noopCounter struct{}

func (noopCounter) Add(ctx context.Context, value int64, attrs ...Attribute) {}

type noopGauge struct{}

func (noopGauge) Record(ctx context.Context, value float64, attrs ...Attribute) {}

var (
	_ Meter   = NoopMeter{}
	_ Counter = noopCounter{}
	_ Gauge   = noopGauge{}
)
