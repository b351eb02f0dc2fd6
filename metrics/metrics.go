package metrics

import (
	"time"
)

// Factory builds the instruments used by the storage layer. The noop factory lets
// callers run without a registry.
type Factory interface {
	NewCounterVec(opts CounterOpts, labelNames []string) Vec[Counter]
	NewGaugeVec(opts GaugeOpts, labelNames []string) Vec[Gauge]
	NewHistogram(opts HistogramOpts) Histogram
	NewHistogramVec(opts HistogramOpts, labelNames []string) Vec[Histogram]
	NewTimer(o Observer) Timer
}

type Histogram interface {
	Observe(float64)
}

type Gauge interface {
	Set(float64)
	Inc()
	Dec()
}

type Vec[T any] interface {
	WithLabelValues(lvs ...string) T
}

type Counter interface {
	Inc()
	Add(float64)
}

type Observer interface {
	Observe(float64)
}

type Timer interface {
	ObserveDuration() time.Duration
}

type Opts struct {
	Namespace string
	Subsystem string
	Name      string
	Help      string
}

type CounterOpts Opts
type GaugeOpts Opts
type HistogramOpts struct {
	Namespace string
	Subsystem string
	Name      string
	Help      string

	Buckets []float64
}

// VoidFactory returns metrics factory without any collection.
func VoidFactory() Factory {
	return &noopFactory{}
}
