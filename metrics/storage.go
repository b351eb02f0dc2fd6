package metrics

// Storage holds the instruments of the storage engine.
type Storage struct {
	AppendStateDiff Histogram
	RevertStateDiff Histogram
	AppendClasses   Histogram
	AppendCasm      Histogram
	AppendBody      Histogram
	// Markers is labelled by marker kind.
	Markers Vec[Gauge]
	// Reverts counts reverts by outcome, "reverted" or "noop".
	Reverts Vec[Counter]
}

func NewStorage(factory Factory) *Storage {
	latency := func(name string) Histogram {
		return factory.NewHistogram(HistogramOpts{
			Namespace: "storage",
			Name:      name + "_latency_seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		})
	}
	return &Storage{
		AppendStateDiff: latency("append_state_diff"),
		RevertStateDiff: latency("revert_state_diff"),
		AppendClasses:   latency("append_classes"),
		AppendCasm:      latency("append_casm"),
		AppendBody:      latency("append_body"),
		Markers: factory.NewGaugeVec(GaugeOpts{
			Namespace: "storage",
			Name:      "marker",
			Help:      "First block not yet reflected in the tables of each kind",
		}, []string{"kind"}),
		Reverts: factory.NewCounterVec(CounterOpts{
			Namespace: "storage",
			Name:      "reverts_total",
		}, []string{"outcome"}),
	}
}
