package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRegistry adapts a prometheus.Registerer to the GaugeRegistry
// capability. Each reader instance gets its own adapter carrying a reader_id
// const label, so several readers can share one process-wide registerer.
type PrometheusRegistry struct {
	registerer prometheus.Registerer
	namespace  string
	labels     prometheus.Labels
}

// NewPrometheusRegistry creates an adapter registering gauges under the
// given namespace, labelled with the reader id.
func NewPrometheusRegistry(registerer prometheus.Registerer, namespace, readerID string) *PrometheusRegistry {
	return &PrometheusRegistry{
		registerer: registerer,
		namespace:  namespace,
		labels:     prometheus.Labels{"reader_id": readerID},
	}
}

// RegisterGauge registers a GaugeFunc that invokes value on every scrape.
// Registration happens once at startup and a duplicate name is a wiring
// bug, so failures panic via MustRegister.
func (r *PrometheusRegistry) RegisterGauge(name, help string, value func() int64) {
	r.registerer.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace:   r.namespace,
			Subsystem:   "source_reader",
			Name:        name,
			Help:        help,
			ConstLabels: r.labels,
		},
		func() float64 { return float64(value()) },
	))
}
