package snowtrack

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EmitterMetrics bundles Prometheus collectors describing event delivery.
type EmitterMetrics struct {
	Submitted prometheus.Counter
	Sent      prometheus.Counter
	Dropped   prometheus.Counter
	Failed    prometheus.Counter
	Retries   prometheus.Counter
}

// NewEmitterMetrics registers the collectors on the default registry,
// labelled with the tracker namespace.
func NewEmitterMetrics(namespace string) *EmitterMetrics {
	return newEmitterMetrics(promauto.With(prometheus.DefaultRegisterer), namespace)
}

// NewEmitterMetricsWith registers the collectors on a custom registerer.
func NewEmitterMetricsWith(reg prometheus.Registerer, namespace string) *EmitterMetrics {
	return newEmitterMetrics(promauto.With(reg), namespace)
}

func newEmitterMetrics(factory promauto.Factory, namespace string) *EmitterMetrics {
	labels := prometheus.Labels{"tracker": namespace}
	return &EmitterMetrics{
		Submitted: factory.NewCounter(prometheus.CounterOpts{
			Name:        "snowtrack_events_submitted_total",
			Help:        "Total events handed to the emitter",
			ConstLabels: labels,
		}),
		Sent: factory.NewCounter(prometheus.CounterOpts{
			Name:        "snowtrack_events_sent_total",
			Help:        "Total events delivered to the collector",
			ConstLabels: labels,
		}),
		Dropped: factory.NewCounter(prometheus.CounterOpts{
			Name:        "snowtrack_events_dropped_total",
			Help:        "Total events dropped after a client-error response",
			ConstLabels: labels,
		}),
		Failed: factory.NewCounter(prometheus.CounterOpts{
			Name:        "snowtrack_events_failed_total",
			Help:        "Total events whose delivery failed after all retries",
			ConstLabels: labels,
		}),
		Retries: factory.NewCounter(prometheus.CounterOpts{
			Name:        "snowtrack_send_retries_total",
			Help:        "Total delivery retry attempts",
			ConstLabels: labels,
		}),
	}
}
