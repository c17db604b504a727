package crawler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the crawler's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	pages          *prometheus.CounterVec
	fetches        *prometheus.CounterVec
	pushed         prometheus.Counter
	pwaDetected    prometheus.Counter
	workerTimeouts prometheus.Counter
}

// NewMetrics registers the crawler collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		pages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pwascout_pages_total",
				Help: "URLs taken through the page processor, labeled by outcome.",
			},
			[]string{"outcome"},
		),
		fetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pwascout_fetches_total",
				Help: "HTTP fetches, labeled by result.",
			},
			[]string{"result"},
		),
		pushed: factory.NewCounter(prometheus.CounterOpts{
			Name: "pwascout_frontier_pushed_total",
			Help: "URLs pushed onto the frontier.",
		}),
		pwaDetected: factory.NewCounter(prometheus.CounterOpts{
			Name: "pwascout_pwa_detected_total",
			Help: "Newly stored pages that declare a web app manifest.",
		}),
		workerTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "pwascout_worker_timeouts_total",
			Help: "Workers abandoned after exceeding the per-URL deadline.",
		}),
	}
}

func (m *Metrics) observeOutcome(o Outcome) {
	if m == nil {
		return
	}
	m.pages.WithLabelValues(o.String()).Inc()
	if o == OutcomeTimedOut {
		m.workerTimeouts.Inc()
	}
}

func (m *Metrics) observeFetch(result string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(result).Inc()
}

func (m *Metrics) observePushed(n int) {
	if m == nil {
		return
	}
	m.pushed.Add(float64(n))
}

func (m *Metrics) observePWA() {
	if m == nil {
		return
	}
	m.pwaDetected.Inc()
}
