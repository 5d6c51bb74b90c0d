// Package metrics defines the Prometheus collectors exported by the
// application. Collectors are created per registry so tests can use an
// isolated prometheus.Registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search outcomes recorded by the stage controller.
const (
	SearchOK    = "ok"
	SearchEmpty = "empty"
	SearchError = "error"
	SearchStale = "stale"
)

// Metrics bundles the collectors used by the search and playback layers.
type Metrics struct {
	Searches       *prometheus.CounterVec
	WidgetErrors   *prometheus.CounterVec
	WidgetBinds    prometheus.Counter
	PollTicks      prometheus.Counter
	StaleCallbacks prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is convenient for tests that do not inspect them.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "radio_searches_total",
			Help: "Catalog searches by outcome.",
		}, []string{"outcome"}),
		WidgetErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "radio_widget_errors_total",
			Help: "Widget calls that failed and were swallowed, by call.",
		}, []string{"call"}),
		WidgetBinds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "radio_widget_binds_total",
			Help: "Widget instances created for selected items.",
		}),
		PollTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "radio_poll_ticks_total",
			Help: "Playback state reconciliation reads.",
		}),
		StaleCallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "radio_stale_callbacks_total",
			Help: "Widget callbacks discarded because their instance was released.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Searches, m.WidgetErrors, m.WidgetBinds, m.PollTicks, m.StaleCallbacks)
	}
	return m
}
