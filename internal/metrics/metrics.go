package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront"

// Metrics is nil-safe: every recorder is a no-op on a nil receiver.
type Metrics struct {
	cartMutations       *prometheus.CounterVec
	checkouts           *prometheus.CounterVec
	orderPersistFailure prometheus.Counter
	analyticsDropped    prometheus.Counter
	cmsRequests         *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Committed cart mutations by operation.",
		}, []string{"op"}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkout attempts by outcome.",
		}, []string{"outcome"}),
		orderPersistFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_persist_failures_total",
			Help:      "Orders that could not be written after a captured payment.",
		}),
		analyticsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_events_dropped_total",
			Help:      "Analytics events dropped because the queue was full or the sink failed.",
		}),
		cmsRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cms_requests_total",
			Help:      "Requests to the CMS by operation and outcome.",
		}, []string{"op", "outcome"}),
	}
	reg.MustRegister(m.cartMutations, m.checkouts, m.orderPersistFailure, m.analyticsDropped, m.cmsRequests)
	return m
}

func (m *Metrics) CartMutation(op string) {
	if m == nil {
		return
	}
	m.cartMutations.WithLabelValues(op).Inc()
}

func (m *Metrics) Checkout(outcome string) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) OrderPersistFailed() {
	if m == nil {
		return
	}
	m.orderPersistFailure.Inc()
}

func (m *Metrics) AnalyticsDropped() {
	if m == nil {
		return
	}
	m.analyticsDropped.Inc()
}

func (m *Metrics) CMSRequest(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.cmsRequests.WithLabelValues(op, outcome).Inc()
}
