package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.CartMutation("add")
	m.CartMutation("add")
	m.Checkout("settled")
	m.OrderPersistFailed()
	m.AnalyticsDropped()
	m.CMSRequest("products", nil)
	m.CMSRequest("products", errors.New("down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cartMutations.WithLabelValues("add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checkouts.WithLabelValues("settled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.orderPersistFailure))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyticsDropped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cmsRequests.WithLabelValues("products", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cmsRequests.WithLabelValues("products", "error")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CartMutation("add")
		m.Checkout("settled")
		m.OrderPersistFailed()
		m.AnalyticsDropped()
		m.CMSRequest("login", nil)
	})
}
