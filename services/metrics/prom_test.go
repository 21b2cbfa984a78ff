package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchMetrics_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewDispatchMetrics(reg)
	require.NoError(t, err)

	m.OfferOutcome(OutcomeCreated)
	m.OfferOutcome(OutcomeCreated)
	m.OfferOutcome(OutcomeAccepted)
	m.Exhausted()
	m.CommissionSettled(300)
	m.CommissionSettled(-5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.offers.WithLabelValues(OutcomeCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.offers.WithLabelValues(OutcomeAccepted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exhaustions))
	assert.Equal(t, 300.0, testutil.ToFloat64(m.commission))
}

func TestDispatchMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewDispatchMetrics(reg)
	require.NoError(t, err)
	second, err := NewDispatchMetrics(reg)
	require.NoError(t, err)

	second.Exhausted()
	assert.Equal(t, 1.0, testutil.ToFloat64(first.exhaustions))
}

func TestDispatchMetrics_NilIsNoop(t *testing.T) {
	var m *DispatchMetrics
	assert.NotPanics(t, func() {
		m.OfferOutcome(OutcomeExpired)
		m.Exhausted()
		m.Settlement("completed")
		m.NotificationFailed("job_offer")
	})
}
