package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(Deliveries.WithLabelValues("skipped"))
	Deliveries.WithLabelValues("skipped").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Deliveries.WithLabelValues("skipped")))

	before = testutil.ToFloat64(Subscriptions.WithLabelValues("ok"))
	Subscriptions.WithLabelValues("ok").Add(2)
	assert.Equal(t, before+2, testutil.ToFloat64(Subscriptions.WithLabelValues("ok")))
}
