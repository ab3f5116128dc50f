package monitor

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// One collector for the whole test binary; promauto registers globally and
// a second NewMetricsCollector would collide.
func TestMetricsCollector(t *testing.T) {
	mc := NewMetricsCollector()

	t.Run("notifications", func(t *testing.T) {
		mc.RecordNotification("user", "trade_accepted")
		mc.RecordNotification("user", "trade_accepted")
		mc.RecordNotification("global", "trade_created")

		assert.Equal(t, 2.0, testutil.ToFloat64(mc.notificationTotal.WithLabelValues("user", "trade_accepted")))
		assert.Equal(t, 1.0, testutil.ToFloat64(mc.notificationTotal.WithLabelValues("global", "trade_created")))
	})

	t.Run("orders", func(t *testing.T) {
		mc.RecordOrderPlaced(true, 31.63)
		mc.RecordOrderPlaced(false, 0)

		assert.Equal(t, 1.0, testutil.ToFloat64(mc.orderPlacedTotal.WithLabelValues("success")))
		assert.Equal(t, 1.0, testutil.ToFloat64(mc.orderPlacedTotal.WithLabelValues("failure")))
		assert.InDelta(t, 31.63, testutil.ToFloat64(mc.orderPlacedValue), 0.001)
	})

	t.Run("trade transitions", func(t *testing.T) {
		mc.RecordTradeTransition("accept", true)
		mc.RecordTradeTransition("offer", false)

		assert.Equal(t, 1.0, testutil.ToFloat64(mc.tradeTransitionTotal.WithLabelValues("accept", "success")))
		assert.Equal(t, 1.0, testutil.ToFloat64(mc.tradeTransitionTotal.WithLabelValues("offer", "failure")))
	})

	t.Run("realtime clients", func(t *testing.T) {
		mc.SetRealtimeClients(3)
		assert.Equal(t, 3.0, testutil.ToFloat64(mc.realtimeClients))
	})
}
