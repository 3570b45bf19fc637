// Package metrics exposes inventory and gateway counters to prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records inventory operations and AI gateway calls. A nil
// Collector, or one built without a registerer, records nothing.
type Collector struct {
	operations     *prometheus.CounterVec
	gatewayCalls   *prometheus.CounterVec
	gatewayLatency *prometheus.HistogramVec
	lowStockAlerts prometheus.Counter
}

func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		return &Collector{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockroom_inventory_operations_total",
		Help: "Inventory operations by name and outcome.",
	}, []string{"operation", "outcome"})
	gatewayCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockroom_gateway_calls_total",
		Help: "AI gateway calls by gateway and outcome.",
	}, []string{"gateway", "outcome"})
	gatewayLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockroom_gateway_duration_seconds",
		Help:    "Duration of AI gateway calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"gateway"})
	lowStockAlerts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stockroom_low_stock_alerts_total",
		Help: "Low stock alerts sent.",
	})
	reg.MustRegister(operations, gatewayCalls, gatewayLatency, lowStockAlerts)
	return &Collector{
		operations:     operations,
		gatewayCalls:   gatewayCalls,
		gatewayLatency: gatewayLatency,
		lowStockAlerts: lowStockAlerts,
	}
}

// Operation counts one inventory operation; err decides the outcome label.
func (c *Collector) Operation(name string, err error) {
	if c == nil || c.operations == nil {
		return
	}
	c.operations.WithLabelValues(normalizeLabel(name), outcome(err)).Inc()
}

// GatewayCall counts one gateway round trip and observes its duration.
func (c *Collector) GatewayCall(gateway string, started time.Time, err error) {
	if c == nil || c.gatewayCalls == nil {
		return
	}
	gateway = normalizeLabel(gateway)
	c.gatewayCalls.WithLabelValues(gateway, outcome(err)).Inc()
	c.gatewayLatency.WithLabelValues(gateway).Observe(time.Since(started).Seconds())
}

func (c *Collector) LowStockAlert() {
	if c == nil || c.lowStockAlerts == nil {
		return
	}
	c.lowStockAlerts.Inc()
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func normalizeLabel(name string) string {
	if name == "" {
		return "unknown"
	}
	return name
}
