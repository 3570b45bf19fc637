package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCollectorExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.Operation("record_usage", nil)
	c.Operation("record_usage", errors.New("boom"))
	c.Operation("record_usage", nil)
	c.GatewayCall("assistant", time.Now().Add(-50*time.Millisecond), nil)
	c.LowStockAlert()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "stockroom_inventory_operations_total", map[string]string{"operation": "record_usage", "outcome": "success"}); err != nil {
		t.Fatalf("fetch operations: %v", err)
	} else if got != 2 {
		t.Fatalf("expected success=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "stockroom_inventory_operations_total", map[string]string{"operation": "record_usage", "outcome": "failure"}); err != nil {
		t.Fatalf("fetch operations: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "stockroom_gateway_calls_total", map[string]string{"gateway": "assistant", "outcome": "success"}); err != nil {
		t.Fatalf("fetch gateway calls: %v", err)
	} else if got != 1 {
		t.Fatalf("expected gateway calls=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "stockroom_low_stock_alerts_total", nil); err != nil {
		t.Fatalf("fetch alerts: %v", err)
	} else if got != 1 {
		t.Fatalf("expected alerts=1, got %f", got)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.Operation("x", nil)
	c.GatewayCall("vision", time.Now(), errors.New("down"))
	c.LowStockAlert()

	New(nil).Operation("x", nil)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if matchesLabels(metric.GetLabel(), labels) {
				return metric.GetCounter().GetValue(), nil
			}
		}
		return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
	}
	return 0, fmt.Errorf("metric %q not found", name)
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
