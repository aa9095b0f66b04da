package inventory

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pantry_inventory_operations_total",
		Help: "Inventory operations by outcome.",
	}, []string{"operation", "result"})

	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pantry_inventory_operation_duration_seconds",
		Help:    "Latency of inventory operations including the store round trips.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	inventoryItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pantry_inventory_items",
		Help: "Number of items loaded by the last successful refresh.",
	})
)

func observe(operation string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	operationTotal.WithLabelValues(operation, result).Inc()
	operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
