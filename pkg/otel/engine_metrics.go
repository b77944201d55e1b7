package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/claysome/venue/pkg/otel"

// engineMetrics holds the singleton instance
var engineMetrics *EngineMetrics

// EngineMetrics holds the instruments for matching engine monitoring
type EngineMetrics struct {
	ordersTotal   metric.Int64Counter
	tradesTotal   metric.Int64Counter
	matchedVolume metric.Int64Counter
	matchLatency  metric.Float64Histogram
}

// GetEngineMetrics returns the EngineMetrics singleton. Instruments from the
// default (no-op) meter provider record nothing.
func GetEngineMetrics() *EngineMetrics {
	if engineMetrics != nil {
		return engineMetrics
	}

	meter := otel.GetMeterProvider().Meter(instrumentationName)

	ordersTotal, err := meter.Int64Counter(
		"engine.orders.total",
		metric.WithDescription("Total number of orders routed"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return &EngineMetrics{}
	}

	tradesTotal, err := meter.Int64Counter(
		"engine.trades.total",
		metric.WithDescription("Total number of trades executed"),
		metric.WithUnit("{trade}"),
	)
	if err != nil {
		return &EngineMetrics{}
	}

	matchedVolume, err := meter.Int64Counter(
		"engine.matched_volume.total",
		metric.WithDescription("Total matched size"),
		metric.WithUnit("{unit}"),
	)
	if err != nil {
		return &EngineMetrics{}
	}

	matchLatency, err := meter.Float64Histogram(
		"engine.match.duration",
		metric.WithDescription("Duration (seconds) of one routing decision"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return &EngineMetrics{}
	}

	engineMetrics = &EngineMetrics{
		ordersTotal:   ordersTotal,
		tradesTotal:   tradesTotal,
		matchedVolume: matchedVolume,
		matchLatency:  matchLatency,
	}

	return engineMetrics
}

// RecordSubmit records the outcome of one routing decision
func (m *EngineMetrics) RecordSubmit(ctx context.Context, orderType string, trades int, volume int64, d time.Duration) {
	if m.ordersTotal == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("order.type", orderType))
	m.ordersTotal.Add(ctx, 1, attrs)
	m.tradesTotal.Add(ctx, int64(trades), attrs)
	m.matchedVolume.Add(ctx, volume, attrs)
	m.matchLatency.Record(ctx, d.Seconds(), attrs)
}
