package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Span names
	SpanSubmitOrder = "submit_order"
	SpanCancelOrder = "cancel_order"

	// Attribute keys
	AttributeOrderID       = "order.id"
	AttributeOrderSide     = "order.side"
	AttributeOrderType     = "order.type"
	AttributeOrderSize     = "order.size"
	AttributeExecutedSize  = "order.executed_size"
	AttributeRemainingSize = "order.remaining_size"
	AttributeTradeCount    = "trade.count"
)

// StartEngineSpan starts a new span for an engine operation
func StartEngineSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return GetEngineTracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// AddAttributes adds attributes to a span
func AddAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	if span == nil {
		return
	}
	span.SetAttributes(attrs...)
}

// SetSpanStatus sets the span status, tolerating a nil span
func SetSpanStatus(span trace.Span, code codes.Code, description string) {
	if span == nil {
		return
	}
	span.SetStatus(code, description)
}
