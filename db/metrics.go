package db

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// 借还结果计数；未安装 MeterProvider 时为 no-op
type transitionMetrics struct {
	transitions metric.Int64Counter
}

func newTransitionMetrics(meter metric.Meter) *transitionMetrics {
	c, err := meter.Int64Counter(
		"library.transitions",
		metric.WithDescription("Borrow/return attempts by outcome"),
	)
	if err != nil {
		// 仪表名非法才会失败；退化为 no-op
		c = nil
	}
	return &transitionMetrics{transitions: c}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}

func (m *transitionMetrics) record(ctx context.Context, op string, err error) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome(err)),
	))
}
