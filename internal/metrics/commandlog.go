package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// QueueStats is the state of one command log file writer.
type QueueStats struct {
	File         string
	LinesWritten int64
	QueueDepth   int
}

// RegisterCommandLogMetrics exports the writer queues returned by stats as
// <namespace>_command_log_lines_written_total and
// <namespace>_command_log_queue_depth, labelled by file. stats is called on
// every collection.
func RegisterCommandLogMetrics(
	meterProvider metric.MeterProvider,
	namespace string,
	stats func() []QueueStats,
) (metric.Registration, error) {
	meter := meterProvider.Meter(namespace)

	written, err := meter.Int64ObservableCounter(
		fmt.Sprintf("%s_command_log_lines_written_total", namespace),
		metric.WithDescription("Lines written to each command log file since start"),
		metric.WithUnit("{line}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create command log lines counter: %w", err)
	}

	depth, err := meter.Int64ObservableGauge(
		fmt.Sprintf("%s_command_log_queue_depth", namespace),
		metric.WithDescription("Lines waiting in each command log writer queue"),
		metric.WithUnit("{line}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create command log queue gauge: %w", err)
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		for _, s := range stats() {
			attrs := metric.WithAttributes(attribute.String("file", s.File))
			o.ObserveInt64(written, s.LinesWritten, attrs)
			o.ObserveInt64(depth, int64(s.QueueDepth), attrs)
		}
		return nil
	}, written, depth)
}
