package coordinator

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/log"
)

type metrics struct {
	loads       metric.Int64Counter
	loadFailure metric.Int64Counter
	unavailable metric.Int64Counter
}

func newMetrics(l *log.Logger) *metrics {
	meter := otel.GetMeterProvider().Meter("ftd.coordinator")
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name,
			metric.WithDescription(desc), metric.WithUnit("{count}"))
		if err != nil {
			l.Error("failed to create metric", log.String("metric", name), log.ErrorField(err))
		}
		return c
	}
	return &metrics{
		loads:       counter("ftd.session.loads", "Number of session loads"),
		loadFailure: counter("ftd.session.load_failures", "Number of failed session loads"),
		unavailable: counter("ftd.telemetry.unavailable",
			"Number of drivers omitted due to missing telemetry"),
	}
}

func add(ctx context.Context, c metric.Int64Counter) {
	if c != nil {
		c.Add(ctx, 1)
	}
}

func (m *metrics) loaded(ctx context.Context)               { add(ctx, m.loads) }
func (m *metrics) loadFailed(ctx context.Context)           { add(ctx, m.loadFailure) }
func (m *metrics) telemetryUnavailable(ctx context.Context) { add(ctx, m.unavailable) }
