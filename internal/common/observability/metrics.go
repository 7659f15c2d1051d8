package observability

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Observability struct {
	meterProvider        *metric.MeterProvider
	meter                otelmetric.Meter
	placementsConfirmed  otelmetric.Int64Counter
	withdrawalsProcessed otelmetric.Int64Counter
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	placementsConfirmed, _ := meter.Int64Counter(
		"placements.confirmed",
		otelmetric.WithDescription("Number of placements confirmed by students"),
	)

	withdrawalsProcessed, _ := meter.Int64Counter(
		"withdrawals.processed",
		otelmetric.WithDescription("Number of withdrawal requests processed by staff"),
	)

	return &Observability{
		meterProvider:        provider,
		meter:                meter,
		placementsConfirmed:  placementsConfirmed,
		withdrawalsProcessed: withdrawalsProcessed,
	}
}

func (o *Observability) RecordPlacementConfirmed(ctx context.Context, internshipID string) {
	if o.placementsConfirmed != nil {
		o.placementsConfirmed.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("internship_id", internshipID),
		))
	}
}

func (o *Observability) RecordWithdrawalProcessed(ctx context.Context, outcome string) {
	if o.withdrawalsProcessed != nil {
		o.withdrawalsProcessed.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("outcome", outcome),
		))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(context.Background())
	}
}
