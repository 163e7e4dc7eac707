package main

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

const instrumentationName = "github.com/pepmenu/storefront/services/storefront"

// initTelemetry configura tracer e meter globais exportando via OTLP/HTTP.
// Com OTEL_ENABLED=false os provedores globais continuam sendo no-op.
func initTelemetry(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	if !cfg.OTelEnabled {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, err
	}

	tp, err := initTracer(ctx, cfg, res)
	if err != nil {
		return nil, err
	}
	mp, err := initMetrics(ctx, cfg, res)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	return func(ctx context.Context) error {
		if err := tp.Shutdown(ctx); err != nil {
			return err
		}
		return mp.Shutdown(ctx)
	}, nil
}

func initTracer(ctx context.Context, cfg Config, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.OTelEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	otel.SetTracerProvider(tp)

	return tp, nil
}

func initMetrics(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	exporter, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpoint(cfg.OTelEndpoint),
		otlpmetrichttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	return mp, nil
}

// storefrontMetrics agrupa os contadores de negócio da loja
type storefrontMetrics struct {
	ordersPlaced    metric.Int64Counter
	couponsApplied  metric.Int64Counter
	couponsRejected metric.Int64Counter
	itemsAdded      metric.Int64Counter
	activeSessions  metric.Int64UpDownCounter
}

func newStorefrontMetrics(meter metric.Meter) (*storefrontMetrics, error) {
	m := &storefrontMetrics{}
	var err error
	if m.ordersPlaced, err = meter.Int64Counter("storefront.orders.placed",
		metric.WithDescription("Pedidos finalizados")); err != nil {
		return nil, err
	}
	if m.couponsApplied, err = meter.Int64Counter("storefront.coupons.applied",
		metric.WithDescription("Cupons aceitos")); err != nil {
		return nil, err
	}
	if m.couponsRejected, err = meter.Int64Counter("storefront.coupons.rejected",
		metric.WithDescription("Códigos de cupom inválidos")); err != nil {
		return nil, err
	}
	if m.itemsAdded, err = meter.Int64Counter("storefront.cart.items_added",
		metric.WithDescription("Unidades adicionadas ao carrinho")); err != nil {
		return nil, err
	}
	if m.activeSessions, err = meter.Int64UpDownCounter("storefront.sessions.active",
		metric.WithDescription("Sessões com container ativo")); err != nil {
		return nil, err
	}
	return m, nil
}
