package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Observability bundles the OTel meter and tracer used by the dispatch path.
type Observability struct {
	meterProvider    *metric.MeterProvider
	meter            otelmetric.Meter
	tracer           trace.Tracer
	dispatchCounter  otelmetric.Int64Counter
	dispatchDuration otelmetric.Float64Histogram
	shutdownTracer   func(context.Context) error
}

// New registers a Prometheus-backed meter provider. Tracing stays a no-op
// until EnableTracing is called.
func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	o := &Observability{
		meterProvider: provider,
		meter:         provider.Meter(serviceName),
		tracer:        noop.NewTracerProvider().Tracer(serviceName),
	}
	if err := o.initInstruments(); err != nil {
		return nil, err
	}
	return o, nil
}

// NewNoop returns an Observability that records nothing. Used in tests and
// when the exporter cannot be built.
func NewNoop() *Observability {
	o := &Observability{
		tracer: noop.NewTracerProvider().Tracer("noop"),
	}
	return o
}

func (o *Observability) initInstruments() error {
	var err error
	o.dispatchCounter, err = o.meter.Int64Counter(
		"notifications.dispatched",
		otelmetric.WithDescription("Number of notification send attempts"),
	)
	if err != nil {
		return err
	}

	o.dispatchDuration, err = o.meter.Float64Histogram(
		"notifications.dispatch.duration",
		otelmetric.WithDescription("Duration of one SendOrderNotification call"),
		otelmetric.WithUnit("ms"),
	)
	return err
}

// Tracer returns the tracer for dispatch spans.
func (o *Observability) Tracer() trace.Tracer {
	return o.tracer
}

// StartSpan starts a span on the dispatch tracer.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordDispatch counts one channel attempt.
func (o *Observability) RecordDispatch(ctx context.Context, channel, event, status string) {
	if o.dispatchCounter != nil {
		o.dispatchCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("channel", channel),
			attribute.String("event", event),
			attribute.String("status", status),
		))
	}
}

// RecordDispatchDuration records the wall time of one dispatch call.
func (o *Observability) RecordDispatchDuration(ctx context.Context, duration time.Duration, event, outcome string) {
	if o.dispatchDuration != nil {
		o.dispatchDuration.Record(ctx, float64(duration.Microseconds())/1000, otelmetric.WithAttributes(
			attribute.String("event", event),
			attribute.String("outcome", outcome),
		))
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if o.shutdownTracer != nil {
		_ = o.shutdownTracer(ctx)
	}
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
}
