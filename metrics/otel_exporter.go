package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelExporter provides OpenTelemetry metrics export following OTel standards
// It also implements webhook.Observer so delivery attempts are counted where they happen
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	collector     Collector

	// OTel meters and instruments
	meter              metric.Meter
	queueDepthGauge    metric.Int64ObservableGauge
	statusCountGauge   metric.Int64ObservableGauge
	throughputGauge    metric.Int64ObservableGauge
	activeWorkersGauge metric.Int64ObservableGauge
	deliveries         metric.Int64Counter
	deliveryDuration   metric.Float64Histogram
}

// NewOTelExporter creates a new OpenTelemetry metrics exporter with Prometheus format
// collector may be nil in processes that only record deliveries
func NewOTelExporter(collector Collector) (*OTelExporter, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	oe, err := NewOTelExporterWithReader(collector, exporter)
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(oe.meterProvider)
	return oe, nil
}

// NewOTelExporterWithReader creates an exporter that publishes through reader
func NewOTelExporterWithReader(collector Collector, reader sdkmetric.Reader) (*OTelExporter, error) {
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
	)

	meter := meterProvider.Meter(
		"webhook-relay",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		collector:     collector,
		meter:         meter,
	}

	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

// registerInstruments creates and registers all OpenTelemetry metric instruments
func (oe *OTelExporter) registerInstruments() error {
	var err error

	oe.deliveries, err = oe.meter.Int64Counter(
		"webhook.deliveries",
		metric.WithDescription("Number of delivery attempts by stage and outcome"),
		metric.WithUnit("{attempts}"),
	)
	if err != nil {
		return fmt.Errorf("creating deliveries counter: %w", err)
	}

	oe.deliveryDuration, err = oe.meter.Float64Histogram(
		"webhook.delivery.duration",
		metric.WithDescription("Duration of delivery attempts"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("creating delivery duration histogram: %w", err)
	}

	if oe.collector == nil {
		return nil
	}

	oe.queueDepthGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.queue.depth",
		metric.WithDescription("Number of retry jobs by queue state"),
		metric.WithUnit("{jobs}"),
		metric.WithInt64Callback(oe.observeQueueDepth),
	)
	if err != nil {
		return fmt.Errorf("creating queue depth gauge: %w", err)
	}

	oe.statusCountGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.status.count",
		metric.WithDescription("Number of notifications by status"),
		metric.WithUnit("{notifications}"),
		metric.WithInt64Callback(oe.observeStatusCounts),
	)
	if err != nil {
		return fmt.Errorf("creating status count gauge: %w", err)
	}

	oe.throughputGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.throughput",
		metric.WithDescription("Number of notifications completed over time window"),
		metric.WithUnit("{notifications}"),
		metric.WithInt64Callback(oe.observeThroughput),
	)
	if err != nil {
		return fmt.Errorf("creating throughput gauge: %w", err)
	}

	oe.activeWorkersGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.workers.active",
		metric.WithDescription("Number of retry workers with a live heartbeat"),
		metric.WithUnit("{workers}"),
		metric.WithInt64Callback(oe.observeActiveWorkers),
	)
	if err != nil {
		return fmt.Errorf("creating active workers gauge: %w", err)
	}

	return nil
}

// ObserveDelivery records one delivery attempt
func (oe *OTelExporter) ObserveDelivery(ctx context.Context, stage string, delivered bool, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("delivery.stage", stage),
		attribute.Bool("delivery.delivered", delivered),
	)
	oe.deliveries.Add(ctx, 1, attrs)
	oe.deliveryDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// observeQueueDepth is a callback that reports retry queue depth
func (oe *OTelExporter) observeQueueDepth(ctx context.Context, observer metric.Int64Observer) error {
	depth, err := oe.collector.GetQueueDepth(ctx)
	if err != nil {
		return err
	}

	observer.Observe(depth.Delayed, metric.WithAttributes(attribute.String("queue.state", "delayed")))
	observer.Observe(depth.Ready, metric.WithAttributes(attribute.String("queue.state", "ready")))
	observer.Observe(depth.Pending, metric.WithAttributes(attribute.String("queue.state", "pending")))

	return nil
}

// observeStatusCounts is a callback that reports notification counts by status
func (oe *OTelExporter) observeStatusCounts(ctx context.Context, observer metric.Int64Observer) error {
	statusCounts, err := oe.collector.GetStatusCounts(ctx)
	if err != nil {
		return err
	}

	for status, count := range statusCounts {
		observer.Observe(count, metric.WithAttributes(
			attribute.String("notification.status", status),
		))
	}

	return nil
}

// observeThroughput is a callback that reports throughput metrics
func (oe *OTelExporter) observeThroughput(ctx context.Context, observer metric.Int64Observer) error {
	throughput, err := oe.collector.GetThroughput(ctx)
	if err != nil {
		return err
	}

	observer.Observe(throughput.LastMinute, metric.WithAttributes(
		attribute.String("time.window", "1m"),
	))
	observer.Observe(throughput.LastFiveMinutes, metric.WithAttributes(
		attribute.String("time.window", "5m"),
	))
	observer.Observe(throughput.LastFifteenMinutes, metric.WithAttributes(
		attribute.String("time.window", "15m"),
	))

	return nil
}

// observeActiveWorkers is a callback that reports the active worker count
func (oe *OTelExporter) observeActiveWorkers(ctx context.Context, observer metric.Int64Observer) error {
	workers, err := oe.collector.GetActiveWorkers(ctx)
	if err != nil {
		return err
	}

	observer.Observe(int64(len(workers)))

	return nil
}

// ServeHTTP serves Prometheus-formatted metrics on the given HTTP handler
func (oe *OTelExporter) ServeHTTP() http.Handler {
	return promhttp.Handler()
}

// Shutdown gracefully shuts down the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
