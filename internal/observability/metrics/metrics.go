package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	ordersCreated         metric.Int64Counter
	batchesCreated        metric.Int64Counter
	paymentsRecorded      metric.Int64Counter
	paymentsVerified      metric.Int64Counter
	inventoryReservations metric.Int64Counter
	reservationConflicts  metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "pelletport"
	}
	meter := provider.Meter(name)

	ordersCreated, err := meter.Int64Counter("pelletport_orders_created_total")
	if err != nil {
		return nil, err
	}
	batchesCreated, err := meter.Int64Counter("pelletport_batches_created_total")
	if err != nil {
		return nil, err
	}
	paymentsRecorded, err := meter.Int64Counter("pelletport_payments_recorded_total")
	if err != nil {
		return nil, err
	}
	paymentsVerified, err := meter.Int64Counter("pelletport_payments_verified_total")
	if err != nil {
		return nil, err
	}
	inventoryReservations, err := meter.Int64Counter("pelletport_inventory_reservations_total")
	if err != nil {
		return nil, err
	}
	reservationConflicts, err := meter.Int64Counter("pelletport_reservation_conflicts_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ordersCreated:         ordersCreated,
		batchesCreated:        batchesCreated,
		paymentsRecorded:      paymentsRecorded,
		paymentsVerified:      paymentsVerified,
		inventoryReservations: inventoryReservations,
		reservationConflicts:  reservationConflicts,
	}, nil
}

// RecordOrderCreated increments order creation counts.
func (m *Metrics) RecordOrderCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.ordersCreated.Add(ctx, 1)
}

// RecordBatchCreated increments batch creation counts.
func (m *Metrics) RecordBatchCreated(ctx context.Context, site string) {
	if m == nil {
		return
	}
	m.batchesCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("site", strings.TrimSpace(site))))
}

// RecordPaymentRecorded increments payment submission counts.
func (m *Metrics) RecordPaymentRecorded(ctx context.Context, mode string) {
	if m == nil {
		return
	}
	m.paymentsRecorded.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", strings.TrimSpace(mode))))
}

// RecordPaymentVerified increments payment verification counts.
func (m *Metrics) RecordPaymentVerified(ctx context.Context, approved bool) {
	if m == nil {
		return
	}
	m.paymentsVerified.Add(ctx, 1, metric.WithAttributes(attribute.Bool("approved", approved)))
}

// RecordInventoryReservation increments successful reservation counts.
func (m *Metrics) RecordInventoryReservation(ctx context.Context) {
	if m == nil {
		return
	}
	m.inventoryReservations.Add(ctx, 1)
}

// RecordReservationConflict increments rejected reservation counts.
func (m *Metrics) RecordReservationConflict(ctx context.Context) {
	if m == nil {
		return
	}
	m.reservationConflicts.Add(ctx, 1)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}
