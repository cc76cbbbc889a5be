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

	// TenantLabels adds tenant_id to spin and rate-limit counters. Series
	// grow with the number of shops, so keep it off for large fleets.
	TenantLabels bool
}

// Metrics exposes application-level instruments.
type Metrics struct {
	spins            metric.Int64Counter
	provisioning     metric.Int64Counter
	provisionLatency metric.Float64Histogram
	rewardIssue      metric.Int64Counter
	rateLimitDenied  metric.Int64Counter

	tenantLabels bool
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

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "prizewheel"
	}
	meter := provider.Meter(name)

	spins, err := meter.Int64Counter("prizewheel_spins_total")
	if err != nil {
		return nil, err
	}
	provisioning, err := meter.Int64Counter("prizewheel_tenant_provisioning_total")
	if err != nil {
		return nil, err
	}
	provisionLatency, err := meter.Float64Histogram("prizewheel_tenant_provisioning_seconds", metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	rewardIssue, err := meter.Int64Counter("prizewheel_reward_issue_total")
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("prizewheel_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		spins:            spins,
		provisioning:     provisioning,
		provisionLatency: provisionLatency,
		rewardIssue:      rewardIssue,
		rateLimitDenied:  rateLimitDenied,
		tenantLabels:     cfg.TenantLabels,
	}, nil
}

// RecordSpin counts spin outcomes (won, already_played, invalid, issue_failed, ...).
func (m *Metrics) RecordSpin(ctx context.Context, tenantID, outcome string) {
	if m == nil {
		return
	}
	attrs := m.withTenant(tenantID, FilterAttributes(
		attribute.String("outcome", strings.TrimSpace(outcome)),
	))
	m.spins.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordProvisioning(ctx context.Context, provisioner, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("provisioner", strings.TrimSpace(provisioner)),
		attribute.String("result", strings.TrimSpace(result)),
	)
	m.provisioning.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.provisionLatency.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordRewardIssue(ctx context.Context, discountType, result string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("discount_type", strings.TrimSpace(discountType)),
		attribute.String("result", strings.TrimSpace(result)),
	)
	m.rewardIssue.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordRateLimitDenied(ctx context.Context, tenantID, reason string) {
	if m == nil {
		return
	}
	attrs := m.withTenant(tenantID, FilterAttributes(
		attribute.String("reason", strings.TrimSpace(reason)),
	))
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) withTenant(tenantID string, attrs []attribute.KeyValue) []attribute.KeyValue {
	tenantID = strings.TrimSpace(tenantID)
	if !m.tenantLabels || tenantID == "" {
		return attrs
	}
	return append(attrs, attribute.String("tenant_id", tenantID))
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

// Shopper identity, discount codes and raw errors never become labels.
// tenant_id is opt-in through Config.TenantLabels.
var allowedLabelKeys = map[attribute.Key]struct{}{
	"outcome":       {},
	"provisioner":   {},
	"result":        {},
	"discount_type": {},
	"reason":        {},
	"endpoint":      {},
	"status_code":   {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
