package harness

import (
	"context"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"connectrpc.com/grpcreflect"
	"connectrpc.com/otelconnect"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/otterscale/expirymap/internal/core"
)

// Health service names reported by the ops server, one per map kind.
const (
	RotatingServiceName = "expirymap.v1.RotatingMap"
	SlidingServiceName  = "expirymap.v1.SlidingMap"
)

type Handler struct {
	version  core.Version
	registry *promclient.Registry
	provider *metric.MeterProvider
}

// NewHandler builds the meter provider backing the harness instruments
// and the registry scraped at /metrics. The returned cleanup flushes
// and shuts the provider down.
func NewHandler(version core.Version) (*Handler, func(), error) {
	registry := promclient.NewRegistry()

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, nil, err
	}
	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	cleanup := func() {
		_ = provider.Shutdown(context.Background())
	}

	return &Handler{
		version:  version,
		registry: registry,
		provider: provider,
	}, cleanup, nil
}

// MeterProvider returns the provider whose instruments are exported at
// /metrics.
func (h *Handler) MeterProvider() otelmetric.MeterProvider {
	return h.provider
}

// Mount registers reflection, health, metrics and version handlers on
// mux.
func (h *Handler) Mount(mux *http.ServeMux) error {
	otelInterceptor, err := otelconnect.NewInterceptor(
		otelconnect.WithMeterProvider(h.provider),
	)
	if err != nil {
		return err
	}

	interceptors := connect.WithInterceptors(otelInterceptor)

	// gRPC Reflection. Only the health service ships descriptors.
	reflector := grpcreflect.NewStaticReflector(grpchealth.HealthV1ServiceName)
	mux.Handle(grpcreflect.NewHandlerV1(reflector, interceptors))
	mux.Handle(grpcreflect.NewHandlerV1Alpha(reflector, interceptors))

	// gRPC Health Check
	checker := grpchealth.NewStaticChecker(RotatingServiceName, SlidingServiceName)
	mux.Handle(grpchealth.NewHandler(checker, interceptors))

	// Prometheus Metrics
	mux.Handle("/metrics", promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, h.version)
	})

	return nil
}
