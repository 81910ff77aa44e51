// Package app contains the application setup for the ProductService.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/abgdnv/catalog/internal/product/config"
	"github.com/abgdnv/catalog/internal/product/events"
	"github.com/abgdnv/catalog/internal/product/service"
	"github.com/abgdnv/catalog/internal/product/store"
	grpcImpl "github.com/abgdnv/catalog/internal/product/transport/grpc"
	"github.com/abgdnv/catalog/internal/product/transport/rest"
	"github.com/abgdnv/catalog/pkg/messaging"
	pnats "github.com/abgdnv/catalog/pkg/nats"
	"github.com/abgdnv/catalog/pkg/server"
	"github.com/abgdnv/catalog/pkg/telemetry"
	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc"
)

// ServiceName names the service in logs, traces and environment variables.
const ServiceName = "product"

// SeedProducts is the catalog content present at startup.
func SeedProducts() []store.ProductFields {
	return []store.ProductFields{
		{
			Name:        "Laptop",
			Description: "High-performance laptop",
			Price:       999.99,
			Category:    "Electronics",
			InStock:     true,
		},
	}
}

type Dependencies struct {
	ProductService service.ProductService
	Health         *grpcImpl.HealthServer
	Logger         *slog.Logger
	// ExposeErrorDetail adds failure detail to 500 responses.
	ExposeErrorDetail bool
	// TracingEnabled wraps the HTTP handler with OpenTelemetry instrumentation.
	TracingEnabled bool
	// Metrics, when set, is served on MetricsPath.
	Metrics     http.Handler
	MetricsPath string
}

// SetupDependencies builds the store, seeded with SeedProducts, and the product service.
func SetupDependencies(cfg *config.Config, publisher messaging.Publisher, logger *slog.Logger) *Dependencies {
	pService := service.NewService(
		store.NewInMemoryStore(SeedProducts()...),
		publisher,
		cfg.Catalog.PageLimit(),
		logger,
	)

	return &Dependencies{
		ProductService:    pService,
		Health:            grpcImpl.NewHealthServer(pService, logger),
		Logger:            logger,
		ExposeErrorDetail: cfg.Catalog.ExposeErrorDetail(),
		TracingEnabled:    cfg.Telemetry.Enabled,
	}
}

// SetupPublisher connects to NATS when enabled and returns a breaker-guarded publisher;
// otherwise it returns a publisher that drops events. The closer releases the connection.
func SetupPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (messaging.Publisher, io.Closer, error) {
	if !cfg.NATS.Enabled {
		logger.Info("Product events are disabled")
		return messaging.NopPublisher{}, closerFunc(func() error { return nil }), nil
	}

	nc, err := pnats.NewClient(cfg.NATS.Url, cfg.NATS.Timeout)
	if err != nil {
		return nil, nil, err
	}
	js, err := pnats.NewJetStreamContext(nc)
	if err != nil {
		return nil, nil, err
	}
	streamCtx, cancel := context.WithTimeout(ctx, cfg.NATS.Timeout)
	defer cancel()
	if err := pnats.EnsureStream(streamCtx, js, cfg.NATS.Stream, events.ProductSubjects); err != nil {
		nc.Close()
		return nil, nil, err
	}
	logger.Info("Publishing product events", "url", cfg.NATS.Url, "stream", cfg.NATS.Stream)

	publisher := messaging.NewBreakerPublisher(
		fmt.Sprintf("%s-events", ServiceName),
		pnats.NewNatsPublisher(js),
		cfg.Resilience.CircuitBreaker,
	)
	return publisher, closerFunc(func() error {
		return nc.Drain()
	}), nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// SetupHttpHandler initializes the HTTP server and routes for the ProductService application.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	opts := server.RouterOptions{ExposeErrorDetail: deps.ExposeErrorDetail}
	if deps.TracingEnabled {
		opts.Middlewares = append(opts.Middlewares, telemetry.HTTPMiddleware(ServiceName))
	}
	mux := server.NewChiRouter(deps.Logger, opts)
	if deps.Metrics != nil {
		mux.Handle(deps.MetricsPath, deps.Metrics)
	}
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the ProductService application.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	productHandler := rest.NewHandler(deps.ProductService, deps.Logger, deps.ExposeErrorDetail)
	productHandler.RegisterRoutes(mux)
}

// SetupHttpServer creates and configures an HTTP server for the ProductService application.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}

// SetupGrpcServer initializes the gRPC server hosting the health service.
// RPCs are instrumented when tracing or metrics are on.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) *grpc.Server {
	var opts []grpc.ServerOption
	if deps.TracingEnabled || deps.Metrics != nil {
		opts = telemetry.GRPCServerOptions()
	}
	return server.NewGRPCServer(reflectionEnabled, opts, deps.Health.Register)
}
