// Package grpc exposes the catalog's readiness over the standard gRPC health protocol.
package grpc

import (
	"context"
	"log/slog"

	"github.com/abgdnv/catalog/internal/product/service"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported for the product catalog.
const ServiceName = "catalog.v1.ProductService"

// HealthServer reports SERVING while the product service answers a listing.
type HealthServer struct {
	health  *health.Server
	service service.ProductService
	logger  *slog.Logger
}

func NewHealthServer(service service.ProductService, logger *slog.Logger) *HealthServer {
	return &HealthServer{
		health:  health.NewServer(),
		service: service,
		logger:  logger.With("component", "grpc-health"),
	}
}

// Register adds the health service to s.
func (h *HealthServer) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.health)
}

// Probe lists one product and sets the serving status of both the catalog and the
// overall server ("") accordingly.
func (h *HealthServer) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if _, err := h.service.FindAll(ctx, service.ListQuery{Page: 1, Limit: 1}); err != nil {
		h.logger.WarnContext(ctx, "Catalog probe failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
	return status
}

// Shutdown reports NOT_SERVING for every service and ignores later updates.
func (h *HealthServer) Shutdown() {
	h.health.Shutdown()
}
