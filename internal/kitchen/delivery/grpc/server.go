package grpc

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
	"github.com/tair/central-kitchen/pkg/logger"
)

// ServiceName is the health service name reported for the kitchen
const ServiceName = "kitchen.v1.KitchenService"

// HealthServer reports store readiness over the standard gRPC health protocol
type HealthServer struct {
	store    domain.Store
	health   *health.Server
	interval time.Duration

	mu      sync.Mutex
	serving bool
}

// NewHealthServer creates a health server probing store every interval
func NewHealthServer(store domain.Store, interval time.Duration) *HealthServer {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	h := &HealthServer{
		store:    store,
		health:   health.NewServer(),
		interval: interval,
	}
	h.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// Check pings the store once and updates the reported status
func (h *HealthServer) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	serving := h.store.Ping(ctx) == nil
	h.mu.Lock()
	changed := serving != h.serving
	h.serving = serving
	h.mu.Unlock()

	if serving {
		h.setStatus(healthpb.HealthCheckResponse_SERVING)
	} else {
		h.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	}
	if changed {
		logger.Info(ctx).Bool("serving", serving).Msg("Store readiness changed")
	}
	return serving
}

// Run probes the store until ctx is cancelled
func (h *HealthServer) Run(ctx context.Context) {
	h.Check(ctx)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.health.Shutdown()
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

func (h *HealthServer) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
}

// NewServer creates the gRPC server with interceptors, health and reflection
func NewServer(h *HealthServer) *grpc.Server {
	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			LoggingInterceptor,
			MetricsInterceptor,
		),
	)
	healthpb.RegisterHealthServer(server, h.health)

	// Register reflection service (for grpcurl and grpc tools)
	reflection.Register(server)
	return server
}
