// Package grpc exposes the standard gRPC health service so orchestrators can
// check the storefront.
package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health entry for the storefront API.
const ServiceName = "storefront"

// HealthServer wraps a gRPC server that only carries the health service.
type HealthServer struct {
	srv    *grpc.Server
	health *health.Server
}

// NewHealthServer creates the server with every entry NOT_SERVING.
func NewHealthServer() *HealthServer {
	s := grpc.NewServer()
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, hs)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return &HealthServer{srv: s, health: hs}
}

// SetServing flips the overall and storefront entries.
func (h *HealthServer) SetServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
}

// Serve listens on addr until ctx is done.
func (h *HealthServer) Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return h.ServeListener(ctx, lis)
}

// ServeListener serves on lis until ctx is done, then marks every entry
// NOT_SERVING and stops gracefully.
func (h *HealthServer) ServeListener(ctx context.Context, lis net.Listener) error {
	go func() {
		<-ctx.Done()
		h.health.Shutdown()
		h.srv.GracefulStop()
	}()
	slog.Info("gRPC health server starting", "addr", lis.Addr().String())
	if err := h.srv.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}
