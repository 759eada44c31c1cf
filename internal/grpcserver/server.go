// Package grpcserver exposes the standard gRPC health service for a
// long-running geotab process.
package grpcserver

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// PipelineService is the health service name reporting the job pipeline.
const PipelineService = "geotab.pipeline"

// Server serves gRPC health checks.
type Server struct {
	addr   string
	log    *slog.Logger
	grpc   *grpc.Server
	health *health.Server
}

// New creates a server listening on addr once started.
func New(addr string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	gs := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus(PipelineService, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Server{addr: addr, log: log, grpc: gs, health: hs}
}

// SetServing reports whether the pipeline accepts jobs.
func (s *Server) SetServing(ok bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(PipelineService, status)
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve serves on lis until ctx is done. Health turns NOT_SERVING before
// the server drains.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.SetServing(true)
	go func() {
		<-ctx.Done()
		s.log.Info("shutting down grpc server")
		s.health.Shutdown()
		s.grpc.GracefulStop()
	}()

	s.log.Info("grpc server starting", "addr", lis.Addr().String())
	err := s.grpc.Serve(lis)
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}
