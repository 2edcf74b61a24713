package server

import (
	"context"

	"github.com/alfredjeanlab/eventsvc/internal/model"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// HealthServiceName is the service name accepted by the gRPC health check in
// addition to the empty (whole server) name.
const HealthServiceName = "eventsvc"

// NewGRPCServer creates a gRPC server with standard interceptors, registers
// the health service and reflection, and returns the server ready to serve.
func NewGRPCServer(s *Server) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor(s.logger),
			LoggingInterceptor(s.logger),
		),
	)

	healthpb.RegisterHealthServer(srv, &healthService{server: s})
	reflection.Register(srv)

	return srv
}

// healthService answers grpc.health.v1.Health/Check from a live database ping.
type healthService struct {
	healthpb.UnimplementedHealthServer
	server *Server
}

func (h *healthService) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	switch req.GetService() {
	case "", HealthServiceName:
	default:
		return nil, status.Errorf(codes.NotFound, "unknown service %q", req.GetService())
	}

	st := healthpb.HealthCheckResponse_NOT_SERVING
	if h.server.health(ctx).Database == model.DatabaseUp {
		st = healthpb.HealthCheckResponse_SERVING
	}
	return &healthpb.HealthCheckResponse{Status: st}, nil
}
