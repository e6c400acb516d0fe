package grpc_control

import (
	"fmt"
	"net"
	"sync"

	"pair-analysis/src/logger"
	"pair-analysis/src/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// RunsService is the health service name that tracks the last run outcome.
const RunsService = "pair-analysis.runs"

// HealthService serves the standard gRPC health protocol. The overall
// status follows the process; RunsService goes NOT_SERVING after a failed
// run and back to SERVING after a successful one.
type HealthService struct {
	Logger *logger.Logger

	health   *health.Server
	server   *grpc.Server
	listener net.Listener
	mu       sync.Mutex
}

// -----------------------------------------------------------------------------

func NewHealthService(log *logger.Logger) *HealthService {
	h := health.NewServer()
	h.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.SetServingStatus(RunsService, healthpb.HealthCheckResponse_SERVING)

	server := grpc.NewServer()
	healthpb.RegisterHealthServer(server, h)
	reflection.Register(server)

	return &HealthService{Logger: log, health: h, server: server}
}

// -----------------------------------------------------------------------------

// OnRunEvent maps terminal run states onto RunsService.
func (s *HealthService) OnRunEvent(event models.MRunEvent) {
	switch event.State {
	case models.StateDone:
		s.health.SetServingStatus(RunsService, healthpb.HealthCheckResponse_SERVING)
	case models.StateFailed:
		s.Logger.Warning("Run %s failed, marking %s NOT_SERVING", event.RunID, RunsService)
		s.health.SetServingStatus(RunsService, healthpb.HealthCheckResponse_NOT_SERVING)
	}
}

// -----------------------------------------------------------------------------

// Listen binds the gRPC port. Port 0 picks a free one.
func (s *HealthService) Listen(host string, port int) (net.Addr, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen for gRPC: %w", err)
	}
	s.mu.Lock()
	s.listener = lis
	s.mu.Unlock()
	return lis.Addr(), nil
}

// Serve blocks until Stop. Listen must be called first.
func (s *HealthService) Serve() error {
	s.mu.Lock()
	lis := s.listener
	s.mu.Unlock()
	if lis == nil {
		return fmt.Errorf("gRPC health service is not listening")
	}

	s.Logger.Info("Starting gRPC health service on %s", lis.Addr())
	if err := s.server.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

// Stop marks everything NOT_SERVING and stops the server gracefully.
func (s *HealthService) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
