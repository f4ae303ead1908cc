package grpc

import (
	"fmt"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/andrescamacho/harbor-go/internal/domain/simulation"
	"github.com/andrescamacho/harbor-go/internal/domain/stats"
)

// SimulationService is the health service name that follows the simulation phase
const SimulationService = "harbor.v1.Simulation"

// StatusServer publishes the simulation phase over the standard gRPC health protocol.
// SimulationService is SERVING only while the simulation is RUNNING; the overall
// server ("") is SERVING from construction until Stop.
type StatusServer struct {
	health     *health.Server
	grpcServer *grpc.Server

	mu       sync.RWMutex
	listener net.Listener
	phase    simulation.Phase
	day      int
	stopOnce sync.Once
}

// NewStatusServer creates a status server with the health service registered
func NewStatusServer() *StatusServer {
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(SimulationService, healthpb.HealthCheckResponse_NOT_SERVING)

	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	return &StatusServer{
		health:     healthServer,
		grpcServer: grpcServer,
	}
}

// Listen binds a TCP address and serves in the background
func (s *StatusServer) Listen(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	go func() {
		_ = s.Serve(listener)
	}()
	return nil
}

// Serve blocks serving requests on the listener until Stop
func (s *StatusServer) Serve(listener net.Listener) error {
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	if err := s.grpcServer.Serve(listener); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("gRPC server error: %w", err)
	}
	return nil
}

// Addr returns the bound address, empty before Serve
func (s *StatusServer) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop marks every service NOT_SERVING and stops the server gracefully. Idempotent.
func (s *StatusServer) Stop() {
	s.stopOnce.Do(func() {
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
	})
}

// OnPhase implements simulation.PhaseObserver
func (s *StatusServer) OnPhase(phase simulation.Phase) {
	s.mu.Lock()
	s.phase = phase
	s.mu.Unlock()

	status := healthpb.HealthCheckResponse_NOT_SERVING
	if phase == simulation.PhaseRunning {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(SimulationService, status)
}

// OnDay implements simulation.DayObserver
func (s *StatusServer) OnDay(snapshot stats.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.day = snapshot.Day
}

// Phase returns the last phase observed
func (s *StatusServer) Phase() simulation.Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Day returns the last finished day observed
func (s *StatusServer) Day() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.day
}
