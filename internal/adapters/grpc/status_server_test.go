package grpc_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	statusgrpc "github.com/andrescamacho/harbor-go/internal/adapters/grpc"
	"github.com/andrescamacho/harbor-go/internal/domain/simulation"
	"github.com/andrescamacho/harbor-go/internal/domain/stats"
)

func startStatusServer(t *testing.T) (*statusgrpc.StatusServer, *statusgrpc.StatusClient) {
	t.Helper()
	listener := bufconn.Listen(1024 * 1024)
	server := statusgrpc.NewStatusServer()
	go func() {
		_ = server.Serve(listener)
	}()

	client, err := statusgrpc.NewStatusClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		client.Close()
		server.Stop()
	})
	return server, client
}

func TestStatusServer_FollowsPhase(t *testing.T) {
	// Arrange
	server, client := startStatusServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Act & Assert - SETUP
	server.OnPhase(simulation.PhaseSetup)
	resp, err := client.Check(ctx, statusgrpc.SimulationService)
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())

	// Act & Assert - RUNNING
	server.OnPhase(simulation.PhaseRunning)
	resp, err = client.Check(ctx, statusgrpc.SimulationService)
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	// Act & Assert - FINISHED
	server.OnPhase(simulation.PhaseFinished)
	resp, err = client.Check(ctx, statusgrpc.SimulationService)
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
	assert.Equal(t, simulation.PhaseFinished, server.Phase())
}

func TestStatusServer_OverallServing(t *testing.T) {
	// Arrange
	_, client := startStatusServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Act
	resp, err := client.Check(ctx, "")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestStatusServer_UnknownServiceFails(t *testing.T) {
	// Arrange
	_, client := startStatusServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Act
	_, err := client.Check(ctx, "harbor.v1.Unknown")

	// Assert
	assert.Error(t, err)
}

func TestStatusClient_WaitForRunning(t *testing.T) {
	// Arrange
	server, client := startStatusServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	server.OnPhase(simulation.PhaseSetup)

	// Act
	done := make(chan error, 1)
	go func() {
		done <- client.WaitFor(ctx, statusgrpc.SimulationService, healthpb.HealthCheckResponse_SERVING)
	}()
	server.OnPhase(simulation.PhaseRunning)

	// Assert
	require.NoError(t, <-done)
}

func TestStatusServer_TracksDay(t *testing.T) {
	// Arrange
	server := statusgrpc.NewStatusServer()
	defer server.Stop()

	// Act
	server.OnDay(stats.Snapshot{Day: 4})

	// Assert
	assert.Equal(t, 4, server.Day())
}

func TestRenderJSON(t *testing.T) {
	// Act
	out, err := statusgrpc.RenderJSON(&healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING})

	// Assert
	require.NoError(t, err)
	assert.Contains(t, out, "SERVING")
}
