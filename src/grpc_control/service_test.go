package grpc_control

import (
	"context"
	"testing"
	"time"

	"pair-analysis/src/logger"
	"pair-analysis/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func startService(t *testing.T) (*HealthService, healthpb.HealthClient) {
	t.Helper()
	s := NewHealthService(logger.NewLogger(nil, "HealthTest"))
	addr, err := s.Listen("127.0.0.1", 0)
	require.NoError(t, err)

	go s.Serve()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient(addr.String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return s, healthpb.NewHealthClient(conn)
}

func check(t *testing.T, client healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestHealthFollowsRunOutcome(t *testing.T) {
	s, client := startService(t)

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, RunsService))

	s.OnRunEvent(models.MRunEvent{RunID: "r1", State: models.StateFailed})
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, RunsService))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, ""))

	s.OnRunEvent(models.MRunEvent{RunID: "r2", State: models.StateBuilding})
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, RunsService))

	s.OnRunEvent(models.MRunEvent{RunID: "r2", State: models.StateDone})
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, RunsService))
}

func TestServeWithoutListen(t *testing.T) {
	s := NewHealthService(logger.NewLogger(nil, "HealthTest"))
	assert.Error(t, s.Serve())
}
