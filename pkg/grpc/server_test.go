package grpc_test

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ggrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	shopgrpc "github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/grpc"
)

func check(t *testing.T, probe shopgrpc.Probe) grpc_health_v1.HealthCheckResponse_ServingStatus {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := shopgrpc.New(probe)
	go srv.Serve(lis) //nolint:errcheck
	defer srv.Stop()

	conn, err := ggrpc.NewClient("passthrough:///bufnet",
		ggrpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		ggrpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()

	resp, err := grpc_health_v1.NewHealthClient(conn).Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
	require.NoError(t, err)
	return resp.Status
}

func TestHealthFollowsProbe(t *testing.T) {
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, check(t, func(context.Context) error { return nil }))
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, check(t, func(context.Context) error { return errors.New("db down") }))
}
