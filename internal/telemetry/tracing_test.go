package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rl1809/stock-transfer/internal/config"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TracingConfig{}, "test-service")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_EndpointURL(t *testing.T) {
	// Non-routable address, nothing is exported before shutdown.
	shutdown, err := Setup(context.Background(), config.TracingConfig{Endpoint: "http://192.0.2.1:4318"}, "test-service")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_HostPortInsecure(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TracingConfig{Endpoint: "192.0.2.1:4318", Insecure: true}, "test-service")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_NoopShutdownIgnoresCancelledContext(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TracingConfig{}, "noop-test")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, shutdown(ctx))
}
