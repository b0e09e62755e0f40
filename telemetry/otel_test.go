package telemetry_test

import (
	"context"
	"testing"

	"github.com/gewnthar/netincidents/telemetry"
	"github.com/m-mizutani/gt"
)

func TestInitWithoutEndpoint(t *testing.T) {
	shutdown, err := telemetry.Init(context.Background(), "", "netincidents", true)
	gt.NoError(t, err).Required()
	gt.NoError(t, shutdown(context.Background()))
}

func TestInitWithEndpoint(t *testing.T) {
	// the exporter connects lazily, so no collector is needed
	shutdown, err := telemetry.Init(context.Background(), "localhost:4318", "netincidents", true)
	gt.NoError(t, err).Required()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
