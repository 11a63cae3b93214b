package runtimeadapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taha696969/docker-orchestrator-pro-dev/internal/metrics"
)

func TestRunListStop(t *testing.T) {
	ctx := context.Background()
	f := NewFake("orchestrator_net")

	_, err := f.Run(ctx, "worker:latest", "w1", map[string]string{"FOO": "bar"}, "orchestrator_net", nil)
	require.NoError(t, err)

	running, err := f.ListRunning(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"w1"}, running)

	insp, err := f.Inspect(ctx, "w1")
	require.NoError(t, err)
	require.Equal(t, "worker:latest", insp.Image)

	require.NoError(t, f.Stop(ctx, "w1"))
	running, _ = f.ListRunning(ctx)
	require.Empty(t, running)

	require.NoError(t, f.Start(ctx, "w1"))
	running, _ = f.ListRunning(ctx)
	require.Equal(t, []string{"w1"}, running)
}

func TestRemoveUnknownReturnsNotFound(t *testing.T) {
	f := NewFake()
	err := f.Remove(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetStatsSeedsSnapshot(t *testing.T) {
	ctx := context.Background()
	f := NewFake()
	_, err := f.Run(ctx, "img", "w1", nil, "net", nil)
	require.NoError(t, err)

	f.SetStats("w1", metrics.StatsSnapshot{MemoryUsage: 50, MemoryLimit: 100})
	snap, err := f.StatsSnapshot(ctx, "w1")
	require.NoError(t, err)
	require.Equal(t, "w1", snap.Container)
	require.Equal(t, int64(50), snap.MemoryUsage)
}

func TestSelfHostnameContainerNetworks(t *testing.T) {
	f := NewFake("net-a", "net-b")
	nets, err := f.SelfHostnameContainerNetworks(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"net-a", "net-b"}, nets)
}
