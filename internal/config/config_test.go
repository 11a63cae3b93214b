package config

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taha696969/docker-orchestrator-pro-dev/internal/runtimeadapter"
)

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("MAX_REPLICAS_PER_CONTAINER")
	os.Unsetenv("LOAD_THRESHOLD")
	cfg := Load()
	require.Equal(t, 2, cfg.MaxReplicasPerContainer)
	require.Equal(t, 80.0, cfg.LoadThreshold)
	require.Equal(t, "mongodb://mongodb:27017/", cfg.MongoURL)
}

func TestLoadOverrides(t *testing.T) {
	os.Setenv("MAX_REPLICAS_PER_CONTAINER", "4")
	defer os.Unsetenv("MAX_REPLICAS_PER_CONTAINER")

	cfg := Load()
	require.Equal(t, 4, cfg.MaxReplicasPerContainer)
}

func TestLoadInvalidIntFallsBackToDefault(t *testing.T) {
	os.Setenv("SCALING_COOLDOWN", "not-a-number")
	defer os.Unsetenv("SCALING_COOLDOWN")

	cfg := Load()
	require.Equal(t, 60, cfg.ScalingCooldownSeconds)
}

func TestResolveNetworkExplicitOverrideWins(t *testing.T) {
	cfg := Config{OrchestratorNetwork: "custom_net"}
	got := ResolveNetwork(context.Background(), cfg, runtimeadapter.NewFake())
	require.Equal(t, "custom_net", got)
}

func TestResolveNetworkFallsBackToLiteral(t *testing.T) {
	cfg := Config{}
	got := ResolveNetwork(context.Background(), cfg, runtimeadapter.NewFake())
	require.Equal(t, "orchestrator_network", got)
}

func TestResolveNetworkUsesSelfAttachedCandidate(t *testing.T) {
	cfg := Config{}
	fake := runtimeadapter.NewFake("worker-slave_orchestrator_network")
	got := ResolveNetwork(context.Background(), cfg, fake)
	require.Equal(t, "worker-slave_orchestrator_network", got)
}
