// Package config loads the orchestrator's environment-driven settings
// and resolves the control-plane's Docker network name, following the
// same "env var with a sane default" convention the teacher uses for its
// own runtime configuration.
package config

import (
	"context"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/taha696969/docker-orchestrator-pro-dev/internal/runtimeadapter"
)

// Config holds every environment-driven orchestrator setting (spec.md §6).
type Config struct {
	MongoURL                string
	OrchestratorNetwork     string
	Hostname                string
	MaxReplicasPerContainer int
	IdleReplicaSeconds      int
	IdleReplicaCPUThreshold float64
	LoadThreshold           float64
	ScalingCooldownSeconds  int
	MonitorInterval         time.Duration
}

// Load reads Config from the process environment, applying spec.md §6's
// defaults for anything unset.
func Load() Config {
	return Config{
		MongoURL:                getEnv("MONGO_URL", "mongodb://mongodb:27017/"),
		OrchestratorNetwork:     os.Getenv("ORCHESTRATOR_NETWORK"),
		Hostname:                os.Getenv("HOSTNAME"),
		MaxReplicasPerContainer: getEnvInt("MAX_REPLICAS_PER_CONTAINER", 2),
		IdleReplicaSeconds:      getEnvInt("IDLE_REPLICA_SECONDS", 300),
		IdleReplicaCPUThreshold: getEnvFloat("IDLE_REPLICA_CPU_THRESHOLD", 5),
		LoadThreshold:           getEnvFloat("LOAD_THRESHOLD", 80),
		ScalingCooldownSeconds:  getEnvInt("SCALING_COOLDOWN", 60),
		MonitorInterval:         5 * time.Second,
	}
}

func getEnv(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func getEnvInt(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warnf("config: invalid integer for %s=%q, using default %d", name, v, def)
		return def
	}
	return n
}

func getEnvFloat(name string, def float64) float64 {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warnf("config: invalid float for %s=%q, using default %f", name, v, def)
		return def
	}
	return f
}

var candidateNetworks = []string{"worker-slave_orchestrator_network", "orchestrator_network"}

// ResolveNetwork implements spec.md §6's network discovery order: the
// explicit override, then the self-container's first attached network,
// then the first candidate name the runtime acknowledges, then the
// literal fallback.
func ResolveNetwork(ctx context.Context, cfg Config, rt runtimeadapter.Adapter) string {
	if cfg.OrchestratorNetwork != "" {
		return cfg.OrchestratorNetwork
	}

	if cfg.Hostname != "" {
		if net, err := rt.GetNetwork(ctx, cfg.Hostname); err == nil && net != "" {
			return net
		}
	}

	if attached, err := rt.SelfHostnameContainerNetworks(ctx); err == nil {
		known := make(map[string]struct{}, len(attached))
		for _, n := range attached {
			known[n] = struct{}{}
		}
		for _, name := range candidateNetworks {
			if _, ok := known[name]; ok {
				return name
			}
		}
	}

	return "orchestrator_network"
}
