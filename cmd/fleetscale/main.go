// fleetscale — container fleet autoscaling control plane.
//
// Watches a pool of Docker-style containers, predicts load trend from
// their recent CPU/memory samples, and scales worker replicas up or
// down through a pluggable Runtime Adapter. Exposes the same operation
// set through a Cobra CLI and an MCP server over stdio.
package main

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/taha696969/docker-orchestrator-pro-dev/internal/config"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/control"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/fleet"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/graph"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/persistence"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/runtimeadapter"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/traffic"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "fleetscale",
		Short: "Container fleet autoscaling control plane",
		Long: `fleetscale — single Go binary for fleet autoscaling.

Runs a monitor loop against a pool of containers, fits a trend/
volatility model over their recent CPU and memory samples, and scales
worker replicas through a Runtime Adapter. The same operations are
reachable through this CLI, an MCP server over stdio, or embedded
directly by another Go program.`,
		Version: version,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newMCPCmd(),
		newRouteCmd(),
		newGraphCmd(),
		newPredictCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap wires the reference adapters (in-memory store, fake
// runtime) into a Fleet and a control.Surface the way every subcommand
// needs them. This repository ships only the in-memory reference
// adapters (SPEC_FULL.md §1); a real Docker/Mongo deployment would
// swap runtimeadapter.Fake and persistence.MemoryStore for adapters
// satisfying the same interfaces.
func bootstrap() (*fleet.Fleet, *control.Surface, func()) {
	cfg := config.Load()

	store := persistence.NewMemoryStore()
	gm := graph.New()
	rt := runtimeadapter.NewFake()
	if err := rt.Ping(context.Background()); err != nil {
		log.Fatalf("fleetscale: container runtime unreachable: %v", err)
	}

	network := config.ResolveNetwork(context.Background(), cfg, rt)

	f := fleet.New(cfg, rt, store, gm, network)
	tr := traffic.NewManager(f)
	surface := control.New(f, gm, tr, store)

	return f, surface, f.Close
}
