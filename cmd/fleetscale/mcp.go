package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/taha696969/docker-orchestrator-pro-dev/internal/mcpserver"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start Model Context Protocol (MCP) server",
		Long: `Starts a JSON-RPC server implementing the Model Context Protocol (MCP).
This allows AI agents (e.g., Claude Desktop, Cursor) to interactively
drive fleetscale: create and scale containers, inspect the dependency
graph, generate traffic, and read back predictions.

Communication happens over standard input/output (stdio).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			_, surface, closeFleet := bootstrap()
			defer closeFleet()

			srv := mcpserver.NewServer(version, surface)
			return srv.Start(ctx)
		},
	}
}
