// Package mcpserver exposes internal/control's functions as MCP tools so
// an agent (Claude, another LLM client) can drive the orchestrator the
// same way a human would through the route table.
package mcpserver

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/taha696969/docker-orchestrator-pro-dev/internal/control"
)

// Server wraps the MCP server instance bound to a control.Surface.
type Server struct {
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server with every control-surface tool
// registered against surface.
func NewServer(version string, surface *control.Surface) *Server {
	s := server.NewMCPServer("fleetscale", version, server.WithLogging())
	registerTools(s, surface)
	return &Server{mcpServer: s}
}

// Start runs the server in stdio mode until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	stdioServer := server.NewStdioServer(s.mcpServer)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

func registerTools(s *server.MCPServer, surface *control.Surface) {
	h := &handlers{surface: surface}

	s.AddTool(mcp.NewTool("container_create",
		mcp.WithDescription("Create and start a new container from an image, joined to the orchestrator network."),
		mcp.WithString("image", mcp.Required(), mcp.Description("Image reference, e.g. myworker:latest")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Container name, unique within the fleet")),
	), h.containerCreate)

	s.AddTool(mcp.NewTool("container_stop",
		mcp.WithDescription("Stop a tracked container without removing it."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Container name")),
	), h.containerStop)

	s.AddTool(mcp.NewTool("container_start",
		mcp.WithDescription("Start a previously stopped tracked container."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Container name")),
	), h.containerStart)

	s.AddTool(mcp.NewTool("container_remove",
		mcp.WithDescription("Stop and remove a container. Refuses the main orchestrator node."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Container name")),
	), h.containerRemove)

	s.AddTool(mcp.NewTool("containers_list",
		mcp.WithDescription("List every tracked container with its id, creation time, and replicas."),
	), h.containersList)

	s.AddTool(mcp.NewTool("relation_add",
		mcp.WithDescription("Add a directed relation edge between two containers in the dependency graph."),
		mcp.WithString("from", mcp.Required(), mcp.Description("Source container name")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Target container name")),
		mcp.WithString("type", mcp.Description("Relation type, defaults to depends_on")),
	), h.relationAdd)

	s.AddTool(mcp.NewTool("relation_remove",
		mcp.WithDescription("Remove a directed relation edge between two containers."),
		mcp.WithString("from", mcp.Required(), mcp.Description("Source container name")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Target container name")),
		mcp.WithString("type", mcp.Description("Relation type")),
	), h.relationRemove)

	s.AddTool(mcp.NewTool("graph_export",
		mcp.WithDescription("Export the dependency graph as nodes and links, hiding infrastructure containers."),
	), h.graphExport)

	s.AddTool(mcp.NewTool("graph_stats",
		mcp.WithDescription("Compute summary statistics over the dependency graph: counts, cycles, density, critical containers."),
	), h.graphStats)

	s.AddTool(mcp.NewTool("route",
		mcp.WithDescription("Route a request payload to a container, selecting among its replicas by load."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Container name to route to")),
		mcp.WithNumber("complexity", mcp.Description("Relative request complexity; left out of the payload when not given")),
		mcp.WithBoolean("direct", mcp.Description("Bypass replica selection and hit name directly")),
	), h.route)

	s.AddTool(mcp.NewTool("traffic_start",
		mcp.WithDescription("Start a synthetic load-generation job against a container. Defaults: rps=5, complexity=1, direct=true."),
		mcp.WithString("target", mcp.Required(), mcp.Description("Container name to send traffic to")),
		mcp.WithNumber("rps", mcp.Description("Requests per second")),
		mcp.WithNumber("complexity", mcp.Description("Relative request complexity")),
		mcp.WithNumber("duration_seconds", mcp.Description("Stop automatically after this many seconds, 0 for unbounded")),
		mcp.WithBoolean("direct", mcp.Description("Bypass replica selection")),
	), h.trafficStart)

	s.AddTool(mcp.NewTool("traffic_stop",
		mcp.WithDescription("Stop a running traffic job by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Traffic job id")),
	), h.trafficStop)

	s.AddTool(mcp.NewTool("traffic_status",
		mcp.WithDescription("List every traffic job and its running snapshot."),
	), h.trafficStatus)

	s.AddTool(mcp.NewTool("metrics_summary",
		mcp.WithDescription("Summarize current traffic throughput/latency/error-rate and fleet resource usage."),
		mcp.WithString("traffic_id", mcp.Description("Attach a specific traffic job's snapshot to the summary")),
	), h.metricsSummary)

	s.AddTool(mcp.NewTool("scaling_history",
		mcp.WithDescription("Fetch recent scaling decisions for a container, or across the whole fleet."),
		mcp.WithString("container", mcp.Description("Limit to a single container name")),
		mcp.WithNumber("limit", mcp.Description("Maximum entries to return, defaults to 50")),
	), h.scalingHistory)

	s.AddTool(mcp.NewTool("predict",
		mcp.WithDescription("Fit a trend/volatility model against a container's recent CPU and memory samples and recommend a scaling action."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Container name")),
	), h.predict)
}
