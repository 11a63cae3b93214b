package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/taha696969/docker-orchestrator-pro-dev/internal/control"
)

// handlers closes over the control.Surface every tool dispatches to.
type handlers struct {
	surface *control.Surface
}

func (h *handlers) containerCreate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	image := stringArg(args, "image", "")
	name := stringArg(args, "name", "")
	body, _ := h.surface.ContainerCreate(ctx, image, name, nil, nil)
	return jsonResult(body)
}

func (h *handlers) containerStop(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	body, _ := h.surface.ContainerStop(ctx, stringArg(args, "name", ""))
	return jsonResult(body)
}

func (h *handlers) containerStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	body, _ := h.surface.ContainerStart(ctx, stringArg(args, "name", ""))
	return jsonResult(body)
}

func (h *handlers) containerRemove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	body, _ := h.surface.ContainerRemove(ctx, stringArg(args, "name", ""))
	return jsonResult(body)
}

func (h *handlers) containersList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body, _ := h.surface.ContainersList()
	return jsonResult(body)
}

func (h *handlers) relationAdd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	body, _ := h.surface.RelationAdd(stringArg(args, "from", ""), stringArg(args, "to", ""), stringArg(args, "type", ""))
	return jsonResult(body)
}

func (h *handlers) relationRemove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	body, _ := h.surface.RelationRemove(stringArg(args, "from", ""), stringArg(args, "to", ""), stringArg(args, "type", ""))
	return jsonResult(body)
}

func (h *handlers) graphExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body, _ := h.surface.GraphExport()
	return jsonResult(body)
}

func (h *handlers) graphStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body, _ := h.surface.GraphStats()
	return jsonResult(body)
}

func (h *handlers) route(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	name := stringArg(args, "name", "")
	payload := map[string]interface{}{}
	if c, ok := args["complexity"]; ok {
		payload["complexity"] = c
	}
	if boolArg(args, "direct", false) {
		payload["__direct_instance"] = true
	}
	body, _ := h.surface.Route(ctx, name, payload)
	return jsonResult(body)
}

func (h *handlers) trafficStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	params := control.TrafficStartParams{
		Target:          stringArg(args, "target", ""),
		RPS:             numberArg(args, "rps", 0),
		Complexity:      int(numberArg(args, "complexity", 0)),
		DurationSeconds: int(numberArg(args, "duration_seconds", 0)),
		Direct:          boolArg(args, "direct", true),
	}
	body, _ := h.surface.TrafficStart(params)
	return jsonResult(body)
}

func (h *handlers) trafficStop(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	body, _ := h.surface.TrafficStop(stringArg(args, "id", ""))
	return jsonResult(body)
}

func (h *handlers) trafficStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body, _ := h.surface.TrafficStatus()
	return jsonResult(body)
}

func (h *handlers) metricsSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	body, _ := h.surface.MetricsSummary(stringArg(args, "traffic_id", ""))
	return jsonResult(body)
}

func (h *handlers) scalingHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	body, _ := h.surface.ScalingHistory(stringArg(args, "container", ""), int(numberArg(args, "limit", 0)))
	return jsonResult(body)
}

func (h *handlers) predict(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	body, _ := h.surface.Predict(stringArg(args, "name", ""))
	return jsonResult(body)
}

// getArgs safely extracts the arguments map from a CallToolRequest.
func getArgs(request mcp.CallToolRequest) map[string]interface{} {
	if request.Params.Arguments == nil {
		return map[string]interface{}{}
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return args
}

func stringArg(args map[string]interface{}, key, defaultVal string) string {
	val, ok := args[key]
	if !ok || val == nil {
		return defaultVal
	}
	s, ok := val.(string)
	if !ok || s == "" {
		return defaultVal
	}
	return s
}

func numberArg(args map[string]interface{}, key string, defaultVal float64) float64 {
	val, ok := args[key]
	if !ok || val == nil {
		return defaultVal
	}
	f, ok := val.(float64)
	if !ok {
		return defaultVal
	}
	return f
}

func boolArg(args map[string]interface{}, key string, defaultVal bool) bool {
	val, ok := args[key]
	if !ok || val == nil {
		return defaultVal
	}
	b, ok := val.(bool)
	if !ok {
		return defaultVal
	}
	return b
}

// jsonResult marshals body as the tool's text content. The control
// surface's HTTP-style status is not forwarded: a failed call reaches the
// client as an "error" field inside body, and only a marshal failure
// yields an IsError result.
func jsonResult(body interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return errResult(fmt.Sprintf("json marshal failed: %v", err)), nil
	}
	return newTextResult(string(data)), nil
}

func newTextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
	}
}
