// Package control defines the orchestrator's external-collaborator
// control surface: one Go function per row of the HTTP route table an
// external front end (dashboard, CLI, MCP tool) would call. This
// repository does not stand up the HTTP server itself — internal/mcpserver
// wraps these same functions as MCP tools, and cmd/fleetscale's `route`/
// `graph`/`predict` subcommands call them directly.
package control

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/taha696969/docker-orchestrator-pro-dev/internal/fleet"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/graph"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/persistence"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/predictor"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/sample"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/traffic"
)

// Surface bundles the components a control-plane call reaches into.
type Surface struct {
	Fleet   *fleet.Fleet
	Graph   *graph.Manager
	Traffic *traffic.Manager
	Store   persistence.Store
}

// New constructs a Surface over the given components.
func New(f *fleet.Fleet, g *graph.Manager, tr *traffic.Manager, store persistence.Store) *Surface {
	return &Surface{Fleet: f, Graph: g, Traffic: tr, Store: store}
}

// graphHiddenNodes are never shown in graph_export, matching the route
// table's "orchestrator_mongodb / orchestrator_web filtered" note.
var graphHiddenNodes = map[string]struct{}{
	"orchestrator_mongodb": {},
	"orchestrator_web":     {},
}

func errBody(msg string) map[string]interface{} { return map[string]interface{}{"error": msg} }

// ContainerCreate implements POST /container/create.
func (s *Surface) ContainerCreate(ctx context.Context, image, name string, env map[string]string, ports []string) (interface{}, int) {
	if image == "" || name == "" {
		return errBody("image and name are required"), http.StatusBadRequest
	}
	id, err := s.Fleet.Create(ctx, image, name, env, ports)
	if err != nil {
		return errBody(err.Error()), http.StatusInternalServerError
	}
	return map[string]interface{}{"status": "created", "id": id}, http.StatusOK
}

const metricsHistoryLimit = 10

// ContainerMetrics implements GET /container/{name}/metrics.
func (s *Surface) ContainerMetrics(name string) (interface{}, int) {
	if _, ok := s.Fleet.Get(name); !ok {
		return errBody(fmt.Sprintf("container %q not found", name)), http.StatusNotFound
	}
	history := s.Fleet.History(name, metricsHistoryLimit)
	if history == nil {
		history = []sample.Sample{}
	}
	return history, http.StatusOK
}

// ContainerStop implements POST /container/{name}/stop.
func (s *Surface) ContainerStop(ctx context.Context, name string) (interface{}, int) {
	if err := s.Fleet.Stop(ctx, name); err != nil {
		return errBody(err.Error()), http.StatusNotFound
	}
	return map[string]interface{}{"status": "stopped", "name": name}, http.StatusOK
}

// ContainerStart implements POST /container/{name}/start.
func (s *Surface) ContainerStart(ctx context.Context, name string) (interface{}, int) {
	if err := s.Fleet.Start(ctx, name); err != nil {
		return errBody(err.Error()), http.StatusNotFound
	}
	return map[string]interface{}{"status": "started", "name": name}, http.StatusOK
}

// ContainerRemove implements DELETE /container/{name}/remove.
func (s *Surface) ContainerRemove(ctx context.Context, name string) (interface{}, int) {
	graphOnly, err := s.Fleet.Remove(ctx, name)
	if err != nil {
		if err == fleet.ErrIsMainNode {
			return errBody(err.Error()), http.StatusBadRequest
		}
		return errBody(err.Error()), http.StatusNotFound
	}
	status := "removed"
	if graphOnly {
		status = "removed_from_graph"
	}
	return map[string]interface{}{"status": status, "name": name}, http.StatusOK
}

type containerListEntry struct {
	Name      string   `json:"name"`
	ID        string   `json:"id"`
	CreatedAt string   `json:"created_at"`
	Replicas  []string `json:"replicas"`
}

// ContainersList implements GET /containers/list.
func (s *Surface) ContainersList() (interface{}, int) {
	recs := s.Fleet.List()
	out := make([]containerListEntry, len(recs))
	for i, r := range recs {
		out[i] = containerListEntry{
			Name:      r.Name,
			ID:        r.ID,
			CreatedAt: r.CreatedAt.Format(timeLayout),
			Replicas:  r.Replicas,
		}
	}
	return map[string]interface{}{"containers": out}, http.StatusOK
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func resolveRelationType(typ string) graph.RelationType {
	if typ == "" {
		return graph.DependsOn
	}
	return graph.RelationType(typ)
}

// RelationAdd implements POST /relation/add.
func (s *Surface) RelationAdd(from, to, typ string) (interface{}, int) {
	if from == "" || to == "" {
		return errBody("from and to are required"), http.StatusBadRequest
	}
	rt := resolveRelationType(typ)
	if err := s.Graph.AddEdge(from, to, rt, 1); err != nil {
		return errBody(err.Error()), http.StatusInternalServerError
	}
	_ = s.Store.UpsertRelation(graph.Relation{From: from, To: to, Type: rt, Weight: 1})
	return map[string]interface{}{"status": "relation added"}, http.StatusOK
}

// RelationRemove implements POST /relation/remove.
func (s *Surface) RelationRemove(from, to, typ string) (interface{}, int) {
	if from == "" || to == "" {
		return errBody("from and to are required"), http.StatusBadRequest
	}
	removed := s.Graph.RemoveEdge(from, to, graph.RelationType(typ))
	_ = s.Store.DeleteRelation(from, to, graph.RelationType(typ))
	n := 0
	status := "not_found"
	if removed {
		n = 1
		status = "removed"
	}
	return map[string]interface{}{"status": status, "removed": n}, http.StatusOK
}

type exportNode struct {
	ID string `json:"id"`
}

type exportLink struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Type   string  `json:"type"`
	Weight float64 `json:"weight"`
}

// GraphExport implements GET /graph/export, filtering out the
// infrastructure nodes the route table says are hidden from export.
func (s *Surface) GraphExport() (interface{}, int) {
	nodes := make([]exportNode, 0, len(s.Graph.Nodes()))
	for _, n := range s.Graph.Nodes() {
		if _, hidden := graphHiddenNodes[n]; hidden {
			continue
		}
		nodes = append(nodes, exportNode{ID: n})
	}

	links := make([]exportLink, 0)
	for _, e := range s.Graph.Edges() {
		_, fromHidden := graphHiddenNodes[e.From]
		_, toHidden := graphHiddenNodes[e.To]
		if fromHidden || toHidden {
			continue
		}
		links = append(links, exportLink{Source: e.From, Target: e.To, Type: string(e.Type), Weight: e.Weight})
	}

	return map[string]interface{}{"graph": map[string]interface{}{"nodes": nodes, "links": links}}, http.StatusOK
}

// GraphStats implements GET /graph/stats.
func (s *Surface) GraphStats() (interface{}, int) {
	return s.Graph.ComputeStats(), http.StatusOK
}

// Route implements POST /route/{name}.
func (s *Surface) Route(ctx context.Context, name string, payload map[string]interface{}) (interface{}, int) {
	result := s.Fleet.Route(ctx, name, payload)
	if result.Error != "" {
		return result, http.StatusOK
	}
	return result, http.StatusOK
}

const (
	defaultTrafficRPS        = 5.0
	defaultTrafficComplexity = 1
	defaultTrafficDirect     = true
)

// TrafficStartParams carries /traffic/start's fields. TrafficStart fills
// in RPS and Complexity when they are zero; Direct is used exactly as
// given, so its default is resolved by the caller.
type TrafficStartParams struct {
	Target          string
	RPS             float64
	Complexity      int
	DurationSeconds int
	Direct          bool
}

// TrafficStart implements POST /traffic/start, applying the route
// table's defaults rps=5 and complexity=1 to zero-valued fields. Direct
// is not defaulted here: a false Direct stays false.
func (s *Surface) TrafficStart(p TrafficStartParams) (interface{}, int) {
	if p.Target == "" {
		return errBody("target is required"), http.StatusBadRequest
	}
	if p.RPS == 0 {
		p.RPS = defaultTrafficRPS
	}
	if p.Complexity == 0 {
		p.Complexity = defaultTrafficComplexity
	}
	id, err := s.Traffic.Start(p.Target, p.RPS, p.Complexity, time.Duration(p.DurationSeconds)*time.Second, p.Direct)
	if err != nil {
		return errBody(err.Error()), http.StatusBadRequest
	}
	job, _ := s.Traffic.Get(id)
	return map[string]interface{}{"status": "started", "job": job}, http.StatusOK
}

// TrafficStop implements POST /traffic/stop.
func (s *Surface) TrafficStop(id string) (interface{}, int) {
	if err := s.Traffic.Stop(id); err != nil {
		return errBody(err.Error()), http.StatusNotFound
	}
	job, _ := s.Traffic.Get(id)
	return map[string]interface{}{"status": "stopping", "job": job}, http.StatusOK
}

// TrafficStatus implements GET /traffic/status.
func (s *Surface) TrafficStatus() (interface{}, int) {
	return map[string]interface{}{"jobs": s.Traffic.List()}, http.StatusOK
}

// MetricsSummary implements GET /metrics/summary.
func (s *Surface) MetricsSummary(trafficJobID string) (interface{}, int) {
	summary := s.Traffic.Summarize(s.Fleet, trafficJobID)

	trafficSummary := map[string]interface{}{
		"throughput_rps":     summary.ThroughputRPS,
		"error_rate_percent": summary.ErrorRatePercent,
		"mean_latency_ms":    summary.MeanLatencyMs,
		"p50_latency_ms":     summary.P50LatencyMs,
		"p95_latency_ms":     summary.P95LatencyMs,
		"p99_latency_ms":     summary.P99LatencyMs,
	}
	if trafficJobID != "" {
		if job, ok := s.Traffic.Get(trafficJobID); ok {
			trafficSummary["job"] = job
		}
	}

	resources := map[string]interface{}{
		"containers_count":    summary.ContainersCount,
		"replicas_current":    summary.ReplicasCurrent,
		"avg_cpu_percent":     summary.AvgCPUPercent,
		"avg_memory_percent":  summary.AvgMemoryPercent,
		"peak_memory_percent": summary.PeakMemoryPercent,
	}

	return map[string]interface{}{
		"traffic":   trafficSummary,
		"resources": resources,
		"scaling":   s.Graph.ComputeStats(),
	}, http.StatusOK
}

// ScalingHistory implements GET /scaling/history.
func (s *Surface) ScalingHistory(container string, limit int) (interface{}, int) {
	if limit <= 0 {
		limit = 50
	}
	history, err := s.Store.ScalingHistory(container, limit)
	if err != nil {
		return errBody(err.Error()), http.StatusInternalServerError
	}
	return map[string]interface{}{"history": history}, http.StatusOK
}

// MLTrain implements POST /ml/train.
func (s *Surface) MLTrain(containerName string, days int) (interface{}, int) {
	if containerName == "" {
		return errBody("container_name is required"), http.StatusBadRequest
	}
	if days <= 0 {
		days = 7
	}
	window, err := s.Store.TrainingWindow(containerName, days)
	if err != nil {
		return errBody(err.Error()), http.StatusInternalServerError
	}
	if len(window.CPU) < 2 {
		return errBody("insufficient historical samples"), http.StatusBadRequest
	}
	model := predictor.TrainOffline(window.CPU)
	return map[string]interface{}{"status": "trained", "samples": model.SampleCount, "model": model}, http.StatusOK
}

// Predict implements GET /predict/{name}.
func (s *Surface) Predict(name string) (interface{}, int) {
	history := s.Fleet.History(name, 20)
	if len(history) == 0 {
		return errBody(fmt.Sprintf("no samples for %q", name)), http.StatusNotFound
	}
	points := make([]predictor.Point, len(history))
	for i, smp := range history {
		points[i] = predictor.Point{Timestamp: smp.Timestamp, CPU: smp.CPUPercent, Memory: smp.MemoryPercent}
	}
	return predictor.Predict(points, predictor.Options{}), http.StatusOK
}

// Health implements GET /health.
func (s *Surface) Health() (interface{}, int) {
	recs := s.Fleet.List()
	names := make([]string, len(recs))
	for i, r := range recs {
		names[i] = r.Name
	}
	sort.Strings(names)

	stats := s.Graph.ComputeStats()
	return map[string]interface{}{
		"status":   "ok",
		"services": names,
		"stats":    stats,
	}, http.StatusOK
}

// Banner implements GET /.
func (s *Surface) Banner() (interface{}, int) {
	return map[string]interface{}{
		"service": "fleetscale-orchestrator",
		"status":  "running",
	}, http.StatusOK
}

