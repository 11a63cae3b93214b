package fleet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/taha696969/docker-orchestrator-pro-dev/internal/graph"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/instance"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/predictor"
)

func isWorkerImage(image string) bool {
	lower := strings.ToLower(image)
	return strings.Contains(lower, "worker") && !strings.Contains(lower, "nginx") && !strings.Contains(lower, "mongo")
}

// Create registers and launches a new container under name, rejecting
// the call if name is already tracked.
func (f *Fleet) Create(ctx context.Context, image, name string, env map[string]string, ports []string) (string, error) {
	reserved := query(f, func() bool {
		if _, exists := f.state.records[name]; exists {
			return false
		}
		f.state.records[name] = instance.Record{Name: name, Status: instance.StatusUnknown}
		return true
	})
	if !reserved {
		return "", fmt.Errorf("fleet: container %q already exists", name)
	}

	runEnv := make(map[string]string, len(env)+2)
	for k, v := range env {
		runEnv[k] = v
	}
	qualifiesAsWorker := isWorkerImage(image)
	if qualifiesAsWorker {
		if _, ok := runEnv["CONTAINER_NAME"]; !ok {
			runEnv["CONTAINER_NAME"] = name
		}
		if _, ok := runEnv["ORCHESTRATOR_URL"]; !ok {
			runEnv["ORCHESTRATOR_URL"] = "http://main:5000"
		}
	}

	handle, err := f.rt.Run(ctx, image, name, runEnv, f.network, ports)
	if err != nil {
		f.do(func() { delete(f.state.records, name) })
		return "", fmt.Errorf("fleet: create %s: %w", name, err)
	}

	now := time.Now()
	f.do(func() {
		f.state.records[name] = instance.Record{
			Name:          name,
			ID:            handle.ID,
			Image:         image,
			Env:           runEnv,
			CreatedAt:     now,
			Replicas:      nil,
			LastRequestAt: now,
			Status:        instance.StatusRunning,
		}
		f.state.lastReq[name] = now
	})

	if qualifiesAsWorker {
		if err := f.graph.AddEdge(MainNode, name, graph.MasterOf, 1); err != nil {
			logErr("graph.AddEdge", name, err)
		}
		rel := graph.Relation{From: MainNode, To: name, Type: graph.MasterOf, Weight: 1}
		logErr("store.UpsertRelation", name, f.store.UpsertRelation(rel))
	}

	logErr("store.InsertContainerInfo", name, f.store.InsertContainerInfo(f.recordOf(name)))
	return handle.ID, nil
}

func (f *Fleet) recordOf(name string) instance.Record {
	return query(f, func() instance.Record { return f.state.records[name] })
}

// Reconcile takes every container the runtime adapter's ListRunning
// reports as running and brings in-memory state and the relation graph
// into agreement with that set. It applies no network filter of its own:
// containers on networks other than the fleet's network are included if
// ListRunning returns them.
func (f *Fleet) Reconcile(ctx context.Context) error {
	running, err := f.rt.ListRunning(ctx)
	if err != nil {
		return fmt.Errorf("fleet: reconcile: list running: %w", err)
	}

	alive := make(map[string]struct{}, len(running))
	for _, name := range running {
		alive[name] = struct{}{}
		f.graph.AddNode(name)

		if _, infra := infrastructureNames[name]; infra {
			continue
		}

		parent, _, isReplica := instance.ParseReplicaName(name)

		existed := query(f, func() bool {
			_, ok := f.state.records[name]
			return ok
		})
		if !existed {
			now := time.Now()
			rec := instance.Record{Name: name, CreatedAt: now, LastRequestAt: now, Status: instance.StatusRunning}
			if isReplica {
				rec.Parent = parent
			}
			if insp, err := f.rt.Inspect(ctx, name); err == nil {
				rec.Image = insp.Image
				rec.Env = insp.Env
			}
			f.do(func() { f.state.records[name] = rec })
		}

		if isReplica {
			f.do(func() {
				parentRec, ok := f.state.records[parent]
				if !ok {
					return
				}
				for _, r := range parentRec.Replicas {
					if r == name {
						return
					}
				}
				parentRec.Replicas = append(parentRec.Replicas, name)
				f.state.records[parent] = parentRec
			})
			if err := f.graph.AddEdge(parent, name, graph.ReplicaOf, 1); err != nil {
				logErr("graph.AddEdge", name, err)
			}
			f.graph.RemoveEdge(MainNode, name, graph.MasterOf)
		} else {
			rec := f.recordOf(name)
			if isWorkerImage(rec.Image) {
				if err := f.graph.AddEdge(MainNode, name, graph.MasterOf, 1); err != nil {
					logErr("graph.AddEdge", name, err)
				}
			}
		}
	}

	tracked := query(f, func() []string {
		names := make([]string, 0, len(f.state.records))
		for name := range f.state.records {
			names = append(names, name)
		}
		return names
	})

	for _, name := range tracked {
		if _, ok := alive[name]; ok {
			continue
		}
		f.do(func() {
			delete(f.state.records, name)
			delete(f.state.rings, name)
			delete(f.state.cooldown, name)
			delete(f.state.lastReq, name)
		})
		f.graph.RemoveNode(name)
		logErr("store.UpdateContainerStatus", name, f.store.UpdateContainerStatus(name, instance.StatusRemoved))
	}

	return nil
}

// CreateReplica launches a new replica of parent and registers it. It
// fails if parent is untracked, is itself a replica, or already has
// max_replicas_per_container replicas.
func (f *Fleet) CreateReplica(ctx context.Context, parent string) (string, error) {
	parentResult := query(f, func() pair[instance.Record] {
		rec, ok := f.state.records[parent]
		return pair[instance.Record]{val: rec, ok: ok}
	})
	if !parentResult.ok {
		return "", fmt.Errorf("fleet: create_replica: parent %q not tracked", parent)
	}
	parentRec := parentResult.val
	if parentRec.IsReplica() {
		return "", fmt.Errorf("fleet: create_replica: %q is itself a replica", parent)
	}
	if len(parentRec.Replicas) >= f.cfg.MaxReplicasPerContainer {
		return "", fmt.Errorf("fleet: create_replica: %q is at replica capacity", parent)
	}

	replicaName, err := f.nextReplicaName(ctx, parent)
	if err != nil {
		return "", err
	}

	handle, err := f.rt.Run(ctx, parentRec.Image, replicaName, parentRec.Env, f.network, nil)
	if err != nil {
		return "", fmt.Errorf("fleet: create_replica: run %s: %w", replicaName, err)
	}

	now := time.Now()
	f.do(func() {
		f.state.records[replicaName] = instance.Record{
			Name:          replicaName,
			ID:            handle.ID,
			Image:         parentRec.Image,
			Env:           parentRec.Env,
			Parent:        parent,
			CreatedAt:     now,
			LastRequestAt: now,
			Status:        instance.StatusRunning,
		}
		f.state.lastReq[replicaName] = now

		updated := f.state.records[parent]
		updated.Replicas = append(append([]string(nil), updated.Replicas...), replicaName)
		f.state.records[parent] = updated
	})

	f.graph.AddNode(replicaName)
	if err := f.graph.AddEdge(parent, replicaName, graph.ReplicaOf, 1); err != nil {
		logErr("graph.AddEdge", replicaName, err)
	}
	f.graph.RemoveEdge(MainNode, replicaName, graph.MasterOf)

	logErr("store.InsertContainerInfo", replicaName, f.store.InsertContainerInfo(f.recordOf(replicaName)))
	logErr("store.UpsertRelation", replicaName, f.store.UpsertRelation(graph.Relation{From: parent, To: replicaName, Type: graph.ReplicaOf, Weight: 1}))

	return replicaName, nil
}

// nextReplicaName picks the smallest k>=1 for which parent_replica_k is
// free in both the fleet and the runtime.
func (f *Fleet) nextReplicaName(ctx context.Context, parent string) (string, error) {
	for k := 1; k <= math.MaxInt32; k++ {
		candidate := instance.ReplicaName(parent, k)

		inFleet := query(f, func() bool {
			_, ok := f.state.records[candidate]
			return ok
		})
		if inFleet {
			continue
		}
		if _, err := f.rt.Get(ctx, candidate); err == nil {
			continue
		}
		return candidate, nil
	}
	return "", fmt.Errorf("fleet: create_replica: exhausted replica index space for %q", parent)
}

// ScaleUp refuses if name is itself a replica, otherwise creates a
// replica of name and of every known parent among name's cascade
// targets, mirroring non-structural edges between the freshly created
// replicas.
func (f *Fleet) ScaleUp(ctx context.Context, name string) error {
	isReplica := query(f, func() bool {
		rec, ok := f.state.records[name]
		return ok && rec.IsReplica()
	})
	if isReplica {
		return nil
	}

	created := map[string]string{}

	replicaName, err := f.CreateReplica(ctx, name)
	if err != nil {
		return fmt.Errorf("fleet: scale_up: %w", err)
	}
	created[name] = replicaName

	targets := f.graph.SuggestScalingTargets(name).All
	for _, t := range targets {
		if t == name {
			continue
		}
		rec, known := query(f, func() pair[instance.Record] {
			r, ok := f.state.records[t]
			return pair[instance.Record]{val: r, ok: ok}
		}).split()
		if !known || rec.IsReplica() {
			continue
		}
		if r, err := f.CreateReplica(ctx, t); err == nil {
			created[t] = r
		} else {
			logErr("CreateReplica", t, err)
		}
	}

	for _, rel := range f.graph.Edges() {
		if rel.Type == graph.MasterOf || rel.Type == graph.ReplicaOf {
			continue
		}
		ru, uok := created[rel.From]
		rv, vok := created[rel.To]
		if !uok || !vok {
			continue
		}
		if err := f.graph.AddEdge(ru, rv, rel.Type, rel.Weight); err != nil {
			logErr("graph.AddEdge", ru, err)
		}
		logErr("store.UpsertRelation", ru, f.store.UpsertRelation(graph.Relation{From: ru, To: rv, Type: rel.Type, Weight: rel.Weight}))
	}

	logErr("store.AppendScalingEvent", name, f.store.AppendScalingEvent(instance.Event{
		Container: name,
		Kind:      instance.EventScaleUp,
		Timestamp: time.Now(),
	}))

	return nil
}

// ErrIsMainNode is returned by Remove when asked to remove the synthetic
// orchestrator identity.
var ErrIsMainNode = fmt.Errorf("fleet: refusing to remove %q", MainNode)

// Stop stops name's container without forgetting it; Reconcile will not
// re-adopt it as newly discovered, but the record and its graph edges
// stay in place until Remove or Reconcile drops it as dead.
func (f *Fleet) Stop(ctx context.Context, name string) error {
	if _, ok := f.Get(name); !ok {
		return fmt.Errorf("fleet: stop: %q not tracked", name)
	}
	if err := f.rt.Stop(ctx, name); err != nil {
		return fmt.Errorf("fleet: stop %s: %w", name, err)
	}
	f.do(func() {
		rec := f.state.records[name]
		rec.Status = instance.StatusStopped
		f.state.records[name] = rec
	})
	logErr("store.UpdateContainerStatus", name, f.store.UpdateContainerStatus(name, instance.StatusStopped))
	return nil
}

// Start restarts a previously stopped container tracked under name.
func (f *Fleet) Start(ctx context.Context, name string) error {
	if _, ok := f.Get(name); !ok {
		return fmt.Errorf("fleet: start: %q not tracked", name)
	}
	if err := f.rt.Start(ctx, name); err != nil {
		return fmt.Errorf("fleet: start %s: %w", name, err)
	}
	f.do(func() {
		rec := f.state.records[name]
		rec.Status = instance.StatusRunning
		f.state.records[name] = rec
	})
	logErr("store.UpdateContainerStatus", name, f.store.UpdateContainerStatus(name, instance.StatusRunning))
	return nil
}

// Remove tears down name: stops and removes its container, drops it from
// fleet state and the relation graph, and marks it removed in
// persistence. Removing the synthetic orchestrator identity is refused.
// If name is untracked in the fleet but still present as a graph node
// (e.g. an infrastructure container), it is dropped from the graph only
// and graphOnly reports true.
func (f *Fleet) Remove(ctx context.Context, name string) (graphOnly bool, err error) {
	if name == MainNode {
		return false, ErrIsMainNode
	}

	rec, tracked := f.Get(name)
	if !tracked {
		if !f.graph.HasNode(name) {
			return false, fmt.Errorf("fleet: remove: %q not found", name)
		}
		f.graph.RemoveNode(name)
		return true, nil
	}

	if err := f.rt.Stop(ctx, name); err != nil {
		logErr("rt.Stop", name, err)
	}
	if err := f.rt.Remove(ctx, name); err != nil {
		logErr("rt.Remove", name, err)
	}

	parent := rec.Record.Parent
	f.forgetState(name, parent)
	return false, nil
}

const maxPredictorWindow = 20

// CheckScaling evaluates name's recent metrics window against the
// predictor and triggers ScaleUp if warranted. It is a no-op while
// name's cooldown is active or it has fewer than 10 recent samples.
func (f *Fleet) CheckScaling(ctx context.Context, name string) {
	cooldownActive := query(f, func() bool {
		last, ok := f.state.cooldown[name]
		if !ok {
			return false
		}
		return time.Since(last) < time.Duration(f.cfg.ScalingCooldownSeconds)*time.Second
	})
	if cooldownActive {
		return
	}

	points := query(f, func() []predictor.Point {
		ring, ok := f.state.rings[name]
		if !ok {
			return nil
		}
		samples := ring.LastN(maxPredictorWindow)
		out := make([]predictor.Point, len(samples))
		for i, s := range samples {
			out[i] = predictor.Point{Timestamp: s.Timestamp, CPU: s.CPUPercent, Memory: s.MemoryPercent}
		}
		return out
	})
	if len(points) < 10 {
		return
	}

	pred := predictor.Predict(points, predictor.Options{LoadThreshold: f.cfg.LoadThreshold})
	if pred.PredictedCPU > f.cfg.LoadThreshold || pred.ShouldScale {
		if err := f.ScaleUp(ctx, name); err != nil {
			logErr("ScaleUp", name, err)
		}
		f.do(func() { f.state.cooldown[name] = time.Now() })
	}
}

// DispatchResult is the outcome of routing a request to a target
// container: either an HTTP response or a transport-level failure.
// Neither branch is an error returned to the caller — routing never
// raises, matching spec's "never raises" dispatch contract.
type DispatchResult struct {
	Target     string      `json:"target"`
	StatusCode int         `json:"status_code,omitempty"`
	Response   interface{} `json:"response,omitempty"`
	URL        string      `json:"url,omitempty"`
	Error      string      `json:"error,omitempty"`
}

const directInstanceFlag = "__direct_instance"

// Route selects a target for payload and dispatches it. If payload
// carries __direct_instance=true, dispatch goes straight to name;
// otherwise the candidate with the lowest current cpu_percent among
// name and its replicas is chosen.
func (f *Fleet) Route(ctx context.Context, name string, payload map[string]interface{}) DispatchResult {
	if direct, _ := payload[directInstanceFlag].(bool); direct {
		delete(payload, directInstanceFlag)
		f.do(func() { f.state.lastReq[name] = time.Now() })
		return f.dispatch(ctx, name, payload)
	}

	chosen := query(f, func() string {
		rec, ok := f.state.records[name]
		candidates := []string{name}
		if ok {
			candidates = append(candidates, rec.Replicas...)
		}

		best := candidates[0]
		bestLoad := f.latestCPULocked(best)
		for _, c := range candidates[1:] {
			load := f.latestCPULocked(c)
			if load < bestLoad {
				best, bestLoad = c, load
			}
		}
		return best
	})

	f.do(func() { f.state.lastReq[chosen] = time.Now() })
	return f.dispatch(ctx, chosen, payload)
}

// latestCPULocked returns name's latest CPU% sample, or +Inf if it has
// none. Callers must already be running inside the actor.
func (f *Fleet) latestCPULocked(name string) float64 {
	ring, ok := f.state.rings[name]
	if !ok {
		return math.Inf(1)
	}
	latest, ok := ring.Latest()
	if !ok {
		return math.Inf(1)
	}
	return latest.CPUPercent
}

var dispatchClient = &http.Client{Timeout: 10 * time.Second}

func (f *Fleet) dispatch(ctx context.Context, target string, payload map[string]interface{}) DispatchResult {
	url := fmt.Sprintf("http://%s:5001/process", target)

	body, err := json.Marshal(payload)
	if err != nil {
		return DispatchResult{Target: target, URL: url, Error: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return DispatchResult{Target: target, URL: url, Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := dispatchClient.Do(req)
	if err != nil {
		return DispatchResult{Target: target, URL: url, Error: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return DispatchResult{Target: target, URL: url, Error: err.Error()}
	}

	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		decoded = string(raw)
	}

	return DispatchResult{Target: target, StatusCode: resp.StatusCode, Response: decoded}
}
