package fleet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taha696969/docker-orchestrator-pro-dev/internal/config"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/graph"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/instance"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/metrics"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/persistence"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/runtimeadapter"
)

func newTestFleet() (*Fleet, *runtimeadapter.Fake) {
	rt := runtimeadapter.NewFake("orchestrator_network")
	store := persistence.NewMemoryStore()
	gm := graph.New()
	cfg := config.Config{
		MaxReplicasPerContainer: 2,
		IdleReplicaSeconds:      300,
		IdleReplicaCPUThreshold: 5,
		LoadThreshold:           80,
		ScalingCooldownSeconds:  60,
		MonitorInterval:         5 * time.Second,
	}
	return New(cfg, rt, store, gm, "orchestrator_network"), rt
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	f, _ := newTestFleet()
	defer f.Close()

	_, err := f.Create(context.Background(), "myapp:latest", "w1", nil, nil)
	require.NoError(t, err)

	_, err = f.Create(context.Background(), "myapp:latest", "w1", nil, nil)
	require.Error(t, err)
}

func TestCreateWorkerImageInjectsEnvAndEdge(t *testing.T) {
	f, _ := newTestFleet()
	defer f.Close()

	_, err := f.Create(context.Background(), "myworker:latest", "w1", nil, nil)
	require.NoError(t, err)

	rec, ok := f.Get("w1")
	require.True(t, ok)
	require.Equal(t, "w1", rec.Record.Env["CONTAINER_NAME"])
	require.Equal(t, "http://main:5000", rec.Record.Env["ORCHESTRATOR_URL"])
	require.True(t, f.graph.HasEdge(MainNode, "w1", graph.MasterOf))
}

func TestCreateNonWorkerImageSkipsEdge(t *testing.T) {
	f, _ := newTestFleet()
	defer f.Close()

	_, err := f.Create(context.Background(), "nginx:latest", "w1", nil, nil)
	require.NoError(t, err)
	require.False(t, f.graph.HasEdge(MainNode, "w1", graph.MasterOf))
}

func TestCreateReplicaFailsOnUnknownParent(t *testing.T) {
	f, _ := newTestFleet()
	defer f.Close()

	_, err := f.CreateReplica(context.Background(), "ghost")
	require.Error(t, err)
}

func TestCreateReplicaFailsOnReplicaParent(t *testing.T) {
	f, _ := newTestFleet()
	defer f.Close()

	_, err := f.Create(context.Background(), "myworker", "w1", nil, nil)
	require.NoError(t, err)
	r1, err := f.CreateReplica(context.Background(), "w1")
	require.NoError(t, err)

	_, err = f.CreateReplica(context.Background(), r1)
	require.Error(t, err)
}

func TestCreateReplicaRespectsCapacity(t *testing.T) {
	f, _ := newTestFleet()
	defer f.Close()

	_, err := f.Create(context.Background(), "myworker", "w1", nil, nil)
	require.NoError(t, err)

	_, err = f.CreateReplica(context.Background(), "w1")
	require.NoError(t, err)
	_, err = f.CreateReplica(context.Background(), "w1")
	require.NoError(t, err)

	_, err = f.CreateReplica(context.Background(), "w1")
	require.Error(t, err)
}

func TestCreateReplicaNamingSkipsTakenIndices(t *testing.T) {
	f, rt := newTestFleet()
	defer f.Close()

	_, err := f.Create(context.Background(), "myworker", "w1", nil, nil)
	require.NoError(t, err)

	// Pre-occupy w1_replica_1 directly on the runtime, outside the fleet.
	_, err = rt.Run(context.Background(), "myworker", "w1_replica_1", nil, "orchestrator_network", nil)
	require.NoError(t, err)

	name, err := f.CreateReplica(context.Background(), "w1")
	require.NoError(t, err)
	require.Equal(t, "w1_replica_2", name)
}

func TestScaleUpOnReplicaIsNoOp(t *testing.T) {
	f, _ := newTestFleet()
	defer f.Close()

	_, err := f.Create(context.Background(), "myworker", "w1", nil, nil)
	require.NoError(t, err)
	r1, err := f.CreateReplica(context.Background(), "w1")
	require.NoError(t, err)

	require.NoError(t, f.ScaleUp(context.Background(), r1))
	rec, _ := f.Get("w1")
	require.Equal(t, []string{r1}, rec.Record.Replicas) // unaffected by the no-op
}

func TestReconcileDropsDeadNames(t *testing.T) {
	f, rt := newTestFleet()
	defer f.Close()

	_, err := f.Create(context.Background(), "myworker", "w1", nil, nil)
	require.NoError(t, err)

	require.NoError(t, rt.Remove(context.Background(), "w1"))
	require.NoError(t, f.Reconcile(context.Background()))

	_, ok := f.Get("w1")
	require.False(t, ok)
}

func TestReconcileDiscoversRunningContainers(t *testing.T) {
	f, rt := newTestFleet()
	defer f.Close()

	_, err := rt.Run(context.Background(), "myworker", "w2", nil, "orchestrator_network", nil)
	require.NoError(t, err)

	require.NoError(t, f.Reconcile(context.Background()))

	rec, ok := f.Get("w2")
	require.True(t, ok)
	require.Equal(t, "w2", rec.Record.Name)
}

func TestRouteDirectInstanceBypassesSelection(t *testing.T) {
	f, _ := newTestFleet()
	defer f.Close()

	_, err := f.Create(context.Background(), "myapp", "w1", nil, nil)
	require.NoError(t, err)

	result := f.Route(context.Background(), "w1", map[string]interface{}{"__direct_instance": true})
	require.Equal(t, "w1", result.Target)
}

func TestRoutePicksLowestCPUCandidate(t *testing.T) {
	f, rt := newTestFleet()
	defer f.Close()

	_, err := f.Create(context.Background(), "myworker", "w1", nil, nil)
	require.NoError(t, err)
	r1, err := f.CreateReplica(context.Background(), "w1")
	require.NoError(t, err)

	rt.SetStats("w1", metrics.StatsSnapshot{CPU: metrics.CPUUsage{Total: 900, System: 1000, OnlineCPUs: 1}})
	rt.SetStats(r1, metrics.StatsSnapshot{CPU: metrics.CPUUsage{Total: 100, System: 1000, OnlineCPUs: 1}})

	f.monitorTick(context.Background())

	result := f.Route(context.Background(), "w1", map[string]interface{}{})
	require.Equal(t, r1, result.Target)
}

func TestStopAndStartRoundTrip(t *testing.T) {
	f, _ := newTestFleet()
	defer f.Close()

	_, err := f.Create(context.Background(), "myapp", "w1", nil, nil)
	require.NoError(t, err)

	require.NoError(t, f.Stop(context.Background(), "w1"))
	rec, _ := f.Get("w1")
	require.Equal(t, instance.StatusStopped, rec.Record.Status)

	require.NoError(t, f.Start(context.Background(), "w1"))
	rec, _ = f.Get("w1")
	require.Equal(t, instance.StatusRunning, rec.Record.Status)
}

func TestStopUnknownContainerErrors(t *testing.T) {
	f, _ := newTestFleet()
	defer f.Close()
	require.Error(t, f.Stop(context.Background(), "ghost"))
}

func TestRemoveRefusesMainNode(t *testing.T) {
	f, _ := newTestFleet()
	defer f.Close()

	_, err := f.Remove(context.Background(), MainNode)
	require.ErrorIs(t, err, ErrIsMainNode)
}

func TestRemoveDropsTrackedContainer(t *testing.T) {
	f, _ := newTestFleet()
	defer f.Close()

	_, err := f.Create(context.Background(), "myworker", "w1", nil, nil)
	require.NoError(t, err)

	graphOnly, err := f.Remove(context.Background(), "w1")
	require.NoError(t, err)
	require.False(t, graphOnly)

	_, ok := f.Get("w1")
	require.False(t, ok)
}

func TestRemoveGraphOnlyForUntrackedNode(t *testing.T) {
	f, _ := newTestFleet()
	defer f.Close()

	f.graph.AddNode("orchestrator_web")
	graphOnly, err := f.Remove(context.Background(), "orchestrator_web")
	require.NoError(t, err)
	require.True(t, graphOnly)
	require.False(t, f.graph.HasNode("orchestrator_web"))
}

func TestIdleGCRemovesQuietReplica(t *testing.T) {
	f, _ := newTestFleet()
	defer f.Close()
	f.cfg.IdleReplicaSeconds = 0

	_, err := f.Create(context.Background(), "myworker", "w1", nil, nil)
	require.NoError(t, err)
	r1, err := f.CreateReplica(context.Background(), "w1")
	require.NoError(t, err)

	f.do(func() { f.state.lastReq[r1] = time.Now().Add(-time.Hour) })

	f.idleGCTick(context.Background())

	_, ok := f.Get(r1)
	require.False(t, ok)

	rec, _ := f.Get("w1")
	require.Empty(t, rec.Record.Replicas)
}
