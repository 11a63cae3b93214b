package control

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taha696969/docker-orchestrator-pro-dev/internal/config"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/fleet"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/graph"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/persistence"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/runtimeadapter"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/traffic"
)

func newTestSurface(t *testing.T) *Surface {
	t.Helper()
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
	f := fleet.New(cfg, rt, store, gm, "orchestrator_network")
	t.Cleanup(f.Close)
	tr := traffic.NewManager(f)
	return New(f, gm, tr, store)
}

func TestContainerCreateRejectsMissingFields(t *testing.T) {
	s := newTestSurface(t)
	body, status := s.ContainerCreate(context.Background(), "", "", nil, nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, body, "error")
}

func TestContainerCreateAndList(t *testing.T) {
	s := newTestSurface(t)
	_, status := s.ContainerCreate(context.Background(), "myapp:latest", "w1", nil, nil)
	require.Equal(t, http.StatusOK, status)

	body, status := s.ContainersList()
	require.Equal(t, http.StatusOK, status)
	list := body.(map[string]interface{})["containers"].([]containerListEntry)
	require.Len(t, list, 1)
	require.Equal(t, "w1", list[0].Name)
}

func TestContainerRemoveRefusesMainNode(t *testing.T) {
	s := newTestSurface(t)
	body, status := s.ContainerRemove(context.Background(), fleet.MainNode)
	require.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, body, "error")
}

func TestContainerRemoveDistinguishesGraphOnlyRemoval(t *testing.T) {
	s := newTestSurface(t)
	s.Graph.AddNode("orchestrator_web")

	body, status := s.ContainerRemove(context.Background(), "orchestrator_web")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "removed_from_graph", body.(map[string]interface{})["status"])
}

func TestContainerStopStartUnknownReturnsNotFound(t *testing.T) {
	s := newTestSurface(t)
	_, status := s.ContainerStop(context.Background(), "ghost")
	require.Equal(t, http.StatusNotFound, status)

	_, status = s.ContainerStart(context.Background(), "ghost")
	require.Equal(t, http.StatusNotFound, status)
}

func TestRelationAddAndRemoveRoundTrip(t *testing.T) {
	s := newTestSurface(t)
	_, status := s.RelationAdd("a", "b", "")
	require.Equal(t, http.StatusOK, status)
	require.True(t, s.Graph.HasEdge("a", "b", graph.DependsOn))

	body, status := s.RelationRemove("a", "b", string(graph.DependsOn))
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "removed", body.(map[string]interface{})["status"])
}

func TestGraphExportHidesInfrastructureNodes(t *testing.T) {
	s := newTestSurface(t)
	require.NoError(t, s.Graph.AddEdge("orchestrator_mongodb", "w1", graph.DependsOn, 1))
	require.NoError(t, s.Graph.AddEdge("w1", "w2", graph.DependsOn, 1))

	body, status := s.GraphExport()
	require.Equal(t, http.StatusOK, status)

	export := body.(map[string]interface{})["graph"].(map[string]interface{})
	nodes := export["nodes"].([]exportNode)
	for _, n := range nodes {
		require.NotEqual(t, "orchestrator_mongodb", n.ID)
	}
	links := export["links"].([]exportLink)
	for _, l := range links {
		require.NotEqual(t, "orchestrator_mongodb", l.Source)
		require.NotEqual(t, "orchestrator_mongodb", l.Target)
	}
}

func TestTrafficStartAppliesDefaults(t *testing.T) {
	s := newTestSurface(t)
	_, status := s.ContainerCreate(context.Background(), "myapp", "w1", nil, nil)
	require.Equal(t, http.StatusOK, status)

	body, status := s.TrafficStart(TrafficStartParams{Target: "w1"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "started", body.(map[string]interface{})["status"])
}

func TestTrafficStartRejectsEmptyTarget(t *testing.T) {
	s := newTestSurface(t)
	_, status := s.TrafficStart(TrafficStartParams{})
	require.Equal(t, http.StatusBadRequest, status)
}

func TestMLTrainRequiresSamples(t *testing.T) {
	s := newTestSurface(t)
	_, status := s.MLTrain("w1", 0)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestPredictReturnsNotFoundWithoutHistory(t *testing.T) {
	s := newTestSurface(t)
	_, status := s.ContainerCreate(context.Background(), "myapp", "w1", nil, nil)
	require.Equal(t, http.StatusOK, status)

	_, status = s.Predict("w1")
	require.Equal(t, http.StatusNotFound, status)
}

func TestHealthListsContainersSorted(t *testing.T) {
	s := newTestSurface(t)
	_, _ = s.ContainerCreate(context.Background(), "myapp", "b", nil, nil)
	_, _ = s.ContainerCreate(context.Background(), "myapp", "a", nil, nil)

	body, status := s.Health()
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, []string{"a", "b"}, body.(map[string]interface{})["services"])
}
