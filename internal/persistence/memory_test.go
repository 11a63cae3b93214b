package persistence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taha696969/docker-orchestrator-pro-dev/internal/graph"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/instance"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/sample"
)

func TestContainerLifecycle(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.InsertContainerInfo(instance.Record{Name: "w1", Status: instance.StatusRunning}))
	require.NoError(t, s.UpdateContainerStatus("w1", instance.StatusStopped))

	list, err := s.ListContainers()
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, instance.StatusStopped, list[0].Status)
}

func TestMetricsLatestAndRange(t *testing.T) {
	s := NewMemoryStore()
	base := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.InsertMetric("w1", sample.Sample{Timestamp: base.Add(time.Duration(i) * time.Minute), CPUPercent: float64(i)}))
	}

	latest, err := s.LatestMetrics("w1", 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	require.Equal(t, 4.0, latest[1].CPUPercent)

	ranged, err := s.RangeMetrics("w1", base, base.Add(2*time.Minute))
	require.NoError(t, err)
	require.Len(t, ranged, 3)
}

func TestPurgeMetricsOlderThan(t *testing.T) {
	s := NewMemoryStore()
	base := time.Now()
	require.NoError(t, s.InsertMetric("w1", sample.Sample{Timestamp: base.Add(-time.Hour)}))
	require.NoError(t, s.InsertMetric("w1", sample.Sample{Timestamp: base}))

	require.NoError(t, s.PurgeMetricsOlderThan(base.Add(-time.Minute)))
	latest, _ := s.LatestMetrics("w1", 10)
	require.Len(t, latest, 1)
}

func TestRelationUpsertAndDelete(t *testing.T) {
	s := NewMemoryStore()
	rel := graph.Relation{From: "a", To: "b", Type: graph.DependsOn, Weight: 1}
	require.NoError(t, s.UpsertRelation(rel))
	require.NoError(t, s.UpsertRelation(rel))

	all, err := s.FindAllRelations()
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, s.DeleteRelation("a", "b", graph.DependsOn))
	all, _ = s.FindAllRelations()
	require.Empty(t, all)
}

func TestDeleteAllRelationsFor(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.UpsertRelation(graph.Relation{From: "a", To: "b", Type: graph.DependsOn}))
	require.NoError(t, s.UpsertRelation(graph.Relation{From: "b", To: "c", Type: graph.Uses}))

	require.NoError(t, s.DeleteAllRelationsFor("b"))
	all, _ := s.FindAllRelations()
	require.Empty(t, all)
}

func TestScalingHistoryFiltersAndLimits(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.AppendScalingEvent(instance.Event{Container: "w1", Kind: instance.EventScaleUp, Timestamp: time.Now()}))
	require.NoError(t, s.AppendScalingEvent(instance.Event{Container: "w2", Kind: instance.EventScaleUp, Timestamp: time.Now()}))
	require.NoError(t, s.AppendScalingEvent(instance.Event{Container: "w1", Kind: instance.EventReplicaCreated, Timestamp: time.Now()}))

	hist, err := s.ScalingHistory("w1", 0)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	require.Equal(t, instance.EventReplicaCreated, hist[0].Kind)

	limited, _ := s.ScalingHistory("", 2)
	require.Len(t, limited, 2)
}
