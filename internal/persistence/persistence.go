// Package persistence defines the storage interface the orchestrator
// treats as a best-effort side channel — every call is allowed to fail
// silently because in-memory state, not the store, is authoritative —
// plus an in-memory reference implementation for tests and for running
// without an external database wired in.
package persistence

import (
	"time"

	"github.com/taha696969/docker-orchestrator-pro-dev/internal/graph"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/instance"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/sample"
)

// TrainingWindow is the parallel-array shape returned for a historical
// training fetch, per spec.md §4.5's metrics.training_window.
type TrainingWindow struct {
	Timestamps []time.Time
	CPU        []float64
	Memory     []float64
	NetworkRx  []float64
	NetworkTx  []float64
}

// Store is the Persistence Adapter interface. Implementations MUST be
// best-effort from the orchestrator's point of view — every error they
// return is logged and swallowed by the caller, never propagated into a
// scaling decision.
type Store interface {
	InsertContainerInfo(rec instance.Record) error
	UpdateContainerStatus(name string, status instance.Status) error
	ListContainers() ([]instance.Record, error)

	InsertMetric(name string, s sample.Sample) error
	RangeMetrics(name string, from, to time.Time) ([]sample.Sample, error)
	LatestMetrics(name string, limit int) ([]sample.Sample, error)
	PurgeMetricsOlderThan(t time.Time) error
	TrainingWindow(name string, days int) (TrainingWindow, error)

	UpsertRelation(rel graph.Relation) error
	DeleteRelation(from, to string, typ graph.RelationType) error
	DeleteAllRelationsFor(name string) error
	FindAllRelations() ([]graph.Relation, error)

	AppendScalingEvent(ev instance.Event) error
	ScalingHistory(name string, limit int) ([]instance.Event, error)
}
