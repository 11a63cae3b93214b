package persistence

import (
	"sort"
	"sync"
	"time"

	"github.com/taha696969/docker-orchestrator-pro-dev/internal/graph"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/instance"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/sample"
)

// MemoryStore is an in-memory Store used by tests and by the serve
// command when no external database is configured. Every method is
// infallible in practice but still returns an error to satisfy Store,
// matching the "failures are logged and swallowed" contract at the call
// site even though nothing here can actually fail.
type MemoryStore struct {
	mu sync.Mutex

	containers map[string]instance.Record
	metrics    map[string][]sample.Sample
	relations  map[string]graph.Relation // key: from|to|type
	events     []instance.Event
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		containers: make(map[string]instance.Record),
		metrics:    make(map[string][]sample.Sample),
		relations:  make(map[string]graph.Relation),
	}
}

func relationKey(from, to string, typ graph.RelationType) string {
	return from + "\x00" + to + "\x00" + string(typ)
}

func (m *MemoryStore) InsertContainerInfo(rec instance.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.containers[rec.Name] = rec
	return nil
}

func (m *MemoryStore) UpdateContainerStatus(name string, status instance.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.containers[name]
	if !ok {
		return nil
	}
	rec.Status = status
	m.containers[name] = rec
	return nil
}

func (m *MemoryStore) ListContainers() ([]instance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]instance.Record, 0, len(m.containers))
	for _, rec := range m.containers {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) InsertMetric(name string, s sample.Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics[name] = append(m.metrics[name], s)
	return nil
}

func (m *MemoryStore) RangeMetrics(name string, from, to time.Time) ([]sample.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sample.Sample
	for _, s := range m.metrics[name] {
		if !s.Timestamp.Before(from) && !s.Timestamp.After(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemoryStore) LatestMetrics(name string, limit int) ([]sample.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.metrics[name]
	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}
	out := make([]sample.Sample, limit)
	copy(out, all[len(all)-limit:])
	return out, nil
}

func (m *MemoryStore) PurgeMetricsOlderThan(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, samples := range m.metrics {
		kept := samples[:0:0]
		for _, s := range samples {
			if s.Timestamp.After(t) {
				kept = append(kept, s)
			}
		}
		m.metrics[name] = kept
	}
	return nil
}

func (m *MemoryStore) TrainingWindow(name string, days int) (TrainingWindow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().AddDate(0, 0, -days)
	var w TrainingWindow
	for _, s := range m.metrics[name] {
		if s.Timestamp.Before(cutoff) {
			continue
		}
		w.Timestamps = append(w.Timestamps, s.Timestamp)
		w.CPU = append(w.CPU, s.CPUPercent)
		w.Memory = append(w.Memory, s.MemoryPercent)
		w.NetworkRx = append(w.NetworkRx, float64(s.NetworkRx))
		w.NetworkTx = append(w.NetworkTx, float64(s.NetworkTx))
	}
	return w, nil
}

func (m *MemoryStore) UpsertRelation(rel graph.Relation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relations[relationKey(rel.From, rel.To, rel.Type)] = rel
	return nil
}

func (m *MemoryStore) DeleteRelation(from, to string, typ graph.RelationType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if typ != "" {
		delete(m.relations, relationKey(from, to, typ))
		return nil
	}
	for key, rel := range m.relations {
		if rel.From == from && rel.To == to {
			delete(m.relations, key)
		}
	}
	return nil
}

func (m *MemoryStore) DeleteAllRelationsFor(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, rel := range m.relations {
		if rel.From == name || rel.To == name {
			delete(m.relations, key)
		}
	}
	return nil
}

func (m *MemoryStore) FindAllRelations() ([]graph.Relation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]graph.Relation, 0, len(m.relations))
	for _, rel := range m.relations {
		out = append(out, rel)
	}
	return out, nil
}

func (m *MemoryStore) AppendScalingEvent(ev instance.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *MemoryStore) ScalingHistory(name string, limit int) ([]instance.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []instance.Event
	for i := len(m.events) - 1; i >= 0; i-- {
		ev := m.events[i]
		if name != "" && ev.Container != name {
			continue
		}
		matched = append(matched, ev)
		if limit > 0 && len(matched) >= limit {
			break
		}
	}
	return matched, nil
}
