package traffic

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/taha696969/docker-orchestrator-pro-dev/internal/fleet"
)

// Manager owns the set of active and recently-stopped traffic jobs.
type Manager struct {
	router *fleet.Fleet

	mu   sync.Mutex
	jobs map[string]*Job
}

// NewManager constructs a Manager driving requests through router.
func NewManager(router *fleet.Fleet) *Manager {
	return &Manager{router: router, jobs: make(map[string]*Job)}
}

// Start launches a new job against target and returns its id. duration
// of zero means the job runs until explicitly stopped.
func (m *Manager) Start(target string, rps float64, complexity int, duration time.Duration, direct bool) (string, error) {
	if rps < 0 {
		return "", fmt.Errorf("traffic: rps must be non-negative, got %v", rps)
	}
	if target == "" {
		return "", fmt.Errorf("traffic: target is required")
	}

	job := newJob(target, rps, complexity, duration, direct)

	ctx, cancel := context.WithCancel(context.Background())
	job.cancel = cancel

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	go job.run(ctx, m.router)

	return job.ID, nil
}

// Stop cancels the job identified by id. It returns an error if no such
// job is known.
func (m *Manager) Stop(id string) error {
	m.mu.Lock()
	job, ok := m.jobs[id]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("traffic: job %q not found", id)
	}
	job.Stop()
	return nil
}

// List returns a snapshot of every known job (running or stopped),
// ordered by start time.
func (m *Manager) List() []Snapshot {
	m.mu.Lock()
	jobs := make([]*Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		jobs = append(jobs, j)
	}
	m.mu.Unlock()

	out := make([]Snapshot, len(jobs))
	for i, j := range jobs {
		out[i] = j.Snapshot()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// Get returns the snapshot for a single job id.
func (m *Manager) Get(id string) (Snapshot, bool) {
	m.mu.Lock()
	job, ok := m.jobs[id]
	m.mu.Unlock()
	if !ok {
		return Snapshot{}, false
	}
	return job.Snapshot(), true
}

// latenciesOf returns a copy of id's rolling latency buffer, used by
// Summary to compute percentiles.
func (m *Manager) latenciesOf(id string) ([]float64, float64, int64, bool) {
	m.mu.Lock()
	job, ok := m.jobs[id]
	m.mu.Unlock()
	if !ok {
		return nil, 0, 0, false
	}

	job.mu.Lock()
	defer job.mu.Unlock()
	out := make([]float64, len(job.latencies))
	copy(out, job.latencies)
	return out, job.latencySumMs, job.latencyCount, true
}
