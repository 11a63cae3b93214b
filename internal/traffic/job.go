// Package traffic implements synthetic load-generation jobs that drive
// requests through the Orchestrator's router, and the rolling latency
// statistics used to summarize a job's behavior.
package traffic

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taha696969/docker-orchestrator-pro-dev/internal/fleet"
)

// latencyCap is the rolling latency buffer's fixed capacity; the oldest
// sample is evicted once it is reached.
const latencyCap = 2000

// Job is one independent synthetic-load task driving requests at a
// target container (and, transitively, its replicas) through the
// router.
type Job struct {
	ID         string
	Target     string
	RPS        float64
	Complexity int
	Direct     bool
	Duration   time.Duration // zero means unbounded

	StartedAt time.Time

	mu             sync.Mutex
	running        bool
	stoppedAt      time.Time
	sent           int64
	errs           int64
	lastTarget     string
	lastStatusCode int
	lastError      string
	lastLatencyMs  float64
	latencies      []float64
	latencySumMs   float64
	latencyCount   int64

	cancel context.CancelFunc
}

// Snapshot is a point-in-time, read-only copy of a Job's public fields.
type Snapshot struct {
	ID             string    `json:"id"`
	Target         string    `json:"target"`
	RPS            float64   `json:"rps"`
	Complexity     int       `json:"complexity"`
	Direct         bool      `json:"direct"`
	Running        bool      `json:"running"`
	StartedAt      time.Time `json:"started_at"`
	StoppedAt      time.Time `json:"stopped_at,omitempty"`
	Sent           int64     `json:"sent"`
	Errors         int64     `json:"errors"`
	LastTarget     string    `json:"last_target,omitempty"`
	LastStatusCode int       `json:"last_status_code,omitempty"`
	LastError      string    `json:"last_error,omitempty"`
	LastLatencyMs  float64   `json:"last_latency_ms"`
}

func newJob(target string, rps float64, complexity int, duration time.Duration, direct bool) *Job {
	return &Job{
		ID:         uuid.NewString(),
		Target:     target,
		RPS:        rps,
		Complexity: complexity,
		Direct:     direct,
		Duration:   duration,
		StartedAt:  time.Now(),
		running:    true,
	}
}

// Snapshot returns a copy of the job's current state.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Snapshot{
		ID:             j.ID,
		Target:         j.Target,
		RPS:            j.RPS,
		Complexity:     j.Complexity,
		Direct:         j.Direct,
		Running:        j.running,
		StartedAt:      j.StartedAt,
		StoppedAt:      j.stoppedAt,
		Sent:           j.sent,
		Errors:         j.errs,
		LastTarget:     j.lastTarget,
		LastStatusCode: j.lastStatusCode,
		LastError:      j.lastError,
		LastLatencyMs:  j.lastLatencyMs,
	}
}

// run drives the job's request loop until cancelled or its duration
// elapses. router is the Orchestrator's routing entry point.
func (j *Job) run(ctx context.Context, router *fleet.Fleet) {
	var deadline <-chan time.Time
	if j.Duration > 0 {
		timer := time.NewTimer(j.Duration)
		defer timer.Stop()
		deadline = timer.C
	}

	interval := time.Duration(0)
	if j.RPS > 0 {
		interval = time.Duration(float64(time.Second) / j.RPS)
	}

	var ticker *time.Ticker
	var tickC <-chan time.Time
	if interval > 0 {
		ticker = time.NewTicker(interval)
		defer ticker.Stop()
		tickC = ticker.C
	}

	for {
		j.fire(ctx, router)

		select {
		case <-ctx.Done():
			j.finish()
			return
		case <-deadline:
			j.finish()
			return
		default:
		}

		if tickC != nil {
			select {
			case <-ctx.Done():
				j.finish()
				return
			case <-deadline:
				j.finish()
				return
			case <-tickC:
			}
		}
	}
}

func (j *Job) fire(ctx context.Context, router *fleet.Fleet) {
	payload := map[string]interface{}{"complexity": j.Complexity}
	if j.Direct {
		payload["__direct_instance"] = true
	}

	t0 := time.Now()
	result := router.Route(ctx, j.Target, payload)
	elapsedMs := float64(time.Since(t0)) / float64(time.Millisecond)

	j.mu.Lock()
	defer j.mu.Unlock()

	j.lastTarget = result.Target
	j.lastStatusCode = result.StatusCode
	j.lastLatencyMs = elapsedMs

	if len(j.latencies) >= latencyCap {
		j.latencies = j.latencies[1:]
	}
	j.latencies = append(j.latencies, elapsedMs)
	j.latencySumMs += elapsedMs
	j.latencyCount++

	if result.Error != "" {
		j.errs++
		j.lastError = result.Error
		return
	}
	j.sent++
	j.lastError = ""
}

func (j *Job) finish() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.running = false
	j.stoppedAt = time.Now()
}

// Stop requests cancellation of the job's loop. It does not block for
// the loop to actually exit.
func (j *Job) Stop() {
	if j.cancel != nil {
		j.cancel()
	}
}
