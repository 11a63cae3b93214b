package traffic

import (
	"sort"
	"time"

	"github.com/taha696969/docker-orchestrator-pro-dev/internal/fleet"
)

// historyDepth is how many of each container's most recent samples are
// scanned to compute the resource-usage portion of a Summary.
const historyDepth = 100

// minElapsedSeconds is the floor applied to a job's elapsed time before
// dividing, per spec.md §4.7.
const minElapsedSeconds = 0.001

// Summary reports one job's throughput and latency, plus a point-in-time
// view of fleet resource usage.
type Summary struct {
	Jobs              []Snapshot `json:"jobs"`
	ThroughputRPS     float64    `json:"throughput_rps"`
	ErrorRatePercent  float64    `json:"error_rate_percent"`
	MeanLatencyMs     float64    `json:"mean_latency_ms"`
	P50LatencyMs      *float64   `json:"p50_latency_ms"`
	P95LatencyMs      *float64   `json:"p95_latency_ms"`
	P99LatencyMs      *float64   `json:"p99_latency_ms"`
	ContainersCount   int        `json:"containers_count"`
	ReplicasCurrent   int        `json:"replicas_current"`
	AvgCPUPercent     float64    `json:"avg_cpu_percent"`
	AvgMemoryPercent  float64    `json:"avg_memory_percent"`
	PeakMemoryPercent float64    `json:"peak_memory_percent"`
}

// Summarize computes a Summary for a single job — the one matching
// trafficID, or the most-recently started job if trafficID is empty or
// unmatched — plus the current fleet resource picture. jobs is always
// populated with every known job regardless of which one is selected.
func (m *Manager) Summarize(f *fleet.Fleet, trafficID string) Summary {
	jobs := m.List()
	summary := Summary{Jobs: jobs}

	target, ok := selectJob(jobs, trafficID)
	if ok {
		latencies, sum, count, latOK := m.latenciesOf(target.ID)
		if latOK {
			totalRequests := target.Sent + target.Errors
			if totalRequests > 0 {
				summary.ErrorRatePercent = float64(target.Errors) / float64(totalRequests) * 100
			}

			end := time.Now()
			if !target.Running {
				if !target.StoppedAt.IsZero() {
					end = target.StoppedAt
				}
			}
			elapsed := end.Sub(target.StartedAt).Seconds()
			if elapsed < minElapsedSeconds {
				elapsed = minElapsedSeconds
			}
			summary.ThroughputRPS = float64(target.Sent) / elapsed

			if count > 0 {
				summary.MeanLatencyMs = sum / float64(count)
			}

			sort.Float64s(latencies)
			summary.P50LatencyMs = percentile(latencies, 0.50)
			summary.P95LatencyMs = percentile(latencies, 0.95)
			summary.P99LatencyMs = percentile(latencies, 0.99)
		}
	}

	records := f.List()
	summary.ContainersCount = len(records)

	var cpuSum, memSum, peak float64
	var sampled int
	for _, rec := range records {
		summary.ReplicasCurrent += len(rec.Replicas)

		history := f.History(rec.Name, historyDepth)
		if len(history) == 0 {
			continue
		}
		latest := history[len(history)-1]
		cpuSum += latest.CPUPercent
		memSum += latest.MemoryPercent
		sampled++

		for _, s := range history {
			if s.MemoryPercent > peak {
				peak = s.MemoryPercent
			}
		}
	}
	if sampled > 0 {
		summary.AvgCPUPercent = cpuSum / float64(sampled)
		summary.AvgMemoryPercent = memSum / float64(sampled)
	}
	summary.PeakMemoryPercent = peak

	return summary
}

// percentile returns the p-th (0..1) percentile of sorted ascending
// values via linear interpolation between closest ranks, or nil if
// sorted is empty.
func percentile(sorted []float64, p float64) *float64 {
	if len(sorted) == 0 {
		return nil
	}
	if len(sorted) == 1 {
		v := sorted[0]
		return &v
	}
	rank := p * float64(len(sorted)-1)
	lo := int(rank)
	hi := lo + 1
	if hi >= len(sorted) {
		v := sorted[len(sorted)-1]
		return &v
	}
	frac := rank - float64(lo)
	v := sorted[lo] + frac*(sorted[hi]-sorted[lo])
	return &v
}

// selectJob picks the job matching trafficID, falling back to the
// most-recently started job (jobs is ordered ascending by StartedAt) if
// trafficID is empty or matches none, per spec.md §4.7.
func selectJob(jobs []Snapshot, trafficID string) (Snapshot, bool) {
	if trafficID != "" {
		for _, j := range jobs {
			if j.ID == trafficID {
				return j, true
			}
		}
	}
	if len(jobs) == 0 {
		return Snapshot{}, false
	}
	return jobs[len(jobs)-1], true
}
