// Package metrics turns a raw runtime-stats snapshot (the shape a
// container runtime such as Docker hands back from its stats API) into a
// normalized sample.Sample. It never talks to a runtime itself — the
// Runtime Adapter (out of scope here) is responsible for producing the
// StatsSnapshot this package consumes.
package metrics

import (
	"sync"
	"time"

	"github.com/taha696969/docker-orchestrator-pro-dev/internal/sample"
)

// CPUUsage mirrors the CPU-totals portion of a runtime stats snapshot.
type CPUUsage struct {
	Total       uint64 // cumulative CPU time used by the container, in the runtime's native unit
	System      uint64 // cumulative host-wide CPU time, same unit
	OnlineCPUs  int    // number of CPUs visible to the container; 0 if unreported
	PerCPUUsage []uint64
}

// BlockIOEntry is one accounted block-IO operation.
type BlockIOEntry struct {
	Op    string // "Read", "Write", or anything else (ignored)
	Bytes int64
}

// NetworkInterface is one accounted network interface's counters.
type NetworkInterface struct {
	Name    string
	RxBytes int64
	TxBytes int64
}

// StatsSnapshot is the normalized input handed to Derive: current and
// previous CPU totals, memory usage/limit, per-interface network
// counters, and per-op block-IO counters for one container at one point
// in time.
type StatsSnapshot struct {
	Container string
	Timestamp time.Time

	CPU    CPUUsage
	PreCPU CPUUsage

	MemoryUsage int64
	MemoryLimit int64

	Networks []NetworkInterface
	BlockIO  []BlockIOEntry
}

// Collector derives Samples from StatsSnapshots and remembers, per
// container, the previous Sample needed to compute throughput and IOPS.
// Safe for concurrent use: a single mutex guards the cache of previous
// samples for every container.
type Collector struct {
	mu   sync.Mutex
	prev map[string]sample.Sample
}

// New creates an empty Collector.
func New() *Collector {
	return &Collector{prev: make(map[string]sample.Sample)}
}

// Derive converts a StatsSnapshot into a Sample. On any internal
// computation failure it returns a zero-valued Sample stamped with the
// current time — per the Metrics Collector's failure policy, it never
// returns an error, so a single bad snapshot cannot break the monitor
// loop for every other container.
func (c *Collector) Derive(snap StatsSnapshot) (s sample.Sample) {
	defer func() {
		if recover() != nil {
			s = sample.Sample{Timestamp: time.Now()}
		}
	}()

	ts := snap.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	s = sample.Sample{
		Timestamp:     ts,
		CPUPercent:    cpuPercent(snap.CPU, snap.PreCPU),
		MemoryPercent: memoryPercent(snap.MemoryUsage, snap.MemoryLimit),
		MemoryUsage:   snap.MemoryUsage,
		MemoryLimit:   snap.MemoryLimit,
		BlockRead:     sumBlockIO(snap.BlockIO, "Read"),
		BlockWrite:    sumBlockIO(snap.BlockIO, "Write"),
	}
	s.NetworkRx, s.NetworkTx = sumNetwork(snap.Networks)
	return s.Clamp()
}

// cpuPercent implements §4.1's CPU% formula.
func cpuPercent(cur, prev CPUUsage) float64 {
	deltaC := int64(cur.Total) - int64(prev.Total)
	deltaS := int64(cur.System) - int64(prev.System)
	if deltaC <= 0 || deltaS <= 0 {
		return 0
	}

	online := cur.OnlineCPUs
	if online <= 0 {
		online = len(cur.PerCPUUsage)
	}
	if online <= 0 {
		online = 1
	}

	pct := (float64(deltaC) / float64(deltaS)) * float64(online) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

func memoryPercent(usage, limit int64) float64 {
	if limit <= 0 {
		return 0
	}
	return 100 * float64(usage) / float64(limit)
}

func sumNetwork(ifaces []NetworkInterface) (rx, tx int64) {
	for _, ni := range ifaces {
		rx += ni.RxBytes
		tx += ni.TxBytes
	}
	return rx, tx
}

func sumBlockIO(entries []BlockIOEntry, op string) int64 {
	var total int64
	for _, e := range entries {
		if e.Op == op {
			total += e.Bytes
		}
	}
	return total
}

// Throughput returns the rx and tx byte rates (bytes/sec) for container
// name, given its latest Sample cur. The first observation for a
// container returns zero rates; the cache is then updated to cur so the
// next call computes a real delta.
func (c *Collector) Throughput(name string, cur sample.Sample) (rxRate, txRate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, ok := c.prev[name]
	c.prev[name] = cur
	if !ok {
		return 0, 0
	}

	dt := cur.Timestamp.Sub(prev.Timestamp).Seconds()
	if dt <= 0 {
		return 0, 0
	}
	return float64(cur.NetworkRx-prev.NetworkRx) / dt, float64(cur.NetworkTx-prev.NetworkTx) / dt
}

// Forget drops the cached previous sample for name (e.g. once its
// container is removed), so a later reused name starts a fresh baseline.
func (c *Collector) Forget(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.prev, name)
}

// HealthScore implements §4.1's 0-100 health score from the latest CPU
// and memory percentages.
func HealthScore(cpuPct, memPct float64) int {
	score := 100.0
	score -= overagePenalty(cpuPct)
	score -= overagePenalty(memPct)

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return int(score)
}

func overagePenalty(pct float64) float64 {
	switch {
	case pct > 80:
		return 2 * (pct - 80)
	case pct > 60:
		return pct - 60
	default:
		return 0
	}
}
