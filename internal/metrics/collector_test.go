package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taha696969/docker-orchestrator-pro-dev/internal/sample"
)

func TestCPUPercentBasic(t *testing.T) {
	pct := cpuPercent(
		CPUUsage{Total: 200, System: 1000, OnlineCPUs: 2},
		CPUUsage{Total: 100, System: 900},
	)
	require.InDelta(t, 100.0, pct, 0.001) // 200% before the clamp at 100
}

func TestCPUPercentClampedAtDerive(t *testing.T) {
	c := New()
	s := c.Derive(StatsSnapshot{
		Container: "w1",
		CPU:       CPUUsage{Total: 500, System: 1000, OnlineCPUs: 4},
		PreCPU:    CPUUsage{Total: 0, System: 0},
	})
	require.Equal(t, 100.0, s.CPUPercent)
}

func TestCPUPercentZeroWhenNoProgress(t *testing.T) {
	pct := cpuPercent(CPUUsage{Total: 100, System: 100}, CPUUsage{Total: 100, System: 0})
	require.Equal(t, 0.0, pct)
}

func TestMemoryPercent(t *testing.T) {
	require.Equal(t, 50.0, memoryPercent(50, 100))
	require.Equal(t, 0.0, memoryPercent(50, 0))
}

func TestDeriveSumsNetworkAndBlockIO(t *testing.T) {
	c := New()
	s := c.Derive(StatsSnapshot{
		Container: "w1",
		Timestamp: time.Now(),
		Networks: []NetworkInterface{
			{Name: "eth0", RxBytes: 10, TxBytes: 20},
			{Name: "eth1", RxBytes: 5, TxBytes: 5},
		},
		BlockIO: []BlockIOEntry{
			{Op: "Read", Bytes: 100},
			{Op: "Write", Bytes: 50},
			{Op: "Sync", Bytes: 999}, // ignored
		},
	})
	require.Equal(t, int64(15), s.NetworkRx)
	require.Equal(t, int64(25), s.NetworkTx)
	require.Equal(t, int64(100), s.BlockRead)
	require.Equal(t, int64(50), s.BlockWrite)
}

func TestDeriveNeverErrors(t *testing.T) {
	c := New()
	s := c.Derive(StatsSnapshot{})
	require.False(t, s.Timestamp.IsZero())
}

func TestThroughputFirstObservationIsZero(t *testing.T) {
	c := New()
	rx, tx := c.Throughput("w1", sample.Sample{NetworkRx: 10, NetworkTx: 20, Timestamp: time.Now()})
	require.Equal(t, 0.0, rx)
	require.Equal(t, 0.0, tx)
}

func TestThroughputComputesRate(t *testing.T) {
	c := New()
	t0 := time.Now()
	c.Throughput("w1", sample.Sample{Timestamp: t0})
	rx, tx := c.Throughput("w1", sample.Sample{NetworkRx: 100, NetworkTx: 200, Timestamp: t0.Add(2 * time.Second)})
	require.InDelta(t, 50.0, rx, 0.001)
	require.InDelta(t, 100.0, tx, 0.001)
}

func TestForgetResetsBaseline(t *testing.T) {
	c := New()
	t0 := time.Now()
	c.Throughput("w1", sample.Sample{NetworkRx: 10, Timestamp: t0})
	c.Forget("w1")
	rx, _ := c.Throughput("w1", sample.Sample{NetworkRx: 1000, Timestamp: t0.Add(time.Second)})
	require.Equal(t, 0.0, rx)
}

func TestHealthScore(t *testing.T) {
	require.Equal(t, 100, HealthScore(50, 50))
	require.Equal(t, 90, HealthScore(70, 50))  // cpu 70 -> -10
	require.Equal(t, 80, HealthScore(90, 50))  // cpu 90 -> -2*(90-80) = -20
	require.Equal(t, 20, HealthScore(100, 100)) // cpu+mem overage: 100-2*20-2*20
}
