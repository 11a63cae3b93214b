package predictor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func flatPoints(n int, cpu, mem float64) []Point {
	out := make([]Point, n)
	base := time.Now()
	for i := range out {
		out[i] = Point{Timestamp: base.Add(time.Duration(i) * time.Second), CPU: cpu, Memory: mem}
	}
	return out
}

func TestBelowMinSamplesNeverScales(t *testing.T) {
	pred := Predict(flatPoints(9, 95, 95), Options{})
	require.False(t, pred.ShouldScale)
	require.Equal(t, 0.3, pred.Confidence)
	require.Equal(t, 9, pred.SampleCount)
}

func TestFlatLoadBelowThresholdDoesNotScale(t *testing.T) {
	pred := Predict(flatPoints(20, 40, 40), Options{})
	require.False(t, pred.ShouldScale)
	require.Equal(t, 0.0, pred.CPUTrend)
	require.Equal(t, 0.0, pred.CPUVolatility)
}

func TestHighFlatLoadScalesOnPredictedThreshold(t *testing.T) {
	pred := Predict(flatPoints(15, 90, 50), Options{})
	require.True(t, pred.ShouldScale)
	require.InDelta(t, 90.0, pred.PredictedCPU, 0.001)
}

func TestRisingTrendScalesAboveSixty(t *testing.T) {
	points := make([]Point, 15)
	base := time.Now()
	for i := range points {
		points[i] = Point{Timestamp: base.Add(time.Duration(i) * time.Second), CPU: 6 * float64(i), Memory: 30}
	}
	pred := Predict(points, Options{})
	require.True(t, pred.CPUTrend > 5)
	require.True(t, pred.ShouldScale)
}

func TestVolatilityAloneTriggersScale(t *testing.T) {
	points := make([]Point, 12)
	base := time.Now()
	for i := range points {
		cpu := 25.0
		if i%2 == 0 {
			cpu = 75.0
		}
		points[i] = Point{Timestamp: base.Add(time.Duration(i) * time.Second), CPU: cpu, Memory: 10}
	}
	pred := Predict(points, Options{})
	require.True(t, pred.CPUVolatility > 20)
	require.True(t, pred.ShouldScale)
}

func TestConfidenceStepFunction(t *testing.T) {
	require.Equal(t, 0.3, Predict(flatPoints(5, 10, 10), Options{}).Confidence)
	require.Equal(t, 0.5, Predict(flatPoints(15, 10, 10), Options{}).Confidence)
	require.Equal(t, 0.7, Predict(flatPoints(25, 10, 10), Options{}).Confidence)
	require.Equal(t, 0.9, Predict(flatPoints(55, 10, 10), Options{}).Confidence)
}

func TestForecastClampedToHundred(t *testing.T) {
	points := make([]Point, 15)
	base := time.Now()
	for i := range points {
		points[i] = Point{Timestamp: base.Add(time.Duration(i) * time.Second), CPU: 90 + float64(i), Memory: 10}
	}
	pred := Predict(points, Options{})
	require.Equal(t, 100.0, pred.PredictedCPU)
}

func TestAnomalyOutlierDetected(t *testing.T) {
	points := flatPoints(14, 30, 30)
	points[13].CPU = 99
	pred := Predict(points, Options{})
	found := false
	for _, a := range pred.Anomalies {
		if a.Kind == "cpu_outlier" {
			found = true
		}
	}
	require.True(t, found)
}

func TestAnomalyCPUDropDetected(t *testing.T) {
	points := flatPoints(12, 80, 30)
	points[11].CPU = 20
	pred := Predict(points, Options{})
	found := false
	for _, a := range pred.Anomalies {
		if a.Kind == "cpu_drop" {
			require.Equal(t, SeverityMedium, a.Severity)
			found = true
		}
	}
	require.True(t, found)
}

func TestCustomLoadThresholdAndHorizon(t *testing.T) {
	pred := Predict(flatPoints(15, 50, 50), Options{LoadThreshold: 40, Horizon: 1})
	require.True(t, pred.ShouldScale)
}

func TestTrainOfflineFitsRisingSeries(t *testing.T) {
	cpu := []float64{10, 20, 30, 40, 50}
	model := TrainOffline(cpu)
	require.Equal(t, 5, model.SampleCount)
	require.InDelta(t, 10, model.Beta, 0.001)
}

func TestTrainOfflineRequiresAtLeastTwoSamples(t *testing.T) {
	model := TrainOffline([]float64{42})
	require.Equal(t, 1, model.SampleCount)
	require.Zero(t, model.Beta)
}
