// Package predictor turns a recent window of CPU% and memory% samples
// into a trend/volatility/forecast read and a scale-or-not decision. It
// is a pure function of its input windows: it holds no state of its own
// and never touches the network, persistence, or the runtime.
package predictor

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// DefaultLoadThreshold is the predicted-load percentage above which
// scaling is recommended, absent an overriding configuration value.
const DefaultLoadThreshold = 80.0

// DefaultHorizon is the number of sample-steps the forecast projects
// forward.
const DefaultHorizon = 5

const (
	trendWindow      = 20
	volatilityWindow = 10
	minSamples       = 10
	anomalySigma     = 3.0
	cpuDropThreshold = 40.0
)

// AnomalySeverity classifies a detected anomaly.
type AnomalySeverity string

const (
	SeverityLow    AnomalySeverity = "low"
	SeverityMedium AnomalySeverity = "medium"
	SeverityHigh   AnomalySeverity = "high"
)

// Anomaly describes one flagged observation.
type Anomaly struct {
	Kind      string          `json:"kind"`
	Severity  AnomalySeverity `json:"severity"`
	Value     float64         `json:"value"`
	Timestamp time.Time       `json:"timestamp"`
}

// Point is one (timestamp, cpu%, memory%) observation fed to the
// predictor, oldest first.
type Point struct {
	Timestamp time.Time
	CPU       float64
	Memory    float64
}

// Prediction is the full output of Predict.
type Prediction struct {
	CPUTrend        float64
	MemoryTrend     float64
	CPUVolatility   float64
	MemoryVolatility float64
	PredictedCPU    float64
	PredictedMemory float64
	ShouldScale     bool
	Confidence      float64
	Anomalies       []Anomaly
	SampleCount     int
}

// Options overrides the defaults used by Predict.
type Options struct {
	LoadThreshold float64
	Horizon       int
}

func (o Options) resolved() Options {
	if o.LoadThreshold == 0 {
		o.LoadThreshold = DefaultLoadThreshold
	}
	if o.Horizon == 0 {
		o.Horizon = DefaultHorizon
	}
	return o
}

// Predict computes a Prediction from points, oldest first. Fewer than
// minSamples points yields a zero-value, non-scaling Prediction with
// Confidence 0.3 and SampleCount set, matching the "need >=10 recent
// samples" precondition enforced upstream by the orchestrator's
// check_scaling.
func Predict(points []Point, opts Options) Prediction {
	opts = opts.resolved()
	n := len(points)

	pred := Prediction{SampleCount: n, Confidence: confidence(n)}
	if n < minSamples {
		return pred
	}

	cpuAll := make([]float64, n)
	memAll := make([]float64, n)
	for i, p := range points {
		cpuAll[i] = p.CPU
		memAll[i] = p.Memory
	}

	pred.CPUTrend = trend(cpuAll)
	pred.MemoryTrend = trend(memAll)
	pred.CPUVolatility = volatility(cpuAll)
	pred.MemoryVolatility = volatility(memAll)

	currentCPU := cpuAll[n-1]
	currentMemory := memAll[n-1]

	pred.PredictedCPU = clamp(currentCPU+pred.CPUTrend*float64(opts.Horizon), 0, 100)
	pred.PredictedMemory = clamp(currentMemory+pred.MemoryTrend*float64(opts.Horizon), 0, 100)

	pred.ShouldScale = pred.PredictedCPU > opts.LoadThreshold ||
		pred.PredictedMemory > opts.LoadThreshold ||
		(pred.CPUTrend > 5 && currentCPU > 60) ||
		(pred.MemoryTrend > 5 && currentMemory > 60) ||
		pred.CPUVolatility > 20

	pred.Anomalies = detectAnomalies(points, cpuAll)

	return pred
}

// trend fits an OLS slope over the last up to trendWindow points,
// x = 0..n-1. Returns 0 for fewer than 2 points.
func trend(values []float64) float64 {
	window := lastN(values, trendWindow)
	n := len(window)
	if n < 2 {
		return 0
	}
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	_, slope := stat.LinearRegression(xs, window, nil, false)
	return slope
}

// volatility is the population standard deviation over the last up to
// volatilityWindow points.
func volatility(values []float64) float64 {
	window := lastN(values, volatilityWindow)
	if len(window) == 0 {
		return 0
	}
	mean := stat.Mean(window, nil)
	return populationStdDev(window, mean)
}

// populationStdDev computes stat.StdDev's sample standard deviation
// corrected to the population formula (divide by N, not N-1), since
// gonum's stat.StdDev is the sample (Bessel-corrected) estimator and
// spec compliance here requires the uncorrected population statistic.
func populationStdDev(values []float64, mean float64) float64 {
	n := float64(len(values))
	if n == 0 {
		return 0
	}
	sampleSD := stat.StdDev(values, nil)
	if n < 2 {
		return 0
	}
	variance := sampleSD * sampleSD * (n - 1) / n
	return math.Sqrt(variance)
}

func confidence(n int) float64 {
	switch {
	case n < 10:
		return 0.3
	case n < 20:
		return 0.5
	case n < 50:
		return 0.7
	default:
		return 0.9
	}
}

// detectAnomalies flags points more than anomalySigma population
// standard deviations from the mean of the full cpu window, plus a
// dedicated cpu_drop anomaly when consecutive samples fall by more than
// cpuDropThreshold points.
func detectAnomalies(points []Point, cpuAll []float64) []Anomaly {
	if len(cpuAll) == 0 {
		return nil
	}
	mean := stat.Mean(cpuAll, nil)
	sigma := populationStdDev(cpuAll, mean)

	var anomalies []Anomaly
	for i, p := range points {
		if sigma > 0 && abs(p.CPU-mean) > anomalySigma*sigma {
			anomalies = append(anomalies, Anomaly{
				Kind:      "cpu_outlier",
				Severity:  SeverityHigh,
				Value:     p.CPU,
				Timestamp: p.Timestamp,
			})
		}
		if i > 0 && points[i-1].CPU-p.CPU > cpuDropThreshold {
			anomalies = append(anomalies, Anomaly{
				Kind:      "cpu_drop",
				Severity:  SeverityMedium,
				Value:     p.CPU,
				Timestamp: p.Timestamp,
			})
		}
	}
	return anomalies
}

// OfflineModel is the result of TrainOffline: a second, independent OLS
// fit over historical data. It never feeds ShouldScale; it exists for
// operator/agent inspection only.
type OfflineModel struct {
	Alpha       float64 `json:"alpha"`
	Beta        float64 `json:"beta"`
	SampleCount int     `json:"sample_count"`
}

// TrainOffline fits CPU% against sample index (x=0..n-1) over a full
// historical window, independent of the online trend/volatility window
// used by Predict.
func TrainOffline(cpu []float64) OfflineModel {
	n := len(cpu)
	if n < 2 {
		return OfflineModel{SampleCount: n}
	}
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	alpha, beta := stat.LinearRegression(xs, cpu, nil, false)
	return OfflineModel{Alpha: alpha, Beta: beta, SampleCount: n}
}

func lastN(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
