package allocation

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/poweraware/dcsim/host"
)

// OverloadDetector answers is_host_overutilized(host) per spec.md §4.8
// Stage A. The core contract: a pure function of the host's utilisation
// history and current utilisation — no mutation, no hidden state beyond
// what HostHistory already recorded.
type OverloadDetector interface {
	IsOverloaded(h *host.Host, history *HostHistory) bool
}

// StaticThreshold flags a host overloaded once its current utilisation
// exceeds a fixed fraction.
type StaticThreshold struct {
	Threshold float64
}

func (s StaticThreshold) IsOverloaded(h *host.Host, _ *HostHistory) bool {
	return h.UtilizationFraction() > s.Threshold
}

// MADMultiplier is the standard Beloglazov-style adaptive-threshold
// coefficient applied to median-absolute-deviation over recent utilisation
// history.
const MADMultiplier = 2.5

// MinHistorySamples is the minimum number of utilisation-history samples
// required before the MAD/regression detectors trust their own estimate;
// below this they fall back to StaticThreshold's default 0.8 so early-run
// ticks (with no history yet) don't misfire.
const MinHistorySamples = 12

// MAD flags a host overloaded when its current utilisation exceeds
// median(history) + MADMultiplier * medianAbsoluteDeviation(history),
// using gonum/stat for both statistics.
type MAD struct{}

func (MAD) IsOverloaded(h *host.Host, history *HostHistory) bool {
	series := history.Utilization[h.ID]
	if len(series) < MinHistorySamples {
		return StaticThreshold{Threshold: 0.8}.IsOverloaded(h, history)
	}
	sorted := append([]float64(nil), series...)
	sort.Float64s(sorted)
	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)

	deviations := make([]float64, len(series))
	for i, v := range series {
		d := v - median
		if d < 0 {
			d = -d
		}
		deviations[i] = d
	}
	sort.Float64s(deviations)
	mad := stat.Quantile(0.5, stat.Empirical, deviations, nil)

	threshold := median + MADMultiplier*mad
	return h.UtilizationFraction() > threshold
}

// RegressionLookback bounds how many trailing samples the local-regression
// detector fits against.
const RegressionLookback = 10

// Regression flags a host overloaded when a least-squares line fit to its
// last RegressionLookback utilisation samples extrapolates past 1.0 at the
// next tick, using gonum/stat.LinearRegression.
type Regression struct{}

func (Regression) IsOverloaded(h *host.Host, history *HostHistory) bool {
	series := history.Utilization[h.ID]
	if len(series) < MinHistorySamples {
		return StaticThreshold{Threshold: 0.8}.IsOverloaded(h, history)
	}
	window := series
	if len(window) > RegressionLookback {
		window = window[len(window)-RegressionLookback:]
	}
	xs := make([]float64, len(window))
	for i := range xs {
		xs[i] = float64(i)
	}
	alpha, beta := stat.LinearRegression(xs, window, nil, false)
	predicted := alpha + beta*float64(len(window))
	return predicted > 1.0
}

// NewOverloadDetector creates an OverloadDetector by name. Valid names:
// "static" (default, threshold 0.8), "mad", "regression". Panics on
// unrecognized names.
func NewOverloadDetector(name string) OverloadDetector {
	switch name {
	case "", "static":
		return StaticThreshold{Threshold: 0.8}
	case "mad":
		return MAD{}
	case "regression":
		return Regression{}
	default:
		panic(fmt.Sprintf("unknown overload detector %q", name))
	}
}
