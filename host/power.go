package host

import (
	"fmt"
	"sort"
)

// PowerModel maps a utilisation fraction in [0,1] to instantaneous power
// draw in watts.
type PowerModel interface {
	Watts(utilization float64) float64
	MaxWatts() float64
}

// LinearPowerModel interpolates linearly between idle and max power —
// the simplest of the classic CloudSim power models.
type LinearPowerModel struct {
	Idle float64
	Max  float64
}

func (m *LinearPowerModel) Watts(u float64) float64 {
	if u < 0 {
		u = 0
	}
	if u > 1 {
		u = 1
	}
	return m.Idle + (m.Max-m.Idle)*u
}

func (m *LinearPowerModel) MaxWatts() float64 { return m.Max }

// PiecewiseLinearPowerModel interpolates across a measured power curve
// (e.g. a vendor-published SPECpower table sampled at 0%, 10%, ..., 100%
// utilisation), matching the real-world tables CloudSim's power models are
// calibrated from.
type PiecewiseLinearPowerModel struct {
	// Breakpoints must be sorted ascending and span [0,1]; WattsAt holds one
	// entry per breakpoint.
	Breakpoints []float64
	WattsAt     []float64
}

func (m *PiecewiseLinearPowerModel) Watts(u float64) float64 {
	n := len(m.Breakpoints)
	if n == 0 {
		return 0
	}
	if u <= m.Breakpoints[0] {
		return m.WattsAt[0]
	}
	if u >= m.Breakpoints[n-1] {
		return m.WattsAt[n-1]
	}
	i := sort.SearchFloat64s(m.Breakpoints, u)
	if m.Breakpoints[i] == u {
		return m.WattsAt[i]
	}
	lo, hi := i-1, i
	frac := (u - m.Breakpoints[lo]) / (m.Breakpoints[hi] - m.Breakpoints[lo])
	return m.WattsAt[lo] + frac*(m.WattsAt[hi]-m.WattsAt[lo])
}

func (m *PiecewiseLinearPowerModel) MaxWatts() float64 {
	if len(m.WattsAt) == 0 {
		return 0
	}
	return m.WattsAt[len(m.WattsAt)-1]
}

// HPProLiantG4PowerModel is the well-known CloudSim SPECpower sample
// table for an HP ProLiant ML110 G4 (idle 86W, peak 117W), provided as a
// ready-to-use PiecewiseLinearPowerModel.
func HPProLiantG4PowerModel() *PiecewiseLinearPowerModel {
	return &PiecewiseLinearPowerModel{
		Breakpoints: []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		WattsAt:     []float64{86, 89.4, 92.6, 96, 99.5, 102, 106, 108, 112, 114, 117},
	}
}

// NewPowerModel constructs a PowerModel by name for config-driven host
// construction. Valid names: "" / "hp-proliant-g4" (default, the sample
// SPECpower table), "linear" (idle 50% of max — a generic fallback).
// Panics on unrecognized names, matching the teacher's policy-factory
// panic-on-unknown convention.
func NewPowerModel(name string, maxWatts float64) PowerModel {
	switch name {
	case "", "hp-proliant-g4":
		return HPProLiantG4PowerModel()
	case "linear":
		if maxWatts <= 0 {
			maxWatts = 117
		}
		return &LinearPowerModel{Idle: maxWatts * 0.5, Max: maxWatts}
	default:
		panic(fmt.Sprintf("unknown power model %q", name))
	}
}
