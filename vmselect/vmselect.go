// Package vmselect implements Stage B's VmSelectionPolicy: picking a
// victim VM to migrate off an overloaded host (spec.md §4.8 Stage B).
package vmselect

import (
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"github.com/poweraware/dcsim/host"
	"github.com/poweraware/dcsim/vm"
)

// Policy selects one VM from candidates (all currently on h) to migrate
// away. Returns ok=false if candidates is empty.
type Policy interface {
	Select(h *host.Host, candidates []*vm.VM) (*vm.VM, bool)
}

// migrationTime estimates ram/(bw/16) using the current host's bandwidth
// as a stand-in for the (not-yet-chosen) destination's bandwidth — the
// same formula spec.md §4.8 uses for the real migration delay.
func migrationTime(h *host.Host, v *vm.VM) float64 {
	bw := h.BW.Capacity()
	if bw <= 0 {
		return 0
	}
	return v.RAM / (bw / 16)
}

// MinMigrationTime selects the VM that would take the least time to
// migrate — cheapest to move first.
type MinMigrationTime struct{}

func (MinMigrationTime) Select(h *host.Host, candidates []*vm.VM) (*vm.VM, bool) {
	if len(candidates) == 0 {
		return nil, false
	}
	best := candidates[0]
	bestTime := migrationTime(h, best)
	for _, v := range candidates[1:] {
		t := migrationTime(h, v)
		if t < bestTime {
			best, bestTime = v, t
		}
	}
	return best, true
}

// MaxCorrelation selects the VM whose allocated-MIPS history correlates
// most strongly, on average, with the other VMs on the same host — moving
// it away reduces the chance that every remaining VM spikes in lockstep.
// Uses gonum/stat.Correlation over the common-length suffix of each pair
// of histories.
type MaxCorrelation struct{}

func (MaxCorrelation) Select(h *host.Host, candidates []*vm.VM) (*vm.VM, bool) {
	if len(candidates) == 0 {
		return nil, false
	}
	all := h.VMs()
	if len(candidates) == 1 {
		return candidates[0], true
	}

	var best *vm.VM
	bestScore := -2.0 // below any valid correlation
	for _, v := range candidates {
		score := avgCorrelation(v, all)
		if best == nil || score > bestScore {
			best, bestScore = v, score
		}
	}
	return best, true
}

func avgCorrelation(v *vm.VM, all []*vm.VM) float64 {
	var sum float64
	var n int
	for _, other := range all {
		if other.ID == v.ID {
			continue
		}
		c := correlate(v.AllocatedMipsHistory, other.AllocatedMipsHistory)
		if c != c { // NaN guard (e.g. constant series)
			continue
		}
		sum += c
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func correlate(a, b []float64) float64 {
	n := min(len(a), len(b))
	if n < 2 {
		return 0
	}
	return stat.Correlation(a[len(a)-n:], b[len(b)-n:], nil)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Random selects uniformly among candidates using a caller-provided RNG
// (the simulation's own seeded subsystem RNG, for reproducibility).
type Random struct {
	RNG *rand.Rand
}

func (r Random) Select(_ *host.Host, candidates []*vm.VM) (*vm.VM, bool) {
	if len(candidates) == 0 {
		return nil, false
	}
	idx := r.RNG.Intn(len(candidates))
	return candidates[idx], true
}

// New creates a VmSelectionPolicy by name. Valid names: "min-migration-time"
// (default), "max-correlation", "random". Panics on unrecognized names,
// matching the teacher's policy-factory panic-on-unknown convention
// (sim/scheduler.go NewScheduler, sim/admission.go NewAdmissionPolicy).
func New(name string, rng *rand.Rand) Policy {
	switch name {
	case "", "min-migration-time":
		return MinMigrationTime{}
	case "max-correlation":
		return MaxCorrelation{}
	case "random":
		return Random{RNG: rng}
	default:
		panic("unknown vm selection policy " + name)
	}
}
