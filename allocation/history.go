// Package allocation implements the VM allocation policies: a simple
// first-fit-by-power policy with no consolidation, and the harder
// overload/underload migration policy (spec.md §4.7, §4.8). Grounded on
// sim/routing_adaptive.go / sim/routing_scorers_adaptive.go's
// evaluate-every-candidate-keep-minimum scoring shape and on
// sim/cluster/counterfactual.go's speculative-apply-then-revert pattern.
package allocation

import "github.com/poweraware/dcsim/host"

// HostHistory holds the allocation policy's own per-host time series,
// mutated only from within OptimizeAllocation (spec.md §5 "Shared
// resources"). spec.md §9 calls out that the original conflates three
// different metrics under one history map name; this type keeps them
// separate.
type HostHistory struct {
	Utilization map[host.ID][]float64
	Requested   map[host.ID][]float64
	Active      map[host.ID][]bool
}

// NewHostHistory creates an empty HostHistory.
func NewHostHistory() *HostHistory {
	return &HostHistory{
		Utilization: make(map[host.ID][]float64),
		Requested:   make(map[host.ID][]float64),
		Active:      make(map[host.ID][]bool),
	}
}

// Record appends h's current utilisation/requested/active snapshot.
func (hh *HostHistory) Record(h *host.Host) {
	util := h.UtilizationFraction()
	var req float64
	if n := len(h.History); n > 0 {
		req = h.History[n-1].ReqMips
	}
	hh.Utilization[h.ID] = append(hh.Utilization[h.ID], util)
	hh.Requested[h.ID] = append(hh.Requested[h.ID], req)
	hh.Active[h.ID] = append(hh.Active[h.ID], !h.IsSwitchedOff())
}
