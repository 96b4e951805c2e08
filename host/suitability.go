package host

import (
	"github.com/poweraware/dcsim/provisioner"
	"github.com/poweraware/dcsim/vm"
)

// Suitability answers is_suitable(host, vm) = bw ∧ ram ∧ mips, per
// spec.md §4.6. It is a small stateless object (not a Host method) so
// different MIPS variants can be swapped independently of the host.
type Suitability struct {
	Oversubscribe bool
}

// IsSuitable reports whether v could be placed on h right now without
// mutating either.
func (s *Suitability) IsSuitable(h *Host, v *vm.VM) bool {
	return s.isBWSuitable(h, v) && s.isRAMSuitable(h, v) && s.isMipsSuitable(h, v)
}

func (s *Suitability) isBWSuitable(h *Host, v *vm.VM) bool {
	return h.BW.IsSuitable(provisioner.VMID(v.ID), v.BW)
}

func (s *Suitability) isRAMSuitable(h *Host, v *vm.VM) bool {
	return h.RAM.IsSuitable(provisioner.VMID(v.ID), v.RAM)
}

// isMipsSuitable implements the two variants from spec.md §4.6:
//
//   - no-oversubscription: (totalMips - Σ vm_total_mips_on_host) >
//     vm.totalMips + ε
//   - oversubscription: host.available_mips > vm.current_requested_total_mips + ε
func (s *Suitability) isMipsSuitable(h *Host, v *vm.VM) bool {
	if !s.Oversubscribe {
		var allocatedTotal float64
		for _, existing := range h.VMs() {
			allocatedTotal += existing.TotalRequestedMips()
		}
		return (h.PEs.TotalMips() - allocatedTotal) > v.TotalRequestedMips()+provisioner.Epsilon
	}
	currentRequested := v.TotalRequestedMips()
	if sched := h.CloudletScheduler(v.ID); sched != nil {
		currentRequested = sched.CurrentRequestedTotalMips(0, v.RequestedMipsPerPE)
	}
	return h.PEs.AvailableMips() > currentRequested+provisioner.Epsilon
}
