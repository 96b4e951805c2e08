package vmsched

import "github.com/poweraware/dcsim/provisioner"

// TimeShared satisfies every request proportionally up to the host's total
// PE MIPS capacity; a VM's requested total is split evenly across its
// requested PE count. Under oversubscription every request is scaled down
// by the same factor (capacity / total requested), a linear sharing model
// — spec.md §1 explicitly licenses not modelling sub-MIPS scheduling
// granularity inside a single PE, so this pools all PEs' capacity rather
// than tracking per-physical-core contention.
type TimeShared struct{}

func (t *TimeShared) Allocate(pes *provisioner.PEList, requests []Request) map[provisioner.VMID][]float64 {
	deallocateAll(pes, requests)

	capacity := pes.TotalMips()
	var totalRequested float64
	for _, r := range requests {
		totalRequested += r.MipsPerPE * float64(r.NumPEs)
	}

	scale := 1.0
	if totalRequested > capacity && totalRequested > 0 {
		scale = capacity / totalRequested
	}

	peSlots := pes.PEs()
	result := make(map[provisioner.VMID][]float64, len(requests))
	peIdx := 0
	for _, r := range requests {
		perPE := r.MipsPerPE * scale
		vec := make([]float64, r.NumPEs)
		for i := 0; i < r.NumPEs; i++ {
			vec[i] = perPE
			if len(peSlots) > 0 {
				target := peSlots[peIdx%len(peSlots)]
				target.Allocated[r.VM] += perPE
				peIdx++
			}
		}
		result[r.VM] = vec
	}
	return result
}
