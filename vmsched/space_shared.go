package vmsched

import (
	"math"

	"github.com/poweraware/dcsim/provisioner"
)

// SpaceShared assigns whole PEs to VMs: each VM-PE requiring more MIPS
// than a single physical PE's nominal capacity is satisfied by dedicating
// multiple whole PEs to it (spec.md §4.4: "requests requiring more MIPS
// than a single PE's nominal are split into integer PE counts"). A request
// that cannot find enough free PEs is skipped (returns no entry for that
// VM) rather than partially satisfied — matching "fails if no contiguous
// capacity".
type SpaceShared struct{}

func (s *SpaceShared) Allocate(pes *provisioner.PEList, requests []Request) map[provisioner.VMID][]float64 {
	deallocateAll(pes, requests)

	result := make(map[provisioner.VMID][]float64, len(requests))
	peList := pes.PEs()

	for _, r := range requests {
		if len(peList) == 0 || r.NumPEs <= 0 {
			continue
		}
		nominal := peList[0].NominalMips
		multiplier := 1
		if nominal > 0 && r.MipsPerPE > nominal {
			multiplier = int(math.Ceil(r.MipsPerPE / nominal))
		}
		needed := r.NumPEs * multiplier

		free := make([]*provisioner.PE, 0, needed)
		for _, pe := range peList {
			if pe.Failed || len(pe.Allocated) > 0 {
				continue
			}
			free = append(free, pe)
			if len(free) == needed {
				break
			}
		}
		if len(free) < needed {
			continue // insufficient free PEs; VM gets no allocation this round
		}

		vec := make([]float64, 0, r.NumPEs)
		idx := 0
		for i := 0; i < r.NumPEs; i++ {
			var share float64
			for j := 0; j < multiplier; j++ {
				pe := free[idx]
				idx++
				alloc := math.Min(pe.NominalMips, r.MipsPerPE-share)
				if alloc < 0 {
					alloc = 0
				}
				pe.Allocated[r.VM] = alloc
				share += alloc
			}
			vec = append(vec, share)
		}
		result[r.VM] = vec
	}
	return result
}
