package provisioner

import "gonum.org/v1/gonum/floats"

// PE is a single processing element: nominal MIPS capacity, a per-VM
// allocation map, and a failed flag (spec.md §3).
type PE struct {
	NominalMips float64
	Allocated   map[VMID]float64
	Failed      bool
}

// NewPE creates a healthy PE with the given nominal MIPS.
func NewPE(nominalMips float64) *PE {
	return &PE{NominalMips: nominalMips, Allocated: make(map[VMID]float64)}
}

// UsedMips sums this PE's allocation map.
func (p *PE) UsedMips() float64 {
	vals := make([]float64, 0, len(p.Allocated))
	for _, v := range p.Allocated {
		vals = append(vals, v)
	}
	return floats.Sum(vals)
}

// AvailableMips returns 0 for a failed PE, else NominalMips - UsedMips().
func (p *PE) AvailableMips() float64 {
	if p.Failed {
		return 0
	}
	return p.NominalMips - p.UsedMips()
}

// PEList is the vector-resource provisioner: a host's list of PEs, iterated
// in a stable (slice) order per spec.md §9 "Deterministic iteration".
type PEList struct {
	pes []*PE
}

// NewPEList creates a PEList from the given nominal-MIPS-per-PE values.
func NewPEList(nominalMipsPerPE []float64) *PEList {
	pl := &PEList{pes: make([]*PE, 0, len(nominalMipsPerPE))}
	for _, m := range nominalMipsPerPE {
		pl.pes = append(pl.pes, NewPE(m))
	}
	return pl
}

// PEs returns the underlying PE slice in stable order. Callers must not
// mutate the returned PE pointers' identity (append/remove); field
// mutation on individual PEs is allowed and is how allocation proceeds.
func (pl *PEList) PEs() []*PE { return pl.pes }

// TotalMips sums nominal MIPS across every non-failed PE.
func (pl *PEList) TotalMips() float64 {
	var vals []float64
	for _, p := range pl.pes {
		if !p.Failed {
			vals = append(vals, p.NominalMips)
		}
	}
	return floats.Sum(vals)
}

// UsedMips sums allocated MIPS across all PEs.
func (pl *PEList) UsedMips() float64 {
	var vals []float64
	for _, p := range pl.pes {
		vals = append(vals, p.UsedMips())
	}
	return floats.Sum(vals)
}

// AvailableMips returns TotalMips() - UsedMips().
func (pl *PEList) AvailableMips() float64 {
	return pl.TotalMips() - pl.UsedMips()
}

// DeallocateVM removes vm's allocation from every PE. Called at the start
// of every allocate_pes() per spec.md §4.4.
func (pl *PEList) DeallocateVM(vm VMID) {
	for _, p := range pl.pes {
		delete(p.Allocated, vm)
	}
}

// Count returns the number of PEs (failed or not).
func (pl *PEList) Count() int { return len(pl.pes) }
