// Package vm defines the VM value type and its invariants (spec.md §3).
package vm

// ID uniquely identifies a VM. Distinct type, not a bare int, matching the
// teacher's InstanceID pattern (sim/cluster/types.go).
type ID int

// NoHost is the sentinel HostID value meaning "not currently placed".
const NoHost = -1

// VM models a virtual machine pinned to at most one host at a time, except
// during migration when it is transiently associated with both its source
// and destination host.
type VM struct {
	ID ID

	OwnerID int

	RequestedMipsPerPE float64
	NumPEs             int
	RAM                float64 // MB
	BW                 float64 // Mbit/s
	ImageSize          float64 // MB

	// HostID is the id of the host currently holding this VM, or NoHost.
	// A plain int (not a host.ID) to avoid a vm -> host package import
	// cycle; host owns the authoritative vm-list, this is a convenience
	// back-reference (spec.md §9 "Cyclic references": stable ids, not
	// owning references).
	HostID int

	// InMigration is true on both source and destination hosts for the
	// duration of a live migration (spec.md §3).
	InMigration bool

	// CurrentAllocatedMipsPerPE is the last allocation the VM scheduler
	// computed for this VM, one entry per PE it currently occupies.
	CurrentAllocatedMipsPerPE []float64

	// AllocatedMipsHistory records total allocated MIPS at each host tick.
	AllocatedMipsHistory []float64
}

// New constructs a VM in the unplaced state.
func New(id ID, ownerID int, mipsPerPE float64, numPEs int, ram, bw, imageSize float64) *VM {
	return &VM{
		ID:                 id,
		OwnerID:            ownerID,
		RequestedMipsPerPE: mipsPerPE,
		NumPEs:             numPEs,
		RAM:                ram,
		BW:                 bw,
		ImageSize:          imageSize,
		HostID:             NoHost,
	}
}

// TotalRequestedMips is the VM's nominal total demand across all its PEs
// (requested MIPS per PE times PE count), used by suitability checks that
// don't account for actual current cloudlet load.
func (v *VM) TotalRequestedMips() float64 {
	return v.RequestedMipsPerPE * float64(v.NumPEs)
}

// TotalAllocatedMips sums the VM's current per-PE allocation.
func (v *VM) TotalAllocatedMips() float64 {
	var total float64
	for _, m := range v.CurrentAllocatedMipsPerPE {
		total += m
	}
	return total
}

// RecordAllocation appends the VM's total allocated MIPS to its history,
// coalescing consecutive equal values is left to the caller (host owns the
// timing decision of when a sample is worth keeping).
func (v *VM) RecordAllocation(totalMips float64) {
	v.AllocatedMipsHistory = append(v.AllocatedMipsHistory, totalMips)
}

// IsPlaced reports whether the VM currently has a host.
func (v *VM) IsPlaced() bool { return v.HostID != NoHost }
