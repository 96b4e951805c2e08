// Package vmsched implements the host-side VM scheduler: mapping VM MIPS
// requests onto a host's PE list under a time-shared or space-shared
// policy (spec.md §4.4). Grounded on sim/simulator.go's makeRunningBatch
// (budget-constrained proportional allocation loop) generalized from a
// token budget to a PE-MIPS budget, and on sim/scheduler.go's
// factory-by-name registration idiom.
package vmsched

import (
	"fmt"

	"github.com/poweraware/dcsim/provisioner"
)

// Request describes one VM's PE allocation demand for a single
// AllocatePEs call.
type Request struct {
	VM        provisioner.VMID
	MipsPerPE float64
	NumPEs    int
}

// VmScheduler maps a set of VM requests onto a host's PE list. Allocate
// first deallocates every requested VM's existing reservation (spec.md
// §4.4: "deallocates the VM first, then applies the policy"), then applies
// the policy deterministically given the iteration order of requests.
// Returns, per VM, the allocated-MIPS-per-PE vector it ended up with.
type VmScheduler interface {
	Allocate(pes *provisioner.PEList, requests []Request) map[provisioner.VMID][]float64
}

// NewVmScheduler creates a VmScheduler by name. Valid names: "time-shared"
// (default), "space-shared". Panics on unrecognized names, matching the
// teacher's NewScheduler/NewAdmissionPolicy panic-on-unknown convention.
func NewVmScheduler(name string) VmScheduler {
	switch name {
	case "", "time-shared":
		return &TimeShared{}
	case "space-shared":
		return &SpaceShared{}
	default:
		panic(fmt.Sprintf("unknown vm scheduler %q", name))
	}
}

func deallocateAll(pes *provisioner.PEList, requests []Request) {
	for _, r := range requests {
		pes.DeallocateVM(r.VM)
	}
}
