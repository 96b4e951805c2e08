package allocation

import (
	"github.com/poweraware/dcsim/host"
	"github.com/poweraware/dcsim/vm"
)

// VmAllocationPolicy is the placement search used by the policies
// (FindHostForVM) and the periodic decision of what (if anything) to
// migrate (spec.md §4.7/§4.8). The datacenter's VM_CREATE handling does
// not consult it: a new VM goes to the first host whose VmCreate accepts
// it (RAM and BW).
type VmAllocationPolicy interface {
	FindHostForVM(v *vm.VM, hosts []*host.Host, excluded map[host.ID]bool) (*host.Host, bool)
	OptimizeAllocation(hosts []*host.Host, now float64) map[vm.ID]host.ID
}

// Simple implements the non-power-aware first-fit policy (spec.md §4.7):
// scan hosts in a fixed order, place on the first one that is suitable.
// Never migrates.
type Simple struct {
	Suitability *host.Suitability
}

// NewSimple constructs a Simple policy with the given oversubscription mode.
func NewSimple(oversubscribe bool) *Simple {
	return &Simple{Suitability: &host.Suitability{Oversubscribe: oversubscribe}}
}

// FindHostForVM scans hosts in order and returns the first suitable,
// non-excluded one.
func (s *Simple) FindHostForVM(v *vm.VM, hosts []*host.Host, excluded map[host.ID]bool) (*host.Host, bool) {
	for _, h := range hosts {
		if excluded != nil && excluded[h.ID] {
			continue
		}
		if s.Suitability.IsSuitable(h, v) {
			return h, true
		}
	}
	return nil, false
}

// OptimizeAllocation never migrates under the simple policy.
func (s *Simple) OptimizeAllocation(hosts []*host.Host, now float64) map[vm.ID]host.ID {
	return nil
}
