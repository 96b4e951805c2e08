package provisioner

import "gonum.org/v1/gonum/floats"

// VMID identifies the VM a reservation belongs to. A plain int (not the
// vm.ID distinct type) to keep this package free of a dependency on the vm
// package; callers convert at the boundary.
type VMID int

// Scalar provisions a single scalar resource (RAM or bandwidth) with
// reservation semantics: allocate reserves, deallocate releases, and used/
// available are always recomputed from the reservation map rather than
// from a running total, bounding floating-point drift (spec.md §4.3).
type Scalar struct {
	capacity    float64
	reservation map[VMID]float64
}

// NewScalar creates a Scalar provisioner with the given capacity.
func NewScalar(capacity float64) *Scalar {
	return &Scalar{capacity: capacity, reservation: make(map[VMID]float64)}
}

// IsSuitable reports whether amount can be allocated to vm without
// mutating state. Allows amount to be satisfied through a VM's existing
// reservation (idempotent re-allocation checks its own delta only).
func (s *Scalar) IsSuitable(vm VMID, amount float64) bool {
	existing := s.reservation[vm]
	return s.Available()+existing >= amount-Epsilon
}

// Allocate reserves amount for vm. Any existing reservation for vm is first
// released (spec.md §4.3 "idempotent re-allocations must first
// deallocate"). Returns false, making no change, if insufficient capacity
// remains.
func (s *Scalar) Allocate(vm VMID, amount float64) bool {
	existing := s.reservation[vm]
	if s.usedExcluding(vm)+amount > s.capacity+Epsilon {
		return false
	}
	_ = existing
	s.reservation[vm] = amount
	return true
}

// Deallocate releases vm's reservation entirely.
func (s *Scalar) Deallocate(vm VMID) {
	delete(s.reservation, vm)
}

// Used returns total reserved capacity, recomputed from the map each call.
func (s *Scalar) Used() float64 {
	return s.usedExcluding(-1)
}

// Available returns capacity - Used().
func (s *Scalar) Available() float64 {
	return s.capacity - s.Used()
}

// Capacity returns the provisioner's total capacity.
func (s *Scalar) Capacity() float64 { return s.capacity }

// usedExcluding sums every reservation except the given vm (pass an id
// no reservation will ever have, e.g. -1, to sum everything).
func (s *Scalar) usedExcluding(exclude VMID) float64 {
	vals := make([]float64, 0, len(s.reservation))
	for vm, amt := range s.reservation {
		if vm == exclude {
			continue
		}
		vals = append(vals, amt)
	}
	return floats.Sum(vals)
}
