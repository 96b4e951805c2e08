// Package host implements the dynamic-workload host: it aggregates
// provisioners and a VM scheduler, tracks utilisation state history, and
// propagates the live-migration performance penalty (spec.md §4.5).
// Grounded on sim/cluster/instance.go's InstanceSimulator (id-wrapping a
// per-instance engine) and the teacher's append-a-sample-per-tick metrics
// idiom (Metrics.NumWaitQRequests/NumRunningBatchRequests in
// sim/simulator.go), generalized into HistorySample.
package host

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/poweraware/dcsim/cloudlet"
	"github.com/poweraware/dcsim/cloudletsched"
	"github.com/poweraware/dcsim/provisioner"
	"github.com/poweraware/dcsim/vm"
	"github.com/poweraware/dcsim/vmsched"
)

// ID uniquely identifies a host.
type ID int

// DegradationFactor models the documented 10% live-migration CPU
// performance penalty (spec.md §4.5 step 4): a VM migrating off its
// current host (in-migration, not part of the destination's migrating-in
// set) has its allocated MIPS divided by this factor.
const DegradationFactor = 0.9

// MissingMipsLogThreshold is the minimum (requested - allocated) MIPS gap
// worth a warning log (spec.md §4.5 step 3: "Log missing MIPS if >= 0.1").
const MissingMipsLogThreshold = 0.1

// HistorySample is one entry in a host's utilisation time series.
type HistorySample struct {
	Time     float64
	UtilMips float64
	ReqMips  float64
	Active   bool
}

// Host aggregates RAM/BW provisioners, a PE list, a VM scheduler, and the
// VMs currently placed on it. A Host exclusively owns its PEs and VM list;
// each VM is exclusively owned by exactly one host at a time (spec.md
// §3's ownership summary), except transiently during migration.
type Host struct {
	ID           ID
	PEs          *provisioner.PEList
	RAM          *provisioner.Scalar
	BW           *provisioner.Scalar
	Scheduler    vmsched.VmScheduler
	Power        PowerModel
	Oversubscribe bool

	vms       map[vm.ID]*vm.VM
	vmOrder   []vm.ID // insertion order, for deterministic iteration
	cloudlets map[vm.ID]*cloudletsched.Scheduler
	migrating map[vm.ID]bool // VMs currently migrating IN to this host

	History []HistorySample
}

// New constructs an empty host with the given PE/RAM/BW capacities.
func New(id ID, nominalMipsPerPE []float64, ram, bw float64, scheduler vmsched.VmScheduler, power PowerModel, oversubscribe bool) *Host {
	return &Host{
		ID:            id,
		PEs:           provisioner.NewPEList(nominalMipsPerPE),
		RAM:           provisioner.NewScalar(ram),
		BW:            provisioner.NewScalar(bw),
		Scheduler:     scheduler,
		Power:         power,
		Oversubscribe: oversubscribe,
		vms:           make(map[vm.ID]*vm.VM),
		cloudlets:     make(map[vm.ID]*cloudletsched.Scheduler),
		migrating:     make(map[vm.ID]bool),
	}
}

// VMs returns the host's current VM list in stable insertion order
// (spec.md §9 "Deterministic iteration").
func (h *Host) VMs() []*vm.VM {
	out := make([]*vm.VM, 0, len(h.vmOrder))
	for _, id := range h.vmOrder {
		out = append(out, h.vms[id])
	}
	return out
}

// VM looks up a VM currently on this host.
func (h *Host) VM(id vm.ID) (*vm.VM, bool) {
	v, ok := h.vms[id]
	return v, ok
}

// VmCreate places v on this host if the RAM and BW provisioners accept it.
// Returns false, making no change, on RAM or BW exhaustion (spec.md §4.10:
// "Over-capacity allocation attempt -> VmCreate returns false"). PE MIPS
// are not reserved or checked here: UpdateVmsProcessing assigns them, and
// Suitability checks MIPS capacity.
func (h *Host) VmCreate(v *vm.VM) bool {
	if !h.RAM.Allocate(provisioner.VMID(v.ID), v.RAM) {
		return false
	}
	if !h.BW.Allocate(provisioner.VMID(v.ID), v.BW) {
		h.RAM.Deallocate(provisioner.VMID(v.ID))
		return false
	}
	h.vms[v.ID] = v
	h.vmOrder = append(h.vmOrder, v.ID)
	h.cloudlets[v.ID] = cloudletsched.NewScheduler()
	v.HostID = int(h.ID)
	return true
}

// VmDestroy removes v from this host, releasing its RAM/BW/PE reservations.
func (h *Host) VmDestroy(v *vm.VM) {
	id := v.ID
	if _, ok := h.vms[id]; !ok {
		return
	}
	delete(h.vms, id)
	for i, o := range h.vmOrder {
		if o == id {
			h.vmOrder = append(h.vmOrder[:i], h.vmOrder[i+1:]...)
			break
		}
	}
	delete(h.cloudlets, id)
	delete(h.migrating, id)
	h.RAM.Deallocate(provisioner.VMID(id))
	h.BW.Deallocate(provisioner.VMID(id))
	h.PEs.DeallocateVM(provisioner.VMID(id))
	if v.HostID == int(h.ID) {
		v.HostID = vm.NoHost
	}
}

// AddMigratingInVM marks v as migrating into this host. Its RAM/BW are
// already reserved via VmCreate at the destination (spec.md §3: "RAM and
// BW reservations on destination are held through the full migration
// window"); this only marks the flag consulted by the migration
// performance-degradation check (spec.md §4.5 step 4).
func (h *Host) AddMigratingInVM(id vm.ID) {
	h.migrating[id] = true
}

// CompleteMigrationIn clears the migrating-in flag once the VM_MIGRATE
// event fires and the VM is fully resident.
func (h *Host) CompleteMigrationIn(id vm.ID) {
	delete(h.migrating, id)
}

// AnyMigratingIn reports whether at least one VM is currently migrating
// into this host (spec.md §4.8's evacuation guard consults this).
func (h *Host) AnyMigratingIn() bool {
	return len(h.migrating) > 0
}

// CloudletScheduler returns the per-VM cloudlet scheduler, or nil if the
// VM isn't on this host.
func (h *Host) CloudletScheduler(id vm.ID) *cloudletsched.Scheduler {
	return h.cloudlets[id]
}

// SubmitCloudlet hands c to vmID's cloudlet scheduler.
func (h *Host) SubmitCloudlet(vmID vm.ID, c *cloudlet.Cloudlet) bool {
	sched, ok := h.cloudlets[vmID]
	if !ok {
		return false
	}
	c.AssignedVM = vmID
	sched.Submit(c)
	return true
}

// UpdateVmsProcessing runs one host tick (spec.md §4.5): deallocate every
// VM's PEs, reallocate from each VM's current requested MIPS, apply the
// live-migration degradation penalty, append a utilisation history
// sample, and return the minimum next-completion time across all VMs (or
// +Inf if none).
func (h *Host) UpdateVmsProcessing(now float64) (completed map[vm.ID][]*cloudlet.Cloudlet, minNextCompletion float64) {
	requests := make([]vmsched.Request, 0, len(h.vmOrder))
	requested := make(map[vm.ID]float64, len(h.vmOrder))
	for _, id := range h.vmOrder {
		v := h.vms[id]
		sched := h.cloudlets[id]
		reqTotal := sched.CurrentRequestedTotalMips(now, v.RequestedMipsPerPE)
		requested[id] = reqTotal
		perPE := reqTotal
		if v.NumPEs > 0 {
			perPE = reqTotal / float64(v.NumPEs)
		}
		requests = append(requests, vmsched.Request{
			VM:        provisioner.VMID(id),
			MipsPerPE: perPE,
			NumPEs:    v.NumPEs,
		})
	}

	allocated := h.Scheduler.Allocate(h.PEs, requests)

	var totalUtilMips, totalReqMips float64
	minNextCompletion = math.Inf(1)
	completed = make(map[vm.ID][]*cloudlet.Cloudlet)

	for _, id := range h.vmOrder {
		v := h.vms[id]
		vec := allocated[provisioner.VMID(id)]
		totalAllocated := sum(vec)
		totalRequested := requested[id]

		if totalRequested-totalAllocated >= MissingMipsLogThreshold {
			logrus.Warnf("host %d: vm %d short %.3f MIPS (requested %.3f, allocated %.3f)",
				h.ID, id, totalRequested-totalAllocated, totalRequested, totalAllocated)
		}

		if v.InMigration && !h.migrating[id] {
			for i := range vec {
				vec[i] /= DegradationFactor
			}
			totalAllocated /= DegradationFactor
		}

		v.CurrentAllocatedMipsPerPE = vec
		v.RecordAllocation(totalAllocated)

		sched := h.cloudlets[id]
		done, nextForVM := sched.UpdateProcessing(now, totalAllocated)
		if len(done) > 0 {
			completed[id] = done
		}
		if nextForVM < minNextCompletion {
			minNextCompletion = nextForVM
		}

		totalUtilMips += totalAllocated
		totalReqMips += totalRequested
	}

	h.appendHistory(HistorySample{
		Time:     now,
		UtilMips: totalUtilMips,
		ReqMips:  totalReqMips,
		Active:   totalUtilMips > provisioner.Epsilon,
	})

	return completed, minNextCompletion
}

// appendHistory coalesces entries sharing the same timestamp (spec.md
// §4.5 step 5).
func (h *Host) appendHistory(s HistorySample) {
	if n := len(h.History); n > 0 && h.History[n-1].Time == s.Time {
		h.History[n-1] = s
		return
	}
	h.History = append(h.History, s)
}

// GetCompletedVMs returns VMs whose current requested MIPS is zero and
// which are not migrating (spec.md §4.5).
func (h *Host) GetCompletedVMs(now float64) []*vm.VM {
	var out []*vm.VM
	for _, id := range h.vmOrder {
		v := h.vms[id]
		sched := h.cloudlets[id]
		if sched.ActiveCount() == 0 && sched.CurrentRequestedTotalMips(now, v.RequestedMipsPerPE) == 0 && !v.InMigration {
			out = append(out, v)
		}
	}
	return out
}

// UtilizationFraction returns Σ allocated MIPS / Σ PE MIPS, clamped per
// spec.md §9 UtilClamp.
func (h *Host) UtilizationFraction() float64 {
	total := h.PEs.TotalMips()
	if total <= 0 {
		return 0
	}
	return provisioner.UtilClamp(h.PEs.UsedMips() / total)
}

// IsSwitchedOff reports whether the host's CPU utilisation is exactly 0
// (spec.md §3).
func (h *Host) IsSwitchedOff() bool {
	return h.PEs.UsedMips() <= provisioner.Epsilon
}

// GetEnergyConsumption integrates power(utilisation(t)) over [t0, t1]
// using trapezoidal interpolation between the utilisation recorded at (or
// nearest to) t0 and t1 (spec.md §4.5: "linear interpolation between the
// two sample endpoints using piecewise-linear power model").
func (h *Host) GetEnergyConsumption(t0, t1 float64) float64 {
	if t1 <= t0 {
		return 0
	}
	u0 := h.utilizationAt(t0)
	u1 := h.utilizationAt(t1)
	p0 := h.Power.Watts(u0)
	p1 := h.Power.Watts(u1)
	return 0.5 * (p0 + p1) * (t1 - t0)
}

// utilizationAt returns the utilisation fraction from the history sample
// at or nearest before t, falling back to the earliest sample if t
// precedes all history.
func (h *Host) utilizationAt(t float64) float64 {
	total := h.PEs.TotalMips()
	if total <= 0 || len(h.History) == 0 {
		return 0
	}
	best := h.History[0]
	for _, s := range h.History {
		if s.Time > t {
			break
		}
		best = s
	}
	return provisioner.UtilClamp(best.UtilMips / total)
}

func sum(xs []float64) float64 {
	var t float64
	for _, x := range xs {
		t += x
	}
	return t
}
