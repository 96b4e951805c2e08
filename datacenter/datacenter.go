// Package datacenter implements the kernel-facing entity that ticks every
// scheduling interval: run host processing, invoke the allocation policy,
// and carry out whatever migrations it decides on. Grounded on
// sim/cluster/simulator.go's ClusterSimulator (tick handling, per-instance
// iteration, min-next-event tracking) and sim/cluster/deployment.go's
// grouped-config construction pattern.
package datacenter

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/poweraware/dcsim/allocation"
	"github.com/poweraware/dcsim/cloudlet"
	"github.com/poweraware/dcsim/event"
	"github.com/poweraware/dcsim/host"
	"github.com/poweraware/dcsim/kernel"
	"github.com/poweraware/dcsim/trace"
	"github.com/poweraware/dcsim/vm"
)

// minTickGap is the floor applied to the datacenter's self-scheduled next
// tick delay, so a host that just finished a cloudlet at the current clock
// can never produce a zero or negative Send delay.
const minTickGap = 1e-6

// EnergyModel computes the energy (watt-seconds) a host consumed over
// [t0, t1]. Power-aware datacenters integrate the host's real power curve
// over its recorded utilisation history; non-power-aware datacenters
// (SPEC_FULL.md §8) charge every host its maximum draw for the whole
// interval regardless of load.
type EnergyModel func(h *host.Host, t0, t1 float64) float64

// PowerAwareEnergy integrates the host's actual power model over its
// recorded utilisation history (spec.md §4.5/§4.9).
func PowerAwareEnergy(h *host.Host, t0, t1 float64) float64 {
	return h.GetEnergyConsumption(t0, t1)
}

// NonPowerAwareEnergy charges every host its maximum power draw for the
// whole interval, regardless of recorded utilisation — the degenerate
// baseline datacenter variant SPEC_FULL.md §8 adds alongside the
// power-aware one, for A/B energy comparisons.
func NonPowerAwareEnergy(h *host.Host, t0, t1 float64) float64 {
	return h.Power.MaxWatts() * (t1 - t0)
}

// Datacenter is the entity that owns a fixed set of hosts, places/destroys
// VMs on request, advances cloudlet processing every scheduling interval,
// and runs the allocation policy's migration pass. One Datacenter type
// serves both the power-aware and non-power-aware variants named in
// SPEC_FULL.md §8 — they differ only in EnergyModel, so a function value
// replaces what would otherwise be two near-identical structs.
type Datacenter struct {
	kernel.BaseEntity

	Hosts              []*host.Host
	Policy             allocation.VmAllocationPolicy
	SchedulingInterval float64
	DisableMigrations  bool
	Energy             EnergyModel
	Trace              *trace.PlacementTrace

	hostByID  map[host.ID]*host.Host
	vms       map[vm.ID]*vm.VM
	vmHost    map[vm.ID]host.ID
	cloudlets map[cloudlet.ID]*cloudlet.Cloudlet
	brokerID  kernel.EntityID

	lastTick float64

	totalEnergy           float64
	hostsSwitchedOffTicks int
	totalHostTicks        int
	violationHostTicks    int
	migrationCount        int
}

// New constructs a Datacenter. Call SetBroker once the broker entity is
// registered, before Run — cloudlet-completion events need somewhere to
// go.
func New(name string, hosts []*host.Host, policy allocation.VmAllocationPolicy, schedulingInterval float64, disableMigrations bool, energy EnergyModel) *Datacenter {
	hostByID := make(map[host.ID]*host.Host, len(hosts))
	for _, h := range hosts {
		hostByID[h.ID] = h
	}
	if energy == nil {
		energy = PowerAwareEnergy
	}
	return &Datacenter{
		BaseEntity:         kernel.NewBaseEntity(name),
		Hosts:              hosts,
		Policy:             policy,
		SchedulingInterval: schedulingInterval,
		DisableMigrations:  disableMigrations,
		Energy:             energy,
		hostByID:           hostByID,
		vms:                make(map[vm.ID]*vm.VM),
		vmHost:             make(map[vm.ID]host.ID),
		cloudlets:          make(map[cloudlet.ID]*cloudlet.Cloudlet),
	}
}

// SetBroker records the entity that cloudlet-completion events should be
// returned to.
func (d *Datacenter) SetBroker(id kernel.EntityID) { d.brokerID = id }

// SetTrace attaches a placement/migration decision recorder. A nil trace
// (the default) leaves recording fully disabled.
func (d *Datacenter) SetTrace(t *trace.PlacementTrace) { d.Trace = t }

// RegisterVM makes v known to the datacenter so a subsequent VM_CREATE
// event naming its id can find the object. Mirrors ClusterSimulator's
// Instances map (sim/cluster/simulator.go): the datacenter, not the event
// payload, owns the object graph — events carry only ids.
func (d *Datacenter) RegisterVM(v *vm.VM) { d.vms[v.ID] = v }

// RegisterCloudlet makes c known to the datacenter so a subsequent
// CLOUDLET_SUBMIT event naming its id can find the object, mirroring
// RegisterVM.
func (d *Datacenter) RegisterCloudlet(c *cloudlet.Cloudlet) { d.cloudlets[c.ID] = c }

// TotalEnergy returns accumulated energy in watt-seconds.
func (d *Datacenter) TotalEnergy() float64 { return d.totalEnergy }

// MigrationCount returns the number of migrations actually carried out
// (decided by the policy and successfully placed at the destination).
func (d *Datacenter) MigrationCount() int { return d.migrationCount }

// HostsSwitchedOffTicks returns the cumulative count of (host, tick) pairs
// where the host was fully idle.
func (d *Datacenter) HostsSwitchedOffTicks() int { return d.hostsSwitchedOffTicks }

// SLAViolationPct returns the percentage of (host, tick) samples where the
// host's utilisation clamped to 1.0 (the Beloglazov SLA-violation proxy:
// a host pinned at 100% utilisation is, by definition, unable to grant a
// VM its requested MIPS).
func (d *Datacenter) SLAViolationPct() float64 {
	if d.totalHostTicks == 0 {
		return 0
	}
	return 100 * float64(d.violationHostTicks) / float64(d.totalHostTicks)
}

// OnStart schedules the first DATACENTER_EVENT tick.
func (d *Datacenter) OnStart(sim *kernel.Simulation) {
	if err := sim.Send(d.ID(), d.ID(), d.SchedulingInterval, string(event.TagDatacenterTick), event.DatacenterTickPayload{}); err != nil {
		logrus.Fatalf("datacenter %s: could not schedule first tick: %v", d.Name(), err)
	}
}

// OnEvent dispatches VM_CREATE, VM_DESTROY, CLOUDLET_SUBMIT, VM_MIGRATE and
// DATACENTER_EVENT per spec.md §4.9.
func (d *Datacenter) OnEvent(sim *kernel.Simulation, e *kernel.Event) {
	switch event.Tag(e.Tag) {
	case event.TagVMCreate:
		d.handleVMCreate(sim, e.Payload.(event.VMCreatePayload))
	case event.TagVMDestroy:
		d.handleVMDestroy(e.Payload.(event.VMDestroyPayload))
	case event.TagCloudletSubmit:
		d.handleCloudletSubmit(sim, e.Payload.(event.CloudletSubmitPayload))
	case event.TagVMMigrate:
		d.handleMigrationArrival(e.Payload.(event.VMMigratePayload))
	case event.TagDatacenterTick:
		d.tick(sim)
	default:
		logrus.Warnf("datacenter %s: unhandled event tag %q", d.Name(), e.Tag)
	}
}

// OnShutdown logs final aggregate metrics.
func (d *Datacenter) OnShutdown(_ *kernel.Simulation) {
	logrus.Infof("datacenter %s: energy=%.2fWs migrations=%d sla_violation_pct=%.3f hosts_switched_off_ticks=%d",
		d.Name(), d.totalEnergy, d.migrationCount, d.SLAViolationPct(), d.hostsSwitchedOffTicks)
}

func (d *Datacenter) handleVMCreate(sim *kernel.Simulation, p event.VMCreatePayload) {
	v, ok := d.vms[vm.ID(p.VMID)]
	if !ok {
		logrus.Warnf("datacenter %s: VM_CREATE for unregistered vm %d", d.Name(), p.VMID)
		return
	}
	for _, h := range d.Hosts {
		if h.VmCreate(v) {
			d.vmHost[v.ID] = h.ID
			d.Trace.RecordPlacement(trace.PlacementRecord{
				Time: sim.Clock(), VMID: int(v.ID), HostID: h.ID, Reason: "vm-create",
			})
			return
		}
	}
	logrus.Warnf("datacenter %s: no host suitable for vm %d at t=%.3f", d.Name(), v.ID, sim.Clock())
}

func (d *Datacenter) handleVMDestroy(p event.VMDestroyPayload) {
	id := vm.ID(p.VMID)
	v, ok := d.vms[id]
	if !ok {
		return
	}
	hostID, ok := d.vmHost[id]
	if !ok {
		return
	}
	d.hostByID[hostID].VmDestroy(v)
	delete(d.vmHost, id)
}

func (d *Datacenter) handleCloudletSubmit(sim *kernel.Simulation, p event.CloudletSubmitPayload) {
	sim.MarkCloudletSubmitted()

	vmID := vm.ID(p.VMID)
	c, ok := d.cloudlets[cloudlet.ID(p.CloudletID)]
	if !ok {
		logrus.Warnf("datacenter %s: CLOUDLET_SUBMIT for unregistered cloudlet %d", d.Name(), p.CloudletID)
		return
	}
	hostID, ok := d.vmHost[vmID]
	if !ok {
		logrus.Warnf("datacenter %s: CLOUDLET_SUBMIT for vm %d not placed on any host", d.Name(), vmID)
		return
	}
	if !d.hostByID[hostID].SubmitCloudlet(vmID, c) {
		logrus.Warnf("datacenter %s: host %d rejected cloudlet %d for vm %d", d.Name(), hostID, c.ID, vmID)
	}
}

func (d *Datacenter) handleMigrationArrival(p event.VMMigratePayload) {
	v, ok := d.vms[vm.ID(p.VMID)]
	if !ok {
		return
	}
	v.InMigration = false
	if h, ok := d.hostByID[host.ID(p.TargetHostID)]; ok {
		h.CompleteMigrationIn(v.ID)
	}
}

// tick implements spec.md §4.9: skip-and-reschedule if no cloudlet has
// ever been submitted, or one was submitted at this very clock value,
// otherwise update every host's cloudlet processing, accumulate energy,
// run the allocation policy's migration pass, and schedule the next tick
// at the earlier of the fixed scheduling interval or the soonest cloudlet
// completion across all hosts.
func (d *Datacenter) tick(sim *kernel.Simulation) {
	now := sim.Clock()

	if !sim.AnyCloudletEverSubmitted() || sim.CloudletSubmittedAtCurrentClock() {
		d.scheduleNextTick(sim, now, math.Inf(1))
		return
	}

	minNext := math.Inf(1)
	for _, h := range d.Hosts {
		completed, nextCompletion := h.UpdateVmsProcessing(now)
		for _, cloudlets := range completed {
			for _, c := range cloudlets {
				d.returnCloudlet(sim, c)
			}
		}

		d.totalEnergy += d.Energy(h, d.lastTick, now)

		d.totalHostTicks++
		if h.IsSwitchedOff() {
			d.hostsSwitchedOffTicks++
		}
		if h.UtilizationFraction() >= 1.0 {
			d.violationHostTicks++
		}

		if nextCompletion < minNext {
			minNext = nextCompletion
		}
	}
	d.lastTick = now

	if !d.DisableMigrations {
		migrations := d.Policy.OptimizeAllocation(d.Hosts, now)
		for vmID, destID := range migrations {
			d.beginMigration(sim, vmID, destID)
		}
	}

	d.scheduleNextTick(sim, now, minNext)
}

func (d *Datacenter) returnCloudlet(sim *kernel.Simulation, c *cloudlet.Cloudlet) {
	if err := sim.Send(d.ID(), d.brokerID, minTickGap, string(event.TagCloudletReturn), event.CloudletReturnPayload{CloudletID: int(c.ID)}); err != nil {
		logrus.Warnf("datacenter %s: could not return cloudlet %d: %v", d.Name(), c.ID, err)
	}
}

func (d *Datacenter) scheduleNextTick(sim *kernel.Simulation, now, minNext float64) {
	next := now + d.SchedulingInterval
	if minNext < next {
		next = minNext
	}
	delay := next - now
	if delay < minTickGap {
		delay = minTickGap
	}
	if err := sim.Send(d.ID(), d.ID(), delay, string(event.TagDatacenterTick), event.DatacenterTickPayload{}); err != nil {
		logrus.Fatalf("datacenter %s: could not schedule next tick: %v", d.Name(), err)
	}
}

// beginMigration moves v from its current host onto destID immediately,
// flags it as in migration and as migrating in to the destination, then
// schedules the VM_MIGRATE completion event after the ram/(bw/16) transfer
// delay. Because v sits only in the destination's migrating-in set during
// the window, the host.DegradationFactor reduction is not applied to it.
func (d *Datacenter) beginMigration(sim *kernel.Simulation, vmID vm.ID, destID host.ID) {
	v, ok := d.vms[vmID]
	if !ok {
		return
	}
	srcID, ok := d.vmHost[vmID]
	if !ok || srcID == destID {
		return
	}
	srcHost := d.hostByID[srcID]
	destHost := d.hostByID[destID]
	if srcHost == nil || destHost == nil {
		return
	}

	srcHost.VmDestroy(v)
	if !destHost.VmCreate(v) {
		srcHost.VmCreate(v)
		return
	}

	v.InMigration = true
	destHost.AddMigratingInVM(v.ID)
	d.Trace.RecordMigration(trace.MigrationRecord{
		Time: sim.Clock(), VMID: int(vmID), FromHost: srcID, ToHost: destID,
	})
	d.vmHost[vmID] = destID
	d.migrationCount++

	bw := destHost.BW.Capacity()
	delay := minTickGap
	if bw > 0 {
		delay = v.RAM / (bw / 16)
		if delay < minTickGap {
			delay = minTickGap
		}
	}
	if err := sim.Send(d.ID(), d.ID(), delay, string(event.TagVMMigrate), event.VMMigratePayload{VMID: int(vmID), TargetHostID: int(destID)}); err != nil {
		logrus.Warnf("datacenter %s: could not schedule migration completion for vm %d: %v", d.Name(), vmID, err)
	}
}
