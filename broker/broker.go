// Package broker implements the entity that submits VMs and cloudlets into
// the datacenter from a workload source. Grounded on
// sim/workload/generator.go's pre-generate-then-schedule shape (build the
// full arrival sequence deterministically, then hand each arrival to the
// kernel at its scheduled time) adapted from "generate Requests, schedule
// RequestArrivalEvents" to "generate VMs/cloudlets, schedule VM_CREATE /
// CLOUDLET_SUBMIT events".
package broker

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/poweraware/dcsim/cloudlet"
	"github.com/poweraware/dcsim/datacenter"
	"github.com/poweraware/dcsim/event"
	"github.com/poweraware/dcsim/kernel"
	"github.com/poweraware/dcsim/vm"
)

// minGap is the floor applied to every Send delay this broker issues, so
// two arrivals at the same recorded time still satisfy the kernel's
// min_event_gap.
const minGap = 1e-6

// Arrival is one cloudlet's scheduled submission: at Time, Cloudlet should
// be handed to the VM identified by VMID.
type Arrival struct {
	Time     float64
	Cloudlet *cloudlet.Cloudlet
	VMID     vm.ID
}

// Broker owns a fixed VM fleet (created at simulation start) and a stream
// of cloudlet arrivals (submitted over time), all addressed at one
// datacenter entity.
type Broker struct {
	kernel.BaseEntity

	DC         *datacenter.Datacenter
	DatacenterID kernel.EntityID
	VMs        []*vm.VM
	Arrivals   []Arrival

	returned int
}

// New constructs a Broker. vms and arrivals are registered with dc
// immediately so the datacenter can resolve VM_CREATE/CLOUDLET_SUBMIT
// events addressed by id once the simulation starts.
func New(name string, dc *datacenter.Datacenter, dcID kernel.EntityID, vms []*vm.VM, arrivals []Arrival) *Broker {
	sorted := make([]Arrival, len(arrivals))
	copy(sorted, arrivals)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	for _, v := range vms {
		dc.RegisterVM(v)
	}
	for _, a := range sorted {
		dc.RegisterCloudlet(a.Cloudlet)
	}

	return &Broker{
		BaseEntity:   kernel.NewBaseEntity(name),
		DC:           dc,
		DatacenterID: dcID,
		VMs:          vms,
		Arrivals:     sorted,
	}
}

// OnStart schedules every VM_CREATE at simulation start and every
// CLOUDLET_SUBMIT at its arrival time.
func (b *Broker) OnStart(sim *kernel.Simulation) {
	now := sim.Clock()
	for _, v := range b.VMs {
		if err := sim.Send(b.ID(), b.DatacenterID, minGap, string(event.TagVMCreate), event.VMCreatePayload{VMID: int(v.ID)}); err != nil {
			logrus.Warnf("broker %s: could not schedule VM_CREATE for vm %d: %v", b.Name(), v.ID, err)
		}
	}

	for _, a := range b.Arrivals {
		delay := a.Time - now
		if delay < minGap {
			delay = minGap
		}
		if err := sim.Send(b.ID(), b.DatacenterID, delay, string(event.TagCloudletSubmit), event.CloudletSubmitPayload{
			CloudletID: int(a.Cloudlet.ID),
			VMID:       int(a.VMID),
		}); err != nil {
			logrus.Warnf("broker %s: could not schedule CLOUDLET_SUBMIT for cloudlet %d: %v", b.Name(), a.Cloudlet.ID, err)
		}
	}
}

// OnEvent handles CLOUDLET_RETURN: the only event type ever addressed back
// to a broker.
func (b *Broker) OnEvent(sim *kernel.Simulation, e *kernel.Event) {
	if event.Tag(e.Tag) != event.TagCloudletReturn {
		logrus.Warnf("broker %s: unhandled event tag %q", b.Name(), e.Tag)
		return
	}
	b.returned++
	logrus.Debugf("broker %s: cloudlet %d returned at t=%.3f (%d total)",
		b.Name(), e.Payload.(event.CloudletReturnPayload).CloudletID, sim.Clock(), b.returned)
}

// OnShutdown logs the final completed-cloudlet count.
func (b *Broker) OnShutdown(sim *kernel.Simulation) {
	logrus.Infof("broker %s: %d/%d cloudlets returned by t=%.3f", b.Name(), b.returned, len(b.Arrivals), sim.Clock())
}

// ReturnedCount reports how many CLOUDLET_RETURN events this broker has
// received so far.
func (b *Broker) ReturnedCount() int { return b.returned }
