package datacenter

import (
	"testing"

	"github.com/poweraware/dcsim/allocation"
	"github.com/poweraware/dcsim/cloudlet"
	"github.com/poweraware/dcsim/event"
	"github.com/poweraware/dcsim/host"
	"github.com/poweraware/dcsim/kernel"
	"github.com/poweraware/dcsim/vm"
	"github.com/poweraware/dcsim/vmsched"
)

func newTestDatacenter(t *testing.T, hosts []*host.Host) (*kernel.Simulation, *Datacenter, kernel.EntityID) {
	t.Helper()
	sim := kernel.New()
	dc := New("dc", hosts, allocation.NewSimple(false), 10, true, PowerAwareEnergy)
	id := sim.Register(dc)
	return sim, dc, id
}

func newOneHost() *host.Host {
	return host.New(1, []float64{1000}, 4096, 1000, &vmsched.TimeShared{}, &host.LinearPowerModel{Idle: 50, Max: 150}, false)
}

func TestTickSkipsWorkUntilFirstCloudletSubmitted(t *testing.T) {
	sim, dc, id := newTestDatacenter(t, []*host.Host{newOneHost()})
	sim.TerminateAt(1)
	if err := sim.Send(id, id, 0.5, string(event.TagDatacenterTick), event.DatacenterTickPayload{}); err != nil {
		t.Fatalf("send: %v", err)
	}
	sim.Run()
	if dc.TotalEnergy() != 0 {
		t.Fatalf("expected no energy accumulated before any cloudlet submitted, got %v", dc.TotalEnergy())
	}
}

func TestHandleVMCreatePlacesOnFirstSuitableHost(t *testing.T) {
	hosts := []*host.Host{newOneHost()}
	sim, dc, id := newTestDatacenter(t, hosts)
	v := vm.New(1, 1, 500, 1, 512, 10, 100)
	dc.RegisterVM(v)

	if err := sim.Send(id, id, 1, string(event.TagVMCreate), event.VMCreatePayload{VMID: int(v.ID)}); err != nil {
		t.Fatalf("send: %v", err)
	}
	sim.TerminateAt(2)
	sim.Run()

	if _, ok := hosts[0].VM(v.ID); !ok {
		t.Fatal("expected vm placed on the host")
	}
}

func TestHandleCloudletSubmitRoutesToPlacedVM(t *testing.T) {
	hosts := []*host.Host{newOneHost()}
	sim, dc, id := newTestDatacenter(t, hosts)
	v := vm.New(1, 1, 500, 1, 512, 10, 100)
	dc.RegisterVM(v)
	hosts[0].VmCreate(v)
	dc_setVMHost(dc, v.ID, hosts[0].ID)

	c := cloudlet.New(1, 1, 1000, 1, 0, 0)
	dc.RegisterCloudlet(c)

	if err := sim.Send(id, id, 1, string(event.TagCloudletSubmit), event.CloudletSubmitPayload{CloudletID: int(c.ID), VMID: int(v.ID)}); err != nil {
		t.Fatalf("send: %v", err)
	}
	sim.TerminateAt(2)
	sim.Run()

	if hosts[0].CloudletScheduler(v.ID).ActiveCount() != 1 {
		t.Fatal("expected cloudlet admitted into the vm's scheduler")
	}
}

func TestSLAViolationPctZeroWithNoSamples(t *testing.T) {
	_, dc, _ := newTestDatacenter(t, []*host.Host{newOneHost()})
	if dc.SLAViolationPct() != 0 {
		t.Fatalf("SLAViolationPct = %v, want 0 with no host-ticks recorded", dc.SLAViolationPct())
	}
}

func TestNonPowerAwareEnergyChargesMaxRegardlessOfLoad(t *testing.T) {
	h := newOneHost()
	got := NonPowerAwareEnergy(h, 0, 10)
	want := h.Power.MaxWatts() * 10
	if got != want {
		t.Fatalf("NonPowerAwareEnergy = %v, want %v", got, want)
	}
}

// dc_setVMHost pokes the datacenter's private vmHost bookkeeping directly
// from the same package's test binary, mirroring what handleVMCreate would
// have done had the VM_CREATE event round-tripped through the kernel.
func dc_setVMHost(dc *Datacenter, id vm.ID, hostID host.ID) {
	dc.vmHost[id] = hostID
}
