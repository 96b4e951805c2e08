package broker

import (
	"testing"

	"github.com/poweraware/dcsim/allocation"
	"github.com/poweraware/dcsim/cloudlet"
	"github.com/poweraware/dcsim/datacenter"
	"github.com/poweraware/dcsim/host"
	"github.com/poweraware/dcsim/kernel"
	"github.com/poweraware/dcsim/vm"
	"github.com/poweraware/dcsim/vmsched"
)

func newTestHost() *host.Host {
	return host.New(1, []float64{1000}, 4096, 1000, &vmsched.TimeShared{}, &host.LinearPowerModel{Idle: 50, Max: 150}, false)
}

func TestNewSortsArrivalsByTime(t *testing.T) {
	dc := datacenter.New("dc", []*host.Host{newTestHost()}, allocation.NewSimple(false), 10, true, nil)
	sim := kernel.New()
	dcID := sim.Register(dc)
	v := vm.New(1, 1, 500, 1, 512, 10, 100)

	late := cloudlet.New(1, 1, 100, 1, 0, 0)
	early := cloudlet.New(2, 1, 100, 1, 0, 0)
	arrivals := []Arrival{
		{Time: 10, Cloudlet: late, VMID: v.ID},
		{Time: 2, Cloudlet: early, VMID: v.ID},
	}

	b := New("broker", dc, dcID, []*vm.VM{v}, arrivals)
	if b.Arrivals[0].Cloudlet.ID != early.ID {
		t.Fatalf("first arrival = cloudlet %d, want %d (earliest)", b.Arrivals[0].Cloudlet.ID, early.ID)
	}
	if b.Arrivals[1].Cloudlet.ID != late.ID {
		t.Fatalf("second arrival = cloudlet %d, want %d", b.Arrivals[1].Cloudlet.ID, late.ID)
	}
}

func TestEndToEndVMPlacementAndCloudletReturn(t *testing.T) {
	hosts := []*host.Host{newTestHost()}
	dc := datacenter.New("dc", hosts, allocation.NewSimple(false), 5, true, nil)
	sim := kernel.New()
	dcID := sim.Register(dc)

	v := vm.New(1, 1, 1000, 1, 512, 10, 100)
	c := cloudlet.New(1, 1, 1000, 1, 0, 0) // 1000 MI @ up to 1000 MIPS => ~1s runtime
	arrivals := []Arrival{{Time: 0, Cloudlet: c, VMID: v.ID}}

	b := New("broker", dc, dcID, []*vm.VM{v}, arrivals)
	brokerID := sim.Register(b)
	dc.SetBroker(brokerID)

	sim.TerminateAt(100)
	sim.Run()

	if b.ReturnedCount() != 1 {
		t.Fatalf("ReturnedCount = %d, want 1", b.ReturnedCount())
	}
}

func TestReturnedCountStartsAtZero(t *testing.T) {
	dc := datacenter.New("dc", []*host.Host{newTestHost()}, allocation.NewSimple(false), 10, true, nil)
	sim := kernel.New()
	dcID := sim.Register(dc)
	b := New("broker", dc, dcID, nil, nil)
	if b.ReturnedCount() != 0 {
		t.Fatalf("ReturnedCount = %d, want 0", b.ReturnedCount())
	}
}
