package vmsched

import (
	"testing"

	"github.com/poweraware/dcsim/provisioner"
)

func TestTimeSharedScalesDownUnderOversubscription(t *testing.T) {
	pes := provisioner.NewPEList([]float64{1000})
	requests := []Request{
		{VM: 1, MipsPerPE: 600, NumPEs: 1},
		{VM: 2, MipsPerPE: 600, NumPEs: 1},
	}
	alloc := (&TimeShared{}).Allocate(pes, requests)

	total := alloc[1][0] + alloc[2][0]
	if total > 1000+1e-9 {
		t.Fatalf("oversubscribed total allocation = %v, want <= 1000", total)
	}
	// Equal requests should get an equal (proportional) share.
	if diff := alloc[1][0] - alloc[2][0]; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("equal requests should receive equal shares, got %v and %v", alloc[1][0], alloc[2][0])
	}
}

func TestTimeSharedDoesNotScaleUpUnderSubscription(t *testing.T) {
	pes := provisioner.NewPEList([]float64{1000})
	requests := []Request{{VM: 1, MipsPerPE: 400, NumPEs: 1}}
	alloc := (&TimeShared{}).Allocate(pes, requests)
	if got := alloc[1][0]; got != 400 {
		t.Fatalf("allocated = %v, want 400 (no scale-up below capacity)", got)
	}
}

func TestSpaceSharedDedicatesWholePEs(t *testing.T) {
	pes := provisioner.NewPEList([]float64{1000, 1000})
	requests := []Request{{VM: 1, MipsPerPE: 1000, NumPEs: 1}}
	alloc := (&SpaceShared{}).Allocate(pes, requests)
	if len(alloc[1]) != 1 || alloc[1][0] != 1000 {
		t.Fatalf("allocation = %v, want [1000]", alloc[1])
	}
}

func TestSpaceSharedSkipsVMWhenNoContiguousCapacity(t *testing.T) {
	pes := provisioner.NewPEList([]float64{1000})
	requests := []Request{
		{VM: 1, MipsPerPE: 1000, NumPEs: 1},
		{VM: 2, MipsPerPE: 1000, NumPEs: 1},
	}
	alloc := (&SpaceShared{}).Allocate(pes, requests)
	if _, ok := alloc[2]; ok {
		t.Fatal("second vm should receive no allocation: no free PE left")
	}
}

func TestNewVmSchedulerPanicsOnUnknownName(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on unknown scheduler name")
		}
	}()
	NewVmScheduler("bogus")
}
