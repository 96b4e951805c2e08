package cloudletsched

import (
	"math"
	"testing"

	"github.com/poweraware/dcsim/cloudlet"
)

func TestSubmitThenUpdateProcessingAdmitsAndProgresses(t *testing.T) {
	s := NewScheduler()
	c := cloudlet.New(1, 10, 1000, 1, 0, 0)
	s.Submit(c)

	completed, next := s.UpdateProcessing(0, 500)
	if len(completed) != 0 {
		t.Fatalf("cloudlet should not complete on admission tick alone")
	}
	if c.State != cloudlet.StateExec {
		t.Fatalf("state = %v, want StateExec after admission", c.State)
	}
	if math.IsInf(next, 0) || next == 0 {
		t.Fatalf("expected a finite next-completion estimate")
	}
}

func TestUpdateProcessingCompletesCloudletAtFullLength(t *testing.T) {
	s := NewScheduler()
	c := cloudlet.New(1, 10, 1000, 1, 0, 0)
	s.Submit(c)
	s.UpdateProcessing(0, 1000) // admits

	completed, _ := s.UpdateProcessing(1, 1000) // 1 second @ 1000 MIPS = 1000 MI
	if len(completed) != 1 {
		t.Fatalf("expected 1 completed cloudlet, got %d", len(completed))
	}
	if completed[0].State != cloudlet.StateSuccess {
		t.Fatalf("completed cloudlet state = %v, want StateSuccess", completed[0].State)
	}
}

func TestCurrentRequestedTotalMipsWeightsByUtilizationAndPEs(t *testing.T) {
	s := NewScheduler()
	c := cloudlet.New(1, 10, 1000, 2, 0, 0)
	c.Utilization = cloudlet.Constant(0.5)
	s.Submit(c)

	got := s.CurrentRequestedTotalMips(0, 100)
	want := 2 * 0.5 * 100.0
	if got != want {
		t.Fatalf("CurrentRequestedTotalMips = %v, want %v", got, want)
	}
}

func TestActiveCountIncludesWaitingAndActive(t *testing.T) {
	s := NewScheduler()
	s.Submit(cloudlet.New(1, 10, 1000, 1, 0, 0))
	if s.ActiveCount() != 1 {
		t.Fatalf("ActiveCount = %d, want 1", s.ActiveCount())
	}
	s.UpdateProcessing(0, 500)
	if s.ActiveCount() != 1 {
		t.Fatalf("ActiveCount after admission = %d, want 1", s.ActiveCount())
	}
}
