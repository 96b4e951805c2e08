package allocation

import (
	"testing"

	"github.com/poweraware/dcsim/cloudlet"
	"github.com/poweraware/dcsim/host"
	"github.com/poweraware/dcsim/vm"
	"github.com/poweraware/dcsim/vmsched"
)

func newOverloadTestHost() *host.Host {
	return host.New(1, []float64{1000}, 4096, 1000, &vmsched.TimeShared{}, &host.LinearPowerModel{Idle: 50, Max: 150}, false)
}

func TestStaticThresholdFlagsAboveThreshold(t *testing.T) {
	h := newOverloadTestHost()
	v := vm.New(1, 1, 900, 1, 512, 10, 100)
	h.VmCreate(v)
	h.SubmitCloudlet(v.ID, cloudlet.New(1, 1, 1e9, 1, 0, 0)) // full load: 900 of 1000 MIPS
	h.UpdateVmsProcessing(0)

	d := StaticThreshold{Threshold: 0.5}
	if !d.IsOverloaded(h, NewHostHistory()) {
		t.Fatal("expected host above threshold to be overloaded")
	}
}

func TestStaticThresholdNotFlaggedBelowThreshold(t *testing.T) {
	h := newOverloadTestHost()
	d := StaticThreshold{Threshold: 0.8}
	if d.IsOverloaded(h, NewHostHistory()) {
		t.Fatal("idle host should not be overloaded")
	}
}

func TestMADFallsBackToStaticBelowMinHistorySamples(t *testing.T) {
	h := newOverloadTestHost()
	hist := NewHostHistory()
	hist.Utilization[h.ID] = []float64{0.1, 0.1}

	d := MAD{}
	if d.IsOverloaded(h, hist) {
		t.Fatal("idle host with insufficient history should fall back to static(0.8) and not be overloaded")
	}
}

func TestRegressionFallsBackToStaticBelowMinHistorySamples(t *testing.T) {
	h := newOverloadTestHost()
	hist := NewHostHistory()
	hist.Utilization[h.ID] = []float64{0.1}

	d := Regression{}
	if d.IsOverloaded(h, hist) {
		t.Fatal("idle host with insufficient history should fall back to static(0.8) and not be overloaded")
	}
}

func TestRegressionExtrapolatesRisingTrend(t *testing.T) {
	h := newOverloadTestHost()
	hist := NewHostHistory()
	series := make([]float64, MinHistorySamples)
	for i := range series {
		series[i] = 0.1 * float64(i+1) // steadily climbing toward and past 1.0
	}
	hist.Utilization[h.ID] = series

	d := Regression{}
	if !d.IsOverloaded(h, hist) {
		t.Fatal("steadily rising utilisation should extrapolate past 1.0")
	}
}

func TestNewOverloadDetectorPanicsOnUnknownName(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on unknown overload detector name")
		}
	}()
	NewOverloadDetector("bogus")
}

func TestNewOverloadDetectorDefaultsToStatic(t *testing.T) {
	d := NewOverloadDetector("")
	if _, ok := d.(StaticThreshold); !ok {
		t.Fatalf("NewOverloadDetector(\"\") = %T, want StaticThreshold", d)
	}
}
