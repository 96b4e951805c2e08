package rng

import "testing"

func TestForIsDeterministicForSameSeedAndName(t *testing.T) {
	a := New(42).For("vmselect")
	b := New(42).For("vmselect")
	if a.Int63() != b.Int63() {
		t.Fatal("same seed+subsystem name should reproduce the same draw")
	}
}

func TestForIsolatesSubsystems(t *testing.T) {
	p := New(42)
	a := p.For("vmselect").Int63()
	b := p.For("workload").Int63()
	if a == b {
		t.Fatal("distinct subsystem names should (almost certainly) derive distinct streams")
	}
}

func TestForCachesPerSubsystem(t *testing.T) {
	p := New(1)
	r1 := p.For("x")
	r2 := p.For("x")
	if r1 != r2 {
		t.Fatal("For should return the same *rand.Rand instance on repeat calls")
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := New(1).For("vmselect").Int63()
	b := New(2).For("vmselect").Int63()
	if a == b {
		t.Fatal("different master seeds should (almost certainly) diverge")
	}
}
