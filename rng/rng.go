// Package rng provides deterministic, subsystem-isolated random number
// generation so the same simulation seed always reproduces bit-identical
// placement/migration decisions (spec.md §8 property 6 "Placement
// determinism"). Grounded on sim/rng.go's PartitionedRNG.
package rng

import (
	"hash/fnv"
	"math/rand"
)

// Partitioned derives one *rand.Rand per named subsystem from a single
// master seed, so that e.g. random VM-selection draws never perturb
// workload-generation draws even if both run in the same process.
type Partitioned struct {
	seed       int64
	subsystems map[string]*rand.Rand
}

// New creates a Partitioned RNG from a master seed.
func New(seed int64) *Partitioned {
	return &Partitioned{seed: seed, subsystems: make(map[string]*rand.Rand)}
}

// For returns the (cached) *rand.Rand for the named subsystem, deriving
// its seed as masterSeed XOR fnv1a64(name) on first use.
func (p *Partitioned) For(name string) *rand.Rand {
	if r, ok := p.subsystems[name]; ok {
		return r
	}
	h := fnv.New64a()
	h.Write([]byte(name))
	derived := p.seed ^ int64(h.Sum64())
	r := rand.New(rand.NewSource(derived))
	p.subsystems[name] = r
	return r
}

// Seed returns the master seed this Partitioned RNG was built from.
func (p *Partitioned) Seed() int64 { return p.seed }
