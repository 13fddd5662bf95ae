package sim

import (
	"hash/fnv"
	"math/rand"
)

// RandomSource supplies the random variates the kernel consumes:
// i.i.d. floats in [0,1) and fair booleans.
type RandomSource interface {
	Float64() float64
	Bool() bool
}

// randSource adapts *rand.Rand to RandomSource.
type randSource struct {
	r *rand.Rand
}

func (s randSource) Float64() float64 { return s.r.Float64() }
func (s randSource) Bool() bool       { return s.r.Int63()&1 == 0 }

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible replication.
// Two replications with the same SimulationKey and identical configuration
// MUST produce bit-for-bit identical results.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemAssembly draws workstation assembly durations.
	// Uses the master seed directly.
	SubsystemAssembly = "assembly"

	// SubsystemInspection draws inspector inspection durations.
	SubsystemInspection = "inspection"

	// SubsystemDecision drives Inspector2's random choice between C2 and C3.
	SubsystemDecision = "decision"
)

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated random sources per subsystem.
//
// Derivation formula:
//   - For SubsystemAssembly: uses masterSeed directly
//   - For all other subsystems: masterSeed XOR fnv1a64(subsystemName)
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded source for the named subsystem.
// The same subsystem name always returns a source backed by the same generator.
func (p *PartitionedRNG) ForSubsystem(name string) RandomSource {
	if rng, ok := p.subsystems[name]; ok {
		return randSource{r: rng}
	}

	var derivedSeed int64
	if name == SubsystemAssembly {
		derivedSeed = int64(p.key)
	} else {
		derivedSeed = int64(p.key) ^ fnv1a64(name)
	}

	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return randSource{r: rng}
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
