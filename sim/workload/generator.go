// Package workload draws the per-replication duration supplies the
// facility kernel consumes.
package workload

import (
	"fmt"

	"github.com/facility-sim/facility-sim/sim"
)

// DefaultComponentsPerQueue is the number of durations drawn per station.
const DefaultComponentsPerQueue = 3000

// Config describes how supplies are drawn.
type Config struct {
	Rates              Rates
	ComponentsPerQueue int
}

// DefaultConfig returns the default rates and queue length.
func DefaultConfig() Config {
	return Config{Rates: DefaultRates(), ComponentsPerQueue: DefaultComponentsPerQueue}
}

// Validate checks rates and queue length.
func (c Config) Validate() error {
	if c.ComponentsPerQueue <= 0 {
		return fmt.Errorf("components per queue must be positive, got %d", c.ComponentsPerQueue)
	}
	return c.Rates.Validate()
}

// GenerateSupplies draws every station's durations from its partitioned
// stream: assembly durations from SubsystemAssembly (WS1, WS2, WS3 in
// order) and inspection durations from SubsystemInspection (C1, C2, C3).
func GenerateSupplies(cfg Config, rng *sim.PartitionedRNG) (sim.Supplies, error) {
	if err := cfg.Validate(); err != nil {
		return sim.Supplies{}, err
	}
	n := cfg.ComponentsPerQueue
	assembly := rng.ForSubsystem(sim.SubsystemAssembly)
	inspection := rng.ForSubsystem(sim.SubsystemInspection)

	return sim.Supplies{
		Assembly: map[sim.WorkstationID][]sim.Duration{
			sim.WS1: SampleN(NewExponentialSampler(cfg.Rates.WS1), assembly, n),
			sim.WS2: SampleN(NewExponentialSampler(cfg.Rates.WS2), assembly, n),
			sim.WS3: SampleN(NewExponentialSampler(cfg.Rates.WS3), assembly, n),
		},
		Inspection: map[sim.ComponentKind][]sim.Duration{
			sim.C1: SampleN(NewExponentialSampler(cfg.Rates.C1), inspection, n),
			sim.C2: SampleN(NewExponentialSampler(cfg.Rates.C2), inspection, n),
			sim.C3: SampleN(NewExponentialSampler(cfg.Rates.C3), inspection, n),
		},
	}, nil
}
