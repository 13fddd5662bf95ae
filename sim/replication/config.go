package replication

import (
	"fmt"

	"github.com/facility-sim/facility-sim/sim"
	"github.com/facility-sim/facility-sim/sim/workload"
)

// Config controls a replication study.
type Config struct {
	Workload workload.Config
	// WarmupMinutes is the start of the observation window.
	WarmupMinutes float64
	// InitialReplications run before the stopping rule is consulted.
	InitialReplications int
	// MaxReplications caps the study.
	MaxReplications int
	// Precision is the absolute half-width target e of every controlling statistic.
	Precision float64
	// Confidence is the two-sided confidence level of the half-widths.
	Confidence float64
	// BaseSeed seeds replication i with BaseSeed + i (0-based).
	BaseSeed int64
	Policy   sim.DispatchPolicy
}

// DefaultConfig returns the standard study: 10 initial replications,
// at most 200, e = 0.02 at 95% confidence, 600-minute warm-up.
func DefaultConfig() Config {
	return Config{
		Workload:            workload.DefaultConfig(),
		WarmupMinutes:       600,
		InitialReplications: 10,
		MaxReplications:     200,
		Precision:           0.02,
		Confidence:          0.95,
		BaseSeed:            1,
		Policy:              sim.LeastLoaded,
	}
}

// Validate checks the study parameters.
func (c Config) Validate() error {
	if err := c.Workload.Validate(); err != nil {
		return fmt.Errorf("workload: %w", err)
	}
	if c.WarmupMinutes < 0 {
		return fmt.Errorf("warmup must be non-negative, got %v", c.WarmupMinutes)
	}
	if horizon := c.ExpectedHorizon(); c.WarmupMinutes >= horizon {
		return fmt.Errorf("warmup of %v min reaches the expected run length of %.0f min "+
			"(%d C1 at rate %v); lower warmup_minutes or raise components_per_queue",
			c.WarmupMinutes, horizon, c.Workload.ComponentsPerQueue, c.Workload.Rates.C1)
	}
	if c.InitialReplications < 2 {
		return fmt.Errorf("initial replications must be at least 2, got %d", c.InitialReplications)
	}
	if c.MaxReplications < c.InitialReplications {
		return fmt.Errorf("max replications (%d) must be >= initial replications (%d)",
			c.MaxReplications, c.InitialReplications)
	}
	if c.Precision <= 0 {
		return fmt.Errorf("precision must be positive, got %v", c.Precision)
	}
	if c.Confidence <= 0 || c.Confidence >= 1 {
		return fmt.Errorf("confidence must be in (0, 1), got %v", c.Confidence)
	}
	if c.Policy != "" && !sim.IsValidDispatchPolicy(string(c.Policy)) {
		return fmt.Errorf("unknown dispatch policy %q; valid: %v", c.Policy, sim.ValidDispatchPolicyNames())
	}
	return nil
}

// ExpectedHorizon returns the mean time Inspector1 needs to inspect its
// whole C1 supply. WS1 cannot assemble past it by more than a few
// assembly times, so a warm-up at or beyond it leaves no observation window.
func (c Config) ExpectedHorizon() float64 {
	return float64(c.Workload.ComponentsPerQueue) / c.Workload.Rates.C1
}
