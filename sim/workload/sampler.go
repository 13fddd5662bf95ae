package workload

import (
	"math"

	"github.com/facility-sim/facility-sim/sim"
)

// DurationSampler draws service times for one station.
type DurationSampler interface {
	// Sample returns the next service time. Always non-negative.
	Sample(rng sim.RandomSource) sim.Duration
}

// ExponentialSampler draws exponentially distributed service times by
// inverting the CDF: -ln(1-u)/λ.
type ExponentialSampler struct {
	rate float64 // events per minute
}

// NewExponentialSampler returns a sampler with the given rate (minutes⁻¹).
// Panics on a non-positive or non-finite rate.
func NewExponentialSampler(rate float64) *ExponentialSampler {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		panic("NewExponentialSampler: rate must be positive and finite")
	}
	return &ExponentialSampler{rate: rate}
}

// Rate returns λ in minutes⁻¹.
func (s *ExponentialSampler) Rate() float64 { return s.rate }

// Mean returns 1/λ minutes.
func (s *ExponentialSampler) Mean() sim.Duration { return sim.Duration(1 / s.rate) }

func (s *ExponentialSampler) Sample(rng sim.RandomSource) sim.Duration {
	return sim.Duration(-math.Log1p(-rng.Float64()) / s.rate)
}

// SampleN draws n values from s.
func SampleN(s DurationSampler, rng sim.RandomSource, n int) []sim.Duration {
	out := make([]sim.Duration, n)
	for i := range out {
		out[i] = s.Sample(rng)
	}
	return out
}
