package workload

import (
	"math"
	"testing"

	"github.com/facility-sim/facility-sim/sim"
	"github.com/facility-sim/facility-sim/sim/internal/testutil"
)

func TestExponentialSampler_InverseCDF(t *testing.T) {
	// GIVEN a sampler with λ = 0.5 and a source returning u = 0.5
	s := NewExponentialSampler(0.5)
	rng := testutil.ConstantSource{Value: 0.5}

	// WHEN a duration is drawn
	got := s.Sample(rng)

	// THEN it equals -ln(1-u)/λ = 2 ln 2
	testutil.AssertFloat64Equal(t, "sample", 2*math.Ln2, float64(got), 1e-12)
}

func TestExponentialSampler_ZeroVariate_ReturnsZero(t *testing.T) {
	s := NewExponentialSampler(0.1)
	if got := s.Sample(testutil.ConstantSource{Value: 0}); got != 0 {
		t.Errorf("Sample(u=0) = %v, want 0", got)
	}
}

func TestExponentialSampler_MeanMatchesRate(t *testing.T) {
	// GIVEN the WS2 rate and a seeded stream
	s := NewExponentialSampler(0.090)
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(42)).ForSubsystem(sim.SubsystemAssembly)

	// WHEN 20000 durations are sampled
	ds := SampleN(s, rng, 20000)
	sum := 0.0
	for _, d := range ds {
		if d < 0 {
			t.Fatalf("negative duration %v", d)
		}
		sum += float64(d)
	}
	mean := sum / float64(len(ds))

	// THEN the mean is within 3% of 1/λ
	want := float64(s.Mean())
	if math.Abs(mean-want)/want > 0.03 {
		t.Errorf("mean = %.3f, want ≈ %.3f (within 3%%)", mean, want)
	}
}

func TestNewExponentialSampler_InvalidRate_Panics(t *testing.T) {
	for _, rate := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("NewExponentialSampler(%v) did not panic", rate)
				}
			}()
			NewExponentialSampler(rate)
		}()
	}
}
