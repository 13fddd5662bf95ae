// Package testutil provides shared test infrastructure for the facility
// simulator: scripted random-variate sources and float assertions used
// across sim/ and its sub-packages. It has no dependency on sim/ so that
// sim's own tests can import it.
package testutil

import (
	"math"
	"testing"
)

// ScriptedSource replays fixed variates. It satisfies sim.RandomSource.
// When a script runs out, Float64 repeats its last value (0.5 if empty)
// and Bool alternates starting from false.
type ScriptedSource struct {
	Floats []float64
	Bools  []bool

	floatIdx, boolIdx int
	flip             bool
}

// Float64 returns the next scripted float in [0,1).
func (s *ScriptedSource) Float64() float64 {
	if len(s.Floats) == 0 {
		return 0.5
	}
	if s.floatIdx >= len(s.Floats) {
		return s.Floats[len(s.Floats)-1]
	}
	v := s.Floats[s.floatIdx]
	s.floatIdx++
	return v
}

// Bool returns the next scripted boolean.
func (s *ScriptedSource) Bool() bool {
	if s.boolIdx < len(s.Bools) {
		v := s.Bools[s.boolIdx]
		s.boolIdx++
		return v
	}
	v := s.flip
	s.flip = !s.flip
	return v
}

// BoolsDrawn returns how many booleans were consumed.
func (s *ScriptedSource) BoolsDrawn() int { return s.boolIdx }

// ConstantSource always returns the same variates.
type ConstantSource struct {
	Value float64
	Flag  bool
}

// Float64 returns Value.
func (c ConstantSource) Float64() float64 { return c.Value }

// Bool returns Flag.
func (c ConstantSource) Bool() bool { return c.Flag }

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
