package sim

import (
	"fmt"
	"math"
)

// TimeStamp is an absolute simulated time in minutes since the start of a run.
type TimeStamp float64

// Duration is a relative simulated time in minutes.
type Duration float64

// Never marks an actor with no pending event. It sorts after every finite time.
var Never = Duration(math.Inf(1))

const (
	// None is the zero duration.
	None = Duration(0)

	// timeTolerance bounds the relative floating-point error accepted when
	// checking that a scheduled completion happens "now".
	timeTolerance = 1e-9
)

// Start returns the epoch of every run.
func Start() TimeStamp { return 0 }

// Minutes returns the timestamp as float64 minutes.
func (t TimeStamp) Minutes() float64 { return float64(t) }

// Add returns t shifted forward by d.
func (t TimeStamp) Add(d Duration) TimeStamp { return t + TimeStamp(d) }

// Sub returns the duration elapsed from u to t.
func (t TimeStamp) Sub(u TimeStamp) Duration { return Duration(t - u) }

func (t TimeStamp) String() string { return fmt.Sprintf("%.2f", float64(t)) }

// Minutes returns the duration as float64 minutes.
func (d Duration) Minutes() float64 { return float64(d) }

// IsNever reports whether d is the "no event pending" sentinel.
func (d Duration) IsNever() bool { return math.IsInf(float64(d), 1) }

func (d Duration) String() string {
	if d.IsNever() {
		return "never"
	}
	return fmt.Sprintf("%.2f", float64(d))
}

// sameInstant reports whether a and b denote the same simulated instant
// within timeTolerance relative to their magnitude.
func sameInstant(a, b TimeStamp) bool {
	scale := math.Max(1, math.Max(math.Abs(float64(a)), math.Abs(float64(b))))
	return math.Abs(float64(a-b)) <= timeTolerance*scale
}
