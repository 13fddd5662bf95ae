package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// finishedAt returns a component of kind whose zero-length inspection
// finished at t.
func finishedAt(kind ComponentKind, t TimeStamp) *Component {
	c := NewComponent(kind, 0)
	c.StartInspection(t)
	c.FinishInspection(t)
	return c
}

// durations converts minutes to a Duration slice.
func durations(minutes ...float64) []Duration {
	out := make([]Duration, len(minutes))
	for i, m := range minutes {
		out[i] = Duration(m)
	}
	return out
}

// emptyStations returns three idle workstations with the given assembly
// durations (nil means an empty supply).
func emptyStations(ws1, ws2, ws3 []Duration) []*Workstation {
	return []*Workstation{
		NewWorkstation(WS1, NewDurationSupply(ws1), nil),
		NewWorkstation(WS2, NewDurationSupply(ws2), nil),
		NewWorkstation(WS3, NewDurationSupply(ws3), nil),
	}
}

// fill enqueues n finished components of kind into ws at t.
func fill(t *testing.T, ws *Workstation, kind ComponentKind, n int, at TimeStamp) {
	t.Helper()
	for i := 0; i < n; i++ {
		res := ws.Enqueue(finishedAt(kind, at), at)
		require.True(t, res.Accepted, "fill %s with %s #%d", ws.ID(), kind, i+1)
	}
}

// requireViolation asserts that fn panics with an *InvariantViolation.
func requireViolation(t *testing.T, fn func()) *InvariantViolation {
	t.Helper()
	var got *InvariantViolation
	func() {
		defer func() {
			r := recover()
			require.NotNil(t, r, "expected an invariant violation")
			v, ok := r.(*InvariantViolation)
			require.True(t, ok, "expected *InvariantViolation, got %T: %v", r, r)
			got = v
		}()
		fn()
	}()
	return got
}

// randomSupplies draws n exponential durations per queue with the
// default rates, seeded for reproducibility.
func randomSupplies(seed int64, n int) Supplies {
	r := rand.New(rand.NewSource(seed))
	draw := func(rate float64) []Duration {
		out := make([]Duration, n)
		for i := range out {
			out[i] = Duration(r.ExpFloat64() / rate)
		}
		return out
	}
	return Supplies{
		Assembly: map[WorkstationID][]Duration{
			WS1: draw(0.217),
			WS2: draw(0.090),
			WS3: draw(0.114),
		},
		Inspection: map[ComponentKind][]Duration{
			C1: draw(0.097),
			C2: draw(0.064),
			C3: draw(0.048),
		},
	}
}
