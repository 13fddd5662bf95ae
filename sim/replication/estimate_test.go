package replication

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCriticalValue_StudentThenNormal(t *testing.T) {
	// t(0.975, 9) and z(0.975) from standard tables
	assert.InDelta(t, 2.262, criticalValue(10, 0.95), 1e-3)
	assert.InDelta(t, 2.045, criticalValue(30, 0.95), 1e-3)
	assert.InDelta(t, 1.960, criticalValue(31, 0.95), 1e-3)
	assert.InDelta(t, 1.960, normalQuantile(0.95), 1e-3)
}

func TestSeries_Summarize(t *testing.T) {
	// GIVEN values with mean 5 and sample std 2
	s := &series{name: "x", controls: true, values: []float64{3, 5, 7, 5, 5, 3, 7, 5, 5, 5}}

	est := s.summarize(0.95, 0.5)

	assert.InDelta(t, 5.0, est.Mean, 1e-12)
	wantStd := math.Sqrt(16.0 / 9.0)
	assert.InDelta(t, wantStd, est.StdDev, 1e-12)
	assert.InDelta(t, 2.262*wantStd/math.Sqrt(10), est.HalfWidth, 1e-3)
	assert.InDelta(t, math.Pow(wantStd*1.95996/0.5, 2), est.Required, 1e-3)
	assert.True(t, est.Controls)
}

func TestSeries_Summarize_SingleValue(t *testing.T) {
	est := (&series{name: "x", values: []float64{4}}).summarize(0.95, 0.1)

	assert.Equal(t, 4.0, est.Mean)
	assert.True(t, math.IsInf(est.HalfWidth, 1))
	assert.True(t, math.IsInf(est.Required, 1))
}

func TestEstimate_MaxRequired_IgnoresNonControlling(t *testing.T) {
	est := &Estimate{Stats: []StatEstimate{
		{Name: "a", Required: 12.2, Controls: true},
		{Name: "b", Required: 400, Controls: false},
		{Name: "c", Required: 3, Controls: true},
	}}
	assert.Equal(t, 13, est.MaxRequired())
}

func TestEstimate_Print(t *testing.T) {
	est := &Estimate{
		RunID:        "abc",
		Replications: 10,
		Converged:    true,
		Confidence:   0.95,
		Precision:    0.02,
		Stats:        []StatEstimate{{Name: "busy WS1", Mean: 0.5, HalfWidth: 0.01, Controls: true}},
	}
	var buf bytes.Buffer
	est.Print(&buf)

	out := buf.String()
	assert.Contains(t, out, "abc")
	assert.Contains(t, out, "converged: true")
	assert.Contains(t, out, "* busy WS1")
}
