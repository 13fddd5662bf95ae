package replication

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// studentCutoff is the largest replication count whose half-widths use the
// Student-t quantile; larger samples use the normal quantile.
const studentCutoff = 30

// StatEstimate summarizes one statistic across replications.
type StatEstimate struct {
	Name      string  `yaml:"name"`
	Mean      float64 `yaml:"mean"`
	StdDev    float64 `yaml:"std_dev"`
	HalfWidth float64 `yaml:"half_width"`
	// Required is the replication count (s·z/e)² needed to reach the precision.
	Required float64 `yaml:"required"`
	Controls bool    `yaml:"controls"`
}

// Estimate is the outcome of a replication study.
type Estimate struct {
	RunID        string         `yaml:"run_id"`
	Replications int            `yaml:"replications"`
	Converged    bool           `yaml:"converged"`
	Confidence   float64        `yaml:"confidence"`
	Precision    float64        `yaml:"precision"`
	Stats        []StatEstimate `yaml:"stats"`
}

// Stat returns the estimate with the given name.
func (e *Estimate) Stat(name string) (StatEstimate, bool) {
	for _, s := range e.Stats {
		if s.Name == name {
			return s, true
		}
	}
	return StatEstimate{}, false
}

// Print writes the estimate as a table to w.
func (e *Estimate) Print(w io.Writer) {
	fmt.Fprintf(w, "=== Estimate %s ===\n", e.RunID)
	fmt.Fprintf(w, "Replications : %d (converged: %t)\n", e.Replications, e.Converged)
	fmt.Fprintf(w, "Confidence   : %.0f%%, precision ±%.3f\n", e.Confidence*100, e.Precision)
	for _, s := range e.Stats {
		marker := " "
		if s.Controls {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-32s %12.5f ± %.5f\n", marker, s.Name, s.Mean, s.HalfWidth)
	}
}

// series accumulates one statistic's per-replication values.
type series struct {
	name     string
	controls bool
	values   []float64
}

// normalQuantile returns z such that P(|Z| <= z) = confidence.
func normalQuantile(confidence float64) float64 {
	return distuv.UnitNormal.Quantile(1 - (1-confidence)/2)
}

// criticalValue returns the two-sided quantile for n samples.
func criticalValue(n int, confidence float64) float64 {
	if n > studentCutoff {
		return normalQuantile(confidence)
	}
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	return t.Quantile(1 - (1-confidence)/2)
}

// summarize computes mean, standard deviation, half-width and required
// replication count of s.
func (s *series) summarize(confidence, precision float64) StatEstimate {
	n := len(s.values)
	est := StatEstimate{Name: s.name, Controls: s.controls}
	if n == 0 {
		return est
	}
	est.Mean = stat.Mean(s.values, nil)
	if n < 2 {
		est.HalfWidth = math.Inf(1)
		est.Required = math.Inf(1)
		return est
	}
	est.StdDev = stat.StdDev(s.values, nil)
	est.HalfWidth = criticalValue(n, confidence) * est.StdDev / math.Sqrt(float64(n))
	z := normalQuantile(confidence)
	est.Required = math.Pow(est.StdDev*z/precision, 2)
	return est
}

// MaxRequired returns the largest required replication count over the
// controlling statistics, rounded up.
func (e *Estimate) MaxRequired() int {
	req := 0.0
	for _, s := range e.Stats {
		if s.Controls {
			req = max(req, s.Required)
		}
	}
	if math.IsInf(req, 1) {
		return math.MaxInt
	}
	return int(math.Ceil(req))
}
