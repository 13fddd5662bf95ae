package workload

import (
	"fmt"
	"math"
)

// Rates holds the exponential service rates (minutes⁻¹) of every station.
type Rates struct {
	WS1 float64 `yaml:"ws1"`
	WS2 float64 `yaml:"ws2"`
	WS3 float64 `yaml:"ws3"`
	C1  float64 `yaml:"c1"` // Inspector1
	C2  float64 `yaml:"c2"` // Inspector2
	C3  float64 `yaml:"c3"` // Inspector2
}

// DefaultRates returns the rates fitted to the observed line.
func DefaultRates() Rates {
	return Rates{
		WS1: 0.217,
		WS2: 0.090,
		WS3: 0.114,
		C1:  0.097,
		C2:  0.064,
		C3:  0.048,
	}
}

// Validate checks that every rate is positive and finite.
func (r Rates) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"ws1", r.WS1}, {"ws2", r.WS2}, {"ws3", r.WS3},
		{"c1", r.C1}, {"c2", r.C2}, {"c3", r.C3},
	} {
		if f.v <= 0 || math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("rate %s must be a finite positive number, got %v", f.name, f.v)
		}
	}
	return nil
}
