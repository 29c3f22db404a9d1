// SPDX-License-Identifier: MIT
package effects

import (
	"fmt"
	"math"
	"math/cmplx"
)

// ShelfParams configures the low shelf.
type ShelfParams struct {
	CutoffHz float64 `yaml:"cutoff_hz"`
	GainDb   float64 `yaml:"gain_db"`
	Q        float64 `yaml:"q"`
}

// Validate checks the shelf against the sample rate it will run at.
func (p ShelfParams) Validate(sampleRate int) error {
	nyquist := float64(sampleRate) / 2
	if !(p.CutoffHz > 0 && p.CutoffHz < nyquist) {
		return fmt.Errorf("low shelf cutoff must be in (0, %g) Hz, got %g", nyquist, p.CutoffHz)
	}
	if !(p.Q > 0) || math.IsInf(p.Q, 1) {
		return fmt.Errorf("low shelf q must be > 0, got %g", p.Q)
	}
	if !finite(p.GainDb) {
		return fmt.Errorf("low shelf gain must be finite, got %g", p.GainDb)
	}
	return nil
}

// Biquad is a second order IIR section in Direct Form I with coefficients
// normalised by a0.
type Biquad struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

// NewLowShelf designs an RBJ cookbook low shelf.
func NewLowShelf(p ShelfParams, sampleRate int) (*Biquad, error) {
	if err := p.Validate(sampleRate); err != nil {
		return nil, err
	}

	a := math.Pow(10, p.GainDb/40)
	w0 := 2 * math.Pi * p.CutoffHz / float64(sampleRate)
	cosw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * p.Q)
	sqrtA2alpha := 2 * math.Sqrt(a) * alpha

	b0 := a * ((a + 1) - (a-1)*cosw + sqrtA2alpha)
	b1 := 2 * a * ((a - 1) - (a+1)*cosw)
	b2 := a * ((a + 1) - (a-1)*cosw - sqrtA2alpha)
	a0 := (a + 1) + (a-1)*cosw + sqrtA2alpha
	a1 := -2 * ((a - 1) + (a+1)*cosw)
	a2 := (a + 1) + (a-1)*cosw - sqrtA2alpha

	return &Biquad{
		b0: b0 / a0,
		b1: b1 / a0,
		b2: b2 / a0,
		a1: a1 / a0,
		a2: a2 / a0,
	}, nil
}

func (f *Biquad) Name() string { return "low_shelf" }

// Reset clears the filter history.
func (f *Biquad) Reset() {
	f.x1, f.x2, f.y1, f.y2 = 0, 0, 0, 0
}

// Process filters x in place.
func (f *Biquad) Process(x []float64) {
	for i, in := range x {
		out := f.b0*in + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
		f.x2, f.x1 = f.x1, in
		f.y2, f.y1 = f.y1, out
		x[i] = out
	}
}

// MagnitudeDb returns the filter response at freq in dB.
func (f *Biquad) MagnitudeDb(freq float64, sampleRate int) float64 {
	w := 2 * math.Pi * freq / float64(sampleRate)
	z1 := complex(math.Cos(w), -math.Sin(w)) // e^{-jw}
	z2 := z1 * z1
	num := complex(f.b0, 0) + complex(f.b1, 0)*z1 + complex(f.b2, 0)*z2
	den := 1 + complex(f.a1, 0)*z1 + complex(f.a2, 0)*z2
	return 20 * math.Log10(cmplx.Abs(num)/cmplx.Abs(den))
}
