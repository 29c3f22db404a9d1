// SPDX-License-Identifier: MIT
package effects

import (
	"fmt"

	"noiseless/internal/audio"

	"gonum.org/v1/gonum/floats"
)

// GainParams configures the makeup gain.
type GainParams struct {
	GainDb float64 `yaml:"gain_db"`
}

// Validate rejects a non-finite gain.
func (p GainParams) Validate() error {
	if !finite(p.GainDb) {
		return fmt.Errorf("gain must be finite, got %g", p.GainDb)
	}
	return nil
}

// Gain multiplies every sample by a fixed factor.
type Gain struct {
	factor float64
}

// NewGain creates a gain stage.
func NewGain(p GainParams) *Gain {
	return &Gain{factor: audio.DbToLinear(p.GainDb)}
}

func (g *Gain) Name() string { return "gain" }

func (g *Gain) Reset() {}

// Process scales x in place.
func (g *Gain) Process(x []float64) {
	if g.factor == 1 {
		return
	}
	floats.Scale(g.factor, x)
}
