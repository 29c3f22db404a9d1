// SPDX-License-Identifier: MIT
package effects

import (
	"fmt"
	"math"

	"noiseless/internal/audio"
)

// GateParams configures the noise gate.
type GateParams struct {
	ThresholdDb float64 `yaml:"threshold_db"`
	Ratio       float64 `yaml:"ratio"`
	AttackMs    float64 `yaml:"attack_ms"`
	ReleaseMs   float64 `yaml:"release_ms"`
}

// Validate reports invalid gate parameters.
func (p GateParams) Validate() error {
	if !finite(p.ThresholdDb) {
		return fmt.Errorf("gate threshold must be finite, got %g", p.ThresholdDb)
	}
	if !(p.Ratio >= 1) || math.IsInf(p.Ratio, 1) {
		return fmt.Errorf("gate ratio must be >= 1, got %g", p.Ratio)
	}
	if !(p.AttackMs >= 0 && p.ReleaseMs >= 0) || !finite(p.AttackMs, p.ReleaseMs) {
		return fmt.Errorf("gate attack and release must be >= 0")
	}
	return nil
}

// NoiseGate is a downward expander. While the RMS envelope sits below the
// threshold the signal is attenuated by (threshold - level) * (ratio - 1) dB.
// The envelope decays with the release time, so closing fades instead of
// cutting.
type NoiseGate struct {
	params GateParams
	env    *envelope
}

// NewNoiseGate creates a gate for sampleRate.
func NewNoiseGate(p GateParams, sampleRate int) (*NoiseGate, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &NoiseGate{
		params: p,
		env:    newEnvelope(DetectRMS, p.AttackMs, p.ReleaseMs, sampleRate),
	}, nil
}

func (g *NoiseGate) Name() string { return "noise_gate" }

func (g *NoiseGate) Reset() { g.env.reset() }

// Process gates x in place.
func (g *NoiseGate) Process(x []float64) {
	thr := g.params.ThresholdDb
	slope := g.params.Ratio - 1
	for i, s := range x {
		level := audio.LinearToDb(g.env.next(s))
		if level < thr && slope > 0 {
			x[i] = s * audio.DbToLinear((level-thr)*slope)
		}
	}
}
