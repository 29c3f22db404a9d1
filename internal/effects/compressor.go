// SPDX-License-Identifier: MIT
package effects

import (
	"fmt"
	"math"

	"noiseless/internal/audio"
)

// CompressorParams configures the compressor.
type CompressorParams struct {
	ThresholdDb float64 `yaml:"threshold_db"`
	Ratio       float64 `yaml:"ratio"`
	AttackMs    float64 `yaml:"attack_ms"`
	ReleaseMs   float64 `yaml:"release_ms"`
}

// Validate reports invalid compressor parameters.
func (p CompressorParams) Validate() error {
	if !finite(p.ThresholdDb) {
		return fmt.Errorf("compressor threshold must be finite, got %g", p.ThresholdDb)
	}
	if !(p.Ratio >= 1) || math.IsInf(p.Ratio, 1) {
		return fmt.Errorf("compressor ratio must be >= 1, got %g", p.Ratio)
	}
	if !(p.AttackMs >= 0 && p.ReleaseMs >= 0) || !finite(p.AttackMs, p.ReleaseMs) {
		return fmt.Errorf("compressor attack and release must be >= 0")
	}
	return nil
}

// Compressor is a feed-forward hard knee compressor on a peak envelope.
// Above the threshold the gain is (level - threshold) * (1/ratio - 1) dB,
// below it the signal passes unchanged.
type Compressor struct {
	params CompressorParams
	env    *envelope
}

// NewCompressor creates a compressor for sampleRate.
func NewCompressor(p CompressorParams, sampleRate int) (*Compressor, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Compressor{
		params: p,
		env:    newEnvelope(DetectPeak, p.AttackMs, p.ReleaseMs, sampleRate),
	}, nil
}

func (c *Compressor) Name() string { return "compressor" }

func (c *Compressor) Reset() { c.env.reset() }

// Process compresses x in place.
func (c *Compressor) Process(x []float64) {
	thr := c.params.ThresholdDb
	slope := 1/c.params.Ratio - 1
	for i, s := range x {
		level := audio.LinearToDb(c.env.next(s))
		if level > thr && slope < 0 {
			x[i] = s * audio.DbToLinear((level-thr)*slope)
		}
	}
}
