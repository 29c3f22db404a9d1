// SPDX-License-Identifier: MIT

// Package effects holds the post-denoise dynamics and tone chain. The stage
// order is fixed: noise gate, compressor, low shelf, makeup gain.
package effects

import (
	"fmt"
	"math"

	"noiseless/internal/audio"
)

// Processor is one stage of the chain. Process works in place on a single
// channel; Reset clears any state carried between samples.
type Processor interface {
	Name() string
	Process(x []float64)
	Reset()
}

// Params groups the per-stage settings. It is fixed when the chain is built.
type Params struct {
	Gate       GateParams       `yaml:"gate"`
	Compressor CompressorParams `yaml:"compressor"`
	LowShelf   ShelfParams      `yaml:"low_shelf"`
	Gain       GainParams       `yaml:"gain"`
}

// DefaultParams returns the stock speech cleanup settings.
func DefaultParams() Params {
	return Params{
		Gate:       GateParams{ThresholdDb: 10, Ratio: 2, AttackMs: 1, ReleaseMs: 200},
		Compressor: CompressorParams{ThresholdDb: -10, Ratio: 3, AttackMs: 1, ReleaseMs: 100},
		LowShelf:   ShelfParams{CutoffHz: 250, GainDb: 5, Q: 1},
		Gain:       GainParams{GainDb: 20},
	}
}

// FlatParams returns settings under which every stage is transparent.
func FlatParams() Params {
	p := DefaultParams()
	p.Gate.Ratio = 1
	p.Compressor.Ratio = 1
	p.LowShelf.GainDb = 0
	p.Gain.GainDb = 0
	return p
}

// Validate checks every stage for sampleRate.
func (p Params) Validate(sampleRate int) error {
	if err := p.Gate.Validate(); err != nil {
		return err
	}
	if err := p.Compressor.Validate(); err != nil {
		return err
	}
	if err := p.LowShelf.Validate(sampleRate); err != nil {
		return err
	}
	return p.Gain.Validate()
}

// finite reports whether none of vs is NaN or infinite.
func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Chain applies its stages in order, each stage finishing the whole buffer
// before the next starts.
type Chain struct {
	stages []Processor

	// OnStage, when set, is called before each stage runs.
	OnStage func(name string, index, total int)
}

// NewChain builds the fixed gate -> compressor -> low shelf -> gain chain.
func NewChain(p Params, sampleRate int) (*Chain, error) {
	gate, err := NewNoiseGate(p.Gate, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("noise gate: %w", err)
	}
	comp, err := NewCompressor(p.Compressor, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("compressor: %w", err)
	}
	shelf, err := NewLowShelf(p.LowShelf, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("low shelf: %w", err)
	}
	if err := p.Gain.Validate(); err != nil {
		return nil, err
	}
	return &Chain{stages: []Processor{gate, comp, shelf, NewGain(p.Gain)}}, nil
}

// Stages returns the stage names in processing order.
func (c *Chain) Stages() []string {
	names := make([]string, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.Name()
	}
	return names
}

// Apply runs the chain over every channel of buf in place. Stage state is
// reset per channel so channels do not bleed into each other.
func (c *Chain) Apply(buf *audio.Buffer) error {
	if buf.Frames() == 0 {
		return &audio.EmptyAudioError{Stage: "effects"}
	}
	for i, stage := range c.stages {
		if c.OnStage != nil {
			c.OnStage(stage.Name(), i, len(c.stages))
		}
		for _, x := range buf.Channels {
			stage.Reset()
			stage.Process(x)
		}
	}
	return nil
}
