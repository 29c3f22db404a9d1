// SPDX-License-Identifier: MIT

// Package pipeline runs one file through decode, denoise, effects, downmix
// and encode. Every run owns its buffer; nothing is shared between runs.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"noiseless/internal/analysis"
	"noiseless/internal/audio"
	"noiseless/internal/codec"
	"noiseless/internal/denoise"
	"noiseless/internal/effects"
	"noiseless/internal/log"
	"noiseless/internal/transport"
)

const (
	DefaultTargetSampleRate = 44100
	DefaultBitDepth         = 16
)

// Config is the immutable description of one run.
type Config struct {
	TargetSampleRate int
	BitDepth         int
	OutputFormat     audio.Format
	Downmix          audio.DownmixMode
	Mono             bool // collapse to one channel before encoding
	Denoise          denoise.Params
	Effects          effects.Params
	Report           bool // measure input and output levels
}

// DefaultConfig returns the stock configuration: 44.1 kHz mono MP3.
func DefaultConfig() Config {
	return Config{
		TargetSampleRate: DefaultTargetSampleRate,
		BitDepth:         DefaultBitDepth,
		OutputFormat:     audio.FormatMP3,
		Downmix:          audio.DownmixFirst,
		Mono:             true,
		Denoise:          denoise.DefaultParams(),
		Effects:          effects.DefaultParams(),
		Report:           true,
	}
}

// Validate checks the whole configuration before any audio is touched.
func (c Config) Validate() error {
	if c.TargetSampleRate <= 0 {
		return fmt.Errorf("target sample rate must be positive, got %d", c.TargetSampleRate)
	}
	if c.OutputFormat != audio.FormatWAV && c.OutputFormat != audio.FormatMP3 {
		return fmt.Errorf("output format must be wav or mp3, got %s", c.OutputFormat)
	}
	if c.BitDepth != 16 && c.BitDepth != 24 {
		return fmt.Errorf("bit depth must be 16 or 24, got %d", c.BitDepth)
	}
	if err := c.Denoise.Validate(); err != nil {
		return fmt.Errorf("denoise: %w", err)
	}
	if err := c.Effects.Validate(c.TargetSampleRate); err != nil {
		return fmt.Errorf("effects: %w", err)
	}
	return nil
}

// Result is what a successful run hands back.
type Result struct {
	File   *audio.EncodedFile
	Input  *analysis.Report // nil unless Config.Report
	Output *analysis.Report
}

// Run decodes raw as declared and returns the encoded, denoised file.
// events may be nil. The context is checked between stages; a cancelled run
// returns ctx.Err() and no output.
func Run(ctx context.Context, raw []byte, declared audio.Format, cfg Config, events transport.Transport) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	p := &run{ctx: ctx, events: events, start: time.Now()}
	res, err := p.execute(raw, declared, cfg)
	if err != nil {
		p.emit(Event{Stage: StageFailed, Error: err.Error()})
		return nil, err
	}
	return res, nil
}

// Process is Run for callers that already hold decoded audio. buf is
// modified in place.
func Process(ctx context.Context, buf *audio.Buffer, cfg Config, events transport.Transport) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	p := &run{ctx: ctx, events: events, start: time.Now()}
	res, err := p.transform(buf, cfg)
	if err != nil {
		p.emit(Event{Stage: StageFailed, Error: err.Error()})
		return nil, err
	}
	return res, nil
}

type run struct {
	ctx    context.Context
	events transport.Transport
	start  time.Time
	stage  int
}

func (p *run) execute(raw []byte, declared audio.Format, cfg Config) (*Result, error) {
	var buf *audio.Buffer
	err := p.step(StageDecode, func() error {
		var err error
		buf, err = codec.Decode(raw, declared, cfg.TargetSampleRate)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p.transform(buf, cfg)
}

func (p *run) transform(buf *audio.Buffer, cfg Config) (*Result, error) {
	if buf.Frames() == 0 {
		return nil, &audio.EmptyAudioError{Stage: "pipeline"}
	}
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid input buffer: %w", err)
	}
	if buf.SampleRate != cfg.TargetSampleRate {
		var err error
		if buf, err = codec.Resample(buf, cfg.TargetSampleRate); err != nil {
			return nil, err
		}
	}

	res := &Result{}
	if cfg.Report {
		if r, err := analysis.Analyze(buf); err == nil {
			res.Input = &r
			log.Infof("Pipeline: input  %s", r)
		}
	}

	err := p.step(StageDenoise, func() error {
		return denoise.Reduce(buf, cfg.Denoise)
	})
	if err != nil {
		return nil, err
	}

	err = p.step(StageEffects, func() error {
		chain, err := effects.NewChain(cfg.Effects, buf.SampleRate)
		if err != nil {
			return err
		}
		chain.OnStage = func(name string, index, total int) {
			log.Debugf("Pipeline: effect %d/%d %s", index+1, total, name)
		}
		return chain.Apply(buf)
	})
	if err != nil {
		return nil, err
	}

	if cfg.Mono {
		buf = buf.Mono(cfg.Downmix)
	}

	if cfg.Report {
		if r, err := analysis.Analyze(buf); err == nil {
			res.Output = &r
			log.Infof("Pipeline: output %s", r)
		}
	}

	err = p.step(StageEncode, func() error {
		var err error
		res.File, err = codec.Encode(buf, cfg.OutputFormat, cfg.BitDepth)
		return err
	})
	if err != nil {
		return nil, err
	}

	p.emit(Event{Stage: StageDone, Progress: 1, Input: res.Input, Output: res.Output, File: res.File.Name})
	log.Infof("Pipeline: finished %s (%d bytes) in %s", res.File.Name, len(res.File.Data), time.Since(p.start).Round(time.Millisecond))
	return res, nil
}

// step checks for cancellation, runs fn and reports progress around it.
func (p *run) step(stage Stage, fn func() error) error {
	if err := p.ctx.Err(); err != nil {
		return err
	}
	p.emit(Event{Stage: stage, Progress: float64(p.stage) / float64(numStages)})

	t0 := time.Now()
	if err := fn(); err != nil {
		return err
	}
	p.stage++
	log.Infof("Pipeline: %s done in %s", stage, time.Since(t0).Round(time.Millisecond))
	return nil
}

func (p *run) emit(ev Event) {
	if p.events == nil {
		return
	}
	ev.Elapsed = time.Since(p.start).Milliseconds()
	if err := p.events.Send(ev); err != nil {
		log.Debugf("Pipeline: dropping %s event: %v", ev.Stage, err)
	}
}
