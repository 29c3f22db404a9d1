// SPDX-License-Identifier: MIT

// Package denoise implements stationary spectral gating: a single noise
// threshold per frequency bin is estimated from the whole clip, bins that
// stay under it are attenuated by PropDecrease and the phase is kept.
package denoise

import (
	"fmt"
	"math"
	"math/cmplx"
	"time"

	"noiseless/internal/analysis"
	"noiseless/internal/audio"
	"noiseless/internal/log"
)

// Default parameters.
const (
	DefaultPropDecrease     = 0.75
	DefaultFFTSize          = 1024
	DefaultHopSize          = DefaultFFTSize / 4
	DefaultNStdThresh       = 1.5
	DefaultFreqMaskSmoothHz = 500.0
	DefaultTimeMaskSmoothMs = 50.0
)

// Params configures Reduce.
type Params struct {
	PropDecrease     float64             // 0 leaves the signal alone, 1 removes gated bins entirely.
	FFTSize          int                 // Power of 2.
	HopSize          int                 // <= FFTSize/2.
	Window           analysis.WindowFunc // Analysis and synthesis window.
	NStdThresh       float64             // Standard deviations above the mean that count as signal.
	FreqMaskSmoothHz float64             // Mask blur across frequency, 0 disables.
	TimeMaskSmoothMs float64             // Mask blur across time, 0 disables.
}

// DefaultParams returns the stock configuration.
func DefaultParams() Params {
	return Params{
		PropDecrease:     DefaultPropDecrease,
		FFTSize:          DefaultFFTSize,
		HopSize:          DefaultHopSize,
		Window:           analysis.Hann,
		NStdThresh:       DefaultNStdThresh,
		FreqMaskSmoothHz: DefaultFreqMaskSmoothHz,
		TimeMaskSmoothMs: DefaultTimeMaskSmoothMs,
	}
}

// Validate reports the first out of range parameter.
func (p Params) Validate() error {
	// NaN fails every comparison below.
	if !(p.PropDecrease >= 0 && p.PropDecrease <= 1) {
		return fmt.Errorf("prop_decrease must be in [0, 1], got %g", p.PropDecrease)
	}
	if !(p.NStdThresh >= 0) || math.IsInf(p.NStdThresh, 1) {
		return fmt.Errorf("n_std_thresh must be >= 0, got %g", p.NStdThresh)
	}
	if !(p.FreqMaskSmoothHz >= 0 && p.TimeMaskSmoothMs >= 0) ||
		math.IsInf(p.FreqMaskSmoothHz, 1) || math.IsInf(p.TimeMaskSmoothMs, 1) {
		return fmt.Errorf("mask smoothing must be >= 0")
	}
	// Size and hop are checked by NewSTFT.
	return nil
}

// Reduce denoises every channel of buf in place. Channels are profiled and
// processed independently. The frame count, rate and channel count of buf
// do not change.
func Reduce(buf *audio.Buffer, p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if buf.Frames() == 0 {
		return &audio.EmptyAudioError{Stage: "denoise"}
	}
	if p.PropDecrease == 0 {
		log.Debugf("denoise: prop_decrease is 0, skipping")
		return nil
	}

	s, err := NewSTFT(p.FFTSize, p.HopSize, p.Window)
	if err != nil {
		return err
	}

	freqKernel := triangle(freqSmoothBins(p, buf.SampleRate))
	timeKernel := triangle(timeSmoothFrames(p, buf.SampleRate))

	for ch, x := range buf.Channels {
		start := time.Now()
		y, profile := s.reduce(x, p.PropDecrease, p.NStdThresh, freqKernel, timeKernel)
		buf.Channels[ch] = y
		log.Debugf("denoise: channel %d, %d frames, noise threshold %.1f dB, took %s",
			ch, s.NumFrames(len(x)), profile.FloorDb(), time.Since(start))
	}
	return nil
}

// reduce runs the two passes over one channel: the first builds the log
// magnitude matrix and the profile, the second re-analyses each frame,
// applies the smoothed mask gain and overlap-adds the result.
func (s *STFT) reduce(x []float64, prop, nStd float64, freqKernel, timeKernel []float64) ([]float64, *NoiseProfile) {
	frames := s.NumFrames(len(x))

	db := make([][]float32, frames)
	for f := range db {
		row := make([]float32, s.Bins())
		for k, c := range s.frameAt(x, f) {
			row[k] = float32(magnitudeToDb(cmplx.Abs(c)))
		}
		db[f] = row
	}

	profile := EstimateProfile(db, nStd)

	// The magnitude matrix becomes the signal mask.
	mask := db
	for _, row := range mask {
		for k, v := range row {
			if float64(v) > profile.Threshold[k] {
				row[k] = 1
			} else {
				row[k] = 0
			}
		}
	}
	smoothMask(mask, freqKernel, timeKernel)

	ola := s.newOverlapAdd(len(x))
	for f := range frames {
		coeffs := s.frameAt(x, f)
		for k := range coeffs {
			gain := 1 - prop*(1-float64(mask[f][k]))
			coeffs[k] *= complex(gain, 0)
		}
		ola.add(f, coeffs)
	}
	return ola.result(), profile
}

// freqSmoothBins converts the frequency blur to a kernel half width in bins.
func freqSmoothBins(p Params, sampleRate int) int {
	binHz := float64(sampleRate) / float64(p.FFTSize/2)
	return int(p.FreqMaskSmoothHz / binHz)
}

// timeSmoothFrames converts the time blur to a kernel half width in frames.
func timeSmoothFrames(p Params, sampleRate int) int {
	hopMs := float64(p.HopSize) / float64(sampleRate) * 1000
	return int(p.TimeMaskSmoothMs / hopMs)
}
