// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"noiseless/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Pre-allocated buffers for FFT calculations.
type fftWorkspace struct {
	input     []float64    // Windowed frame.
	fftOutput []complex128 // FFT complex results.
	power     []float64    // Accumulated power per bin.
	window    []float64    // Window coefficients.
}

// SpectrumAnalyzer computes the long-term average magnitude spectrum of a
// signal by averaging the power of half-overlapping windowed frames.
type SpectrumAnalyzer struct {
	fftCalculator *fourier.FFT
	fftSize       int
	sampleRate    float64
	workspace     fftWorkspace
}

// NewSpectrumAnalyzer validates the size and pre-allocates the workspace.
func NewSpectrumAnalyzer(fftSize int, sampleRate float64, windowType WindowFunc) (*SpectrumAnalyzer, error) {
	if !bitint.IsPowerOfTwo(fftSize) {
		return nil, fmt.Errorf("fft size must be a power of 2, got %d", fftSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}

	bins := fftSize/2 + 1
	return &SpectrumAnalyzer{
		fftCalculator: fourier.NewFFT(fftSize),
		fftSize:       fftSize,
		sampleRate:    sampleRate,
		workspace: fftWorkspace{
			input:     make([]float64, fftSize),
			fftOutput: make([]complex128, bins),
			power:     make([]float64, bins),
			window:    NewWindow(fftSize, windowType),
		},
	}, nil
}

// Average returns the mean magnitude per bin over all frames of samples.
// A signal shorter than one frame is zero padded. The returned slice is
// owned by the caller.
func (p *SpectrumAnalyzer) Average(samples []float64) []float64 {
	ws := &p.workspace
	clear(ws.power)

	hop := p.fftSize / 2
	frames := 0
	for start := 0; start == 0 || start+p.fftSize <= len(samples); start += hop {
		for i := range p.fftSize {
			if start+i < len(samples) {
				ws.input[i] = samples[start+i] * ws.window[i]
			} else {
				ws.input[i] = 0
			}
		}
		p.fftCalculator.Coefficients(ws.fftOutput, ws.input)
		for i, c := range ws.fftOutput {
			m := cmplx.Abs(c)
			ws.power[i] += m * m
		}
		frames++
	}

	mags := make([]float64, len(ws.power))
	for i, pw := range ws.power {
		mags[i] = math.Sqrt(pw / float64(frames))
	}
	return mags
}

// FrequencyForBin returns the centre frequency in Hz of a bin index.
func (p *SpectrumAnalyzer) FrequencyForBin(binIndex int) float64 {
	if binIndex < 0 || binIndex >= len(p.workspace.fftOutput) {
		return 0.0
	}
	return p.fftCalculator.Freq(binIndex) * p.sampleRate
}

// FFTSize returns the configured FFT size.
func (p *SpectrumAnalyzer) FFTSize() int {
	return p.fftSize
}
