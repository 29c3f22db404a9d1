// SPDX-License-Identifier: MIT
package denoise

import (
	"fmt"

	"noiseless/internal/analysis"
	"noiseless/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
)

// windowSumFloor guards the overlap-add normalisation against division by a
// vanishing window sum.
const windowSumFloor = 1e-10

// STFT frames a signal into centred, windowed, overlapping frames and
// reassembles them with weighted overlap-add.
//
// The signal is treated as if Size/2 zeros were prepended and as many zeros
// appended as the last partial frame needs. Inverse trims that padding, so
// an unmodified spectrum reconstructs the input to within rounding.
type STFT struct {
	fftCalculator *fourier.FFT
	size          int
	hop           int
	window        []float64

	// workspace
	frame  []float64
	coeffs []complex128
}

// NewSTFT creates a transform of the given FFT size and hop. The hop may
// not exceed half the window so that every input sample is covered by a
// frame with non-zero window weight.
func NewSTFT(size, hop int, windowType analysis.WindowFunc) (*STFT, error) {
	if !bitint.IsPowerOfTwo(size) || size < 16 {
		return nil, fmt.Errorf("stft size must be a power of 2 >= 16, got %d", size)
	}
	if hop <= 0 || hop > size/2 {
		return nil, fmt.Errorf("stft hop must be in (0, %d], got %d", size/2, hop)
	}
	return &STFT{
		fftCalculator: fourier.NewFFT(size),
		size:          size,
		hop:           hop,
		window:        analysis.NewWindow(size, windowType),
		frame:         make([]float64, size),
		coeffs:        make([]complex128, size/2+1),
	}, nil
}

// Size returns the frame length.
func (s *STFT) Size() int { return s.size }

// Hop returns the frame advance.
func (s *STFT) Hop() int { return s.hop }

// Bins returns the number of non-negative frequency bins per frame.
func (s *STFT) Bins() int { return s.size/2 + 1 }

// NumFrames returns how many frames cover a signal of length samples.
func (s *STFT) NumFrames(length int) int {
	return 1 + bitint.CeilDiv(length, s.hop)
}

func (s *STFT) pad() int { return s.size / 2 }

// frameAt windows frame f of x and returns its spectrum. The returned slice
// is workspace and is overwritten by the next call.
func (s *STFT) frameAt(x []float64, f int) []complex128 {
	start := f*s.hop - s.pad()
	for i := range s.size {
		j := start + i
		if j >= 0 && j < len(x) {
			s.frame[i] = x[j] * s.window[i]
		} else {
			s.frame[i] = 0
		}
	}
	return s.fftCalculator.Coefficients(s.coeffs, s.frame)
}

// Forward returns the full spectrogram of x, frames by bins.
func (s *STFT) Forward(x []float64) [][]complex128 {
	spec := make([][]complex128, s.NumFrames(len(x)))
	for f := range spec {
		spec[f] = append([]complex128(nil), s.frameAt(x, f)...)
	}
	return spec
}

// Inverse reassembles a spectrogram produced by Forward into length samples.
func (s *STFT) Inverse(spec [][]complex128, length int) []float64 {
	ola := s.newOverlapAdd(length)
	for f, c := range spec {
		ola.add(f, c)
	}
	return ola.result()
}

// overlapAdd accumulates synthesis-windowed frames in padded coordinates.
type overlapAdd struct {
	s      *STFT
	length int
	out    []float64
	wsum   []float64
}

func (s *STFT) newOverlapAdd(length int) *overlapAdd {
	padded := (s.NumFrames(length)-1)*s.hop + s.size
	return &overlapAdd{
		s:      s,
		length: length,
		out:    make([]float64, padded),
		wsum:   make([]float64, padded),
	}
}

// add inverts one frame spectrum and overlaps it into the output.
func (o *overlapAdd) add(f int, coeffs []complex128) {
	s := o.s
	s.fftCalculator.Sequence(s.frame, coeffs)
	// gonum's inverse is unnormalised.
	norm := 1 / float64(s.size)
	base := f * s.hop
	for i, v := range s.frame {
		w := s.window[i]
		o.out[base+i] += v * norm * w
		o.wsum[base+i] += w * w
	}
}

// result divides out the summed squared window and trims the padding.
func (o *overlapAdd) result() []float64 {
	y := make([]float64, o.length)
	pad := o.s.pad()
	for j := range y {
		if ws := o.wsum[pad+j]; ws > windowSumFloor {
			y[j] = o.out[pad+j] / ws
		}
	}
	return y
}
