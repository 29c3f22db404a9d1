// Package utils generates deterministic test signals. Levels are given in
// dBFS: peak level for tones, RMS level for noise.
package utils

import "math"

// Noise is a deterministic white noise source. The same seed always yields
// the same sequence so tests stay reproducible across runs and platforms.
type Noise struct {
	state uint32
}

// NewNoise creates a noise source from seed.
func NewNoise(seed uint32) *Noise {
	return &Noise{state: seed}
}

// Next returns a uniformly distributed sample in [-1, 1).
func (n *Noise) Next() float64 {
	n.state = n.state*1664525 + 1013904223
	return float64(n.state)/float64(1<<31) - 1
}

// SineWave returns frames samples of a sine with the given peak level.
func SineWave(frames int, sampleRate, frequency, peakDBFS float64) []float64 {
	amp := math.Pow(10, peakDBFS/20)
	out := make([]float64, frames)
	for i := range out {
		t := float64(i) / sampleRate
		out[i] = amp * math.Sin(2*math.Pi*frequency*t)
	}
	return out
}

// WhiteNoise returns frames samples of uniform white noise with the given
// RMS level.
func WhiteNoise(frames int, rmsDBFS float64, seed uint32) []float64 {
	// Uniform noise on [-a, a) has an RMS of a/sqrt(3).
	amp := math.Pow(10, rmsDBFS/20) * math.Sqrt(3)
	n := NewNoise(seed)
	out := make([]float64, frames)
	for i := range out {
		out[i] = amp * n.Next()
	}
	return out
}

// Mix adds src into dst sample by sample over the shorter of the two.
func Mix(dst, src []float64) []float64 {
	for i := range min(len(dst), len(src)) {
		dst[i] += src[i]
	}
	return dst
}

// Span is a time range in seconds.
type Span struct {
	Start, End float64
}

// Frames converts the span to a half-open frame range clipped to total.
func (s Span) Frames(sampleRate float64, total int) (int, int) {
	from := max(0, int(s.Start*sampleRate))
	to := min(total, int(s.End*sampleRate))
	return from, max(from, to)
}

// Silence zeroes x over every span.
func Silence(x []float64, sampleRate float64, spans ...Span) []float64 {
	for _, s := range spans {
		from, to := s.Frames(sampleRate, len(x))
		clear(x[from:to])
	}
	return x
}

// Slice returns the part of x covered by span.
func Slice(x []float64, sampleRate float64, span Span) []float64 {
	from, to := span.Frames(sampleRate, len(x))
	return x[from:to]
}

// FindPeakBin returns the index of the largest magnitude in [startBin, endBin].
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}
	startBin = max(startBin, 0)
	endBin = min(endBin, len(magnitudes)-1)

	peakBin := startBin
	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > magnitudes[peakBin] {
			peakBin = bin
		}
	}
	return peakBin
}
