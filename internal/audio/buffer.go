// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"math"
)

// DownmixMode selects how a multi-channel Buffer collapses to mono.
type DownmixMode int

const (
	DownmixFirst   DownmixMode = iota // Keep channel 0, drop the rest.
	DownmixAverage                    // Average all channels per frame.
)

// ParseDownmix converts a config name to a DownmixMode.
func ParseDownmix(name string) (DownmixMode, error) {
	switch name {
	case "", "first":
		return DownmixFirst, nil
	case "average", "avg":
		return DownmixAverage, nil
	default:
		return DownmixFirst, fmt.Errorf("unknown downmix mode: '%s'", name)
	}
}

// Buffer is planar floating point audio. Samples are nominally in [-1, 1]
// but stages after the effects chain may exceed that range; clipping is the
// encoder's job.
//
// Every channel slice has the same length. A Buffer is owned by one pipeline
// run and is mutated in place by each stage.
type Buffer struct {
	Channels   [][]float64 // One slice per channel, all len == Frames().
	SampleRate int         // Hz
}

// NewBuffer allocates a zeroed buffer.
func NewBuffer(sampleRate, numChannels, frames int) *Buffer {
	chans := make([][]float64, numChannels)
	for i := range chans {
		chans[i] = make([]float64, frames)
	}
	return &Buffer{Channels: chans, SampleRate: sampleRate}
}

// NewMono wraps samples in a single channel buffer without copying.
func NewMono(sampleRate int, samples []float64) *Buffer {
	return &Buffer{Channels: [][]float64{samples}, SampleRate: sampleRate}
}

// NumChannels returns the channel count.
func (b *Buffer) NumChannels() int {
	return len(b.Channels)
}

// Frames returns the number of frames, zero for a buffer without channels.
func (b *Buffer) Frames() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Validate checks the shape invariants and that every sample is finite.
func (b *Buffer) Validate() error {
	if b.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", b.SampleRate)
	}
	if len(b.Channels) == 0 {
		return fmt.Errorf("buffer has no channels")
	}
	frames := len(b.Channels[0])
	for ch, data := range b.Channels {
		if len(data) != frames {
			return fmt.Errorf("channel %d has %d frames, channel 0 has %d", ch, len(data), frames)
		}
		for i, s := range data {
			if math.IsNaN(s) || math.IsInf(s, 0) {
				return fmt.Errorf("non-finite sample at channel %d frame %d", ch, i)
			}
		}
	}
	return nil
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{Channels: make([][]float64, len(b.Channels)), SampleRate: b.SampleRate}
	for i, data := range b.Channels {
		out.Channels[i] = append([]float64(nil), data...)
	}
	return out
}

// Mono collapses the buffer to a single channel. A mono buffer is returned
// as is.
func (b *Buffer) Mono(mode DownmixMode) *Buffer {
	if len(b.Channels) <= 1 {
		return b
	}
	if mode == DownmixFirst {
		return NewMono(b.SampleRate, b.Channels[0])
	}

	frames := b.Frames()
	mix := make([]float64, frames)
	scale := 1 / float64(len(b.Channels))
	for _, data := range b.Channels {
		for i, s := range data {
			mix[i] += s * scale
		}
	}
	return NewMono(b.SampleRate, mix)
}

// Interleaved returns the samples frame by frame, channel by channel.
func (b *Buffer) Interleaved() []float64 {
	nch := len(b.Channels)
	out := make([]float64, b.Frames()*nch)
	for ch, data := range b.Channels {
		for i, s := range data {
			out[i*nch+ch] = s
		}
	}
	return out
}
