// SPDX-License-Identifier: MIT
package playback

import (
	"context"
	"fmt"

	"noiseless/internal/audio"
	"noiseless/internal/log"

	"github.com/gordonklaus/portaudio"
)

// DefaultFramesPerBuffer is the blocking write size.
const DefaultFramesPerBuffer = 1024

// stream is the part of *portaudio.Stream used for blocking I/O.
type stream interface {
	Start() error
	Read() error
	Write() error
	Stop() error
	Close() error
}

// openStream opens a blocking stream; buf is []float32 for output or
// []int32 for input.
var openStream = func(p portaudio.StreamParameters, buf any) (stream, error) {
	s, err := portaudio.OpenStream(p, buf)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Options configures Play.
type Options struct {
	DeviceID        int // DefaultDeviceID for the host default
	FramesPerBuffer int
}

// Play writes buf to the output device and blocks until it has been handed
// to PortAudio or ctx is cancelled. PortAudio must be initialized.
func Play(ctx context.Context, buf *audio.Buffer, opts Options) error {
	if buf.Frames() == 0 {
		return &audio.EmptyAudioError{Stage: "playback"}
	}
	if opts.FramesPerBuffer <= 0 {
		opts.FramesPerBuffer = DefaultFramesPerBuffer
	}

	device, err := OutputDevice(opts.DeviceID)
	if err != nil {
		return err
	}
	nch := buf.NumChannels()
	if device.MaxOutputChannels > 0 && nch > device.MaxOutputChannels {
		buf = buf.Mono(audio.DownmixAverage)
		nch = 1
	}

	out := make([]float32, opts.FramesPerBuffer*nch)
	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: nch,
			Latency:  device.DefaultHighOutputLatency,
		},
		SampleRate:      float64(buf.SampleRate),
		FramesPerBuffer: opts.FramesPerBuffer,
	}

	s, err := openStream(params, out)
	if err != nil {
		return fmt.Errorf("failed to open output stream: %w", err)
	}
	defer s.Close()

	if err := s.Start(); err != nil {
		return fmt.Errorf("failed to start output stream: %w", err)
	}
	log.Infof("Playback: %.1fs, %d ch, %d Hz on %s", buf.Duration(), nch, buf.SampleRate, device.Name)

	for pos := 0; pos < buf.Frames(); pos += opts.FramesPerBuffer {
		if err := ctx.Err(); err != nil {
			s.Stop()
			return err
		}
		fillInterleaved(out, buf, pos)
		if err := s.Write(); err != nil {
			s.Stop()
			return fmt.Errorf("failed to write to output stream: %w", err)
		}
	}
	return s.Stop()
}

// fillInterleaved copies frames from pos into out, zero padding past the
// end of buf.
func fillInterleaved(out []float32, buf *audio.Buffer, pos int) {
	nch := buf.NumChannels()
	frames := len(out) / nch
	total := buf.Frames()
	for i := range frames {
		for ch := range nch {
			var s float32
			if pos+i < total {
				s = float32(buf.Channels[ch][pos+i])
			}
			out[i*nch+ch] = s
		}
	}
}
