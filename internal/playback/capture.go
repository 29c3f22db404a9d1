// SPDX-License-Identifier: MIT
package playback

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"noiseless/internal/audio"
	"noiseless/internal/log"

	"github.com/gordonklaus/portaudio"
)

// CaptureOptions configures Capture.
type CaptureOptions struct {
	DeviceID        int     // DefaultDeviceID for the host default
	Channels        int     // 0 means mono
	SampleRate      float64 // 0 means the device default
	FramesPerBuffer int
	MaxDuration     time.Duration // 0 records until ctx is cancelled
}

const int32Scale = 1.0 / (math.MaxInt32 + 1.0)

// Capture records from an input device until MaxDuration elapses or ctx is
// cancelled. Cancellation is the normal way to stop an open-ended recording
// and returns what was captured so far without an error. PortAudio must be
// initialized.
func Capture(ctx context.Context, opts CaptureOptions) (*audio.Buffer, error) {
	if opts.Channels <= 0 {
		opts.Channels = 1
	}
	if opts.FramesPerBuffer <= 0 {
		opts.FramesPerBuffer = DefaultFramesPerBuffer
	}

	device, err := InputDevice(opts.DeviceID)
	if err != nil {
		return nil, err
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = device.DefaultSampleRate
	}
	if device.MaxInputChannels > 0 && opts.Channels > device.MaxInputChannels {
		return nil, fmt.Errorf("device %s has %d input channels, %d requested", device.Name, device.MaxInputChannels, opts.Channels)
	}

	in := make([]int32, opts.FramesPerBuffer*opts.Channels)
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: opts.Channels,
			Latency:  device.DefaultHighInputLatency,
		},
		SampleRate:      opts.SampleRate,
		FramesPerBuffer: opts.FramesPerBuffer,
	}

	s, err := openStream(params, in)
	if err != nil {
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}
	defer s.Close()
	if err := s.Start(); err != nil {
		return nil, fmt.Errorf("failed to start input stream: %w", err)
	}
	log.Infof("Capture: recording %d ch at %.0f Hz from %s", opts.Channels, opts.SampleRate, device.Name)

	maxFrames := int(opts.MaxDuration.Seconds() * opts.SampleRate)
	buf := audio.NewBuffer(int(opts.SampleRate), opts.Channels, 0)
	for maxFrames == 0 || buf.Frames() < maxFrames {
		if ctx.Err() != nil {
			break
		}
		if err := s.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
			s.Stop()
			return nil, fmt.Errorf("failed to read from input stream: %w", err)
		}
		appendInterleaved(buf, in)
	}
	if err := s.Stop(); err != nil {
		log.Warnf("Capture: failed to stop stream: %v", err)
	}

	if maxFrames > 0 && buf.Frames() > maxFrames {
		for ch := range buf.Channels {
			buf.Channels[ch] = buf.Channels[ch][:maxFrames]
		}
	}
	if buf.Frames() == 0 {
		return nil, &audio.EmptyAudioError{Stage: "capture"}
	}
	log.Infof("Capture: %.1fs recorded", buf.Duration())
	return buf, nil
}

// appendInterleaved de-interleaves one block of 32-bit samples onto buf.
func appendInterleaved(buf *audio.Buffer, in []int32) {
	nch := buf.NumChannels()
	for i := 0; i+nch <= len(in); i += nch {
		for ch := range nch {
			buf.Channels[ch] = append(buf.Channels[ch], float64(in[i+ch])*int32Scale)
		}
	}
}
