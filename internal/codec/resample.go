// SPDX-License-Identifier: MIT
package codec

import (
	"fmt"

	"noiseless/internal/audio"
	"noiseless/internal/log"

	resampler "github.com/tphakala/go-audio-resampler"
)

// Resample converts every channel of buf to targetRate with a high quality
// polyphase resampler. Channels are trimmed to a common length afterwards.
func Resample(buf *audio.Buffer, targetRate int) (*audio.Buffer, error) {
	if targetRate <= 0 {
		return nil, fmt.Errorf("target sample rate must be positive, got %d", targetRate)
	}
	if buf.SampleRate == targetRate {
		return buf, nil
	}

	out := &audio.Buffer{SampleRate: targetRate, Channels: make([][]float64, buf.NumChannels())}
	frames := -1
	for ch, data := range buf.Channels {
		res, err := resampler.ResampleMono(data, float64(buf.SampleRate), float64(targetRate), resampler.QualityHigh)
		if err != nil {
			return nil, fmt.Errorf("failed to resample channel %d from %d to %d Hz: %w", ch, buf.SampleRate, targetRate, err)
		}
		out.Channels[ch] = res
		if frames < 0 || len(res) < frames {
			frames = len(res)
		}
	}
	for ch := range out.Channels {
		out.Channels[ch] = out.Channels[ch][:frames]
	}
	if frames == 0 {
		return nil, &audio.EmptyAudioError{Stage: "resample"}
	}

	log.Debugf("codec: resampled %d -> %d Hz, %d -> %d frames", buf.SampleRate, targetRate, buf.Frames(), frames)
	return out, nil
}
