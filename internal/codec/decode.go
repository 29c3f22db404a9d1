// SPDX-License-Identifier: MIT

// Package codec converts between container bytes and audio.Buffer: WAV and
// MP3 decoding with resampling to the pipeline rate, and 16-bit WAV or MP3
// encoding with hard clipping.
package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"noiseless/internal/audio"
	"noiseless/internal/log"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
)

// WAV format tags accepted as integer PCM.
const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// Decode parses raw as the declared format, checks the bytes really are that
// format and resamples to targetRate. The whole stream is decoded in memory.
func Decode(raw []byte, declared audio.Format, targetRate int) (*audio.Buffer, error) {
	if declared != audio.FormatWAV && declared != audio.FormatMP3 {
		return nil, &audio.FormatError{Declared: declared.String(), Reason: "only WAV and MP3 are supported"}
	}
	if len(raw) == 0 {
		return nil, &audio.EmptyAudioError{Stage: "decode"}
	}
	if sniffed := Sniff(raw); sniffed != declared {
		return nil, &audio.FormatError{
			Declared: declared.String(),
			Reason:   fmt.Sprintf("content does not look like %s (detected %s)", declared, sniffed),
		}
	}

	var (
		buf *audio.Buffer
		err error
	)
	switch declared {
	case audio.FormatWAV:
		buf, err = decodeWAV(raw)
	case audio.FormatMP3:
		buf, err = decodeMP3(raw)
	}
	if err != nil {
		return nil, err
	}
	if buf.Frames() == 0 {
		return nil, &audio.EmptyAudioError{Stage: "decode"}
	}
	log.Debugf("codec: decoded %s, %d ch, %d Hz, %d frames", declared, buf.NumChannels(), buf.SampleRate, buf.Frames())

	if buf.SampleRate != targetRate {
		buf, err = Resample(buf, targetRate)
		if err != nil {
			return nil, err
		}
	}
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("decoded audio invalid: %w", err)
	}
	return buf, nil
}

func decodeWAV(raw []byte) (*audio.Buffer, error) {
	d := wav.NewDecoder(bytes.NewReader(raw))
	if !d.IsValidFile() {
		return nil, &audio.FormatError{Declared: "wav", Reason: "invalid WAV header"}
	}
	if d.WavAudioFormat != wavFormatPCM && d.WavAudioFormat != wavFormatExtensible {
		return nil, &audio.FormatError{
			Declared: "wav",
			Reason:   fmt.Sprintf("unsupported WAV encoding 0x%X, only integer PCM", d.WavAudioFormat),
		}
	}

	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return nil, &audio.FormatError{Declared: "wav", Reason: fmt.Sprintf("failed to read PCM data: %v", err)}
	}
	if pcm.Format == nil || pcm.Format.NumChannels <= 0 {
		return nil, &audio.FormatError{Declared: "wav", Reason: "missing channel information"}
	}

	bitDepth := pcm.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(d.BitDepth)
	}
	return fromIntBuffer(pcm, bitDepth)
}

// fromIntBuffer de-interleaves go-audio PCM into float channels in [-1, 1).
func fromIntBuffer(pcm *goaudio.IntBuffer, bitDepth int) (*audio.Buffer, error) {
	if bitDepth < 8 || bitDepth > 32 {
		return nil, &audio.FormatError{Declared: "wav", Reason: fmt.Sprintf("unsupported bit depth %d", bitDepth)}
	}
	nch := pcm.Format.NumChannels
	frames := len(pcm.Data) / nch
	buf := audio.NewBuffer(pcm.Format.SampleRate, nch, frames)

	scale := 1 / float64(int64(1)<<(bitDepth-1))
	offset := 0
	if bitDepth == 8 {
		offset = 128 // 8-bit WAV is unsigned
	}
	for i := range frames {
		for ch := range nch {
			buf.Channels[ch][i] = float64(pcm.Data[i*nch+ch]-offset) * scale
		}
	}
	return buf, nil
}

func decodeMP3(raw []byte) (*audio.Buffer, error) {
	d, err := gomp3.NewDecoder(bytes.NewReader(raw))
	if err != nil {
		return nil, &audio.FormatError{Declared: "mp3", Reason: fmt.Sprintf("failed to create mp3 decoder: %v", err)}
	}
	pcm, err := io.ReadAll(d)
	if err != nil {
		return nil, &audio.FormatError{Declared: "mp3", Reason: fmt.Sprintf("mp3 decode error: %v", err)}
	}

	// go-mp3 always yields 16-bit little endian stereo.
	const bytesPerFrame = 4
	frames := len(pcm) / bytesPerFrame
	nch := 2
	if mp3IsMono(raw) {
		nch = 1 // both output channels carry the same samples
	}

	buf := audio.NewBuffer(d.SampleRate(), nch, frames)
	const scale = 1.0 / 32768
	for i := range frames {
		for ch := range nch {
			s := int16(binary.LittleEndian.Uint16(pcm[i*bytesPerFrame+ch*2:]))
			buf.Channels[ch][i] = float64(s) * scale
		}
	}
	return buf, nil
}
