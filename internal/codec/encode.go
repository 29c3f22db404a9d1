// SPDX-License-Identifier: MIT
package codec

import (
	"bytes"
	"fmt"
	"os"

	"noiseless/internal/audio"
	"noiseless/internal/log"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	shine "github.com/braheezy/shine-mp3/pkg/mp3"
)

// Sample rates the MP3 encoder accepts.
var mp3SampleRates = map[int]bool{
	8000: true, 11025: true, 12000: true,
	16000: true, 22050: true, 24000: true,
	32000: true, 44100: true, 48000: true,
}

// Encode quantizes buf and writes it as f. WAV keeps bitDepth, MP3 is always
// fed 16-bit PCM and written at the encoder's default bitrate. All failures
// are returned as *audio.EncodeError.
func Encode(buf *audio.Buffer, f audio.Format, bitDepth int) (*audio.EncodedFile, error) {
	if buf.Frames() == 0 {
		return nil, &audio.EmptyAudioError{Stage: "encode"}
	}

	var (
		data []byte
		err  error
	)
	switch f {
	case audio.FormatWAV:
		data, err = encodeWAV(buf, bitDepth)
	case audio.FormatMP3:
		data, err = encodeMP3(buf)
	default:
		err = fmt.Errorf("no encoder for format %s", f)
	}
	if err != nil {
		return nil, &audio.EncodeError{Format: f, Err: err}
	}

	log.Debugf("codec: encoded %d frames as %s, %d bytes", buf.Frames(), f, len(data))
	return &audio.EncodedFile{
		Name:   f.OutputName(),
		MIME:   f.MIME(),
		Format: f,
		Data:   data,
	}, nil
}

// encodeWAV goes through a temporary file because the WAV encoder needs to
// seek back and patch the chunk sizes on Close.
func encodeWAV(buf *audio.Buffer, bitDepth int) (data []byte, err error) {
	if err := checkBitDepth(bitDepth); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "noiseless-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer func() {
		if cerr := tmp.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	nch := buf.NumChannels()
	enc := wav.NewEncoder(tmp, buf.SampleRate, bitDepth, nch, wavFormatPCM)

	interleaved := buf.Interleaved()
	ints := make([]int, len(interleaved))
	for i, s := range interleaved {
		ints[i] = Quantize(s, bitDepth)
	}

	pcm := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: nch, SampleRate: buf.SampleRate},
		Data:           ints,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(pcm); err != nil {
		return nil, fmt.Errorf("failed to write wav data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize wav: %w", err)
	}

	data, err = os.ReadFile(tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to read encoded wav: %w", err)
	}
	return data, nil
}

func encodeMP3(buf *audio.Buffer) ([]byte, error) {
	if !mp3SampleRates[buf.SampleRate] {
		return nil, fmt.Errorf("mp3 does not support %d Hz", buf.SampleRate)
	}
	nch := buf.NumChannels()
	if nch > 2 {
		return nil, fmt.Errorf("mp3 supports at most 2 channels, got %d", nch)
	}

	interleaved := buf.Interleaved()
	pcm := make([]int16, len(interleaved))
	for i, s := range interleaved {
		pcm[i] = Quantize16(s)
	}

	var out bytes.Buffer
	enc := shine.NewEncoder(buf.SampleRate, nch)
	if err := enc.Write(&out, pcm); err != nil {
		return nil, fmt.Errorf("failed to write mp3 data: %w", err)
	}
	return out.Bytes(), nil
}
