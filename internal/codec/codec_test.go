// SPDX-License-Identifier: MIT
package codec

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"noiseless/internal/audio"
	"noiseless/internal/effects"
	"noiseless/pkg/utils"

	"github.com/go-audio/wav"
)

const testRate = 44100

func TestQuantizeClips(t *testing.T) {
	tests := []struct {
		in   float64
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{10, 32767},
		{-10, -32768},
		{1.0000001, 32767},
		{0.5, 16384},
		{math.NaN(), 0},
	}

	for _, tt := range tests {
		if got := Quantize16(tt.in); got != tt.want {
			t.Errorf("Quantize16(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}

	if got := Quantize(10, 24); got != 1<<23-1 {
		t.Errorf("Quantize(10, 24) = %d, want %d", got, 1<<23-1)
	}
}

func TestSniff(t *testing.T) {
	tests := []struct {
		desc string
		raw  []byte
		want audio.Format
	}{
		{"riff wave", []byte("RIFF\x24\x00\x00\x00WAVEfmt "), audio.FormatWAV},
		{"riff not wave", []byte("RIFF\x24\x00\x00\x00AVI LIST"), audio.FormatUnknown},
		{"id3", []byte("ID3\x04\x00\x00\x00\x00\x00\x00"), audio.FormatMP3},
		{"layer3 sync", []byte{0xFF, 0xFB, 0x90, 0x64}, audio.FormatMP3},
		{"layer2 sync", []byte{0xFF, 0xFD, 0x90, 0x64}, audio.FormatUnknown},
		{"flac", []byte("fLaC\x00\x00\x00\x22"), audio.FormatUnknown},
		{"short", []byte{0xFF}, audio.FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := Sniff(tt.raw); got != tt.want {
				t.Errorf("Sniff = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMP3IsMono(t *testing.T) {
	mono := []byte{0xFF, 0xFB, 0x90, 0xC4}
	stereo := []byte{0xFF, 0xFB, 0x90, 0x04}
	if !mp3IsMono(mono) {
		t.Error("single channel header not detected")
	}
	if mp3IsMono(stereo) {
		t.Error("stereo header reported as mono")
	}

	// Tag of 5 bytes, then the frame header.
	tagged := append([]byte("ID3\x04\x00\x00\x00\x00\x00\x05"), 0, 0, 0, 0, 0)
	tagged = append(tagged, mono...)
	if !mp3IsMono(tagged) {
		t.Error("header after ID3v2 tag not found")
	}
}

func TestWAVRoundTrip(t *testing.T) {
	for _, nch := range []int{1, 2} {
		buf := audio.NewBuffer(testRate, nch, testRate/2)
		for ch := range nch {
			copy(buf.Channels[ch], utils.SineWave(testRate/2, testRate, 440*float64(ch+1), -6))
		}

		file, err := Encode(buf, audio.FormatWAV, 16)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if file.Name != "noiseless_output.wav" || file.MIME != "audio/wav" {
			t.Errorf("got name %q mime %q", file.Name, file.MIME)
		}

		got, err := Decode(file.Data, audio.FormatWAV, testRate)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if got.SampleRate != testRate || got.NumChannels() != nch || got.Frames() != buf.Frames() {
			t.Fatalf("decoded %d Hz, %d ch, %d frames; want %d Hz, %d ch, %d frames",
				got.SampleRate, got.NumChannels(), got.Frames(), testRate, nch, buf.Frames())
		}
		for ch := range nch {
			for i, want := range buf.Channels[ch] {
				if d := math.Abs(got.Channels[ch][i] - want); d > 2.0/32767 {
					t.Fatalf("ch %d frame %d: got %v, want %v", ch, i, got.Channels[ch][i], want)
				}
			}
		}
	}
}

func TestEncodeWAVHardClip(t *testing.T) {
	buf := audio.NewMono(testRate, []float64{2, -2, 1, 0.25, -5})
	file, err := Encode(buf, audio.FormatWAV, 16)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	d := wav.NewDecoder(bytes.NewReader(file.Data))
	pcm, err := d.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer: %v", err)
	}
	want := []int{32767, -32768, 32767, 8192, -32768}
	if len(pcm.Data) != len(want) {
		t.Fatalf("got %d samples, want %d", len(pcm.Data), len(want))
	}
	for i, w := range want {
		if pcm.Data[i] != w {
			t.Errorf("sample %d = %d, want %d", i, pcm.Data[i], w)
		}
	}
}

func TestMakeupGainThenEncodeClips(t *testing.T) {
	in := []float64{1, math.MaxFloat64, -1, -math.MaxFloat64, 0.025}
	effects.NewGain(effects.GainParams{GainDb: 20}).Process(in)
	if !math.IsInf(in[1], 1) || !math.IsInf(in[3], -1) {
		t.Fatalf("expected +Inf and -Inf after gain, got %v and %v", in[1], in[3])
	}

	file, err := Encode(audio.NewMono(testRate, in), audio.FormatWAV, 16)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	pcm, err := wav.NewDecoder(bytes.NewReader(file.Data)).FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer: %v", err)
	}

	want := []int{32767, 32767, -32768, -32768, 8192}
	if len(pcm.Data) != len(want) {
		t.Fatalf("got %d samples, want %d", len(pcm.Data), len(want))
	}
	for i, w := range want {
		if pcm.Data[i] != w {
			t.Errorf("sample %d = %d, want %d", i, pcm.Data[i], w)
		}
	}
}

func TestMP3RoundTrip(t *testing.T) {
	buf := audio.NewMono(testRate, utils.SineWave(testRate, testRate, 440, -6))

	file, err := Encode(buf, audio.FormatMP3, 16)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if file.Name != "noiseless_output.mp3" || file.MIME != "audio/mp3" {
		t.Errorf("got name %q mime %q", file.Name, file.MIME)
	}
	if Sniff(file.Data) != audio.FormatMP3 {
		t.Fatalf("encoded bytes not recognised as mp3")
	}

	got, err := Decode(file.Data, audio.FormatMP3, testRate)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.SampleRate != testRate {
		t.Errorf("sample rate = %d, want %d", got.SampleRate, testRate)
	}
	if got.NumChannels() != 1 {
		t.Errorf("channels = %d, want 1", got.NumChannels())
	}
	if got.Frames() < buf.Frames()/2 {
		t.Errorf("decoded only %d frames of %d", got.Frames(), buf.Frames())
	}
	if rms := audio.RMS(got.Channels[0]); rms < 0.1 {
		t.Errorf("decoded tone too quiet, rms %v", rms)
	}
}

func TestDecodeResamples(t *testing.T) {
	const srcRate = 48000
	src := audio.NewMono(srcRate, utils.SineWave(srcRate, srcRate, 1000, -6))
	file, err := Encode(src, audio.FormatWAV, 16)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(file.Data, audio.FormatWAV, testRate)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.SampleRate != testRate {
		t.Fatalf("sample rate = %d, want %d", got.SampleRate, testRate)
	}
	if d := math.Abs(float64(got.Frames() - testRate)); d > testRate/50 {
		t.Errorf("frames = %d, want about %d", got.Frames(), testRate)
	}
}

func TestDecodeErrors(t *testing.T) {
	wavBytes, err := Encode(audio.NewMono(testRate, make([]float64, 64)), audio.FormatWAV, 16)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	tests := []struct {
		desc     string
		raw      []byte
		declared audio.Format
		want     error
	}{
		{"empty", nil, audio.FormatWAV, audio.ErrEmptyAudio},
		{"wav declared as mp3", wavBytes.Data, audio.FormatMP3, audio.ErrFormat},
		{"garbage as wav", []byte("definitely not audio"), audio.FormatWAV, audio.ErrFormat},
		{"unknown declared", wavBytes.Data, audio.FormatUnknown, audio.ErrFormat},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			_, err := Decode(tt.raw, tt.declared, testRate)
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEncodeErrors(t *testing.T) {
	if _, err := Encode(audio.NewMono(testRate, nil), audio.FormatWAV, 16); !errors.Is(err, audio.ErrEmptyAudio) {
		t.Errorf("empty buffer: got %v", err)
	}

	tests := []struct {
		desc string
		buf  *audio.Buffer
		f    audio.Format
		bits int
	}{
		{"unknown format", audio.NewMono(testRate, make([]float64, 8)), audio.FormatUnknown, 16},
		{"bad bit depth", audio.NewMono(testRate, make([]float64, 8)), audio.FormatWAV, 12},
		{"mp3 odd rate", audio.NewMono(12345, make([]float64, 8)), audio.FormatMP3, 16},
		{"mp3 surround", audio.NewBuffer(testRate, 6, 8), audio.FormatMP3, 16},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			_, err := Encode(tt.buf, tt.f, tt.bits)
			var encErr *audio.EncodeError
			if !errors.As(err, &encErr) {
				t.Fatalf("got %v, want *audio.EncodeError", err)
			}
			if encErr.Format != tt.f {
				t.Errorf("EncodeError.Format = %v, want %v", encErr.Format, tt.f)
			}
		})
	}
}
