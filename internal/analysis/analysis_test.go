// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"strings"
	"testing"

	"noiseless/internal/audio"
	"noiseless/pkg/utils"
)

const testSampleRate = 44100

func TestParseWindowFunc(t *testing.T) {
	tests := []struct {
		name    string
		want    WindowFunc
		wantErr bool
	}{
		{"Hann", Hann, false},
		{"hanning", Hann, false},
		{"", Hann, false},
		{"BLACKMAN", Blackman, false},
		{"hamming", Hamming, false},
		{"triangle", Hann, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWindowFunc(tt.name)
			if got != tt.want {
				t.Errorf("ParseWindowFunc(%q) = %v, want %v", tt.name, got, tt.want)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseWindowFunc(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
		})
	}
}

func TestNewWindowHann(t *testing.T) {
	w := NewWindow(1024, Hann)
	if w[0] > 1e-12 || w[len(w)-1] > 1e-12 {
		t.Errorf("Hann endpoints should be zero, got %v and %v", w[0], w[len(w)-1])
	}
	mid := w[len(w)/2]
	if mid < 0.99 {
		t.Errorf("Hann centre should be close to 1, got %v", mid)
	}
}

func TestNewSpectrumAnalyzerValidation(t *testing.T) {
	if _, err := NewSpectrumAnalyzer(1000, testSampleRate, Hann); err == nil || !strings.Contains(err.Error(), "power of 2") {
		t.Errorf("expected power of 2 error, got %v", err)
	}
	if _, err := NewSpectrumAnalyzer(1024, 0, Hann); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestSpectrumPeakBin(t *testing.T) {
	p, err := NewSpectrumAnalyzer(2048, testSampleRate, Hann)
	if err != nil {
		t.Fatal(err)
	}

	signal := utils.SineWave(testSampleRate, testSampleRate, 1000, -6)
	mags := p.Average(signal)

	peak := utils.FindPeakBin(mags, 0, len(mags)-1)
	freq := p.FrequencyForBin(peak)
	resolution := float64(testSampleRate) / 2048
	if math.Abs(freq-1000) > resolution {
		t.Errorf("peak at %.1f Hz, want 1000 Hz +/- %.1f", freq, resolution)
	}
}

func TestAnalyzeReport(t *testing.T) {
	signal := utils.SineWave(testSampleRate, testSampleRate, 100, -20)
	r, err := Analyze(audio.NewMono(testSampleRate, signal))
	if err != nil {
		t.Fatal(err)
	}

	// A sine at -20 dBFS peak has an RMS of -23 dBFS.
	if math.Abs(r.RMSDb+23.01) > 0.1 {
		t.Errorf("RMSDb = %.2f, want -23.01", r.RMSDb)
	}
	if math.Abs(r.PeakDb+20) > 0.1 {
		t.Errorf("PeakDb = %.2f, want -20", r.PeakDb)
	}

	var bass, treble float64
	for _, b := range r.Bands {
		switch b.Name {
		case "bass":
			bass = b.Db
		case "treble":
			treble = b.Db
		}
	}
	if bass <= treble {
		t.Errorf("100 Hz tone should put more energy in bass (%.1f) than treble (%.1f)", bass, treble)
	}
	if !strings.Contains(r.String(), "bass=") {
		t.Errorf("String() missing band levels: %s", r)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	_, err := Analyze(audio.NewMono(testSampleRate, nil))
	if err == nil {
		t.Fatal("expected error for empty buffer")
	}
}
