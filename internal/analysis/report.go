// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"strings"

	"noiseless/internal/audio"
)

const reportFFTSize = 2048

// Report summarises the level of a buffer. The pipeline takes one before
// and one after processing.
type Report struct {
	Frames     int         `json:"frames"`
	SampleRate int         `json:"sample_rate"`
	RMSDb      float64     `json:"rms_db"`
	PeakDb     float64     `json:"peak_db"`
	Bands      []BandLevel `json:"bands"`
}

// Analyze measures channel 0 of buf.
func Analyze(buf *audio.Buffer) (Report, error) {
	r := Report{Frames: buf.Frames(), SampleRate: buf.SampleRate}
	if buf.Frames() == 0 {
		return r, &audio.EmptyAudioError{Stage: "analyze"}
	}

	samples := buf.Channels[0]
	r.RMSDb = audio.LinearToDb(audio.RMS(samples))
	r.PeakDb = audio.LinearToDb(audio.Peak(samples))

	p, err := NewSpectrumAnalyzer(reportFFTSize, float64(buf.SampleRate), Hann)
	if err != nil {
		return r, fmt.Errorf("failed to create spectrum analyzer: %w", err)
	}
	r.Bands = BandEnergies(p, p.Average(samples), DefaultBands)
	return r, nil
}

// String renders the report on one line for logs.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rms=%.1fdB peak=%.1fdB", r.RMSDb, r.PeakDb)
	for _, band := range r.Bands {
		fmt.Fprintf(&b, " %s=%.1f", band.Name, band.Db)
	}
	return b.String()
}
