// SPDX-License-Identifier: MIT
package analysis

import "math"

// FrequencyBand names a frequency range for energy reporting.
type FrequencyBand struct {
	Name   string
	LowHz  float64
	HighHz float64
}

// DefaultBands splits the spectrum the way speech cleanup is usually judged:
// rumble, the shelf region, voice fundamentals and presence, and hiss.
var DefaultBands = []FrequencyBand{
	{Name: "sub", LowHz: 20, HighHz: 60},
	{Name: "bass", LowHz: 60, HighHz: 250},
	{Name: "lowMid", LowHz: 250, HighHz: 500},
	{Name: "mid", LowHz: 500, HighHz: 2000},
	{Name: "highMid", LowHz: 2000, HighHz: 4000},
	{Name: "treble", LowHz: 4000, HighHz: math.Inf(1)},
}

// BandLevel is the mean bin power of one band expressed in dB.
type BandLevel struct {
	Name string  `json:"name"`
	Db   float64 `json:"db"`
}

// BandEnergies averages the squared magnitudes falling into each band.
// Bands without any bins report -Inf clamped to -200 dB.
func BandEnergies(p *SpectrumAnalyzer, magnitudes []float64, bands []FrequencyBand) []BandLevel {
	sums := make([]float64, len(bands))
	counts := make([]int, len(bands))

	for i, m := range magnitudes {
		freq := p.FrequencyForBin(i)
		for b, band := range bands {
			if freq >= band.LowHz && freq < band.HighHz {
				sums[b] += m * m
				counts[b]++
				break
			}
		}
	}

	levels := make([]BandLevel, len(bands))
	for b, band := range bands {
		db := -200.0
		if counts[b] > 0 && sums[b] > 0 {
			db = math.Max(10*math.Log10(sums[b]/float64(counts[b])), -200)
		}
		levels[b] = BandLevel{Name: band.Name, Db: db}
	}
	return levels
}
