// SPDX-License-Identifier: MIT
package denoise

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// magnitudeFloor keeps log magnitudes finite for silent bins.
const magnitudeFloor = 1e-10

func magnitudeToDb(m float64) float64 {
	return 20 * math.Log10(math.Max(m, magnitudeFloor))
}

// NoiseProfile is a stationary per-bin noise estimate: one threshold per
// frequency bin, applied to every frame of the clip it was computed from.
type NoiseProfile struct {
	Mean       []float64 // dB
	Std        []float64 // dB
	Threshold  []float64 // Mean + nStd*Std, dB
	Stationary bool
}

// EstimateProfile computes the profile from a frames x bins matrix of log
// magnitudes.
func EstimateProfile(db [][]float32, nStd float64) *NoiseProfile {
	bins := 0
	if len(db) > 0 {
		bins = len(db[0])
	}
	p := &NoiseProfile{
		Mean:       make([]float64, bins),
		Std:        make([]float64, bins),
		Threshold:  make([]float64, bins),
		Stationary: true,
	}

	column := make([]float64, len(db))
	for k := range bins {
		for f, row := range db {
			column[f] = float64(row[k])
		}
		mean, std := stat.MeanStdDev(column, nil)
		if math.IsNaN(std) {
			std = 0
		}
		p.Mean[k] = mean
		p.Std[k] = std
		p.Threshold[k] = mean + nStd*std
	}
	return p
}

// FloorDb returns the mean threshold across bins, a rough noise floor for logs.
func (p *NoiseProfile) FloorDb() float64 {
	if len(p.Threshold) == 0 {
		return math.Inf(-1)
	}
	return floats.Sum(p.Threshold) / float64(len(p.Threshold))
}
