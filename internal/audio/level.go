// SPDX-License-Identifier: MIT
package audio

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// SilenceFloorDb is reported for zero-energy signals instead of -Inf.
const SilenceFloorDb = -96.0

// DbToLinear converts decibels to an amplitude ratio.
func DbToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDb converts an amplitude ratio to decibels, clamped to SilenceFloorDb.
func LinearToDb(v float64) float64 {
	if v <= 0 {
		return SilenceFloorDb
	}
	return math.Max(20*math.Log10(v), SilenceFloorDb)
}

// RMS returns the root mean square of x, zero for an empty slice.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(x, x) / float64(len(x)))
}

// Peak returns the largest absolute sample value.
func Peak(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Max(math.Abs(floats.Max(x)), math.Abs(floats.Min(x)))
}
