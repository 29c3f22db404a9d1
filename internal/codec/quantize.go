// SPDX-License-Identifier: MIT
package codec

import (
	"fmt"
	"math"
)

// Quantize converts a float sample to a signed integer of bitDepth bits.
// Full scale 1.0 maps to the largest positive code; anything beyond the
// representable range is hard clipped, never wrapped.
func Quantize(x float64, bitDepth int) int {
	maxCode := float64(int64(1)<<(bitDepth-1) - 1)
	minCode := -maxCode - 1
	if math.IsNaN(x) {
		return 0
	}
	return int(math.Max(minCode, math.Min(maxCode, math.Round(x*maxCode))))
}

// Quantize16 is Quantize for 16-bit PCM.
func Quantize16(x float64) int16 {
	return int16(Quantize(x, 16))
}

// checkBitDepth returns an error for depths the encoders cannot write.
func checkBitDepth(bitDepth int) error {
	switch bitDepth {
	case 16, 24:
		return nil
	default:
		return fmt.Errorf("unsupported bit depth %d, want 16 or 24", bitDepth)
	}
}
