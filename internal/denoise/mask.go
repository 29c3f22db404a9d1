// SPDX-License-Identifier: MIT
package denoise

import "gonum.org/v1/gonum/floats"

// triangle returns a normalised triangular kernel of length 2n+1.
func triangle(n int) []float64 {
	n = max(n, 0)
	k := make([]float64, 2*n+1)
	for i := range k {
		d := i - n
		if d < 0 {
			d = -d
		}
		k[i] = float64(n+1-d) / float64(n+1)
	}
	floats.Scale(1/floats.Sum(k), k)
	return k
}

// convolveSame writes the centred convolution of src with kernel into dst,
// treating samples outside src as zero.
func convolveSame(dst, src, kernel []float64) {
	half := len(kernel) / 2
	for i := range src {
		var acc float64
		for j, kv := range kernel {
			idx := i + j - half
			if idx >= 0 && idx < len(src) {
				acc += src[idx] * kv
			}
		}
		dst[i] = acc
	}
}

// smoothMask blurs a frames x bins mask with the separable product of a
// frequency and a time kernel.
func smoothMask(mask [][]float32, freqKernel, timeKernel []float64) {
	if len(mask) == 0 {
		return
	}
	bins := len(mask[0])

	if len(freqKernel) > 1 {
		src := make([]float64, bins)
		dst := make([]float64, bins)
		for _, row := range mask {
			for k, v := range row {
				src[k] = float64(v)
			}
			convolveSame(dst, src, freqKernel)
			for k, v := range dst {
				row[k] = float32(v)
			}
		}
	}

	if len(timeKernel) > 1 {
		src := make([]float64, len(mask))
		dst := make([]float64, len(mask))
		for k := range bins {
			for f, row := range mask {
				src[f] = float64(row[k])
			}
			convolveSame(dst, src, timeKernel)
			for f, row := range mask {
				row[k] = float32(dst[f])
			}
		}
	}
}
