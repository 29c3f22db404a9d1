/*
Package bitint provides the integer helpers used to size STFT frames.

Usage:

	// Round a requested window length up to an FFT friendly size
	fftSize := bitint.NextPowerOfTwo(1000) // Returns 1024

	// Reject sizes the transform cannot use
	isValid := bitint.IsPowerOfTwo(fftSize)

	// Number of hops needed to cover a signal
	frames := bitint.CeilDiv(len(samples), hop)

NextPowerOfTwo subtracts one before taking the bit length so that exact
powers of two map to themselves: 8-1 = 0b0111 has length 3 and 1<<3 = 8,
whereas the length of 0b1000 is 4 and would double the input.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size, and 1 for
// size <= 0.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2.
// Powers of two have exactly one bit set, so n&(n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// CeilDiv returns ceil(a/b) for a >= 0 and b > 0.
func CeilDiv(a, b int) int {
	return (a + b - 1) / b
}
