// SPDX-License-Identifier: MIT
/*
Package bitint provides power-of-two helpers for FFT and capture buffer
sizing. All operations are O(1), allocation-free and real-time safe.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size.
// Exact powers of 2 are preserved; zero and negative inputs return 1.
//
// The size-1 subtraction keeps exact powers from being doubled:
// bits.Len64(8-1) = 3, 1<<3 = 8, while bits.Len64(8) = 4 would yield 16.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}

	// 64-bit platforms (where int is 64-bit)
	if ^uint(0)>>63 == 0 {
		return int(1 << (bits.Len64(uint64(size - 1))))
	}

	// 32-bit platforms
	return int(1 << (bits.Len32(uint32(size - 1))))
}

// IsPowerOfTwo reports whether n is a power of 2. Powers of 2 have exactly
// one bit set, so n & (n-1) clears to zero only for them.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
