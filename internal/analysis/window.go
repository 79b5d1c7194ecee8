// SPDX-License-Identifier: MIT
package analysis

import "math"

// HanningWindow returns an n-point raised-cosine taper,
// w[i] = 0.5 * (1 - cos(2πi/(n-1))).
// The endpoints are zero and the midpoint is ~1.0. The analyzer recomputes
// the table whenever the buffer size changes; n must be >= 2.
func HanningWindow(n int) []float64 {
	window := make([]float64, n)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return window
}
