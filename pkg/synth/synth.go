// SPDX-License-Identifier: MIT
// Package synth generates deterministic 16-bit PCM test signals.
// It backs the synthetic capture source and the analysis test fixtures.
package synth

import "math"

// Sine fills dst with a sine wave of the given frequency (Hz) at the given
// sample rate, scaled by amplitude in [0, 1] of int16 full scale. The phase
// continues from startSample so successive reads form one continuous tone.
// It returns the sample index after the last written sample.
func Sine(dst []int16, freq, sampleRate, amplitude float64, startSample int64) int64 {
	scale := amplitude * float64(math.MaxInt16)
	step := 2 * math.Pi * freq / sampleRate
	for i := range dst {
		dst[i] = int16(scale * math.Sin(step*float64(startSample+int64(i))))
	}
	return startSample + int64(len(dst))
}

// SineBuffer returns a freshly allocated n-sample sine wave starting at
// phase zero. Convenience wrapper for tests.
func SineBuffer(n int, freq, sampleRate, amplitude float64) []int16 {
	buf := make([]int16, n)
	Sine(buf, freq, sampleRate, amplitude, 0)
	return buf
}

// Silence returns an n-sample buffer of zeros.
func Silence(n int) []int16 {
	return make([]int16, n)
}
