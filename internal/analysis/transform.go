// SPDX-License-Identifier: MIT
/*
Package analysis implements the capture→transform→aggregate→normalize
pipeline of the spectral analyzer:

  - a windowed forward FFT turning fixed-size PCM buffers into frequency bins
  - an ordered set of possibly-overlapping frequency bands folding bins into
    per-band loudness with per-frame relative normalization
  - the Analyzer facade owning the capture worker and its lifecycle

Thread safety relies on atomically swapped immutable configuration: the
capture worker pins the whole buffer/window/transformer tuple once per
cycle, so a concurrent reconfigure can never tear it.
*/
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"spectra/pkg/bitint"
)

// Tunable analysis constants. The frequency range bounds the bins that are
// emitted at all; the scale factors shape the informational per-bin
// normalized amplitude (the authoritative display value is the per-band
// relative normalization in bands.go).
const (
	MinFrequency = 27    // Hz, lowest bin retained
	MaxFrequency = 15000 // Hz, highest bin retained

	// NormalizedScale bounds every normalized amplitude to [0, NormalizedScale].
	NormalizedScale = 10.0

	minAmplitudeThreshold = 0.0001 // noise floor, sub-threshold bins are dropped
	amplitudeScaleFactor  = 200.0  // per-bin display scaling
	lowFreqDamping        = 0.3    // multiplier for bins/bands below lowFreqThreshold
	lowFreqThreshold      = 27.0   // Hz, center frequencies below this get damped
)

// FrequencyBin is one retained frequency-domain output slot of a single
// transform cycle. Bins are immutable once created.
type FrequencyBin struct {
	Frequency           float64 // Hz, center of the bin
	Amplitude           float64 // window-compensated magnitude, dimensionless
	Magnitude           float64 // raw transform magnitude
	NormalizedAmplitude float64 // informational 0-10 display value
}

func newFrequencyBin(frequency, amplitude, magnitude float64) FrequencyBin {
	damped := amplitude
	if frequency < lowFreqThreshold {
		damped *= lowFreqDamping
	}
	return FrequencyBin{
		Frequency:           frequency,
		Amplitude:           amplitude,
		Magnitude:           magnitude,
		NormalizedAmplitude: math.Min(NormalizedScale, damped*NormalizedScale*amplitudeScaleFactor),
	}
}

// transformWorkspace holds pre-allocated buffers for one transform size.
type transformWorkspace struct {
	input  []float64      // ...for windowed, scaled real input
	coeffs []complex128   // ...for FFT complex output
	bins   []FrequencyBin // ...for emitted bins, reused between cycles
}

// Transformer converts a windowed, zero-padded sample buffer into frequency
// bins. One Transformer serves one buffer size; the Analyzer builds a fresh
// one whenever the configured size changes.
type Transformer struct {
	size       int
	sampleRate float64
	fftObj     *fourier.FFT
	workspace  transformWorkspace
}

// NewTransformer creates a Transformer for a power-of-two buffer size.
func NewTransformer(size int, sampleRate float64) (*Transformer, error) {
	if !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("transform size must be a power of 2, got %d", size)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}

	return &Transformer{
		size:       size,
		sampleRate: sampleRate,
		fftObj:     fourier.NewFFT(size),
		workspace: transformWorkspace{
			input:  make([]float64, size),
			coeffs: make([]complex128, size/2+1),
			bins:   make([]FrequencyBin, 0, size/2),
		},
	}, nil
}

// Transform scales samples to [-1, 1], applies the window table, zero-pads a
// short read out to the transform size, runs the forward FFT and emits the
// bins inside the audible range of interest that clear the noise floor.
//
// len(window) must equal Size(); len(samples) may be shorter (short read) but
// never longer. The returned slice is reused by the next Transform call, so
// callers retaining bins across cycles must copy them.
func (t *Transformer) Transform(samples []int16, window []float64) []FrequencyBin {
	// Scale to full-scale int16 and taper. Slots past the short read stay zero.
	for i := 0; i < t.size; i++ {
		if i < len(samples) {
			t.workspace.input[i] = float64(samples[i]) / 32768.0 * window[i]
		} else {
			t.workspace.input[i] = 0
		}
	}

	t.fftObj.Coefficients(t.workspace.coeffs, t.workspace.input)

	// Only the first half of the spectrum, up to Nyquist, carries information
	// for real input.
	resolution := t.sampleRate / float64(t.size)
	halfSize := float64(t.size) / 2

	bins := t.workspace.bins[:0]
	for i := 0; i < t.size/2; i++ {
		frequency := float64(i) * resolution
		if frequency < MinFrequency || frequency > MaxFrequency {
			continue
		}

		magnitude := cmplx.Abs(t.workspace.coeffs[i])
		// Normalize by half the buffer size, then compensate for the energy
		// removed by the window taper.
		amplitude := magnitude / halfSize * 2.0

		if amplitude < minAmplitudeThreshold {
			continue
		}
		bins = append(bins, newFrequencyBin(frequency, amplitude, magnitude))
	}
	t.workspace.bins = bins
	return bins
}

// Size returns the transform size in samples.
func (t *Transformer) Size() int {
	return t.size
}

// SampleRate returns the sample rate in Hz.
func (t *Transformer) SampleRate() float64 {
	return t.sampleRate
}

// FrequencyResolution returns the width of one bin in Hz.
func (t *Transformer) FrequencyResolution() float64 {
	return t.sampleRate / float64(t.size)
}
