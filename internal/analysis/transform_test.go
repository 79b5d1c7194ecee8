// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"testing"

	"spectra/pkg/synth"
)

const (
	testSize       = 4096
	testSampleRate = 44100.0
)

func testTransform(t *testing.T, samples []int16) []FrequencyBin {
	t.Helper()
	tr, err := NewTransformer(testSize, testSampleRate)
	if err != nil {
		t.Fatalf("NewTransformer: %v", err)
	}
	return tr.Transform(samples, HanningWindow(testSize))
}

func TestNewTransformerRejectsBadInput(t *testing.T) {
	if _, err := NewTransformer(1000, testSampleRate); err == nil {
		t.Error("expected error for non-power-of-two size")
	}
	if _, err := NewTransformer(testSize, 0); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestSinePeakFrequency(t *testing.T) {
	tests := []float64{100, 440, 1000, 5000, 12000}

	for _, freq := range tests {
		t.Run(fmt.Sprintf("%.0fHz", freq), func(t *testing.T) {
			bins := testTransform(t, synth.SineBuffer(testSize, freq, testSampleRate, 0.8))
			if len(bins) == 0 {
				t.Fatal("expected bins for a strong sine input")
			}

			peak := bins[0]
			for _, bin := range bins[1:] {
				if bin.Amplitude > peak.Amplitude {
					peak = bin
				}
			}

			resolution := testSampleRate / testSize
			if math.Abs(peak.Frequency-freq) > resolution {
				t.Errorf("peak at %.1f Hz, expected within %.2f Hz of %.0f", peak.Frequency, resolution, freq)
			}
		})
	}
}

func TestSilenceEmitsNoBins(t *testing.T) {
	bins := testTransform(t, synth.Silence(testSize))
	if len(bins) != 0 {
		t.Errorf("expected no bins for silence, got %d", len(bins))
	}
}

func TestShortReadIsZeroPadded(t *testing.T) {
	// Half a buffer, as a device under-run would deliver.
	samples := synth.SineBuffer(testSize/2, 1000, testSampleRate, 0.8)
	bins := testTransform(t, samples)
	if len(bins) == 0 {
		t.Fatal("expected bins for a short read")
	}

	peak := bins[0]
	for _, bin := range bins[1:] {
		if bin.Amplitude > peak.Amplitude {
			peak = bin
		}
	}
	// Leakage from the truncated window widens the peak; stay within a few
	// resolution steps.
	resolution := testSampleRate / testSize
	if math.Abs(peak.Frequency-1000) > 4*resolution {
		t.Errorf("short-read peak at %.1f Hz, expected near 1000", peak.Frequency)
	}
}

func TestBinsWithinRangeAndBounds(t *testing.T) {
	// Sum of tones across the spectrum.
	buf := make([]int16, testSize)
	for i := range buf {
		tm := float64(i) / testSampleRate
		signal := 0.4*math.Sin(2*math.Pi*60*tm) +
			0.3*math.Sin(2*math.Pi*1500*tm) +
			0.2*math.Sin(2*math.Pi*9000*tm)
		buf[i] = int16(signal * math.MaxInt16)
	}

	for _, bin := range testTransform(t, buf) {
		if bin.Frequency < MinFrequency || bin.Frequency > MaxFrequency {
			t.Errorf("bin at %.1f Hz outside audible range of interest", bin.Frequency)
		}
		if bin.Amplitude < minAmplitudeThreshold {
			t.Errorf("sub-threshold bin emitted: %+v", bin)
		}
		if bin.NormalizedAmplitude < 0 || bin.NormalizedAmplitude > NormalizedScale {
			t.Errorf("bin normalized amplitude %.2f outside [0, %g]", bin.NormalizedAmplitude, NormalizedScale)
		}
	}
}

func TestTransformHotPath(t *testing.T) {
	tr, err := NewTransformer(testSize, testSampleRate)
	if err != nil {
		t.Fatalf("NewTransformer: %v", err)
	}
	window := HanningWindow(testSize)
	samples := synth.SineBuffer(testSize, 440, testSampleRate, 0.8)

	// Warm-up call so the workspace bin slice reaches steady-state capacity.
	tr.Transform(samples, window)
	allocs := testing.AllocsPerRun(100, func() {
		tr.Transform(samples, window)
	})

	if allocs > 0 {
		t.Errorf("Expected zero allocations in Transform hot path, got %.1f", allocs)
	}
}

func BenchmarkTransform(b *testing.B) {
	tr, err := NewTransformer(testSize, testSampleRate)
	if err != nil {
		b.Fatalf("NewTransformer: %v", err)
	}
	window := HanningWindow(testSize)

	// Sine wave with harmonics.
	samples := make([]int16, testSize)
	for i := range samples {
		tm := float64(i) / testSampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
		samples[i] = int16(signal * math.MaxInt16 * 0.9)
	}

	b.ReportAllocs()

	for n := 0; n < b.N; n++ {
		tr.Transform(samples, window)
	}
}
