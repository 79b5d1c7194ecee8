// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
)

// FrequencyBand is a named, caller-configured frequency range aggregating
// bins into one display value. The range is inclusive on both ends and bands
// may overlap, so one bin can contribute to several bands. Identity (name,
// range) persists across cycles; the accumulators are reset every cycle.
type FrequencyBand struct {
	Name    string  `json:"name"`
	MinFreq float64 `json:"minFreq"` // Hz
	MaxFreq float64 `json:"maxFreq"` // Hz

	TotalAmplitude      float64 `json:"totalAmplitude"`
	PeakAmplitude       float64 `json:"peakAmplitude"`
	AverageAmplitude    float64 `json:"averageAmplitude"`
	NormalizedAmplitude float64 `json:"normalizedAmplitude"` // 0-10, relative to the loudest band this frame
	BinCount            int     `json:"binCount"`
}

// Reset clears the accumulators while preserving the band's identity.
func (b *FrequencyBand) Reset() {
	b.TotalAmplitude = 0
	b.PeakAmplitude = 0
	b.AverageAmplitude = 0
	b.NormalizedAmplitude = 0
	b.BinCount = 0
}

// Contains reports whether freq lies within [MinFreq, MaxFreq].
func (b *FrequencyBand) Contains(freq float64) bool {
	return freq >= b.MinFreq && freq <= b.MaxFreq
}

// CenterFrequency returns the midpoint of the band's range.
func (b *FrequencyBand) CenterFrequency() float64 {
	return (b.MinFreq + b.MaxFreq) / 2
}

func (b *FrequencyBand) addBin(bin FrequencyBin) {
	b.TotalAmplitude += bin.Amplitude
	b.PeakAmplitude = math.Max(b.PeakAmplitude, bin.Amplitude)
	b.BinCount++
}

// BandSet is an ordered collection of frequency bands. Insertion order is
// both the aggregation and the display order. The layout and the name index
// are immutable after construction, so any number of goroutines may read
// them; the band accumulators are not, and belong to whoever calls
// Aggregate.
type BandSet struct {
	bands  []*FrequencyBand
	byName map[string]*FrequencyBand
	layout []FrequencyBand // identities only, accumulators always zero
}

// NewBandSet copies the given layout into a fresh band set with zeroed
// accumulators, preserving order. An empty layout is rejected.
func NewBandSet(layout []FrequencyBand) (*BandSet, error) {
	if len(layout) == 0 {
		return nil, fmt.Errorf("band layout must not be empty")
	}
	bands := make([]*FrequencyBand, len(layout))
	byName := make(map[string]*FrequencyBand, len(layout))
	identities := make([]FrequencyBand, len(layout))
	for i, b := range layout {
		band := &FrequencyBand{Name: b.Name, MinFreq: b.MinFreq, MaxFreq: b.MaxFreq}
		bands[i] = band
		byName[b.Name] = band
		identities[i] = *band
	}
	return &BandSet{bands: bands, byName: byName, layout: identities}, nil
}

// Len returns the number of bands.
func (s *BandSet) Len() int {
	return len(s.bands)
}

// Bands returns the ordered bands. The slice and the bands it points to are
// owned by the aggregating goroutine; other readers use Layout or a
// Snapshot taken by the aggregator.
func (s *BandSet) Bands() []*FrequencyBand {
	return s.bands
}

// ByName returns the band with the given name, if present. The index is
// built at construction, so concurrent lookups are safe.
func (s *BandSet) ByName(name string) (*FrequencyBand, bool) {
	b, ok := s.byName[name]
	return b, ok
}

// Layout returns a copy of the band identities in configuration order, with
// zero accumulators. Safe to call while another goroutine aggregates into
// this set.
func (s *BandSet) Layout() []FrequencyBand {
	return append([]FrequencyBand(nil), s.layout...)
}

// Snapshot returns a deep copy of the bands in configuration order,
// including accumulator values. Only the aggregating goroutine may call it;
// concurrent readers use Layout.
func (s *BandSet) Snapshot() []FrequencyBand {
	out := make([]FrequencyBand, len(s.bands))
	for i, b := range s.bands {
		out[i] = *b
	}
	return out
}

// Aggregate folds the cycle's bins into the bands and computes the per-frame
// relative normalization. Order matters for reproducibility: reset in
// configuration order, fold every bin into every overlapping band with no
// early exit, then normalize so the loudest band this frame reads exactly
// NormalizedScale. On a silent frame every band reads zero. Absolute
// loudness does not survive this step; callers needing it must read
// TotalAmplitude or PeakAmplitude.
func (s *BandSet) Aggregate(bins []FrequencyBin) {
	for _, band := range s.bands {
		band.Reset()
	}

	for _, bin := range bins {
		for _, band := range s.bands {
			if band.Contains(bin.Frequency) {
				band.addBin(bin)
			}
		}
	}

	for _, band := range s.bands {
		if band.BinCount > 0 {
			band.AverageAmplitude = band.TotalAmplitude / float64(band.BinCount)
		}
	}

	// Damp bass-centered bands before picking the frame reference so a
	// dominant low end cannot flatten everything else.
	maxDamped := 0.0
	damped := make([]float64, len(s.bands))
	for i, band := range s.bands {
		d := band.AverageAmplitude
		if band.CenterFrequency() < lowFreqThreshold {
			d *= lowFreqDamping
		}
		damped[i] = d
		if d > maxDamped {
			maxDamped = d
		}
	}

	if maxDamped <= 0 {
		for _, band := range s.bands {
			band.NormalizedAmplitude = 0
		}
		return
	}
	for i, band := range s.bands {
		relative := damped[i] / maxDamped
		band.NormalizedAmplitude = math.Max(0, math.Min(NormalizedScale, relative*NormalizedScale))
	}
}

// DefaultBands returns the built-in band layout.
func DefaultBands() []FrequencyBand {
	return []FrequencyBand{
		{Name: "Band 1", MinFreq: 50, MaxFreq: 100},
		{Name: "Band 2", MinFreq: 120, MaxFreq: 250},
		{Name: "Band 3", MinFreq: 5000, MaxFreq: 15000},
		{Name: "Band 4", MinFreq: 40, MaxFreq: 400},
		{Name: "Band 5", MinFreq: 80, MaxFreq: 1200},
		{Name: "Band 6", MinFreq: 27, MaxFreq: 4200},
		{Name: "Band 7", MinFreq: 200, MaxFreq: 3500},
		{Name: "Band 8", MinFreq: 250, MaxFreq: 2500},
		{Name: "Band 9", MinFreq: 165, MaxFreq: 1000},
		{Name: "Band 10", MinFreq: 85, MaxFreq: 180},
		{Name: "Band 11", MinFreq: 165, MaxFreq: 255},
	}
}

// LinearBands builds count equally wide bands spanning [minFreq, maxFreq].
func LinearBands(count int, minFreq, maxFreq float64) ([]FrequencyBand, error) {
	if count <= 0 || minFreq >= maxFreq {
		return nil, fmt.Errorf("invalid linear band layout: count=%d range=[%g, %g]", count, minFreq, maxFreq)
	}
	step := (maxFreq - minFreq) / float64(count)
	bands := make([]FrequencyBand, count)
	for i := range bands {
		bands[i] = FrequencyBand{
			Name:    fmt.Sprintf("Band %d", i+1),
			MinFreq: minFreq + float64(i)*step,
			MaxFreq: minFreq + float64(i+1)*step,
		}
	}
	return bands, nil
}

// LogarithmicBands builds count bands with equal logarithmic spacing over
// [minFreq, maxFreq], which matches perceived pitch spacing better than a
// linear layout.
func LogarithmicBands(count int, minFreq, maxFreq float64) ([]FrequencyBand, error) {
	if count <= 0 || minFreq <= 0 || minFreq >= maxFreq {
		return nil, fmt.Errorf("invalid logarithmic band layout: count=%d range=[%g, %g]", count, minFreq, maxFreq)
	}
	logMin := math.Log(minFreq)
	logStep := (math.Log(maxFreq) - logMin) / float64(count)
	bands := make([]FrequencyBand, count)
	for i := range bands {
		bands[i] = FrequencyBand{
			Name:    fmt.Sprintf("Band %d", i+1),
			MinFreq: math.Exp(logMin + float64(i)*logStep),
			MaxFreq: math.Exp(logMin + float64(i+1)*logStep),
		}
	}
	return bands, nil
}
