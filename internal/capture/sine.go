// SPDX-License-Identifier: MIT
package capture

import (
	"fmt"
	"sync"

	"spectra/pkg/synth"
)

// SineSource produces a continuous synthetic tone. It exists for demos and
// tests that need deterministic input without a microphone.
type SineSource struct {
	freq       float64
	sampleRate float64
	amplitude  float64

	mu      sync.Mutex
	pos     int64
	running bool
}

// NewSineSource creates a tone source at the given frequency and sample
// rate with 80% full-scale amplitude.
func NewSineSource(freq, sampleRate float64) *SineSource {
	return &SineSource{freq: freq, sampleRate: sampleRate, amplitude: 0.8}
}

// Start marks the source running.
func (s *SineSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	return nil
}

// Read fills dst with the next stretch of the tone. Always a full read.
func (s *SineSource) Read(dst []int16) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return 0, fmt.Errorf("sine source not started")
	}
	s.pos = synth.Sine(dst, s.freq, s.sampleRate, s.amplitude, s.pos)
	return len(dst), nil
}

// Stop marks the source stopped. Safe to call more than once.
func (s *SineSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return nil
}
