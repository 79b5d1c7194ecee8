// SPDX-License-Identifier: MIT
package capture

import (
	"fmt"
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	applog "spectra/internal/log"
)

// Recorder tees every sample read from an inner source into a 16-bit mono
// WAV file, so a live analysis session can be kept for later replay through
// a FileSource. Write failures are logged, never surfaced to the capture
// loop: losing the recording must not kill the analysis.
type Recorder struct {
	inner      Source
	path       string
	sampleRate float64

	mu      sync.Mutex
	file    *os.File
	encoder *wav.Encoder
	scratch *audio.IntBuffer
}

// NewRecorder wraps inner, writing a WAV file to path on Start.
func NewRecorder(inner Source, path string, sampleRate float64) *Recorder {
	return &Recorder{inner: inner, path: path, sampleRate: sampleRate}
}

// Start starts the inner source, then creates the output file. If the file
// cannot be created the inner source is released again and Start fails.
func (r *Recorder) Start() error {
	if err := r.inner.Start(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := os.Create(r.path)
	if err != nil {
		r.inner.Stop()
		return fmt.Errorf("failed to create recording file: %w", err)
	}

	r.file = file
	r.encoder = wav.NewEncoder(file, int(r.sampleRate), 16, 1, 1)
	r.scratch = &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: int(r.sampleRate)},
	}
	applog.Infof("capture: recording input to %s", r.path)
	return nil
}

// Read reads from the inner source and appends whatever was read to the
// recording.
func (r *Recorder) Read(dst []int16) (int, error) {
	n, err := r.inner.Read(dst)
	if n > 0 {
		r.write(dst[:n])
	}
	return n, err
}

func (r *Recorder) write(samples []int16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.encoder == nil {
		return
	}

	if cap(r.scratch.Data) < len(samples) {
		r.scratch.Data = make([]int, len(samples))
	}
	r.scratch.Data = r.scratch.Data[:len(samples)]
	for i, s := range samples {
		r.scratch.Data[i] = int(s)
	}

	if err := r.encoder.Write(r.scratch); err != nil {
		applog.Errorf("capture: error writing recording: %v", err)
	}
}

// Stop stops the inner source and finalizes the WAV file. Safe to call more
// than once.
func (r *Recorder) Stop() error {
	innerErr := r.inner.Stop()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.encoder != nil {
		if err := r.encoder.Close(); err != nil {
			applog.Errorf("capture: error finalizing recording: %v", err)
		}
		r.encoder = nil
	}
	if r.file != nil {
		if err := r.file.Close(); err != nil {
			applog.Errorf("capture: error closing recording file: %v", err)
		}
		r.file = nil
		applog.Infof("capture: recording saved to %s", r.path)
	}
	return innerErr
}
