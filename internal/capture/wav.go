// SPDX-License-Identifier: MIT
package capture

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	applog "spectra/internal/log"
)

// FileSource plays a stored mono 16-bit WAV file through the Source
// interface, letting the analyzer process recorded material instead of live
// input. Read returns io.EOF once the file is exhausted, which the analyzer
// treats as end of stream.
type FileSource struct {
	path       string
	sampleRate float64

	mu      sync.Mutex
	file    *os.File
	decoder *wav.Decoder
	scratch *audio.IntBuffer
}

// NewFileSource creates a source reading from the WAV file at path. The
// file is not opened until Start; its sample rate must match sampleRate, the
// rate the consuming analyzer maps bins to frequencies with.
func NewFileSource(path string, sampleRate float64) *FileSource {
	return &FileSource{path: path, sampleRate: sampleRate}
}

// Start opens and validates the file.
func (s *FileSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		applog.Warnf("capture: file source already started")
		return nil
	}

	file, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open WAV file: %w", err)
	}

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		file.Close()
		return fmt.Errorf("%s is not a valid WAV file", s.path)
	}
	if decoder.NumChans != 1 || decoder.BitDepth != 16 {
		file.Close()
		return fmt.Errorf("%s: expected mono 16-bit PCM, got %d channels at %d bits",
			s.path, decoder.NumChans, decoder.BitDepth)
	}
	// A mismatched rate would silently shift every reported frequency.
	if float64(decoder.SampleRate) != s.sampleRate {
		file.Close()
		return fmt.Errorf("%s: file sample rate %d Hz does not match configured %.0f Hz",
			s.path, decoder.SampleRate, s.sampleRate)
	}

	s.file = file
	s.decoder = decoder
	applog.Infof("capture: analyzing %s (%.0f Hz)", s.path, float64(decoder.SampleRate))
	return nil
}

// Read decodes up to len(dst) samples. The final read of the file may be
// short; after that Read returns (0, io.EOF).
func (s *FileSource) Read(dst []int16) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.decoder == nil {
		return 0, fmt.Errorf("file source not started")
	}

	if s.scratch == nil || len(s.scratch.Data) < len(dst) {
		s.scratch = &audio.IntBuffer{
			Format: &audio.Format{NumChannels: 1, SampleRate: int(s.decoder.SampleRate)},
			Data:   make([]int, len(dst)),
		}
	}
	s.scratch.Data = s.scratch.Data[:len(dst)]

	n, err := s.decoder.PCMBuffer(s.scratch)
	if err != nil {
		return 0, fmt.Errorf("failed to decode WAV data: %w", err)
	}
	if n == 0 {
		return 0, io.EOF
	}
	for i := 0; i < n; i++ {
		dst[i] = int16(s.scratch.Data[i])
	}
	return n, nil
}

// Stop closes the file. Safe to call more than once.
func (s *FileSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	s.decoder = nil
	if err != nil {
		return fmt.Errorf("failed to close WAV file: %w", err)
	}
	return nil
}
