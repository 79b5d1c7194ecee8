// SPDX-License-Identifier: MIT
package capture

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"spectra/internal/config"
	applog "spectra/internal/log"
)

// deviceChunkFrames is the frame count of one PortAudio read. The device
// source accumulates chunks into whatever read length the analyzer asks for,
// so buffer-size reconfiguration never requires reopening the stream.
const deviceChunkFrames = 512

// Initialize sets up the PortAudio subsystem.
// This must be called before any device operations and paired with a Terminate() call.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate cleanly shuts down the PortAudio subsystem.
// This should be deferred immediately after Initialize().
func Terminate() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// Device describes an audio device for listing and selection.
type Device struct {
	ID                int
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
}

// Devices returns all available audio devices.
func Devices() ([]Device, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	devices := make([]Device, len(infos))
	for i, info := range infos {
		devices[i] = Device{
			ID:                i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
		}
	}
	return devices, nil
}

// inputDevice retrieves the PortAudio input device for the given device ID.
// MinDeviceID (-1) selects the system default input device.
func inputDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	if deviceID == config.MinDeviceID {
		return portaudio.DefaultInputDevice()
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	if deviceID < 0 || deviceID >= len(devices) {
		return nil, fmt.Errorf("invalid device ID: %d", deviceID)
	}
	return devices[deviceID], nil
}

// chunkRing serves reads of arbitrary length from fixed-size chunk reads.
// It is owned by the single reading goroutine; only the refill callback it
// is handed may touch the chunk buffer.
type chunkRing struct {
	chunk   []int16 // buffer registered with the stream
	pending []int16 // chunk samples not yet handed out
}

func newChunkRing(frames int) *chunkRing {
	return &chunkRing{chunk: make([]int16, frames)}
}

// fill copies buffered samples into dst, calling refill to reload the whole
// chunk whenever the carry-over runs out. On a refill error the count of
// samples already copied is returned with it.
func (r *chunkRing) fill(dst []int16, refill func() error) (int, error) {
	n := 0
	for n < len(dst) {
		if len(r.pending) == 0 {
			if err := refill(); err != nil {
				return n, err
			}
			r.pending = r.chunk
		}
		c := copy(dst[n:], r.pending)
		n += c
		r.pending = r.pending[c:]
	}
	return n, nil
}

// DeviceSource captures live mono PCM from a PortAudio input device using
// the blocking read API. One goroutine reads; Stop may be called from
// another. The ring is owned by the reading goroutine, only the stream
// identity is shared under the mutex.
type DeviceSource struct {
	deviceID   int
	sampleRate float64

	mu     sync.Mutex // guards stream/ring identity across Start/Stop
	stream *portaudio.Stream
	ring   *chunkRing
}

// NewDeviceSource creates a source for the given device ID (-1 for the
// system default) at the given sample rate. The device is not touched until
// Start.
func NewDeviceSource(deviceID int, sampleRate float64) *DeviceSource {
	return &DeviceSource{deviceID: deviceID, sampleRate: sampleRate}
}

// Start acquires the input device and begins capturing. Fails without state
// change if the device is unavailable.
func (s *DeviceSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream != nil {
		applog.Warnf("capture: device source already started")
		return nil
	}

	device, err := inputDevice(s.deviceID)
	if err != nil {
		return fmt.Errorf("failed to select input device: %w", err)
	}

	ring := newChunkRing(deviceChunkFrames)
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  device.DefaultHighInputLatency,
		},
		SampleRate:      s.sampleRate,
		FramesPerBuffer: deviceChunkFrames,
	}

	stream, err := portaudio.OpenStream(params, ring.chunk)
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	s.stream = stream
	s.ring = ring
	applog.Infof("capture: input stream opened on %q (%.0f Hz)", device.Name, s.sampleRate)
	return nil
}

// Read blocks until len(dst) samples have been captured. The stream is read
// in fixed chunks; leftovers are carried to the next call so consecutive
// reads form a gapless sample stream.
func (s *DeviceSource) Read(dst []int16) (int, error) {
	s.mu.Lock()
	stream, ring := s.stream, s.ring
	s.mu.Unlock()
	if stream == nil {
		return 0, fmt.Errorf("capture device not started")
	}

	n, err := ring.fill(dst, stream.Read)
	if err != nil {
		return n, fmt.Errorf("input stream read failed: %w", err)
	}
	return n, nil
}

// Stop aborts the stream, unblocking any pending Read, and releases the
// device. Safe to call when already stopped.
func (s *DeviceSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil {
		return nil
	}

	abortErr := s.stream.Abort()
	closeErr := s.stream.Close()
	s.stream = nil
	s.ring = nil

	if abortErr != nil {
		return fmt.Errorf("failed to abort input stream: %w", abortErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close input stream: %w", closeErr)
	}
	return nil
}
