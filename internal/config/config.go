// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the spectral analyzer.
const (
	// Default values for the analyzer configuration
	DefaultDeviceID      = MinDeviceID // Default to system default device
	DefaultSampleRate    = 44100       // CD-quality audio, mono
	DefaultBufferMs      = 100         // 100ms → 8192 samples at 44.1kHz
	DefaultSource        = "device"    // Capture from the microphone
	DefaultSineFrequency = 440.0       // Tone for the synthetic source

	// Hardware and processing limits
	MinDeviceID   = -1     // -1 represents system default device
	MinBufferMs   = 1      // Smallest accepted analysis buffer
	MaxBufferMs   = 1000   // Largest accepted analysis buffer
	MinSampleRate = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate = 192000 // Maximum supported sample rate (Hz)
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Enable debug mode (verbose logging).
	LogLevel  string          `yaml:"log_level"` // Logging level (e.g., "debug", "info", "warn", "error").
	Audio     AudioConfig     `yaml:"audio"`     // Capture settings.
	Analysis  AnalysisConfig  `yaml:"analysis"`  // Band layout settings.
	Recording RecordingConfig `yaml:"recording"` // Raw-input recording settings.
	Transport TransportConfig `yaml:"transport"` // Snapshot transport settings.
}

// AudioConfig holds settings for the capture source feeding the analyzer.
type AudioConfig struct {
	InputDevice   int     `yaml:"input_device"`   // PortAudio device index for audio input (-1 for default).
	SampleRate    float64 `yaml:"sample_rate"`    // Sample rate in Hz (e.g., 44100, 48000).
	BufferMs      int     `yaml:"buffer_ms"`      // Analysis buffer size in milliseconds.
	Source        string  `yaml:"source"`         // Capture source: "device", "file" or "sine".
	FilePath      string  `yaml:"file_path"`      // WAV file to analyze when source is "file".
	SineFrequency float64 `yaml:"sine_frequency"` // Tone frequency when source is "sine".
}

// AnalysisConfig selects the frequency band layout. When Bands is non-empty it
// wins; otherwise Layout generates bands; otherwise the built-in default
// layout is used.
type AnalysisConfig struct {
	Bands  []BandConfig `yaml:"bands,omitempty"`  // Explicit ordered band list.
	Layout *BandLayout  `yaml:"layout,omitempty"` // Generated linear/logarithmic layout.
}

// BandConfig is one named frequency band in display order.
type BandConfig struct {
	Name  string  `yaml:"name"`
	MinHz float64 `yaml:"min_hz"`
	MaxHz float64 `yaml:"max_hz"`
}

// BandLayout describes a generated band layout.
type BandLayout struct {
	Mode  string  `yaml:"mode"`   // "linear" or "log"
	Count int     `yaml:"count"`  // Number of bands
	MinHz float64 `yaml:"min_hz"` // Layout lower bound
	MaxHz float64 `yaml:"max_hz"` // Layout upper bound
}

// RecordingConfig holds settings for teeing raw captured input to a WAV file.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`    // Enable recording the raw input.
	OutputDir string `yaml:"output_dir"` // Directory to save recorded audio files.
}

// TransportConfig holds settings for pushing band snapshots to consumers.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`  // Serve snapshots over a WebSocket hub.
	WebSocketAddr    string        `yaml:"websocket_addr"`     // Listen address for the WebSocket server.
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Enable sending snapshots over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target address and port for UDP packets.
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Interval between UDP packets.
}
