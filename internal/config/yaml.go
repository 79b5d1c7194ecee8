// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file specified by path. If path
// is empty, it searches default locations ("config.yaml"). If no file is
// found, it uses built-in defaults. After loading defaults or from file, it
// applies environment variable overrides and validates the final
// configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:   DefaultDeviceID,
			SampleRate:    DefaultSampleRate,
			BufferMs:      DefaultBufferMs,
			Source:        DefaultSource,
			SineFrequency: DefaultSineFrequency,
		},
		Recording: RecordingConfig{
			Enabled:   false,
			OutputDir: "./recordings",
		},
		Transport: TransportConfig{
			WebSocketEnabled: false,
			WebSocketAddr:    ":8080",
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
			UDPSendInterval:  33 * time.Millisecond, // ~30Hz
		},
	}

	if path == "" {
		candidates := []string{
			"config.yaml",
		}
		found := false
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				found = true
				break
			}
		}
		if !found {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return &cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks bounds on the loaded configuration.
func (c *Config) Validate() error {
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %.0f outside [%d, %d]", c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Audio.BufferMs < MinBufferMs || c.Audio.BufferMs > MaxBufferMs {
		return fmt.Errorf("audio.buffer_ms %d outside [%d, %d]", c.Audio.BufferMs, MinBufferMs, MaxBufferMs)
	}
	switch c.Audio.Source {
	case "device", "sine":
	case "file":
		if c.Audio.FilePath == "" {
			return fmt.Errorf("audio.file_path must be set when audio.source is \"file\"")
		}
	default:
		return fmt.Errorf("audio.source %q is not one of device, file, sine", c.Audio.Source)
	}
	for i, b := range c.Analysis.Bands {
		if b.Name == "" {
			return fmt.Errorf("analysis.bands[%d]: name must not be empty", i)
		}
		if b.MinHz >= b.MaxHz {
			return fmt.Errorf("analysis.bands[%d] %q: min_hz %.0f >= max_hz %.0f", i, b.Name, b.MinHz, b.MaxHz)
		}
	}
	if l := c.Analysis.Layout; l != nil {
		if l.Mode != "linear" && l.Mode != "log" {
			return fmt.Errorf("analysis.layout.mode %q is not one of linear, log", l.Mode)
		}
		if l.Count <= 0 {
			return fmt.Errorf("analysis.layout.count must be positive, got %d", l.Count)
		}
		if l.MinHz >= l.MaxHz {
			return fmt.Errorf("analysis.layout: min_hz %.0f >= max_hz %.0f", l.MinHz, l.MaxHz)
		}
	}
	if c.Transport.UDPEnabled && c.Transport.UDPSendInterval <= 0 {
		return fmt.Errorf("transport.udp_send_interval must be positive when UDP is enabled")
	}
	return nil
}

func (cfg *Config) applyEnvOverrides() {
	// ENV_{...}
	// These are general overrides.

	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
		}
	}
	// ENV_BUFFER_MS
	if val, ok := os.LookupEnv("ENV_BUFFER_MS"); ok {
		if iVal, err := strconv.Atoi(val); err == nil {
			cfg.Audio.BufferMs = iVal
		}
	}

	// ENV_UDP_{...}
	// These are specific to the transport layer.

	// ENV_UDP_ENABLED
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
		}
	}
	// ENV_UDP_TARGET_ADDRESS
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
	}
	// ENV_UDP_SEND_INTERVAL
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Transport.UDPSendInterval = dur
		}
	}
}
