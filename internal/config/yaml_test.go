// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config, got nil")
	}
	if cfg.Audio.SampleRate != DefaultSampleRate {
		t.Errorf("expected default sample rate %d, got %.0f", DefaultSampleRate, cfg.Audio.SampleRate)
	}
	if cfg.Audio.BufferMs != DefaultBufferMs {
		t.Errorf("expected default buffer %dms, got %d", DefaultBufferMs, cfg.Audio.BufferMs)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_Bands(t *testing.T) {
	path := writeTempConfig(t, `
audio:
  buffer_ms: 50
analysis:
  bands:
    - {name: "low", min_hz: 100, max_hz: 1000}
    - {name: "high", min_hz: 500, max_hz: 2000}
transport:
  udp_enabled: true
  udp_target_address: "127.0.0.1:9999"
  udp_send_interval: 50ms
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Audio.BufferMs != 50 {
		t.Errorf("expected buffer_ms 50, got %d", cfg.Audio.BufferMs)
	}
	if len(cfg.Analysis.Bands) != 2 {
		t.Fatalf("expected 2 bands, got %d", len(cfg.Analysis.Bands))
	}
	if cfg.Analysis.Bands[0].Name != "low" || cfg.Analysis.Bands[1].Name != "high" {
		t.Errorf("band order not preserved: %+v", cfg.Analysis.Bands)
	}
	if cfg.Transport.UDPSendInterval != 50*time.Millisecond {
		t.Errorf("expected 50ms udp interval, got %s", cfg.Transport.UDPSendInterval)
	}
}

func TestLoadConfig_InvalidBand(t *testing.T) {
	path := writeTempConfig(t, `
analysis:
  bands:
    - {name: "bad", min_hz: 1000, max_hz: 100}
`)
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected validation error for inverted band range")
	}
	if !strings.Contains(err.Error(), "min_hz") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestLoadConfig_InvalidLayoutMode(t *testing.T) {
	path := writeTempConfig(t, `
analysis:
  layout: {mode: "cubic", count: 8, min_hz: 27, max_hz: 15000}
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected validation error for unknown layout mode")
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("ENV_BUFFER_MS", "25")
	t.Setenv("ENV_UDP_TARGET_ADDRESS", "10.0.0.1:7000")
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Audio.BufferMs != 25 {
		t.Errorf("expected env override buffer 25ms, got %d", cfg.Audio.BufferMs)
	}
	if cfg.Transport.UDPTargetAddress != "10.0.0.1:7000" {
		t.Errorf("expected env override target, got %s", cfg.Transport.UDPTargetAddress)
	}
}
