// SPDX-License-Identifier: MIT
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"spectra/cmd"
	"spectra/internal/analysis"
	"spectra/internal/capture"
	"spectra/internal/config"
	applog "spectra/internal/log"
	"spectra/internal/transport"
	"spectra/internal/transport/udp"
	"spectra/internal/tui"
)

// main runs in three phases:
//
// 1. Startup: initialize PortAudio, parse arguments, handle one-off
// commands, build the capture source and analyzer.
//
// 2. Concurrent: start the analyzer worker, attach transports, run the
// terminal view or block on a termination signal.
//
// 3. Shutdown: stop the analyzer (finalizing any recording), close
// transports and release the audio subsystem.
func main() {
	if err := capture.Initialize(); err != nil {
		applog.Fatalf("%v", err)
	}
	defer capture.Terminate()

	options, err := cmd.ParseArgs()
	if err != nil {
		applog.Fatalf("%v", err)
	}

	if options.Command == "list" {
		if err := listDevices(); err != nil {
			applog.Fatalf("%v", err)
		}
		return
	}
	if options.Config == nil {
		// --help or --version already handled by cobra.
		return
	}
	cfg := options.Config

	if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}
	if cfg.Debug {
		applog.SetLevel(applog.LevelDebug)
	}

	source, recordPath, err := buildSource(cfg)
	if err != nil {
		applog.Fatalf("%v", err)
	}

	layout, err := bandLayout(cfg)
	if err != nil {
		applog.Fatalf("%v", err)
	}

	analyzer, err := analysis.NewAnalyzer(source, cfg.Audio.SampleRate, cfg.Audio.BufferMs, layout)
	if err != nil {
		applog.Fatalf("%v", err)
	}

	var transports []transport.Transport
	if cfg.Transport.WebSocketEnabled {
		transports = append(transports, transport.NewWebSocketTransport(cfg.Transport.WebSocketAddr))
	}
	if cfg.Debug && options.NoTUI {
		transports = append(transports, transport.NewLoggingTransport())
	}
	if len(transports) > 0 {
		sinks := transports
		analyzer.SetListener(func(bands []analysis.FrequencyBand) {
			for _, t := range sinks {
				t.Send(bands)
			}
		})
	}

	var publisher *udp.Publisher
	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		publisher, err = udp.NewPublisher(cfg.Transport.UDPSendInterval, sender, analyzer)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		defer sender.Close()
	}

	if err := analyzer.Start(); err != nil {
		applog.Fatalf("failed to start analyzer: %v", err)
	}
	if publisher != nil {
		publisher.Start()
	}

	if options.NoTUI {
		done := make(chan os.Signal, 1)
		signal.Notify(done, os.Interrupt, syscall.SIGTERM)
		applog.Infof("analyzing, press Ctrl+C to stop")
		<-done
	} else {
		if err := tui.StartSpectrumUI(analyzer); err != nil {
			applog.Errorf("terminal view error: %v", err)
		}
	}

	if publisher != nil {
		publisher.Stop()
	}
	analyzer.Stop()
	for _, t := range transports {
		if err := t.Close(); err != nil {
			applog.Errorf("error closing transport: %v", err)
		}
	}
	if recordPath != "" {
		fmt.Printf("Recording saved to: %s\n", recordPath)
	}
}

// buildSource constructs the capture source selected by the configuration,
// wrapped in a recording tee when enabled. The returned path is empty unless
// recording is on.
func buildSource(cfg *config.Config) (analysis.Source, string, error) {
	var source analysis.Source
	switch cfg.Audio.Source {
	case "device":
		source = capture.NewDeviceSource(cfg.Audio.InputDevice, cfg.Audio.SampleRate)
	case "file":
		if cfg.Audio.FilePath == "" {
			return nil, "", fmt.Errorf("source is %q but no file path is configured", cfg.Audio.Source)
		}
		source = capture.NewFileSource(cfg.Audio.FilePath, cfg.Audio.SampleRate)
	case "sine":
		source = capture.NewSineSource(cfg.Audio.SineFrequency, cfg.Audio.SampleRate)
	default:
		return nil, "", fmt.Errorf("unknown capture source %q", cfg.Audio.Source)
	}

	if !cfg.Recording.Enabled {
		return source, "", nil
	}

	name := "recording-" + time.Now().UTC().Format("02-01-2006-150405") + ".wav"
	path := filepath.Join(cfg.Recording.OutputDir, name)
	return capture.NewRecorder(source, path, cfg.Audio.SampleRate), path, nil
}

// bandLayout resolves the configured band layout: explicit bands win, then a
// generated layout, then the built-in default.
func bandLayout(cfg *config.Config) ([]analysis.FrequencyBand, error) {
	if len(cfg.Analysis.Bands) > 0 {
		layout := make([]analysis.FrequencyBand, len(cfg.Analysis.Bands))
		for i, b := range cfg.Analysis.Bands {
			layout[i] = analysis.FrequencyBand{Name: b.Name, MinFreq: b.MinHz, MaxFreq: b.MaxHz}
		}
		return layout, nil
	}
	if l := cfg.Analysis.Layout; l != nil {
		switch l.Mode {
		case "linear":
			return analysis.LinearBands(l.Count, l.MinHz, l.MaxHz)
		case "log":
			return analysis.LogarithmicBands(l.Count, l.MinHz, l.MaxHz)
		}
	}
	return analysis.DefaultBands(), nil
}

func listDevices() error {
	devices, err := capture.Devices()
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}
	if len(devices) == 0 {
		fmt.Println("No audio devices found.")
		return nil
	}
	for _, d := range devices {
		marker := " "
		if d.MaxInputChannels > 0 {
			marker = "*"
		}
		fmt.Printf("%s [%d] %s (in: %d, out: %d, %.0f Hz)\n",
			marker, d.ID, d.Name, d.MaxInputChannels, d.MaxOutputChannels, d.DefaultSampleRate)
	}
	fmt.Println("\n* = usable as input. Select with --device <id>.")
	return nil
}
