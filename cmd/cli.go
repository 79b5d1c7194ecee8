// SPDX-License-Identifier: MIT
package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"spectra/internal/config"
	"spectra/pkg/build"
)

// Options is the result of argument parsing: the merged configuration plus
// the selected one-off command, if any.
type Options struct {
	Config  *config.Config
	Command string // "" runs the analyzer, "list" prints devices
	NoTUI   bool   // run headless even with a terminal attached
}

// ParseArgs loads the YAML configuration and overlays command-line flags on
// top of it. Flags that the user did not set leave the file values alone.
func ParseArgs() (*Options, error) {
	info := build.GetInfo()
	options := &Options{}

	var (
		configPath string
		deviceID   int
		sampleRate float64
		bufferMs   int
		source     string
		filePath   string
		sineFreq   float64
		record     bool
		outputDir  string
		wsAddr     string
		udpTarget  string
		udpEvery   time.Duration
		logLevel   string
		debug      bool
	)

	rootCmd := &cobra.Command{
		Use:           info.Name,
		Short:         "Continuous real-time audio spectrum analyzer",
		Version:       info.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			// Only explicitly set flags override the file.
			flags := cmd.Flags()
			if flags.Changed("device") {
				cfg.Audio.InputDevice = deviceID
			}
			if flags.Changed("sample-rate") {
				cfg.Audio.SampleRate = sampleRate
			}
			if flags.Changed("buffer-ms") {
				cfg.Audio.BufferMs = bufferMs
			}
			if flags.Changed("source") {
				cfg.Audio.Source = source
			}
			if flags.Changed("file") {
				cfg.Audio.FilePath = filePath
				cfg.Audio.Source = "file"
			}
			if flags.Changed("sine-freq") {
				cfg.Audio.SineFrequency = sineFreq
				cfg.Audio.Source = "sine"
			}
			if flags.Changed("record") {
				cfg.Recording.Enabled = record
			}
			if flags.Changed("output-dir") {
				cfg.Recording.OutputDir = outputDir
			}
			if flags.Changed("websocket") {
				cfg.Transport.WebSocketEnabled = true
				cfg.Transport.WebSocketAddr = wsAddr
			}
			if flags.Changed("udp-target") {
				cfg.Transport.UDPEnabled = true
				cfg.Transport.UDPTargetAddress = udpTarget
			}
			if flags.Changed("udp-interval") {
				cfg.Transport.UDPSendInterval = udpEvery
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if flags.Changed("debug") {
				cfg.Debug = debug
			}

			if err := cfg.Validate(); err != nil {
				return err
			}
			options.Config = cfg
			return nil
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio input devices",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = "list"
		},
	}
	rootCmd.AddCommand(listCmd)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to the YAML configuration file")

	// Capture
	rootCmd.PersistentFlags().IntVarP(&deviceID, "device", "d", config.DefaultDeviceID,
		"Input device ID. Use 'list' to see available devices.")
	rootCmd.PersistentFlags().Float64VarP(&sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate in Hertz (Hz)")
	rootCmd.PersistentFlags().IntVarP(&bufferMs, "buffer-ms", "b", config.DefaultBufferMs,
		"Analysis buffer size in milliseconds (rounded up to a power-of-two sample count)")
	rootCmd.PersistentFlags().StringVar(&source, "source", config.DefaultSource,
		"Capture source: device, file or sine")
	rootCmd.PersistentFlags().StringVarP(&filePath, "file", "f", "",
		"Analyze a WAV file instead of live input (implies --source file)")
	rootCmd.PersistentFlags().Float64Var(&sineFreq, "sine-freq", config.DefaultSineFrequency,
		"Test tone frequency in Hz (implies --source sine)")

	// Recording
	rootCmd.PersistentFlags().BoolVarP(&record, "record", "r", false,
		"Record the raw captured input to a WAV file")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output-dir", "o", "",
		"Directory for recorded WAV files")

	// Transports
	rootCmd.PersistentFlags().StringVar(&wsAddr, "websocket", ":8080",
		"Serve band snapshots over WebSocket on this address")
	rootCmd.PersistentFlags().StringVar(&udpTarget, "udp-target", "",
		"Send band snapshots as UDP packets to this host:port")
	rootCmd.PersistentFlags().DurationVar(&udpEvery, "udp-interval", 16*time.Millisecond,
		"Interval between UDP packets")

	// Diagnostics
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Logging level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "v", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&options.NoTUI, "no-tui", false,
		"Run headless without the terminal spectrum view")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	return options, nil
}
