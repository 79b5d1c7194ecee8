package transport

import (
	"fmt"
	"strings"

	"spectra/internal/analysis"
	applog "spectra/internal/log"
)

// LoggingTransport logs a compact summary of each band snapshot at debug
// level. Useful when running headless without any network consumer.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport.
func NewLoggingTransport() *LoggingTransport {
	applog.Infof("transport: using logging transport")
	return &LoggingTransport{}
}

// Send logs the snapshot. Never fails.
func (lt *LoggingTransport) Send(data any) error {
	bands, ok := data.([]analysis.FrequencyBand)
	if !ok {
		applog.Debugf("transport: snapshot (%T): %+v", data, data)
		return nil
	}

	var sb strings.Builder
	for i := range bands {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%s=%.1f", bands[i].Name, bands[i].NormalizedAmplitude)
	}
	applog.Debugf("transport: %s", sb.String())
	return nil
}

// Close is a no-op.
func (lt *LoggingTransport) Close() error {
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
