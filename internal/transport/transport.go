// Package transport pushes analysis results to external consumers. Two
// transports exist: a WebSocket broadcaster for browser visualizers and a
// UDP publisher for low-latency native clients. Both read the analyzer's
// latest snapshot and never block the capture loop.
package transport

// Transport is a generic sink for analysis results.
// Implementations must be safe for concurrent use.
type Transport interface {
	Send(data any) error
	Close() error
}
