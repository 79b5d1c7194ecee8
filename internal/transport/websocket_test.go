package transport

import (
	"runtime"
	"testing"
	"time"

	"spectra/internal/analysis"
)

func waitForGoroutines(t *testing.T, limit int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if runtime.NumGoroutine() <= limit {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("still %d goroutines, expected <= %d", runtime.NumGoroutine(), limit)
}

func TestWebSocketTransportCloseStopsBroadcaster(t *testing.T) {
	before := runtime.NumGoroutine()

	wst := NewWebSocketTransport("127.0.0.1:0")
	snapshot := []analysis.FrequencyBand{{Name: "low", NormalizedAmplitude: 5}}
	if err := wst.Send(snapshot); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if err := wst.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Both the server and the broadcaster goroutine must exit.
	waitForGoroutines(t, before)

	// Send after Close never blocks, even past the queue capacity.
	for i := 0; i < 512; i++ {
		if err := wst.Send(snapshot); err != nil {
			t.Fatalf("Send after Close: %v", err)
		}
	}

	if err := wst.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}
