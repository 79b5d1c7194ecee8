// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"math"
	"net"
	"testing"
	"time"

	"spectra/internal/analysis"
)

type staticProvider struct {
	bands []analysis.FrequencyBand
}

func (p *staticProvider) LatestBands() []analysis.FrequencyBand { return p.bands }

func TestPackPacketLayout(t *testing.T) {
	buf := new(bytes.Buffer)
	amps := []float32{0.5, 10, 2.25}
	if err := packPacket(buf, 7, 1234567890, amps); err != nil {
		t.Fatalf("packPacket: %v", err)
	}

	want := 4 + 8 + 2 + len(amps)*4
	if buf.Len() != want {
		t.Fatalf("packet length = %d, expected %d", buf.Len(), want)
	}

	raw := buf.Bytes()
	if seq := binary.BigEndian.Uint32(raw[0:4]); seq != 7 {
		t.Errorf("sequence = %d, expected 7", seq)
	}
	if ts := int64(binary.BigEndian.Uint64(raw[4:12])); ts != 1234567890 {
		t.Errorf("timestamp = %d, expected 1234567890", ts)
	}
	if count := binary.BigEndian.Uint16(raw[12:14]); count != 3 {
		t.Errorf("band count = %d, expected 3", count)
	}
	for i, wantAmp := range amps {
		got := math.Float32frombits(binary.BigEndian.Uint32(raw[14+i*4:]))
		if got != wantAmp {
			t.Errorf("amplitude %d = %g, expected %g", i, got, wantAmp)
		}
	}
}

func TestPackPacketReusesBuffer(t *testing.T) {
	buf := new(bytes.Buffer)
	packPacket(buf, 1, 0, []float32{1, 2, 3, 4})
	packPacket(buf, 2, 0, []float32{9})

	if want := 4 + 8 + 2 + 4; buf.Len() != want {
		t.Fatalf("second packet length = %d, expected %d", buf.Len(), want)
	}
	if seq := binary.BigEndian.Uint32(buf.Bytes()[0:4]); seq != 2 {
		t.Errorf("sequence = %d, expected 2", seq)
	}
}

func TestPublisherSendsLatestSnapshot(t *testing.T) {
	listener, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()

	sender, err := NewSender(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}
	defer sender.Close()

	provider := &staticProvider{bands: []analysis.FrequencyBand{
		{Name: "bass", NormalizedAmplitude: 10},
		{Name: "mid", NormalizedAmplitude: 4.5},
	}}
	pub, err := NewPublisher(time.Millisecond, sender, provider)
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	pub.Start()
	defer pub.Stop()

	listener.SetReadDeadline(time.Now().Add(2 * time.Second))
	raw := make([]byte, 2048)
	n, _, err := listener.ReadFromUDP(raw)
	if err != nil {
		t.Fatalf("no packet received: %v", err)
	}

	if want := 4 + 8 + 2 + 2*4; n != want {
		t.Fatalf("packet length = %d, expected %d", n, want)
	}
	if count := binary.BigEndian.Uint16(raw[12:14]); count != 2 {
		t.Fatalf("band count = %d, expected 2", count)
	}
	first := math.Float32frombits(binary.BigEndian.Uint32(raw[14:18]))
	second := math.Float32frombits(binary.BigEndian.Uint32(raw[18:22]))
	if first != 10 || second != 4.5 {
		t.Errorf("amplitudes = (%g, %g), expected (10, 4.5)", first, second)
	}

	// Sequence numbers increase across packets.
	n, _, err = listener.ReadFromUDP(raw)
	if err != nil {
		t.Fatalf("no second packet: %v", err)
	}
	if seq := binary.BigEndian.Uint32(raw[0:4]); seq < 2 {
		t.Errorf("second packet sequence = %d, expected >= 2", seq)
	}
}

func TestPublisherSkipsEmptySnapshot(t *testing.T) {
	listener, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()

	sender, err := NewSender(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}
	defer sender.Close()

	pub, err := NewPublisher(time.Millisecond, sender, &staticProvider{})
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	pub.Start()

	listener.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	if _, _, err := listener.ReadFromUDP(make([]byte, 64)); err == nil {
		t.Error("expected no packets before the first analysis cycle")
	}

	if err := pub.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := pub.Stop(); err != nil {
		t.Errorf("second Stop should be a no-op, got %v", err)
	}
}

func TestNewPublisherValidation(t *testing.T) {
	if _, err := NewPublisher(time.Millisecond, nil, &staticProvider{}); err == nil {
		t.Error("expected error for nil sender")
	}
	if _, err := NewPublisher(time.Millisecond, &Sender{}, nil); err == nil {
		t.Error("expected error for nil provider")
	}
}
