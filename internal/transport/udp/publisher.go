// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"spectra/internal/analysis"
	applog "spectra/internal/log"
)

// BandProvider yields the most recent band snapshot. The analyzer
// satisfies this.
type BandProvider interface {
	LatestBands() []analysis.FrequencyBand
}

// Publisher periodically packs the latest normalized band amplitudes into a
// binary packet and sends it over UDP. It runs its own goroutine between
// Start and Stop, decoupled from the analysis cycle: a slow network path
// never backs up into the capture loop.
type Publisher struct {
	sender   *Sender
	provider BandProvider
	interval time.Duration

	mu       sync.Mutex
	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	sequenceNum uint32
	f32Buffer   []float32
	packet      *bytes.Buffer
}

// NewPublisher creates a publisher sending every interval. An interval <= 0
// defaults to 16ms (~60Hz).
func NewPublisher(interval time.Duration, sender *Sender, provider BandProvider) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("udp publisher: sender cannot be nil")
	}
	if provider == nil {
		return nil, fmt.Errorf("udp publisher: band provider cannot be nil")
	}
	if interval <= 0 {
		interval = 16 * time.Millisecond
		applog.Warnf("udp: invalid publish interval, defaulting to %s", interval)
	}

	return &Publisher{
		sender:   sender,
		provider: provider,
		interval: interval,
		packet:   new(bytes.Buffer),
	}, nil
}

// Start launches the publishing goroutine. A no-op when already running.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("udp: publisher already running")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Infof("udp: publishing every %s", p.interval)
		for {
			select {
			case <-ticker.C:
				p.publishLatest()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop terminates the publishing goroutine and waits for it to exit. Safe
// to call more than once.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	applog.Infof("udp: publisher stopped")
	return nil
}

// Close implements io.Closer.
func (p *Publisher) Close() error {
	return p.Stop()
}

/*
Packet layout (BigEndian):

|<-- 4 bytes -->|<---- 8 bytes ---->|<- 2 bytes ->|<---- N * 4 bytes ---->|
+---------------+-------------------+-------------+-----------------------+
|   Sequence    |     Timestamp     |    Band     | Normalized amplitudes |
|   (uint32)    |  (int64, ns unix) |    count    |     (N * float32)     |
|               |                   |  (uint16)   |                       |
+---------------+-------------------+-------------+-----------------------+
*/

func (p *Publisher) publishLatest() {
	bands := p.provider.LatestBands()
	if len(bands) == 0 {
		return
	}

	if cap(p.f32Buffer) < len(bands) {
		p.f32Buffer = make([]float32, len(bands))
	}
	p.f32Buffer = p.f32Buffer[:len(bands)]
	for i := range bands {
		p.f32Buffer[i] = float32(bands[i].NormalizedAmplitude)
	}

	p.sequenceNum++
	if err := packPacket(p.packet, p.sequenceNum, time.Now().UnixNano(), p.f32Buffer); err != nil {
		applog.Errorf("udp: error packing packet: %v", err)
		return
	}

	if err := p.sender.Send(p.packet.Bytes()); err != nil {
		applog.Debugf("udp: send failed: %v", err)
		return
	}
	applog.Debugf("udp: sent packet %d (%d bytes)", p.sequenceNum, p.packet.Len())
}

// packPacket resets buf and writes one packet into it.
func packPacket(buf *bytes.Buffer, seq uint32, timestamp int64, amplitudes []float32) error {
	buf.Reset()
	if err := binary.Write(buf, binary.BigEndian, seq); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.BigEndian, timestamp); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(amplitudes))); err != nil {
		return err
	}
	return binary.Write(buf, binary.BigEndian, amplitudes)
}
