// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	applog "spectra/internal/log"
	"spectra/pkg/bitint"
)

const (
	// cycleDelay bounds CPU usage between capture cycles.
	cycleDelay = 10 * time.Millisecond
	// stopTimeout bounds how long Stop waits for the worker's current cycle.
	stopTimeout = time.Second
)

// Source is the capture capability the analyzer consumes. Read blocks until
// up to len(dst) samples of signed 16-bit mono PCM are available and returns
// the count actually read; a short read is valid. Stop must unblock a pending
// Read and must be safe to call more than once.
type Source interface {
	Start() error
	Read(dst []int16) (int, error)
	Stop() error
}

// Listener receives the ordered band snapshot once per successful cycle. It
// runs on the capture worker; consumers needing another goroutine must hand
// off themselves, and must copy the slice before retaining it.
type Listener func(bands []FrequencyBand)

// Snapshot is the immutable result of one completed cycle.
type Snapshot struct {
	Bands []FrequencyBand
	Bins  []FrequencyBin
}

// cycleConfig bundles everything derived from one buffer size. The worker
// pins the whole struct once per cycle so buffer, window and transformer can
// never be observed mismatched.
type cycleConfig struct {
	bufferMs    int
	bufferSize  int // power of two >= sampleRate*bufferMs/1000
	window      []float64
	transformer *Transformer
}

func newCycleConfig(sampleRate float64, bufferMs int) (*cycleConfig, error) {
	if bufferMs <= 0 {
		return nil, fmt.Errorf("buffer size must be positive, got %dms", bufferMs)
	}
	size := bitint.NextPowerOfTwo(int(sampleRate) * bufferMs / 1000)
	transformer, err := NewTransformer(size, sampleRate)
	if err != nil {
		return nil, err
	}
	return &cycleConfig{
		bufferMs:    bufferMs,
		bufferSize:  size,
		window:      HanningWindow(size),
		transformer: transformer,
	}, nil
}

// Analyzer owns the capture loop and exposes configuration, lifecycle and the
// latest results. Reconfiguration is safe while recording: new settings are
// swapped in atomically and take effect on the next cycle.
type Analyzer struct {
	sampleRate float64
	source     Source

	cfg      atomic.Pointer[cycleConfig]
	bands    atomic.Pointer[BandSet]
	listener atomic.Pointer[Listener]
	latest   atomic.Pointer[Snapshot]

	recording  atomic.Bool
	mu         sync.Mutex // serializes Start/Stop transitions
	workerDone chan struct{}
}

// NewAnalyzer builds an analyzer reading from source at the given sample
// rate. A nil layout selects the default band layout.
func NewAnalyzer(source Source, sampleRate float64, bufferMs int, layout []FrequencyBand) (*Analyzer, error) {
	if source == nil {
		return nil, errors.New("analyzer requires a capture source")
	}
	cfg, err := newCycleConfig(sampleRate, bufferMs)
	if err != nil {
		return nil, err
	}
	if layout == nil {
		layout = DefaultBands()
	}
	bandSet, err := NewBandSet(layout)
	if err != nil {
		return nil, err
	}

	a := &Analyzer{
		sampleRate: sampleRate,
		source:     source,
	}
	a.cfg.Store(cfg)
	a.bands.Store(bandSet)

	applog.Infof("analyzer: initialized (buffer: %dms / %d samples, resolution: %.2f Hz, bands: %d)",
		bufferMs, cfg.bufferSize, a.FrequencyResolution(), bandSet.Len())
	return a, nil
}

// Configure sets a new buffer size in milliseconds. The derived sample count
// is the next power of two >= sampleRate*ms/1000 and the window table is
// recomputed to match. Invalid sizes are rejected with a warning, keeping the
// previous configuration. Takes effect on the next cycle.
func (a *Analyzer) Configure(bufferMs int) {
	cfg, err := newCycleConfig(a.sampleRate, bufferMs)
	if err != nil {
		applog.Warnf("analyzer: rejecting buffer configuration: %v", err)
		return
	}
	a.cfg.Store(cfg)
	applog.Infof("analyzer: buffer size updated to %dms (%d samples, resolution %.2f Hz)",
		bufferMs, cfg.bufferSize, a.sampleRate/float64(cfg.bufferSize))
}

// SetBands replaces the band configuration atomically between cycles.
// An empty layout is rejected with a warning, keeping the previous bands.
func (a *Analyzer) SetBands(layout []FrequencyBand) {
	bandSet, err := NewBandSet(layout)
	if err != nil {
		applog.Warnf("analyzer: rejecting band configuration: %v", err)
		return
	}
	a.bands.Store(bandSet)
	applog.Infof("analyzer: band layout updated (%d bands)", bandSet.Len())
}

// SetListener registers the single analysis listener, replacing any previous
// one. A nil listener clears it.
func (a *Analyzer) SetListener(l Listener) {
	if l == nil {
		a.listener.Store(nil)
		return
	}
	a.listener.Store(&l)
}

// Start acquires the capture source and spawns the capture worker. Calling
// Start while already recording is a warned no-op. If the source cannot be
// acquired the error is returned and the analyzer stays idle.
func (a *Analyzer) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.recording.Load() {
		applog.Warnf("analyzer: recording already in progress")
		return nil
	}

	if err := a.source.Start(); err != nil {
		return fmt.Errorf("failed to start capture source: %w", err)
	}

	a.recording.Store(true)
	a.workerDone = make(chan struct{})
	go a.run(a.workerDone)

	applog.Infof("analyzer: capture started")
	return nil
}

// Stop signals the worker to exit, releases the capture source and waits up
// to stopTimeout for the current cycle to finish. Calling Stop while idle is
// a warned no-op; a join timeout is logged, not escalated.
func (a *Analyzer) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.recording.Load() {
		applog.Warnf("analyzer: no recording in progress")
		return
	}
	a.recording.Store(false)

	if err := a.source.Stop(); err != nil {
		applog.Errorf("analyzer: error stopping capture source: %v", err)
	}

	select {
	case <-a.workerDone:
	case <-time.After(stopTimeout):
		applog.Warnf("analyzer: timed out waiting for capture worker to finish")
	}
	applog.Infof("analyzer: capture stopped")
}

// run is the capture worker. Cycles are strictly sequential: read →
// transform → aggregate → notify, then a short delay. Configuration is
// pinned once at the top of each cycle. A fatal read error releases the
// source and settles the analyzer back to idle.
func (a *Analyzer) run(done chan<- struct{}) {
	defer close(done)

	var buf []int16
	for a.recording.Load() {
		cfg := a.cfg.Load()
		if cap(buf) < cfg.bufferSize {
			buf = make([]int16, cfg.bufferSize)
		}
		buf = buf[:cfg.bufferSize]

		n, err := a.source.Read(buf)
		if n > 0 {
			a.processCycle(cfg, buf[:n])
		}
		if err != nil {
			switch {
			case !a.recording.Load():
				// Stop released the source mid-read; not a failure.
				applog.Debugf("analyzer: capture read interrupted by stop")
			case errors.Is(err, io.EOF):
				applog.Infof("analyzer: capture source exhausted")
			default:
				applog.Errorf("analyzer: capture cycle failed: %v", err)
			}
			a.recording.Store(false)
			if stopErr := a.source.Stop(); stopErr != nil {
				applog.Errorf("analyzer: error releasing capture source: %v", stopErr)
			}
			return
		}

		time.Sleep(cycleDelay)
	}
}

// processCycle runs transform → aggregate → publish → notify for one buffer.
func (a *Analyzer) processCycle(cfg *cycleConfig, samples []int16) {
	bins := cfg.transformer.Transform(samples, cfg.window)

	bandSet := a.bands.Load()
	bandSet.Aggregate(bins)

	snap := &Snapshot{
		Bands: bandSet.Snapshot(),
		Bins:  append([]FrequencyBin(nil), bins...),
	}
	a.latest.Store(snap)

	if l := a.listener.Load(); l != nil {
		(*l)(snap.Bands)
	}
}

// IsRecording reports whether the capture worker is active.
func (a *Analyzer) IsRecording() bool {
	return a.recording.Load()
}

// SampleRate returns the fixed capture sample rate in Hz.
func (a *Analyzer) SampleRate() float64 {
	return a.sampleRate
}

// BufferSizeMs returns the configured buffer size in milliseconds.
func (a *Analyzer) BufferSizeMs() int {
	return a.cfg.Load().bufferMs
}

// BufferSize returns the derived buffer size in samples (a power of two).
func (a *Analyzer) BufferSize() int {
	return a.cfg.Load().bufferSize
}

// FrequencyResolution returns sampleRate/bufferSize in Hz.
func (a *Analyzer) FrequencyResolution() float64 {
	return a.sampleRate / float64(a.cfg.Load().bufferSize)
}

// LatestBands returns a copy of the most recent band snapshot, or an empty
// slice if no cycle has completed yet.
func (a *Analyzer) LatestBands() []FrequencyBand {
	snap := a.latest.Load()
	if snap == nil {
		return []FrequencyBand{}
	}
	return append([]FrequencyBand(nil), snap.Bands...)
}

// LatestBins returns a copy of the most recent bin snapshot, or an empty
// slice if no cycle has completed yet.
func (a *Analyzer) LatestBins() []FrequencyBin {
	snap := a.latest.Load()
	if snap == nil {
		return []FrequencyBin{}
	}
	return append([]FrequencyBin(nil), snap.Bins...)
}

// Bands returns the current band layout with zero-value accumulators.
// Read-back order matches configuration order. Live accumulator values are
// published only through LatestBands, never read from the set the capture
// worker aggregates into.
func (a *Analyzer) Bands() []FrequencyBand {
	return a.bands.Load().Layout()
}
