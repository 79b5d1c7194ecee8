// SPDX-License-Identifier: MIT
package capture

import (
	"errors"
	"testing"
)

// sequenceRefill fills the ring's chunk with a continuing sample counter,
// standing in for a blocking stream read.
func sequenceRefill(ring *chunkRing) func() error {
	next := 0
	return func() error {
		for i := range ring.chunk {
			ring.chunk[i] = int16(next % 32768)
			next++
		}
		return nil
	}
}

func TestChunkRingGaplessAcrossReadLengths(t *testing.T) {
	ring := newChunkRing(8)
	refill := sequenceRefill(ring)

	// Lengths deliberately misaligned with the chunk size: reads must carry
	// leftovers across calls without dropping or repeating samples.
	var got []int16
	for _, size := range []int{5, 8, 3, 13, 1, 20} {
		dst := make([]int16, size)
		n, err := ring.fill(dst, refill)
		if err != nil {
			t.Fatalf("fill(%d): %v", size, err)
		}
		if n != size {
			t.Fatalf("fill(%d) returned %d samples", size, n)
		}
		got = append(got, dst...)
	}

	for i, s := range got {
		if s != int16(i) {
			t.Fatalf("sample %d = %d, stream is not gapless", i, s)
		}
	}
}

func TestChunkRingRefillCount(t *testing.T) {
	ring := newChunkRing(512)
	refills := 0
	refill := func() error {
		refills++
		return nil
	}

	// 1024 samples from 512-sample chunks: exactly two refills.
	if _, err := ring.fill(make([]int16, 1024), refill); err != nil {
		t.Fatal(err)
	}
	if refills != 2 {
		t.Errorf("refilled %d times, expected 2", refills)
	}

	// A read smaller than the chunk consumes the carry-over first.
	refills = 0
	ring.fill(make([]int16, 256), refill)
	ring.fill(make([]int16, 256), refill)
	if refills != 1 {
		t.Errorf("refilled %d times for two half-chunk reads, expected 1", refills)
	}
}

func TestChunkRingSurfacesRefillError(t *testing.T) {
	ring := newChunkRing(4)
	okRefill := sequenceRefill(ring)
	if _, err := ring.fill(make([]int16, 4), okRefill); err != nil {
		t.Fatal(err)
	}

	// The carry-over is empty, so the next fill needs a refill and must
	// report how much was copied before the failure.
	failed := errors.New("stream aborted")
	n, err := ring.fill(make([]int16, 4), func() error { return failed })
	if !errors.Is(err, failed) {
		t.Fatalf("err = %v, expected the refill error", err)
	}
	if n != 0 {
		t.Errorf("fill copied %d samples past a failed refill", n)
	}
}
