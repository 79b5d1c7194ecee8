// SPDX-License-Identifier: MIT
/*
Package capture provides the audio input sources feeding the analyzer:
a PortAudio microphone source, a WAV file source and a synthetic tone
source, plus a tee that records everything read to a WAV file.

All sources speak signed 16-bit mono PCM and satisfy the analyzer's Source
capability (Start / blocking Read / Stop), so tests and the CLI can swap a
deterministic source for real hardware.
*/
package capture

// Source is the capability shared by every capture backend. Read blocks
// until up to len(dst) samples are available and returns the count actually
// read. Stop releases the backend, unblocks a pending Read and is safe to
// call more than once.
type Source interface {
	Start() error
	Read(dst []int16) (int, error)
	Stop() error
}
