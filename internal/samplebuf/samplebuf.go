// SPDX-License-Identifier: EPL-2.0

// Package samplebuf provides a bounded FIFO of float32 samples shared by a
// single producer and a single consumer.
package samplebuf

import (
	"encoding/binary"
	"math"

	"github.com/smallnest/ringbuffer"
)

const sampleBytes = 4

// Buffer is a circular buffer of interleaved samples. Write and Read never
// exceed WriteSpace and ReadSpace respectively; they return the number of
// samples actually moved.
//
// One goroutine may write while another reads. Each side owns its own
// scratch space, so neither call allocates once warmed up.
type Buffer struct {
	rb *ringbuffer.RingBuffer

	wbuf []byte
	rbuf []byte
}

// New allocates a buffer holding up to capacity samples.
func New(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}

	return &Buffer{
		rb: ringbuffer.New(capacity * sampleBytes),
	}
}

// Capacity returns the number of samples the buffer can hold.
func (b *Buffer) Capacity() int { return b.rb.Capacity() / sampleBytes }

// ReadSpace returns the number of samples available to Read.
func (b *Buffer) ReadSpace() int { return b.rb.Length() / sampleBytes }

// WriteSpace returns the number of samples that can be written.
func (b *Buffer) WriteSpace() int { return b.rb.Free() / sampleBytes }

// Write appends as many samples as fit and returns how many were written.
func (b *Buffer) Write(samples []float32) int {
	n := min(len(samples), b.WriteSpace())
	if n == 0 {
		return 0
	}

	if cap(b.wbuf) < n*sampleBytes {
		b.wbuf = make([]byte, n*sampleBytes)
	}
	buf := b.wbuf[:n*sampleBytes]

	for i, s := range samples[:n] {
		binary.LittleEndian.PutUint32(buf[i*sampleBytes:], math.Float32bits(s))
	}

	written, _ := b.rb.Write(buf)

	return written / sampleBytes
}

// Read moves up to len(dst) samples into dst and returns how many were read.
func (b *Buffer) Read(dst []float32) int {
	n := min(len(dst), b.ReadSpace())
	if n == 0 {
		return 0
	}

	if cap(b.rbuf) < n*sampleBytes {
		b.rbuf = make([]byte, n*sampleBytes)
	}
	buf := b.rbuf[:n*sampleBytes]

	read, _ := b.rb.Read(buf)
	read /= sampleBytes

	for i := range read {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*sampleBytes:]))
	}

	return read
}

// Skip discards up to n unread samples and returns how many were dropped.
func (b *Buffer) Skip(n int) int {
	var scratch [256]float32

	skipped := 0
	for skipped < n {
		got := b.Read(scratch[:min(len(scratch), n-skipped)])
		if got == 0 {
			break
		}
		skipped += got
	}

	return skipped
}

// Reset discards all unread samples.
func (b *Buffer) Reset() { b.rb.Reset() }

// Resized returns a new buffer of the given capacity holding the unread
// content of b, in order. b is drained in the process. A capacity smaller
// than ReadSpace is raised to fit.
func (b *Buffer) Resized(capacity int) *Buffer {
	capacity = max(capacity, b.ReadSpace())

	nb := New(capacity)

	tmp := make([]float32, b.ReadSpace())
	n := b.Read(tmp)
	nb.Write(tmp[:n])

	return nb
}
