// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"errors"
	"io"
	"math"
	"sync"
)

var (
	// ErrDecode is returned by a MockSource configured with FailAt.
	ErrDecode = errors.New("audiotest: decode failure")
	// ErrSeek is returned for seeks on a non-seekable mock or past its end.
	ErrSeek = errors.New("audiotest: seek failure")
)

// MockSource is a test helper that generates interleaved frames.
// It implements audio.Source, audio.Seeker and audio.FrameCounter without
// importing the audio package, so audio's own tests can use it.
type MockSource struct {
	mu sync.Mutex

	sampleRate  int
	channels    int
	totalFrames int
	position    int
	waveform    func(frame int, channel int) float32

	seekable bool
	growing  bool
	chunk    int
	failAt   int
	closed   bool
	reads    int
}

// NewMockSource creates a mock with totalFrames frames whose values come
// from waveform.
func NewMockSource(sampleRate, channels, totalFrames int, waveform func(frame int, channel int) float32) *MockSource {
	return &MockSource{
		sampleRate:  sampleRate,
		channels:    channels,
		totalFrames: totalFrames,
		waveform:    waveform,
		failAt:      -1,
	}
}

// NewSilentSource creates a mock source that generates silence.
func NewSilentSource(sampleRate, channels, totalFrames int) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, func(int, int) float32 {
		return 0
	})
}

// NewSineSource creates a mock source that generates a sine wave.
func NewSineSource(sampleRate, channels, totalFrames int, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, func(frame int, _ int) float32 {
		t := float64(frame) / float64(sampleRate)
		return float32(math.Sin(2 * math.Pi * frequency * t))
	})
}

// NewConstantSource creates a mock source with constant value.
func NewConstantSource(sampleRate, channels, totalFrames int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, func(int, int) float32 {
		return value
	})
}

// NewRampSource creates a mock whose sample value encodes frame and channel
// as frame*channels+channel, scaled by 1/scale.
func NewRampSource(sampleRate, channels, totalFrames int, scale float32) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, func(frame int, channel int) float32 {
		return float32(frame*channels+channel) / scale
	})
}

// WithSeek makes the mock seekable.
func (m *MockSource) WithSeek() *MockSource {
	m.seekable = true
	return m
}

// WithGrowing makes the mock report end of data with a nil error instead
// of io.EOF, like a file that is still being written.
func (m *MockSource) WithGrowing() *MockSource {
	m.growing = true
	return m
}

// WithChunk caps every read at n frames.
func (m *MockSource) WithChunk(n int) *MockSource {
	m.chunk = n
	return m
}

// FailAt makes reads return ErrDecode once the position reaches frame.
func (m *MockSource) FailAt(frame int) *MockSource {
	m.failAt = frame
	return m
}

// Append extends the mock by n frames, for growing-file tests.
func (m *MockSource) Append(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalFrames += n
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }

func (m *MockSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockSource) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.closed
}

// Reads returns the number of ReadFrames calls so far.
func (m *MockSource) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.reads
}

// Position returns the next frame to be read.
func (m *MockSource) Position() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.position
}

// Reset rewinds the mock to its first frame.
func (m *MockSource) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.position = 0
}

func (m *MockSource) Seekable() bool { return m.seekable }

func (m *MockSource) Seek(frame int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.seekable || frame < 0 || frame > int64(m.totalFrames) {
		return ErrSeek
	}
	m.position = int(frame)

	return nil
}

func (m *MockSource) EstimatedFrameCount() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.growing {
		return 0
	}

	return int64(m.totalFrames)
}

func (m *MockSource) ReadFrames(dst []float32) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads++

	if m.failAt >= 0 && m.position >= m.failAt {
		return 0, ErrDecode
	}

	framesRequested := len(dst) / m.channels
	if m.chunk > 0 {
		framesRequested = min(framesRequested, m.chunk)
	}

	limit := m.totalFrames
	if m.failAt >= 0 {
		limit = min(limit, m.failAt)
	}
	framesToWrite := max(min(framesRequested, limit-m.position), 0)

	for frame := range framesToWrite {
		idx := m.position + frame
		for ch := range m.channels {
			dst[frame*m.channels+ch] = m.waveform(idx, ch)
		}
	}
	m.position += framesToWrite

	if m.failAt >= 0 && m.position >= m.failAt && framesToWrite < framesRequested {
		return framesToWrite, ErrDecode
	}

	if m.position >= m.totalFrames && framesToWrite < len(dst)/m.channels && !m.growing {
		return framesToWrite, io.EOF
	}

	return framesToWrite, nil
}
