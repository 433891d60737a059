// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/utils"
)

const (
	DefaultBitDepth     = 24
	DefaultSyncInterval = 4096
)

// Writer encodes PCM frames into a RIFF/WAVE stream.
//
// The header is written up front with zero sizes, so a reader opening the
// file before the first sync sees it in growing mode. Sizes are patched
// every sync interval and on Close.
type Writer struct {
	ws   io.WriteSeeker
	path string

	channels     int
	sampleRate   int
	bitDepth     int
	syncInterval int

	frames    int64
	sinceSync int
	buf       []byte
	closed    bool
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithBitDepth selects 8, 16 or 24-bit integer PCM, or 32-bit float.
func WithBitDepth(bits int) WriterOption {
	return func(w *Writer) { w.bitDepth = bits }
}

// WithSyncInterval sets how many frames are written between header
// updates. Zero or less patches the header only on Close.
func WithSyncInterval(frames int) WriterOption {
	return func(w *Writer) { w.syncInterval = frames }
}

// Create creates or truncates the file at path and writes the header.
func Create(path string, channels, sampleRate int, opts ...WriterOption) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, audio.OperationError("create", path, err)
	}

	w, err := newWriter(f, path, channels, sampleRate, opts...)
	if err != nil {
		_ = f.Close()
		var fe *audio.FileError
		if errors.As(err, &fe) {
			return nil, err
		}
		return nil, audio.NewFileError("create", path, audio.ErrInvalidFormat, err)
	}

	return w, nil
}

// NewWriter writes the header to ws. Close closes ws if it implements
// io.Closer.
func NewWriter(ws io.WriteSeeker, channels, sampleRate int, opts ...WriterOption) (*Writer, error) {
	return newWriter(ws, "", channels, sampleRate, opts...)
}

func newWriter(ws io.WriteSeeker, path string, channels, sampleRate int, opts ...WriterOption) (*Writer, error) {
	w := &Writer{
		ws:           ws,
		path:         path,
		channels:     channels,
		sampleRate:   sampleRate,
		bitDepth:     DefaultBitDepth,
		syncInterval: DefaultSyncInterval,
	}

	for _, opt := range opts {
		opt(w)
	}

	if channels <= 0 {
		return nil, ErrInvalidChannels
	}
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	switch w.bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, w.bitDepth)
	}

	var hdr [canonicalHeaderSize]byte
	putHeader(hdr[:], channels, sampleRate, w.bitDepth, 0, 0)
	if _, err := ws.Write(hdr[:]); err != nil {
		return nil, audio.OperationError("write", path, err)
	}

	return w, nil
}

func (w *Writer) SampleRate() int { return w.sampleRate }
func (w *Writer) Channels() int   { return w.channels }
func (w *Writer) BitDepth() int   { return w.bitDepth }

// FramesWritten returns the number of frames appended so far.
func (w *Writer) FramesWritten() int64 { return w.frames }

// WriteFrames appends interleaved frames, clamping samples to [-1, 1].
func (w *Writer) WriteFrames(frames []float32) (int, error) {
	if w.closed {
		return 0, ErrWriterClosed
	}
	if len(frames)%w.channels != 0 {
		return 0, audio.ErrInvalidDstSize
	}

	count := len(frames) / w.channels
	if count == 0 {
		return 0, nil
	}

	size := len(frames) * w.bitDepth / 8
	if cap(w.buf) < size {
		w.buf = make([]byte, size)
	}
	buf := w.buf[:size]
	w.encode(frames, buf)

	if _, err := w.ws.Write(buf); err != nil {
		return 0, audio.OperationError("write", w.path, err)
	}

	w.frames += int64(count)
	w.sinceSync += count

	if w.syncInterval > 0 && w.sinceSync >= w.syncInterval {
		w.sinceSync = 0
		if err := w.Sync(); err != nil {
			return count, err
		}
	}

	return count, nil
}

func (w *Writer) encode(src []float32, dst []byte) {
	switch w.bitDepth {
	case 8:
		for i, x := range src {
			dst[i] = utils.Float32ToUint8(x)
		}
	case 16:
		for i, x := range src {
			binary.LittleEndian.PutUint16(dst[i*2:], uint16(utils.Float32ToInt16(x)))
		}
	case 24:
		for i, x := range src {
			v := utils.Float32ToInt24(x)
			dst[i*3] = byte(v)
			dst[i*3+1] = byte(v >> 8)
			dst[i*3+2] = byte(v >> 16)
		}
	case 32:
		for i, x := range src {
			binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(utils.Clamp(x)))
		}
	}
}

// Sync patches the RIFF and data sizes to match the current stream length.
func (w *Writer) Sync() error {
	end, err := w.ws.Seek(0, io.SeekEnd)
	if err != nil {
		return audio.OperationError("sync", w.path, err)
	}

	var size [4]byte
	patches := []struct {
		offset int64
		value  int64
	}{
		{4, end - 8},
		{40, end - canonicalHeaderSize},
	}

	for _, p := range patches {
		binary.LittleEndian.PutUint32(size[:], uint32(min(max(p.value, 0), math.MaxUint32)))
		if _, err := w.ws.Seek(p.offset, io.SeekStart); err != nil {
			return audio.OperationError("sync", w.path, err)
		}
		if _, err := w.ws.Write(size[:]); err != nil {
			return audio.OperationError("sync", w.path, err)
		}
	}

	if _, err := w.ws.Seek(end, io.SeekStart); err != nil {
		return audio.OperationError("sync", w.path, err)
	}

	return nil
}

// Close patches the header and closes the underlying stream. Both failures
// are reported.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	syncErr := w.Sync()

	var closeErr error
	if c, ok := w.ws.(io.Closer); ok {
		if err := c.Close(); err != nil {
			closeErr = audio.OperationError("close", w.path, err)
		}
	}

	return errors.Join(syncErr, closeErr)
}
