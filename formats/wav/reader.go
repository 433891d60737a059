// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/utils"
)

// Reader decodes PCM frames from a RIFF/WAVE stream.
//
// A data chunk declaring zero bytes puts the reader in growing mode: the
// file is assumed to still be written, short reads return what is there
// with a nil error, and the reader is not seekable. Otherwise reads stop at
// the declared size.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	rs   io.ReadSeeker
	path string

	hdr           header
	bytesPerFrame int
	dataStart     int64
	readOffset    int64

	pollInterval time.Duration
	maxWait      time.Duration

	buf    []byte
	logger *slog.Logger
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithIncrementalTimeouts is the option form of SetIncrementalTimeouts.
func WithIncrementalTimeouts(poll, maxWait time.Duration) ReaderOption {
	return func(r *Reader) { r.SetIncrementalTimeouts(poll, maxWait) }
}

// WithReaderLogger routes debug output of the reader to l.
func WithReaderLogger(l *slog.Logger) ReaderOption {
	return func(r *Reader) {
		if l != nil {
			r.logger = l
		}
	}
}

// Open opens the WAV file at path.
func Open(path string, opts ...ReaderOption) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, audio.NewFileError("open", path, audio.ErrFileNotFound, err)
		}
		return nil, audio.OperationError("open", path, err)
	}

	r, err := newReader(f, path, opts...)
	if err != nil {
		_ = f.Close()
		return nil, audio.FormatError(path, err)
	}

	return r, nil
}

// NewReader parses the header from rs and leaves it positioned at the first
// frame. Close closes rs if it implements io.Closer.
func NewReader(rs io.ReadSeeker, opts ...ReaderOption) (*Reader, error) {
	return newReader(rs, "", opts...)
}

func newReader(rs io.ReadSeeker, path string, opts ...ReaderOption) (*Reader, error) {
	hdr, err := readHeader(rs)
	if err != nil {
		return nil, err
	}

	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("locate data chunk: %w", err)
	}

	r := &Reader{
		rs:            rs,
		path:          path,
		hdr:           hdr,
		bytesPerFrame: hdr.bytesPerFrame(),
		dataStart:     start,
		logger:        slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(r)
	}

	r.logger.Debug("wav header parsed",
		slog.String("path", path),
		slog.Int("channels", hdr.channels),
		slog.Int("sample_rate", hdr.sampleRate),
		slog.Int("bit_depth", hdr.bitDepth),
		slog.Int64("data_start", start),
		slog.Int64("data_size", hdr.dataSize))

	return r, nil
}

func (r *Reader) SampleRate() int { return r.hdr.sampleRate }
func (r *Reader) Channels() int   { return r.hdr.channels }

// BitDepth returns the stored bits per sample.
func (r *Reader) BitDepth() int { return r.hdr.bitDepth }

func (r *Reader) TrackName() string  { return r.hdr.track }
func (r *Reader) ArtistName() string { return r.hdr.artist }

// Growing reports whether the header declared an empty data chunk.
func (r *Reader) Growing() bool { return r.hdr.dataSize == 0 }

// Seekable reports whether the data size is known.
func (r *Reader) Seekable() bool { return !r.Growing() }

// EstimatedFrameCount returns the declared number of frames, or 0 in
// growing mode.
func (r *Reader) EstimatedFrameCount() int64 {
	return r.hdr.dataSize / int64(r.bytesPerFrame)
}

// SetIncrementalTimeouts makes a short read in growing mode retry every poll
// until maxWait has elapsed in total. Zero values return immediately.
func (r *Reader) SetIncrementalTimeouts(poll, maxWait time.Duration) {
	r.pollInterval = max(poll, 0)
	r.maxWait = max(maxWait, 0)
}

// Seek moves to the given frame. Seeking to the frame just past the last
// one is allowed and leaves the reader at end of data.
func (r *Reader) Seek(frame int64) error {
	if r.Growing() {
		return audio.ErrNotSeekable
	}

	total := r.EstimatedFrameCount()
	if frame < 0 || frame > total {
		return fmt.Errorf("%w: frame %d of %d", audio.ErrSeekOutOfRange, frame, total)
	}

	target := frame*int64(r.bytesPerFrame) + r.dataStart

	pos, err := r.rs.Seek(target, io.SeekStart)
	if err != nil {
		return audio.OperationError("seek", r.path, err)
	}
	r.readOffset = pos - r.dataStart

	return nil
}

// ReadFrames decodes up to len(dst)/Channels() frames into dst.
func (r *Reader) ReadFrames(dst []float32) (int, error) {
	ch := r.hdr.channels
	if len(dst)%ch != 0 {
		return 0, audio.ErrInvalidDstSize
	}

	frames := len(dst) / ch
	if frames == 0 {
		return 0, nil
	}

	requested := frames
	if !r.Growing() {
		remaining := (r.hdr.dataSize - r.readOffset) / int64(r.bytesPerFrame)
		if remaining <= 0 {
			return 0, io.EOF
		}
		frames = int(min(int64(frames), remaining))
	}

	want := frames * r.bytesPerFrame
	if cap(r.buf) < want {
		r.buf = make([]byte, want)
	}
	buf := r.buf[:want]

	n, err := r.fill(buf)
	if err != nil {
		return 0, err
	}

	// Push back a trailing partial frame so the next read starts on a frame
	// boundary.
	if rem := n % r.bytesPerFrame; rem != 0 {
		if _, err := r.rs.Seek(-int64(rem), io.SeekCurrent); err != nil {
			return 0, audio.OperationError("seek", r.path, err)
		}
		n -= rem
	}

	got := n / r.bytesPerFrame
	r.readOffset += int64(n)
	r.decode(buf[:n], dst[:got*ch])

	if got < requested && !r.Growing() {
		return got, io.EOF
	}

	return got, nil
}

// fill reads into buf until it is full or the data runs out. In growing
// mode it keeps polling for up to maxWait.
func (r *Reader) fill(buf []byte) (int, error) {
	n, err := io.ReadFull(r.rs, buf)
	if err == nil {
		return n, nil
	}
	if !isTruncation(err) {
		return n, audio.OperationError("read", r.path, err)
	}

	if !r.Growing() || r.maxWait <= 0 || r.pollInterval <= 0 {
		return n, nil
	}

	deadline := time.Now().Add(r.maxWait)
	for n < len(buf) && time.Now().Before(deadline) {
		time.Sleep(min(r.pollInterval, time.Until(deadline)))

		m, err := io.ReadFull(r.rs, buf[n:])
		n += m
		if err != nil && !isTruncation(err) {
			return n, audio.OperationError("read", r.path, err)
		}
	}

	return n, nil
}

func (r *Reader) decode(src []byte, dst []float32) {
	switch {
	case r.hdr.format == formatFloat:
		for i := range dst {
			dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
		}
	case r.hdr.bitDepth == 8:
		for i := range dst {
			dst[i] = float32(int(src[i])-128) / 128
		}
	case r.hdr.bitDepth == 16:
		for i := range dst {
			b := src[i*2:]
			dst[i] = utils.PCMToFloat32(int32(int16(binary.LittleEndian.Uint16(b))), 16)
		}
	case r.hdr.bitDepth == 24:
		for i := range dst {
			b := src[i*3:]
			dst[i] = utils.PCMToFloat32(int32(uint32(b[0])<<8|uint32(b[1])<<16|uint32(b[2])<<24)>>8, 24)
		}
	}
}

// Close closes the underlying stream if it is an io.Closer.
func (r *Reader) Close() error {
	c, ok := r.rs.(io.Closer)
	if !ok {
		return nil
	}

	if err := c.Close(); err != nil {
		return audio.OperationError("close", r.path, err)
	}

	return nil
}
