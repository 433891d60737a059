// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/ik5/audstream/internal/samplebuf"
)

// Stream decorates a Source so that frames can be retrieved at a rate other
// than the source's native rate.
//
// With no retrieval rate set, or one equal to the native rate, every call
// passes straight through to the wrapped source and seeking works as the
// source allows. Otherwise frames are resampled and the stream is not
// seekable.
//
// A Stream is not safe for concurrent use; use one per goroutine.
type Stream struct {
	src      Source
	channels int
	rate     int

	retrievalRate int
	quality       Quality
	logger        *slog.Logger

	resampler *channelResampler
	buffer    *samplebuf.Buffer
	transfer  []float32
	resampled []float32

	// nativeFrames counts frames pulled from src while resampling, produced
	// counts frames emitted by the resampler and delivered counts frames
	// handed to the caller. delivered never exceeds
	// floor(nativeFrames * retrievalRate / rate).
	nativeFrames int64
	produced     int64
	delivered    int64
	exhausted    bool
}

// StreamOption configures a Stream.
type StreamOption func(*Stream)

// WithRetrievalRate sets the rate frames are delivered at. Zero means the
// native rate.
func WithRetrievalRate(rate int) StreamOption {
	return func(s *Stream) { s.retrievalRate = max(rate, 0) }
}

// WithQuality selects the resampler preset. The default is QualityHigh.
func WithQuality(q Quality) StreamOption {
	return func(s *Stream) { s.quality = q }
}

// WithLogger routes debug output of the stream to l.
func WithLogger(l *slog.Logger) StreamOption {
	return func(s *Stream) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStream wraps src.
func NewStream(src Source, opts ...StreamOption) *Stream {
	s := &Stream{
		src:      src,
		channels: src.Channels(),
		rate:     src.SampleRate(),
		quality:  QualityHigh,
		logger:   slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SampleRate returns the native sample rate of the wrapped source.
func (s *Stream) SampleRate() int { return s.rate }
func (s *Stream) Channels() int   { return s.channels }

// Unwrap returns the wrapped source.
func (s *Stream) Unwrap() Source { return s.src }

// SetRetrievalRate changes the rate frames are delivered at. Zero restores
// the native rate. Any resampler state from a previous rate is discarded.
func (s *Stream) SetRetrievalRate(rate int) {
	rate = max(rate, 0)
	if rate == s.retrievalRate {
		return
	}

	s.retrievalRate = rate
	s.resetResampler()
}

// RetrievalRate returns the rate frames are delivered at.
func (s *Stream) RetrievalRate() int {
	if s.retrievalRate == 0 {
		return s.rate
	}

	return s.retrievalRate
}

func (s *Stream) resampling() bool {
	return s.retrievalRate != 0 && s.retrievalRate != s.rate && s.channels != 0
}

// Seekable reports whether Seek can succeed.
func (s *Stream) Seekable() bool {
	if s.resampling() {
		return false
	}

	sk, ok := s.src.(Seeker)
	return ok && sk.Seekable()
}

// Seek moves the stream to the given native-rate frame.
func (s *Stream) Seek(frame int64) error {
	if s.resampling() {
		return ErrNotSeekable
	}

	sk, ok := s.src.(Seeker)
	if !ok {
		return ErrNotSeekable
	}

	return sk.Seek(frame)
}

// EstimatedFrameCount returns the wrapped source's native-rate length, or 0.
func (s *Stream) EstimatedFrameCount() int64 {
	if fc, ok := s.src.(FrameCounter); ok {
		return fc.EstimatedFrameCount()
	}

	return 0
}

func (s *Stream) TrackName() string {
	if t, ok := s.src.(Tagger); ok {
		return t.TrackName()
	}

	return ""
}

func (s *Stream) ArtistName() string {
	if t, ok := s.src.(Tagger); ok {
		return t.ArtistName()
	}

	return ""
}

func (s *Stream) Close() error {
	if err := s.src.Close(); err != nil {
		return fmt.Errorf("close source: %w", err)
	}

	return nil
}

// ReadFrames fills dst with interleaved frames at the retrieval rate.
func (s *Stream) ReadFrames(dst []float32) (int, error) {
	if s.channels == 0 {
		return s.src.ReadFrames(dst)
	}

	if len(dst)%s.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if !s.resampling() {
		return s.src.ReadFrames(dst)
	}

	return s.readResampled(dst)
}

func (s *Stream) readResampled(dst []float32) (int, error) {
	count := len(dst) / s.channels
	if count == 0 {
		return 0, nil
	}

	samples := count * s.channels

	if s.resampler == nil {
		cr, err := newChannelResampler(s.channels, s.rate, s.retrievalRate, s.quality)
		if err != nil {
			return 0, err
		}
		s.resampler = cr
		s.buffer = samplebuf.New(samples * 2)

		s.logger.Debug("resampler created",
			slog.Int("native_rate", s.rate),
			slog.Int("retrieval_rate", s.retrievalRate),
			slog.Int("channels", s.channels),
			slog.String("quality", s.quality.String()))
	}

	ratio := float64(s.retrievalRate) / float64(s.rate)

	for s.buffer.ReadSpace() < samples && !s.exhausted {
		remaining := samples - s.buffer.ReadSpace()
		need := max(int(math.Ceil(float64(remaining)/(float64(s.channels)*ratio))), 1)

		if cap(s.transfer) < need*s.channels {
			s.transfer = make([]float32, need*s.channels)
		}
		in := s.transfer[:need*s.channels]

		got, err := s.src.ReadFrames(in)
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
		s.nativeFrames += int64(got)

		if got == need && !errors.Is(err, io.EOF) {
			if err := s.feed(in, got, false); err != nil {
				return 0, err
			}
			continue
		}

		s.exhausted = true
		clear(in[got*s.channels:])

		s.logger.Debug("source exhausted",
			slog.Int64("native_frames", s.nativeFrames))

		if err := s.finish(in); err != nil {
			return 0, err
		}
	}

	available := s.nativeFrames*int64(s.retrievalRate)/int64(s.rate) - s.delivered
	toReturn := min(int64(count), available, int64(s.buffer.ReadSpace()/s.channels))
	toReturn = max(toReturn, 0)

	n := s.buffer.Read(dst[:int(toReturn)*s.channels]) / s.channels
	s.delivered += int64(n)

	if n < count && s.exhausted {
		return n, io.EOF
	}

	return n, nil
}

// feed resamples frames frames of in into the buffer.
func (s *Stream) feed(in []float32, frames int, final bool) error {
	out, err := s.resampler.process(in, frames, final, s.resampled[:0])
	if err != nil {
		return err
	}
	s.resampled = out
	s.produced += int64(len(out) / s.channels)

	if s.buffer.WriteSpace() < len(out) {
		s.buffer = s.buffer.Resized(max(2*s.buffer.Capacity(), s.buffer.ReadSpace()+len(out)))
	}
	s.buffer.Write(out)

	return nil
}

// finish feeds the zero-padded last block, then silence until the filter
// delay has released every frame owed for the native input, then flushes.
// Padding is bounded by one second of native frames.
func (s *Stream) finish(last []float32) error {
	frames := len(last) / s.channels
	if err := s.feed(last, frames, false); err != nil {
		return err
	}

	owed := s.nativeFrames * int64(s.retrievalRate) / int64(s.rate)
	clear(last)

	for padded := 0; s.produced < owed && padded < s.rate; padded += frames {
		if err := s.feed(last, frames, false); err != nil {
			return err
		}
	}

	return s.feed(last, 0, true)
}

func (s *Stream) resetResampler() {
	s.resampler = nil
	s.buffer = nil
	s.nativeFrames = 0
	s.produced = 0
	s.delivered = 0
	s.exhausted = false
}
