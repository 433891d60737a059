// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/utils"
)

// aiffReader is an interface for aiff.Decoder to allow testing
type aiffReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// Source wraps go-audio aiff.Decoder to implement audio.Source.
type Source struct {
	dec    aiffReader
	closer io.Closer

	sampleRate int
	channels   int
	bitDepth   int
	frames     int64

	intBuf *goaudio.IntBuffer
	eof    bool
}

func newSource(dec aiffReader, sampleRate, channels, bitDepth int, frames int64) *Source {
	return &Source{
		dec:        dec,
		sampleRate: sampleRate,
		channels:   channels,
		bitDepth:   bitDepth,
		frames:     frames,
	}
}

func (s *Source) SampleRate() int { return s.sampleRate }
func (s *Source) Channels() int   { return s.channels }
func (s *Source) BitDepth() int   { return s.bitDepth }

// EstimatedFrameCount returns the frame count declared in the COMM chunk.
func (s *Source) EstimatedFrameCount() int64 { return s.frames }

func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}

	if err := s.closer.Close(); err != nil {
		return fmt.Errorf("close aiff: %w", err)
	}

	return nil
}

func (s *Source) ReadFrames(dst []float32) (int, error) {
	if len(dst)%s.channels != 0 {
		return 0, audio.ErrInvalidDstSize
	}
	if len(dst) == 0 {
		return 0, nil
	}
	if s.eof {
		return 0, io.EOF
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < len(dst) {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, len(dst)),
			Format: s.dec.Format(),
		}
	}
	s.intBuf.Data = s.intBuf.Data[:len(dst)]

	n, err := s.dec.PCMBuffer(s.intBuf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("aiff decode: %w", err)
	}

	frames := n / s.channels
	for i := range frames * s.channels {
		dst[i] = utils.PCMToFloat32(int32(s.intBuf.Data[i]), s.bitDepth)
	}

	if frames*s.channels < len(dst) {
		s.eof = true
		return frames, io.EOF
	}

	return frames, nil
}

// Decoder builds Sources from AIFF streams.
type Decoder struct{}

// Decode parses the header of rs. Close on the returned Source closes rs
// if it implements io.Closer.
func (Decoder) Decode(rs io.ReadSeeker) (*Source, error) {
	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}

	dec.ReadInfo()

	switch dec.BitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, dec.BitDepth)
	}

	format := dec.Format()
	if format == nil || format.NumChannels <= 0 || format.SampleRate <= 0 {
		return nil, ErrUnsupportedAiffLayout
	}

	s := newSource(dec, format.SampleRate, format.NumChannels, int(dec.BitDepth), int64(dec.NumSampleFrames))
	if c, ok := rs.(io.Closer); ok {
		s.closer = c
	}

	return s, nil
}

// Open opens the AIFF file at path.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, audio.NewFileError("open", path, audio.ErrFileNotFound, err)
		}
		return nil, audio.OperationError("open", path, err)
	}

	s, err := Decoder{}.Decode(f)
	if err != nil {
		_ = f.Close()
		return nil, audio.FormatError(path, err)
	}

	return s, nil
}
