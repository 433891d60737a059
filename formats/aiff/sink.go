// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/utils"
)

// DefaultBitDepth is used by Create unless WithBitDepth says otherwise.
const DefaultBitDepth = 16

// Sink encodes frames into an AIFF file through go-audio's encoder.
type Sink struct {
	enc  *aiff.Encoder
	file *os.File
	path string

	channels   int
	sampleRate int
	bitDepth   int

	intBuf *goaudio.IntBuffer
	closed bool
}

// SinkOption configures a Sink.
type SinkOption func(*Sink)

// WithBitDepth selects 8, 16, 24 or 32-bit integer samples.
func WithBitDepth(bits int) SinkOption {
	return func(s *Sink) { s.bitDepth = bits }
}

// Create creates or truncates path.
func Create(path string, channels, sampleRate int, opts ...SinkOption) (*Sink, error) {
	s := &Sink{
		path:       path,
		channels:   channels,
		sampleRate: sampleRate,
		bitDepth:   DefaultBitDepth,
	}

	for _, opt := range opts {
		opt(s)
	}

	switch {
	case channels <= 0 || sampleRate <= 0:
		return nil, audio.NewFileError("create", path, audio.ErrInvalidFormat, ErrUnsupportedAiffLayout)
	case s.bitDepth != 8 && s.bitDepth != 16 && s.bitDepth != 24 && s.bitDepth != 32:
		return nil, audio.NewFileError("create", path, audio.ErrInvalidFormat,
			fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, s.bitDepth))
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, audio.OperationError("create", path, err)
	}

	s.file = f
	s.enc = aiff.NewEncoder(f, sampleRate, s.bitDepth, channels)
	s.intBuf = &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: s.bitDepth,
	}

	return s, nil
}

func (s *Sink) SampleRate() int { return s.sampleRate }
func (s *Sink) Channels() int   { return s.channels }

func (s *Sink) WriteFrames(frames []float32) (int, error) {
	if s.closed {
		return 0, audio.OperationError("write", s.path, errors.New("sink is closed"))
	}
	if len(frames)%s.channels != 0 {
		return 0, audio.ErrInvalidDstSize
	}
	if len(frames) == 0 {
		return 0, nil
	}

	if cap(s.intBuf.Data) < len(frames) {
		s.intBuf.Data = make([]int, len(frames))
	}
	data := s.intBuf.Data[:len(frames)]

	for i, x := range frames {
		switch s.bitDepth {
		case 8:
			data[i] = int(utils.Clamp(x) * 127)
		case 16:
			data[i] = int(utils.Float32ToInt16(x))
		case 24:
			data[i] = int(utils.Float32ToInt24(x))
		case 32:
			data[i] = int(float64(utils.Clamp(x)) * 2147483647)
		}
	}
	s.intBuf.Data = data

	if err := s.enc.Write(s.intBuf); err != nil {
		return 0, audio.OperationError("write", s.path, err)
	}

	return len(frames) / s.channels, nil
}

// Close finalizes the AIFF header and closes the file.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var encErr, fileErr error
	if err := s.enc.Close(); err != nil {
		encErr = audio.OperationError("close", s.path, err)
	}
	if err := s.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		fileErr = audio.OperationError("close", s.path, err)
	}

	return errors.Join(encErr, fileErr)
}
