// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/utils"
)

// go-mp3 always decodes to 16-bit little-endian stereo.
const (
	channels      = 2
	bytesPerFrame = 4
)

// mp3Reader is an interface for gomp3.Decoder to allow testing
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
	Length() int64
}

// Source decodes MP3 through go-mp3. It is not seekable: the frame count
// is derived from the decoded byte length, which go-mp3 only knows for
// seekable inputs, and may be 0.
type Source struct {
	dec    mp3Reader
	closer io.Closer

	sampleRate int
	buf        []byte
	eof        bool
}

func newSource(dec mp3Reader) *Source {
	return &Source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		buf:        make([]byte, 8192),
	}
}

func (s *Source) SampleRate() int { return s.sampleRate }
func (s *Source) Channels() int   { return channels }

// EstimatedFrameCount returns the decoded length in frames, or 0 when the
// input was not seekable.
func (s *Source) EstimatedFrameCount() int64 {
	return max(s.dec.Length(), 0) / bytesPerFrame
}

func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}

	if err := s.closer.Close(); err != nil {
		return fmt.Errorf("close mp3: %w", err)
	}

	return nil
}

func (s *Source) ReadFrames(dst []float32) (int, error) {
	if len(dst)%channels != 0 {
		return 0, audio.ErrInvalidDstSize
	}
	if len(dst) == 0 {
		return 0, nil
	}
	if s.eof {
		return 0, io.EOF
	}

	bytesNeeded := len(dst) * 2
	if cap(s.buf) < bytesNeeded {
		s.buf = make([]byte, bytesNeeded)
	}
	s.buf = s.buf[:bytesNeeded]

	n, err := io.ReadFull(s.dec, s.buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, fmt.Errorf("mp3 decode: %w", err)
	}

	frames := n / bytesPerFrame
	for i := range frames * channels {
		dst[i] = utils.PCMToFloat32(int32(int16(binary.LittleEndian.Uint16(s.buf[2*i:]))), 16)
	}

	if err != nil {
		s.eof = true
		return frames, io.EOF
	}

	return frames, nil
}

// Decoder builds Sources from MP3 streams.
type Decoder struct{}

// Decode prepares r for decoding. Close on the returned Source closes r if
// it implements io.Closer.
func (Decoder) Decode(r io.Reader) (*Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3 header: %w", err)
	}

	s := newSource(dec)
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}

	return s, nil
}

// Open opens the MP3 file at path.
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
