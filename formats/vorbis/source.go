// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/jfreymuth/oggvorbis"

	"github.com/ik5/audstream/audio"
)

// oggReader is an interface for oggvorbis.Reader to allow testing
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
	Length() int64
	SetPosition(int64) error
}

// Source decodes Ogg Vorbis. It is seekable when the underlying input is an
// io.Seeker and the stream length could be determined.
type Source struct {
	dec    oggReader
	closer io.Closer

	sampleRate int
	channels   int
	length     int64
	track      string
	artist     string
	eof        bool
}

func newSource(dec oggReader) *Source {
	return &Source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   dec.Channels(),
		length:     max(dec.Length(), 0),
	}
}

func (s *Source) SampleRate() int { return s.sampleRate }
func (s *Source) Channels() int   { return s.channels }

func (s *Source) TrackName() string  { return s.track }
func (s *Source) ArtistName() string { return s.artist }

func (s *Source) EstimatedFrameCount() int64 { return s.length }

func (s *Source) Seekable() bool { return s.length > 0 }

// Seek moves to frame. Seeking to the end is allowed and yields io.EOF on
// the next read.
func (s *Source) Seek(frame int64) error {
	if !s.Seekable() {
		return audio.ErrNotSeekable
	}
	if frame < 0 || frame > s.length {
		return fmt.Errorf("%w: frame %d of %d", audio.ErrSeekOutOfRange, frame, s.length)
	}

	if err := s.dec.SetPosition(frame); err != nil {
		return fmt.Errorf("vorbis seek: %w", err)
	}
	s.eof = false

	return nil
}

func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}

	if err := s.closer.Close(); err != nil {
		return fmt.Errorf("close vorbis: %w", err)
	}

	return nil
}

// ReadFrames decodes until dst is full or the stream ends. oggvorbis hands
// out at most one packet per call, so several calls are usually needed.
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

	filled := 0
	for filled < len(dst) {
		n, err := s.dec.Read(dst[filled:])
		filled += n

		if errors.Is(err, io.EOF) {
			s.eof = true
			break
		}
		if err != nil {
			return filled / s.channels, fmt.Errorf("vorbis decode: %w", err)
		}
		if n == 0 {
			break
		}
	}

	frames := filled / s.channels
	if s.eof && filled < len(dst) {
		return frames, io.EOF
	}

	return frames, nil
}

// parseComments picks TITLE and ARTIST out of vorbis comments. Field names
// are case-insensitive and the first occurrence wins.
func (s *Source) parseComments(comments []string) {
	for _, c := range comments {
		key, value, ok := strings.Cut(c, "=")
		if !ok {
			continue
		}

		switch strings.ToUpper(key) {
		case "TITLE":
			if s.track == "" {
				s.track = value
			}
		case "ARTIST":
			if s.artist == "" {
				s.artist = value
			}
		}
	}
}

// Decoder builds Sources from Ogg Vorbis streams.
type Decoder struct{}

// Decode reads the Vorbis headers from r. Close on the returned Source
// closes r if it implements io.Closer.
func (Decoder) Decode(r io.Reader) (*Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("vorbis header: %w", err)
	}

	s := newSource(dec)
	s.parseComments(dec.CommentHeader().Comments)

	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}

	return s, nil
}

// Open opens the Ogg Vorbis file at path.
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
