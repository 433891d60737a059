// SPDX-License-Identifier: EPL-2.0

package flac

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/utils"
)

// ErrChannelMismatch is returned when a frame carries a different number of
// subframes than the stream declares.
var ErrChannelMismatch = errors.New("flac frame channel count does not match stream info")

// frameParser is an interface for flac.Stream to allow testing
type frameParser interface {
	ParseNext() (*frame.Frame, error)
}

// Source decodes FLAC through mewkiz/flac. It is not seekable. The frame
// count comes from STREAMINFO and is 0 when the encoder left it unset.
type Source struct {
	stream frameParser
	closer io.Closer

	sampleRate int
	channels   int
	bits       int
	total      int64
	track      string
	artist     string

	// pending holds decoded interleaved samples not yet handed out, since
	// FLAC blocks rarely line up with the caller's buffer.
	pending []float32
	off     int
	eof     bool
}

func newSource(stream frameParser, info *meta.StreamInfo) *Source {
	return &Source{
		stream:     stream,
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
		bits:       int(info.BitsPerSample),
		total:      int64(info.NSamples),
	}
}

func (s *Source) SampleRate() int { return s.sampleRate }
func (s *Source) Channels() int   { return s.channels }

// BitDepth returns the bits per sample declared in STREAMINFO.
func (s *Source) BitDepth() int { return s.bits }

func (s *Source) EstimatedFrameCount() int64 { return s.total }

func (s *Source) TrackName() string  { return s.track }
func (s *Source) ArtistName() string { return s.artist }

func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}

	if err := s.closer.Close(); err != nil {
		return fmt.Errorf("close flac: %w", err)
	}

	return nil
}

func (s *Source) ReadFrames(dst []float32) (int, error) {
	if len(dst)%s.channels != 0 {
		return 0, audio.ErrInvalidDstSize
	}

	filled := 0
	for filled < len(dst) {
		if s.off < len(s.pending) {
			n := copy(dst[filled:], s.pending[s.off:])
			s.off += n
			filled += n
			continue
		}

		if s.eof {
			break
		}

		if err := s.decodeNext(); err != nil {
			if errors.Is(err, io.EOF) {
				s.eof = true
				break
			}
			return filled / s.channels, err
		}
	}

	frames := filled / s.channels
	if s.eof && filled < len(dst) {
		return frames, io.EOF
	}

	return frames, nil
}

// decodeNext parses one FLAC frame into pending.
func (s *Source) decodeNext() error {
	f, err := s.stream.ParseNext()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("flac decode: %w", err)
	}

	if len(f.Subframes) != s.channels {
		return fmt.Errorf("%w: got %d, want %d", ErrChannelMismatch, len(f.Subframes), s.channels)
	}

	bits := int(f.BitsPerSample)
	if bits == 0 {
		bits = s.bits
	}

	blockSize := len(f.Subframes[0].Samples)
	if cap(s.pending) < blockSize*s.channels {
		s.pending = make([]float32, blockSize*s.channels)
	}
	s.pending = s.pending[:blockSize*s.channels]
	s.off = 0

	for c, sub := range f.Subframes {
		for i := range min(blockSize, len(sub.Samples)) {
			s.pending[i*s.channels+c] = utils.PCMToFloat32(sub.Samples[i], bits)
		}
	}

	return nil
}

// readComments picks TITLE and ARTIST out of a VORBIS_COMMENT block. Field
// names are case-insensitive and the first occurrence wins.
func (s *Source) readComments(blocks []*meta.Block) {
	for _, b := range blocks {
		vc, ok := b.Body.(*meta.VorbisComment)
		if !ok {
			continue
		}

		for _, tag := range vc.Tags {
			switch strings.ToUpper(tag[0]) {
			case "TITLE":
				if s.track == "" {
					s.track = tag[1]
				}
			case "ARTIST":
				if s.artist == "" {
					s.artist = tag[1]
				}
			}
		}
	}
}

// Decoder builds Sources from FLAC streams.
type Decoder struct{}

// Decode parses the FLAC metadata from r. Close on the returned Source
// closes r if it implements io.Closer.
func (Decoder) Decode(r io.Reader) (*Source, error) {
	stream, err := flac.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("flac header: %w", err)
	}

	if stream.Info.NChannels == 0 || stream.Info.BitsPerSample == 0 {
		return nil, fmt.Errorf("flac header: %d channels, %d bits per sample",
			stream.Info.NChannels, stream.Info.BitsPerSample)
	}

	s := newSource(stream, stream.Info)
	s.readComments(stream.Blocks)

	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}

	return s, nil
}

// Open opens the FLAC file at path.
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
