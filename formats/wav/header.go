// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	formatPCM   = 1
	formatFloat = 3

	canonicalHeaderSize = 44

	// LIST chunks larger than this are skipped rather than parsed.
	maxInfoChunkSize = 1 << 20
)

type header struct {
	format     int
	channels   int
	sampleRate int
	bitDepth   int
	dataSize   int64

	track  string
	artist string
}

func (h header) bytesPerFrame() int { return h.channels * h.bitDepth / 8 }

// chunkReader walks the RIFF chunk list of a WAV stream.
type chunkReader struct {
	r   io.Reader
	hdr *header
	buf [4]byte
}

func (c *chunkReader) tag(expected string) (string, error) {
	n, err := io.ReadFull(c.r, c.buf[:])
	switch {
	case n == 0 && err != nil:
		return "", fmt.Errorf("%w %q", ErrMissingTag, expected)
	case err != nil:
		return "", fmt.Errorf("%w while looking for %q", ErrIncompleteTag, expected)
	}

	return string(c.buf[:]), nil
}

func (c *chunkReader) number(size int) (uint32, error) {
	if _, err := io.ReadFull(c.r, c.buf[:size]); err != nil {
		return 0, ErrIncompleteNumber
	}

	if size == 2 {
		return uint32(binary.LittleEndian.Uint16(c.buf[:2])), nil
	}

	return binary.LittleEndian.Uint32(c.buf[:4]), nil
}

func (c *chunkReader) skip(tag string, size int64) error {
	if size == 0 {
		return nil
	}

	if _, err := io.CopyN(io.Discard, c.r, size); err != nil {
		return fmt.Errorf("%w %q", ErrIncompleteChunk, tag)
	}

	return nil
}

// expect reads chunks until one tagged expected is found and returns its
// declared size, positioned at the start of its body. LIST chunks met on
// the way are scanned for INFO tags; every other chunk is skipped.
func (c *chunkReader) expect(expected string) (uint32, error) {
	for {
		tag, err := c.tag(expected)
		if err != nil {
			return 0, err
		}

		size, err := c.number(4)
		if err != nil {
			return 0, err
		}

		if tag == expected {
			return size, nil
		}

		padded := int64(size) + int64(size&1)
		if tag == "LIST" && padded <= maxInfoChunkSize {
			body := make([]byte, padded)
			if _, err := io.ReadFull(c.r, body); err != nil {
				return 0, fmt.Errorf("%w %q", ErrIncompleteChunk, tag)
			}
			c.hdr.parseInfo(body[:size])
			continue
		}

		if err := c.skip(tag, padded); err != nil {
			return 0, err
		}
	}
}

func readHeader(r io.Reader) (header, error) {
	var h header
	c := &chunkReader{r: r, hdr: &h}

	tag, err := c.tag("RIFF")
	if err != nil {
		return h, err
	}
	if tag != "RIFF" {
		return h, ErrNotWavFile
	}

	// The RIFF size is unreliable for files still being written.
	if _, err := c.number(4); err != nil {
		return h, err
	}

	if tag, err = c.tag("WAVE"); err != nil {
		return h, err
	}
	if tag != "WAVE" {
		return h, ErrNotWavFile
	}

	fmtSize, err := c.expect("fmt ")
	if err != nil {
		return h, err
	}
	if fmtSize < 16 {
		return h, fmt.Errorf("%w: %d bytes", ErrFmtChunkTooSmall, fmtSize)
	}

	fields := [...]*int{&h.format, &h.channels, &h.sampleRate, nil, nil, &h.bitDepth}
	sizes := [...]int{2, 2, 4, 4, 2, 2}
	for i, size := range sizes {
		v, err := c.number(size)
		if err != nil {
			return h, err
		}
		if fields[i] != nil {
			*fields[i] = int(v)
		}
	}

	extra := int64(fmtSize) - 16 + int64(fmtSize&1)
	if err := c.skip("fmt ", extra); err != nil {
		return h, err
	}

	if err := h.validate(); err != nil {
		return h, err
	}

	dataSize, err := c.expect("data")
	if err != nil {
		return h, err
	}
	h.dataSize = int64(dataSize)

	return h, nil
}

func (h header) validate() error {
	if h.channels <= 0 {
		return ErrInvalidChannels
	}
	if h.sampleRate <= 0 {
		return ErrInvalidSampleRate
	}

	switch h.format {
	case formatPCM:
		if h.bitDepth != 8 && h.bitDepth != 16 && h.bitDepth != 24 {
			return fmt.Errorf("%w: %d-bit integer", ErrUnsupportedBitDepth, h.bitDepth)
		}
	case formatFloat:
		if h.bitDepth != 32 {
			return fmt.Errorf("%w: %d-bit float", ErrUnsupportedBitDepth, h.bitDepth)
		}
	default:
		return fmt.Errorf("%w: format code %d", ErrUnsupportedFormat, h.format)
	}

	return nil
}

// parseInfo picks the title and artist out of a LIST/INFO chunk body.
func (h *header) parseInfo(body []byte) {
	if len(body) < 4 || string(body[:4]) != "INFO" {
		return
	}

	body = body[4:]
	for len(body) >= 8 {
		id := string(body[:4])
		size := int(binary.LittleEndian.Uint32(body[4:8]))
		body = body[8:]
		if size > len(body) {
			return
		}

		value := string(bytes.TrimRight(body[:size], "\x00"))
		switch id {
		case "INAM":
			h.track = value
		case "IART":
			h.artist = value
		}

		body = body[min(size+size&1, len(body)):]
	}
}

// putHeader fills the 44-byte canonical header. Sizes are patched later by
// the writer once the data length is known.
func putHeader(buf []byte, channels, sampleRate, bitDepth int, riffSize, dataSize uint32) {
	format := uint16(formatPCM)
	if bitDepth == 32 {
		format = formatFloat
	}

	blockAlign := channels * bitDepth / 8

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], riffSize)
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], format)
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], uint16(bitDepth))

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], dataSize)
}

// isTruncation reports whether err only means the stream ended early.
func isTruncation(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
