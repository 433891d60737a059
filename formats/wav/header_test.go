// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chunk struct {
	id   string
	body []byte
}

// riff assembles a RIFF/WAVE file from chunks, adding pad bytes after odd
// sized bodies.
func riff(chunks ...chunk) []byte {
	var body bytes.Buffer
	body.WriteString("WAVE")
	for _, c := range chunks {
		body.WriteString(c.id)
		_ = binary.Write(&body, binary.LittleEndian, uint32(len(c.body)))
		body.Write(c.body)
		if len(c.body)%2 == 1 {
			body.WriteByte(0)
		}
	}

	var out bytes.Buffer
	out.WriteString("RIFF")
	_ = binary.Write(&out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())

	return out.Bytes()
}

func fmtChunk(format, channels, rate, bits int) chunk {
	var b bytes.Buffer
	blockAlign := channels * bits / 8
	_ = binary.Write(&b, binary.LittleEndian, uint16(format))
	_ = binary.Write(&b, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&b, binary.LittleEndian, uint32(rate))
	_ = binary.Write(&b, binary.LittleEndian, uint32(rate*blockAlign))
	_ = binary.Write(&b, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&b, binary.LittleEndian, uint16(bits))

	return chunk{"fmt ", b.Bytes()}
}

func pcm16(samples ...int16) chunk {
	var b bytes.Buffer
	for _, s := range samples {
		_ = binary.Write(&b, binary.LittleEndian, s)
	}

	return chunk{"data", b.Bytes()}
}

func infoChunk(pairs ...string) chunk {
	var b bytes.Buffer
	b.WriteString("INFO")
	for i := 0; i+1 < len(pairs); i += 2 {
		value := append([]byte(pairs[i+1]), 0)
		b.WriteString(pairs[i])
		_ = binary.Write(&b, binary.LittleEndian, uint32(len(value)))
		b.Write(value)
		if len(value)%2 == 1 {
			b.WriteByte(0)
		}
	}

	return chunk{"LIST", b.Bytes()}
}

func TestReadHeader_Canonical(t *testing.T) {
	t.Parallel()

	data := riff(fmtChunk(formatPCM, 2, 44100, 16), pcm16(1, 2, 3, 4))

	h, err := readHeader(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, 2, h.channels)
	assert.Equal(t, 44100, h.sampleRate)
	assert.Equal(t, 16, h.bitDepth)
	assert.EqualValues(t, 8, h.dataSize)
	assert.Equal(t, 4, h.bytesPerFrame())
}

func TestReadHeader_SkipsUnknownChunks(t *testing.T) {
	t.Parallel()

	ext := fmtChunk(formatFloat, 1, 8000, 32)
	ext.body = append(ext.body, 0, 0) // cbSize extension

	data := riff(
		chunk{"junk", []byte{1, 2, 3}},
		ext,
		infoChunk("INAM", "Night Train", "IART", "Quartet"),
		chunk{"fact", []byte{4, 0, 0, 0}},
		chunk{"data", make([]byte, 16)},
	)

	h, err := readHeader(bytes.NewReader(data))
	require.NoError(t, err)

	assert.EqualValues(t, formatFloat, h.format)
	assert.EqualValues(t, 16, h.dataSize)
	assert.Equal(t, "Night Train", h.track)
	assert.Equal(t, "Quartet", h.artist)
}

func TestReadHeader_Errors(t *testing.T) {
	t.Parallel()

	valid := riff(fmtChunk(formatPCM, 1, 8000, 16), pcm16(0))

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrMissingTag},
		{"not riff", append([]byte("RIFX"), valid[4:]...), ErrNotWavFile},
		{"not wave", append(append([]byte{}, valid[:8]...), []byte("AVI LIST")...), ErrNotWavFile},
		{"short tag", []byte("RI"), ErrIncompleteTag},
		{"short riff size", []byte("RIFF\x10\x00"), ErrIncompleteNumber},
		{"no fmt", riff(pcm16(0)), ErrMissingTag},
		{"no data", riff(fmtChunk(formatPCM, 1, 8000, 16)), ErrMissingTag},
		{"fmt too small", riff(chunk{"fmt ", make([]byte, 14)}, pcm16(0)), ErrFmtChunkTooSmall},
		{"truncated chunk", riff(chunk{"junk", make([]byte, 10)}, fmtChunk(formatPCM, 1, 8000, 16))[:24], ErrIncompleteChunk},
		{"truncated fmt", valid[:30], ErrIncompleteNumber},
		{"32-bit integer", riff(fmtChunk(formatPCM, 1, 8000, 32), pcm16(0)), ErrUnsupportedBitDepth},
		{"12-bit", riff(fmtChunk(formatPCM, 1, 8000, 12), pcm16(0)), ErrUnsupportedBitDepth},
		{"16-bit float", riff(fmtChunk(formatFloat, 1, 8000, 16), pcm16(0)), ErrUnsupportedBitDepth},
		{"mu-law", riff(fmtChunk(7, 1, 8000, 8), pcm16(0)), ErrUnsupportedFormat},
		{"no channels", riff(fmtChunk(formatPCM, 0, 8000, 16), pcm16(0)), ErrInvalidChannels},
		{"no rate", riff(fmtChunk(formatPCM, 1, 0, 16), pcm16(0)), ErrInvalidSampleRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := readHeader(bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPutHeader_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, bits := range []int{8, 16, 24, 32} {
		var buf [canonicalHeaderSize]byte
		putHeader(buf[:], 2, 48000, bits, 36, 0)

		h, err := readHeader(bytes.NewReader(buf[:]))
		require.NoError(t, err, "%d-bit", bits)

		wantFormat := formatPCM
		if bits == 32 {
			wantFormat = formatFloat
		}
		assert.EqualValues(t, wantFormat, h.format, "%d-bit", bits)
		assert.Equal(t, bits, h.bitDepth, "%d-bit", bits)
		assert.Equal(t, 2, h.channels, "%d-bit", bits)
		assert.Equal(t, 48000, h.sampleRate, "%d-bit", bits)
		assert.Zero(t, h.dataSize, "%d-bit", bits)
	}
}
