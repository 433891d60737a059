// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/audstream/audio"
)

// twentySamples is a mono 16-bit file whose first sample is full scale and
// whose last four are 0, 0, 0 and negative full scale.
func twentySamples() []byte {
	samples := make([]int16, 20)
	samples[0] = math.MaxInt16
	for i := 1; i < 16; i++ {
		samples[i] = int16(i * 1000)
	}
	samples[19] = math.MinInt16

	return riff(fmtChunk(formatPCM, 1, 44100, 16), pcm16(samples...))
}

func TestReader_TwentySampleFile(t *testing.T) {
	t.Parallel()

	r, err := NewReader(bytes.NewReader(twentySamples()))
	require.NoError(t, err)

	assert.Equal(t, 1, r.Channels())
	assert.Equal(t, 44100, r.SampleRate())
	assert.EqualValues(t, 20, r.EstimatedFrameCount())
	assert.True(t, r.Seekable())

	require.ErrorIs(t, r.Seek(100), audio.ErrSeekOutOfRange)

	require.NoError(t, r.Seek(16))
	buf := make([]float32, 20)
	n, err := r.ReadFrames(buf)
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, 4, n)
	assert.Equal(t, []float32{0, 0, 0, -1}, buf[:4])

	require.NoError(t, r.Seek(0))
	n, err = r.ReadFrames(buf[:1])
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.InDelta(t, 32767.0/32768.0, buf[0], 1e-6)
}

func TestReader_SeekToEnd(t *testing.T) {
	t.Parallel()

	r, err := NewReader(bytes.NewReader(twentySamples()))
	require.NoError(t, err)

	require.NoError(t, r.Seek(20))
	n, err := r.ReadFrames(make([]float32, 4))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)

	assert.ErrorIs(t, r.Seek(21), audio.ErrSeekOutOfRange)
	assert.ErrorIs(t, r.Seek(-1), audio.ErrSeekOutOfRange)
}

func TestReader_SeekIsIdempotent(t *testing.T) {
	t.Parallel()

	r, err := NewReader(bytes.NewReader(twentySamples()))
	require.NoError(t, err)

	for k := range int64(20) {
		first := make([]float32, 3)
		second := make([]float32, 3)

		require.NoError(t, r.Seek(k))
		n1, _ := r.ReadFrames(first)

		require.NoError(t, r.Seek(k))
		require.NoError(t, r.Seek(k))
		n2, _ := r.ReadFrames(second)

		assert.Equal(t, n1, n2, "frame %d", k)
		assert.Equal(t, first, second, "frame %d", k)
	}
}

func TestReader_SeekMatchesSequentialRead(t *testing.T) {
	t.Parallel()

	r, err := NewReader(bytes.NewReader(twentySamples()))
	require.NoError(t, err)

	all := make([]float32, 20)
	n, err := r.ReadFrames(all)
	require.NoError(t, err)
	require.Equal(t, 20, n)

	for k := range 20 {
		require.NoError(t, r.Seek(int64(k)))
		one := make([]float32, 1)
		_, err := r.ReadFrames(one)
		require.NoError(t, err)
		assert.Equal(t, all[k], one[0], "frame %d", k)
	}
}

func TestReader_RecoversFromFailedSeek(t *testing.T) {
	t.Parallel()

	r, err := NewReader(bytes.NewReader(twentySamples()))
	require.NoError(t, err)

	require.Error(t, r.Seek(1000))
	require.NoError(t, r.Seek(1))

	buf := make([]float32, 1)
	_, err = r.ReadFrames(buf)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0/32768.0, buf[0], 1e-6)
}

func TestReader_SeekOutOfRangeKeepsPosition(t *testing.T) {
	t.Parallel()

	floats := make([]byte, 20*4)
	for k := range 20 {
		binary.LittleEndian.PutUint32(floats[k*4:], math.Float32bits(float32(k)/100))
	}

	files := []struct {
		name string
		data []byte
		want float32
	}{
		{"16-bit", twentySamples(), 3000.0 / 32768.0},
		{"32-bit float", riff(fmtChunk(formatFloat, 1, 8000, 32), chunk{"data", floats}), 0.03},
	}

	frames := []int64{-1, 21, 1 << 62, math.MaxInt64, math.MaxInt64/2 + 1, math.MinInt64}

	for _, f := range files {
		t.Run(f.name, func(t *testing.T) {
			t.Parallel()

			r, err := NewReader(bytes.NewReader(f.data))
			require.NoError(t, err)

			skip := make([]float32, 3)
			_, err = r.ReadFrames(skip)
			require.NoError(t, err)

			for _, frame := range frames {
				err := r.Seek(frame)
				require.ErrorIs(t, err, audio.ErrSeekOutOfRange, "Seek(%d)", frame)
			}

			one := make([]float32, 1)
			n, err := r.ReadFrames(one)
			require.NoError(t, err)
			require.Equal(t, 1, n)
			assert.InDelta(t, f.want, one[0], 1e-6)
		})
	}
}

func TestReader_BitDepths(t *testing.T) {
	t.Parallel()

	f32 := make([]byte, 8)
	binary.LittleEndian.PutUint32(f32, math.Float32bits(0.25))
	binary.LittleEndian.PutUint32(f32[4:], math.Float32bits(-0.75))

	tests := []struct {
		name   string
		format int
		bits   int
		data   []byte
		want   []float32
	}{
		{"8-bit", formatPCM, 8, []byte{128, 192, 0}, []float32{0, 0.5, -1}},
		{"16-bit", formatPCM, 16, []byte{0x00, 0x40, 0x00, 0xc0}, []float32{0.5, -0.5}},
		{"24-bit", formatPCM, 24, []byte{0x00, 0x00, 0x40, 0x00, 0x00, 0x80}, []float32{0.5, -1}},
		{"32-bit float", formatFloat, 32, f32, []float32{0.25, -0.75}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data := riff(fmtChunk(tt.format, 1, 8000, tt.bits), chunk{"data", tt.data})
			r, err := NewReader(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, tt.bits, r.BitDepth())

			got := make([]float32, len(tt.want)+1)
			n, err := r.ReadFrames(got)
			require.ErrorIs(t, err, io.EOF)
			require.Equal(t, len(tt.want), n)

			for i, want := range tt.want {
				assert.InDelta(t, want, got[i], 1e-6, "sample %d", i)
			}
		})
	}
}

func TestReader_Tags(t *testing.T) {
	t.Parallel()

	data := riff(
		fmtChunk(formatPCM, 2, 8000, 16),
		infoChunk("IART", "Someone", "INAM", "Something"),
		pcm16(1, 2),
	)

	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, "Something", r.TrackName())
	assert.Equal(t, "Someone", r.ArtistName())
}

func TestReader_InvalidDstSize(t *testing.T) {
	t.Parallel()

	data := riff(fmtChunk(formatPCM, 2, 8000, 16), pcm16(1, 2, 3, 4))
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	_, err = r.ReadFrames(make([]float32, 3))
	assert.ErrorIs(t, err, audio.ErrInvalidDstSize)
}

func TestReader_GrowingModeNotSeekable(t *testing.T) {
	t.Parallel()

	var hdr [canonicalHeaderSize]byte
	putHeader(hdr[:], 1, 8000, 16, 0, 0)
	data := append(hdr[:], 0x00, 0x40, 0x00)

	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	assert.True(t, r.Growing())
	assert.False(t, r.Seekable())
	assert.Zero(t, r.EstimatedFrameCount())
	assert.ErrorIs(t, r.Seek(0), audio.ErrNotSeekable)

	// One whole frame and one dangling byte: the byte is left for later.
	buf := make([]float32, 4)
	n, err := r.ReadFrames(buf)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.InDelta(t, 0.5, buf[0], 1e-6)

	n, err = r.ReadFrames(buf)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReader_ReadWhileWrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "live.wav")

	w, err := Create(path, 1, 16000, WithSyncInterval(0))
	require.NoError(t, err)
	defer w.Close()

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.True(t, r.Growing())

	buf := make([]float32, 1024)
	n, err := r.ReadFrames(buf)
	require.NoError(t, err)
	require.Zero(t, n)

	frames := make([]float32, 1024)
	for i := range frames {
		frames[i] = float32(i%100) / 100
	}
	_, err = w.WriteFrames(frames)
	require.NoError(t, err)

	n, err = r.ReadFrames(buf)
	require.NoError(t, err)
	require.Equal(t, 1024, n)

	for i := range frames {
		assert.InDelta(t, frames[i], buf[i], 1e-6)
	}
}

func TestReader_IncrementalTimeouts(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "slow.wav")

	w, err := Create(path, 2, 8000, WithBitDepth(16), WithSyncInterval(0))
	require.NoError(t, err)
	defer w.Close()

	r, err := Open(path, WithIncrementalTimeouts(5*time.Millisecond, 5*time.Second))
	require.NoError(t, err)
	defer r.Close()

	written := make(chan error, 1)
	go func() {
		time.Sleep(30 * time.Millisecond)
		_, err := w.WriteFrames(make([]float32, 2*256))
		written <- err
	}()

	n, err := r.ReadFrames(make([]float32, 2*256))
	require.NoError(t, err)
	assert.Equal(t, 256, n)
	require.NoError(t, <-written)
}

func TestOpen_Errors(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "missing.wav"))
	assert.ErrorIs(t, err, audio.ErrFileNotFound)

	path := filepath.Join(t.TempDir(), "bad.wav")
	w, err := Create(path, 1, 8000)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	// A valid header is not required to be followed by data.
	_, err = Open(path)
	require.NoError(t, err)

	_, err = NewReader(bytes.NewReader([]byte("RIFF")))
	assert.True(t, errors.Is(err, ErrIncompleteNumber), "got %v", err)
}
