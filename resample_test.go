// SPDX-License-Identifier: EPL-2.0

package audstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/internal/audiotest"
)

func TestResampleToMono16_Basic(t *testing.T) {
	t.Parallel()

	// Create 1 second of stereo audio at 44.1kHz
	src := audiotest.NewSineSource(44100, 2, 44100, 440.0)

	pcm16, rate, err := ResampleToMono16(src, 8000, 4096)
	require.NoError(t, err)

	assert.Equal(t, 8000, rate)
	// Exactly one second at 8kHz.
	assert.Len(t, pcm16, 8000)
}

func TestResampleToMono16_AlreadyMono(t *testing.T) {
	t.Parallel()

	src := audiotest.NewConstantSource(16000, 1, 16000, 0.5)

	pcm16, _, err := ResampleToMono16(src, 8000, 4096)
	require.NoError(t, err)
	require.Len(t, pcm16, 8000)

	// Away from the filter edges a constant 0.5 stays at about 16383.
	for i, s := range pcm16[1000:7000] {
		require.InDelta(t, 16383, s, 1000, "pcm16[%d]", i+1000)
	}
}

func TestResampleToMono16_Silence(t *testing.T) {
	t.Parallel()

	src := audiotest.NewSilentSource(44100, 2, 44100)

	pcm16, _, err := ResampleToMono16(src, 8000, 4096)
	require.NoError(t, err)

	for i, s := range pcm16 {
		require.Zero(t, s, "pcm16[%d]", i)
	}
}

func TestResampleToMono16_EmptySource(t *testing.T) {
	t.Parallel()

	src := audiotest.NewSilentSource(44100, 2, 0)

	pcm16, rate, err := ResampleToMono16(src, 8000, 4096)
	require.NoError(t, err)

	assert.Equal(t, 8000, rate)
	assert.Empty(t, pcm16)
}

func TestResampleToMono16_VariousRates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		srcRate int
		dstRate int
	}{
		{name: "44.1kHz to 8kHz", srcRate: 44100, dstRate: 8000},
		{name: "48kHz to 16kHz", srcRate: 48000, dstRate: 16000},
		{name: "8kHz to 16kHz (upsample)", srcRate: 8000, dstRate: 16000},
		{name: "22.05kHz to 8kHz", srcRate: 22050, dstRate: 8000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// One second of audio.
			src := audiotest.NewSineSource(tt.srcRate, 2, tt.srcRate, 440.0)

			pcm16, rate, err := ResampleToMono16(src, tt.dstRate, 4096)
			require.NoError(t, err)

			assert.Equal(t, tt.dstRate, rate)
			assert.Len(t, pcm16, tt.dstRate)
		})
	}
}

func TestResampleToMono16_Clamping(t *testing.T) {
	t.Parallel()

	// Same rate, so samples pass through untouched before conversion.
	src := audiotest.NewMockSource(8000, 1, 99, func(frame int, _ int) float32 {
		switch frame % 3 {
		case 0:
			return 2.0
		case 1:
			return -2.0
		default:
			return 0
		}
	})

	pcm16, _, err := ResampleToMono16(src, 8000, 4096)
	require.NoError(t, err)
	require.Len(t, pcm16, 99)

	want := []int16{32767, -32767, 0}
	for i, s := range pcm16 {
		require.Equal(t, want[i%3], s, "pcm16[%d]", i)
	}
}

func TestResampleToMono16_Errors(t *testing.T) {
	t.Parallel()

	_, _, err := ResampleToMono16(audiotest.NewSilentSource(8000, 1, 10), 8000, 0)
	assert.ErrorIs(t, err, audio.ErrInvalidDstSize)

	src := audiotest.NewSilentSource(44100, 2, 44100).FailAt(1000)
	_, _, err = ResampleToMono16(src, 8000, 256)
	assert.ErrorIs(t, err, audiotest.ErrDecode)
}

// BenchmarkResampleToMono16 benchmarks the complete pipeline
func BenchmarkResampleToMono16(b *testing.B) {
	// 1 second of stereo 44.1kHz audio
	b.ReportAllocs()

	for b.Loop() {
		src := audiotest.NewSineSource(44100, 2, 44100, 440.0)
		_, _, _ = ResampleToMono16(src, 8000, 4096)
	}
}

// BenchmarkResampleToMono16_SmallBuffer benchmarks with small buffer
func BenchmarkResampleToMono16_SmallBuffer(b *testing.B) {
	b.ReportAllocs()

	for b.Loop() {
		src := audiotest.NewSineSource(44100, 2, 44100, 440.0)
		_, _, _ = ResampleToMono16(src, 8000, 1024)
	}
}

// BenchmarkResampleToMono16_Upsample benchmarks upsampling
func BenchmarkResampleToMono16_Upsample(b *testing.B) {
	b.ReportAllocs()

	for b.Loop() {
		src := audiotest.NewSineSource(8000, 2, 8000, 440.0)
		_, _, _ = ResampleToMono16(src, 44100, 4096)
	}
}
