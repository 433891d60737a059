// SPDX-License-Identifier: EPL-2.0

package audstream

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/internal/audiotest"
)

// writeFile copies frames of src into a new file at path through Create.
func writeFile(t *testing.T, path string, src audio.Source) {
	t.Helper()

	sink, err := Create(path, src.Channels(), src.SampleRate())
	require.NoError(t, err)

	buf := make([]float32, 256*src.Channels())
	for {
		n, err := src.ReadFrames(buf)
		if n > 0 {
			_, werr := sink.WriteFrames(buf[:n*src.Channels()])
			require.NoError(t, werr)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
	}

	require.NoError(t, sink.Close())
}

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	assert.Same(t, DefaultRegistry(), DefaultRegistry())

	assert.Equal(t, []string{"aif", "aiff", "flac", "mp3", "oga", "ogg", "wav", "wave"}, SupportedReadExtensions())
	assert.Equal(t, []string{"aif", "aiff", "wav", "wave"}, SupportedWriteExtensions())
}

func TestOpen_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, ext := range []string{"wav", "aiff", "AIF"} {
		t.Run(ext, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "tone."+ext)
			writeFile(t, path, audiotest.NewSineSource(8000, 2, 4000, 440))

			stream, err := Open(path)
			require.NoError(t, err)
			defer stream.Close()

			assert.Equal(t, 8000, stream.SampleRate())
			assert.Equal(t, 2, stream.Channels())
			assert.EqualValues(t, 4000, stream.EstimatedFrameCount())

			var total int
			buf := make([]float32, 2*512)
			for {
				n, err := stream.ReadFrames(buf)
				total += n
				if errors.Is(err, io.EOF) {
					break
				}
				require.NoError(t, err)
			}
			assert.Equal(t, 4000, total)
		})
	}
}

func TestOpen_WithRetrievalRate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tone.wav")
	writeFile(t, path, audiotest.NewSineSource(16000, 1, 16000, 440))

	stream, err := Open(path, audio.WithRetrievalRate(8000))
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, 8000, stream.RetrievalRate())
	assert.False(t, stream.Seekable())

	pcm, _, err := ResampleToMono16(stream, 8000, 1024)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(pcm), 8000)
	assert.GreaterOrEqual(t, len(pcm), 7200)
}

func TestOpen_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := Open(filepath.Join(dir, "missing.wav"))
	assert.ErrorIs(t, err, audio.ErrFileNotFound)

	unknown := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(unknown, []byte("hello"), 0o600))
	_, err = Open(unknown)
	assert.ErrorIs(t, err, audio.ErrUnknownFileType)

	for _, name := range []string{"bad.wav", "bad.mp3", "bad.ogg", "bad.flac", "bad.aiff", "noext"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("definitely not audio"), 0o600))

		stream, err := Open(path)
		assert.Nil(t, stream, name)
		assert.ErrorIs(t, err, audio.ErrInvalidFormat, name)

		src, err := DefaultRegistry().OpenSource(path)
		assert.Nil(t, src, "%s: typed nil leaked through the registry", name)
		assert.Error(t, err)
	}
}

func TestCreate_Errors(t *testing.T) {
	t.Parallel()

	_, err := Create(filepath.Join(t.TempDir(), "out.mp3"), 2, 44100)
	assert.ErrorIs(t, err, audio.ErrUnknownFileType)

	_, err = Create(filepath.Join(t.TempDir(), "out.wav"), 0, 44100)
	assert.ErrorIs(t, err, audio.ErrInvalidFormat)

	_, err = Create(filepath.Join(t.TempDir(), "missing-dir", "out.wav"), 1, 8000)
	assert.Error(t, err)
}

func TestOpenBuffered(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tone.wav")
	writeFile(t, path, audiotest.NewSineSource(16000, 2, 8000, 440))

	r, err := OpenBuffered(path, 100*time.Millisecond, 8000)
	require.NoError(t, err)

	assert.Equal(t, 8000, r.SampleRate())
	assert.Equal(t, 800, r.BufferFrames())
	assert.ErrorIs(t, r.Rewind(), audio.ErrNotSeekable)

	out := [][]float32{make([]float32, 256), make([]float32, 256)}
	total := 0
	deadline := time.After(5 * time.Second)
	for !r.Finished() {
		n := r.ReadFrames(out)
		total += n
		if n > 0 {
			continue
		}
		select {
		case <-r.DataAvailable():
		case <-time.After(10 * time.Millisecond):
		case <-deadline:
			t.Fatalf("timed out after %d frames", total)
		}
	}

	require.NoError(t, r.Err())
	assert.LessOrEqual(t, total, 4000)
	assert.GreaterOrEqual(t, total, 3600)
	require.NoError(t, r.Close())

	_, err = OpenBuffered(filepath.Join(t.TempDir(), "missing.wav"), time.Second, 0)
	assert.ErrorIs(t, err, audio.ErrFileNotFound)
}

func TestOpenBuffered_NativeRateRewinds(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tone.wav")
	writeFile(t, path, audiotest.NewSineSource(8000, 1, 800, 440))

	r, err := OpenBuffered(path, time.Second, 0)
	require.NoError(t, err)
	defer r.Close()

	require.Eventually(t, func() bool { return r.AvailableFrames() == 800 }, 5*time.Second, time.Millisecond)
	require.NoError(t, r.Rewind())
}

func TestIndexDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.wav"), audiotest.NewSineSource(8000, 1, 400, 440))
	writeFile(t, filepath.Join(dir, "b.aiff"), audiotest.NewSineSource(8000, 2, 400, 440))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.mid"), []byte("MThd"), 0o600))

	ix := IndexDirectory(context.Background(), dir)
	defer ix.Close()

	require.NoError(t, ix.Wait())
	assert.Equal(t, []string{filepath.Join(dir, "a.wav"), filepath.Join(dir, "b.aiff")}, ix.Good())
	assert.Equal(t, []string{filepath.Join(dir, "c.mid")}, ix.Unsupported())
	assert.Empty(t, ix.Protected())
}
