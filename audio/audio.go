// SPDX-License-Identifier: EPL-2.0

package audio

// Source produces interleaved PCM frames at its native sample rate.
type Source interface {
	// SampleRate of the PCM stream in Hz. Fixed once the source is open.
	SampleRate() int
	// Channels count (e.g., 1=mono, 2=stereo). Zero means the source is invalid.
	Channels() int
	// ReadFrames fills dst with up to len(dst)/Channels() interleaved frames
	// of float32 samples in [-1,1] and returns the number of frames written.
	//
	// A short count with io.EOF means the stream is finished. A short count
	// with a nil error means nothing more is available yet, as happens with
	// a file still being written; the caller may retry later. Any other
	// error is a decode failure.
	ReadFrames(dst []float32) (int, error)

	// Close releases any resources.
	Close() error
}

// Seeker is implemented by sources that can reposition to a frame index.
type Seeker interface {
	// Seekable reports whether Seek can succeed. Seekable sources always
	// know their true length.
	Seekable() bool
	// Seek moves to the given native-rate frame. On failure the position is
	// undefined but the source stays usable; seek again to a known frame
	// before relying on further reads.
	Seek(frame int64) error
}

// FrameCounter is implemented by sources that know (or can estimate) their
// length in native-rate frames. Zero means unknown.
type FrameCounter interface {
	EstimatedFrameCount() int64
}

// Tagger is implemented by sources that carry track and artist names.
type Tagger interface {
	TrackName() string
	ArtistName() string
}

// Sink consumes interleaved PCM frames.
type Sink interface {
	SampleRate() int
	Channels() int
	// WriteFrames appends len(frames)/Channels() frames and returns how
	// many frames were written.
	WriteFrames(frames []float32) (int, error)
	// Close flushes and finalizes the destination. Failures while
	// finalizing are returned, never discarded.
	Close() error
}

// SourceFactory opens a Source for the file at path.
type SourceFactory func(path string) (Source, error)

// SinkFactory creates a Sink writing to path, truncating any existing file.
type SinkFactory func(path string, channels, sampleRate int) (Sink, error)
