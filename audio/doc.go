// SPDX-License-Identifier: EPL-2.0

// Package audio provides the streaming primitives shared by every codec.
//
// # Sources
//
// A Source yields interleaved float32 frames at its native rate:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadFrames(dst []float32) (int, error)
//	    Close() error
//	}
//
// Optional capabilities are discovered with type assertions: Seeker for
// random access, FrameCounter for the length estimate and Tagger for track
// and artist names.
//
// ReadFrames distinguishes three outcomes. A full read returns a nil error.
// A short read with io.EOF means the stream is finished. A short read with a
// nil error means nothing more is available yet, which happens when reading
// a file that another process is still writing:
//
//	for {
//	    n, err := src.ReadFrames(buf)
//	    process(buf[:n*src.Channels()])
//	    if errors.Is(err, io.EOF) {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	}
//
// # Retrieval Rate
//
// Stream wraps any Source and delivers frames at a chosen retrieval rate:
//
//	s := audio.NewStream(src, audio.WithRetrievalRate(16000))
//
// When the rates match the stream is a zero-cost pass-through. Otherwise
// frames go through a polyphase resampler, the stream stops being seekable,
// and the number of frames delivered never exceeds the native frame count
// scaled by the rate ratio.
//
// # Registry
//
// A Registry maps file extensions to SourceFactory and SinkFactory
// functions. Paths without an extension resolve to DefaultExtension.
//
// # Errors
//
// Failures tied to a file are reported as *FileError whose Kind is one of
// ErrFileNotFound, ErrInvalidFormat, ErrUnknownFileType, ErrOperationFailed
// or ErrDRMProtected. Use errors.Is to classify them.
package audio
