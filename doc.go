// SPDX-License-Identifier: EPL-2.0

// Package audstream reads and writes interleaved PCM audio files through a
// single frame-based contract.
//
// # Supported Formats
//
// Reading:
//   - WAV (8, 16, 24-bit PCM and 32-bit float) via formats/wav, including
//     files that are still being written
//   - AIFF via formats/aiff
//   - MP3 via formats/mp3
//   - Ogg Vorbis via formats/vorbis
//   - FLAC via formats/flac
//
// Writing: WAV and AIFF.
//
// # Quick Start
//
// Open picks the codec by extension and returns an audio.Stream, which can
// deliver frames at a rate other than the file's own:
//
//	stream, err := audstream.Open("speech.flac", audio.WithRetrievalRate(16000))
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//
//	buf := make([]float32, 1024*stream.Channels())
//	for {
//	    n, err := stream.ReadFrames(buf)
//	    process(buf[:n*stream.Channels()])
//	    if errors.Is(err, io.EOF) {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	}
//
// Create writes a file the same way:
//
//	sink, err := audstream.Create("out.wav", 2, 48000)
//	...
//	_, err = sink.WriteFrames(frames)
//	err = sink.Close()
//
// # Real-time Consumers
//
// OpenBuffered returns a buffered.Reader whose producer goroutine keeps a
// buffer of decoded frames ready, so the consumer never waits on I/O.
//
// # Errors
//
// Failures carry one of the audio error kinds (audio.ErrFileNotFound,
// audio.ErrInvalidFormat, audio.ErrUnknownFileType, ...) in an
// *audio.FileError, so both errors.Is on the kind and errors.As on the
// FileError work.
//
// # Registry
//
// Open and Create use DefaultRegistry, which RegisterDefaults fills with
// the codecs above. Programs that want a different set build their own
// audio.Registry and call its OpenSource and CreateSink directly.
package audstream
