// SPDX-License-Identifier: EPL-2.0

// Package aiff reads and writes AIFF (Audio Interchange File Format) files
// through github.com/go-audio/aiff.
//
// # Reading
//
//	src, err := aiff.Open("audio.aif")
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//
//	buf := make([]float32, 1024*src.Channels())
//	n, err := src.ReadFrames(buf) // n frames, interleaved
//
// Integer PCM at 8, 16, 24 and 32 bits is decoded and scaled by
// 2^(bits-1) into [-1, 1). Sources are not seekable; EstimatedFrameCount
// comes from the COMM chunk.
//
// # Writing
//
//	sink, err := aiff.Create("out.aiff", 2, 44100, aiff.WithBitDepth(24))
//	...
//	_, err = sink.WriteFrames(frames)
//	err = sink.Close() // writes the final chunk sizes
//
// Samples are clamped to [-1, 1] before conversion. The default bit depth
// is 16.
//
// # Errors
//
//   - ErrNotAiffFile: the input has no FORM/AIFF header
//   - ErrUnsupportedBitDepth: a bit depth other than 8, 16, 24 or 32
//   - ErrUnsupportedAiffLayout: missing or invalid COMM values
//
// Open wraps all of these in an *audio.FileError of kind
// audio.ErrInvalidFormat.
package aiff
