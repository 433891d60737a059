// SPDX-License-Identifier: EPL-2.0

// Package wav reads and writes uncompressed RIFF/WAVE files.
//
// # Reading
//
// Open parses the header and returns a Reader positioned at the first
// frame. Integer PCM at 8, 16 and 24 bits and 32-bit IEEE float are
// supported; 32-bit integer PCM is rejected. Chunks other than fmt and data
// are skipped, except LIST/INFO whose INAM and IART entries become the
// track and artist names.
//
//	r, err := wav.Open("take.wav")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	buf := make([]float32, 4096*r.Channels())
//	n, err := r.ReadFrames(buf)
//
// A data chunk that declares zero bytes marks a file still being written.
// Such a reader is not seekable and returns short reads with a nil error;
// call ReadFrames again later to pick up new frames, or set
// SetIncrementalTimeouts to have the reader poll for them.
//
// # Writing
//
// Create writes a canonical 44-byte header with zero sizes, then appends
// frames. The RIFF and data sizes are patched every sync interval (4096
// frames by default) and on Close, so a concurrent reader sees a valid file
// at any time.
//
//	w, err := wav.Create("out.wav", 2, 48000, wav.WithBitDepth(16))
//	if err != nil {
//	    return err
//	}
//	if _, err := w.WriteFrames(frames); err != nil {
//	    return err
//	}
//	return w.Close()
//
// WriteWAV16 remains for one-shot mono 16-bit output to any io.Writer.
package wav
