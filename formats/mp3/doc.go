// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MP3 audio through github.com/hajimehoshi/go-mp3.
//
// go-mp3 always produces 16-bit stereo, so every Source reports two
// channels regardless of how the file was encoded. Mono files are
// duplicated into both channels by the decoder.
//
//	src, err := mp3.Open("audio.mp3")
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//
//	buf := make([]float32, 4096) // 2048 stereo frames
//	n, err := src.ReadFrames(buf)
//
// Sources are not seekable. EstimatedFrameCount is exact when the input
// was an io.Seeker (which Open guarantees) and 0 otherwise.
package mp3
