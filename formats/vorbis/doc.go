// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis audio through
// github.com/jfreymuth/oggvorbis.
//
//	src, err := vorbis.Open("audio.ogg")
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//
//	buf := make([]float32, 2*1024)
//	n, err := src.ReadFrames(buf) // n frames, interleaved in buf[:n*2]
//
// Sources opened from files are seekable and report their length. The
// TITLE and ARTIST vorbis comments are exposed through TrackName and
// ArtistName.
package vorbis
