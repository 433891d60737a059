// SPDX-License-Identifier: EPL-2.0

// Package flac decodes FLAC audio through github.com/mewkiz/flac.
//
// Samples are scaled by 2^(bits-1) so every supported bit depth maps into
// [-1, 1). Sources are not seekable; EstimatedFrameCount reports the total
// from STREAMINFO, which is 0 when the encoder did not know it. TITLE and
// ARTIST vorbis comments are exposed through TrackName and ArtistName.
package flac
