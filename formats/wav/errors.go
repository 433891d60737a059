// SPDX-License-Identifier: EPL-2.0

package wav

import "errors"

var (
	ErrNotWavFile = errors.New("not a WAV file")

	ErrMissingTag       = errors.New("end-of-file before expected tag")
	ErrIncompleteTag    = errors.New("incomplete tag")
	ErrIncompleteNumber = errors.New("incomplete number")
	ErrIncompleteChunk  = errors.New("incomplete chunk following tag")
	ErrFmtChunkTooSmall = errors.New("fmt chunk too small")

	ErrUnsupportedFormat   = errors.New("unsupported sample format")
	ErrUnsupportedBitDepth = errors.New("unsupported bit depth")
	ErrInvalidChannels     = errors.New("channel count must be positive")
	ErrInvalidSampleRate   = errors.New("sample rate must be positive")
	ErrWriterClosed        = errors.New("writer is closed")
)
