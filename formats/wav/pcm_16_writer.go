// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WriteWAV16 writes a complete mono 16-bit PCM WAV at sampleRate in one
// pass. Unlike Writer it needs no seeking, so w may be any io.Writer.
func WriteWAV16(w io.Writer, sampleRate int, samples []int16) error {
	dataSize := uint32(len(samples) * 2)

	var header [canonicalHeaderSize]byte
	putHeader(header[:], 1, sampleRate, 16, 36+dataSize, dataSize)

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	const chunkSize = 8192
	if len(samples) == 0 {
		return nil
	}

	buf := make([]byte, min(len(samples), chunkSize)*2)

	for i := 0; i < len(samples); i += chunkSize {
		chunk := samples[i:min(i+chunkSize, len(samples))]
		out := buf[:len(chunk)*2]

		for j, s := range chunk {
			binary.LittleEndian.PutUint16(out[j*2:], uint16(s))
		}

		if _, err := w.Write(out); err != nil {
			return fmt.Errorf("write samples: %w", err)
		}
	}

	return nil
}
