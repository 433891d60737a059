// SPDX-License-Identifier: EPL-2.0

package audstream

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/utils"
)

// ResampleToMono16 is a high-level convenience function that resamples audio to a target
// sample rate, converts it to mono, and collects all samples as 16-bit PCM data.
//
// This function creates a processing pipeline:
//  1. Wraps the source in an audio.Stream retrieving at targetRate
//  2. Converts the resampled audio to mono by averaging channels
//  3. Reads every frame from the pipeline
//  4. Converts float32 samples to int16 PCM format
//
// bufferSize is the number of mono frames read per call (e.g. 4096).
//
// An *audio.Stream passed as src has its retrieval rate set to targetRate.
// The returned rate always equals targetRate. src is read to its end but
// not closed. A source that is still growing is read up to the first call
// that yields nothing new.
//
// Example:
//
//	src, _ := wav.Open("speech.wav")
//	defer src.Close()
//	pcm16, rate, err := audstream.ResampleToMono16(src, 8000, 4096)
//	if err != nil {
//	    return err
//	}
//	// pcm16 now contains mono 16-bit PCM at 8kHz
func ResampleToMono16(src audio.Source, targetRate int, bufferSize int) ([]int16, int, error) {
	if bufferSize <= 0 {
		return nil, targetRate, fmt.Errorf("%w: buffer size %d", audio.ErrInvalidDstSize, bufferSize)
	}

	// A Stream is retargeted in place; wrapping it would resample twice
	// since its SampleRate reports the native rate.
	stream, ok := src.(*audio.Stream)
	if ok {
		stream.SetRetrievalRate(targetRate)
	} else {
		stream = audio.NewStream(src, audio.WithRetrievalRate(targetRate))
	}
	mono := audio.NewMonoMixer(stream)

	// Pre-allocate from the known length when there is one.
	estimated := targetRate * 2
	if n := stream.EstimatedFrameCount(); n > 0 && src.SampleRate() > 0 {
		estimated = int(n*int64(targetRate)/int64(src.SampleRate())) + 1
	}

	pcm16 := make([]int16, 0, estimated)
	buf := make([]float32, bufferSize)

	for {
		n, err := mono.ReadFrames(buf)
		for _, x := range buf[:n] {
			pcm16 = append(pcm16, utils.Float32ToInt16(x))
		}

		if errors.Is(err, io.EOF) || (n == 0 && err == nil) {
			break
		}

		if err != nil {
			return nil, targetRate, fmt.Errorf("resample to mono: %w", err)
		}
	}

	return pcm16, targetRate, nil
}
