// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ik5/audstream"
	"github.com/ik5/audstream/audio"
)

func (a *app) convertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert between formats, optionally resampling",
		Long: `Convert an audio file to the format implied by the output extension.

Example:
  audstream convert input.flac output.wav --rate 16000 --quality very-high`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.bind(cmd)

			quality, err := audio.ParseQuality(a.v.GetString("quality"))
			if err != nil {
				return err
			}

			frames, err := a.convert(args[0], args[1], a.v.GetInt("rate"), quality, a.v.GetInt("chunk"))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d frames to %s\n", frames, args[1])
			return nil
		},
	}

	cmd.Flags().Int("rate", 0, "Output sample rate in Hz (0 keeps the input rate)")
	cmd.Flags().String("quality", audio.QualityHigh.String(), "Resampler quality: quick, low, medium, high, very-high")
	cmd.Flags().Int("chunk", 4096, "Frames per read")

	return cmd
}

func (a *app) convert(in, out string, rate int, quality audio.Quality, chunk int) (int64, error) {
	if chunk <= 0 {
		return 0, fmt.Errorf("invalid chunk size %d", chunk)
	}

	stream, err := audstream.Open(in,
		audio.WithRetrievalRate(rate),
		audio.WithQuality(quality),
		audio.WithLogger(a.logger))
	if err != nil {
		return 0, err
	}
	defer stream.Close()

	sink, err := audstream.Create(out, stream.Channels(), stream.RetrievalRate())
	if err != nil {
		return 0, err
	}

	a.logger.Info("converting",
		slog.String("input", in),
		slog.String("output", out),
		slog.Int("input_rate", stream.SampleRate()),
		slog.Int("output_rate", stream.RetrievalRate()),
		slog.Int("channels", stream.Channels()))

	total, copyErr := copyFrames(sink, stream, chunk)
	closeErr := sink.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		return total, err
	}

	return total, nil
}

// copyFrames moves every frame from src to dst.
func copyFrames(dst audio.Sink, src audio.Source, chunk int) (int64, error) {
	channels := src.Channels()
	buf := make([]float32, chunk*channels)

	var total int64
	for {
		n, err := src.ReadFrames(buf)
		if n > 0 {
			if _, werr := dst.WriteFrames(buf[:n*channels]); werr != nil {
				return total, fmt.Errorf("write: %w", werr)
			}
			total += int64(n)
		}

		if errors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return total, fmt.Errorf("read: %w", err)
		}
		if n == 0 {
			return total, nil
		}
	}
}
