// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/ik5/audstream"
	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/buffered"
	"github.com/ik5/audstream/formats/wav"
)

type followOptions struct {
	poll    time.Duration
	maxWait time.Duration
	buffer  time.Duration
	idle    time.Duration
	output  string
}

func (a *app) followCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "follow <file.wav>",
		Short: "Read a WAV file that is still being written",
		Long: `Follow a WAV file while another process writes it, the way tail -f
follows a log. Reading stops at the end of a finished file, after --idle
without new frames, or on interrupt.

Example:
  AUDSTREAM_POLL_INTERVAL=10ms audstream follow capture.wav --output copy.wav`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.bind(cmd)

			opts := followOptions{
				poll:    a.v.GetDuration("poll-interval"),
				maxWait: a.v.GetDuration("max-wait"),
				buffer:  a.v.GetDuration("buffer"),
				idle:    a.v.GetDuration("idle"),
				output:  a.v.GetString("output"),
			}

			return a.follow(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().Duration("poll-interval", 20*time.Millisecond, "Retry interval for short reads")
	cmd.Flags().Duration("max-wait", 200*time.Millisecond, "Longest wait for the writer within one read")
	cmd.Flags().Duration("buffer", 500*time.Millisecond, "Audio kept decoded ahead of the consumer")
	cmd.Flags().Duration("idle", 5*time.Second, "Stop after this long without new frames")
	cmd.Flags().StringP("output", "o", "", "Also write the frames to this file")

	return cmd
}

func (a *app) follow(ctx context.Context, w io.Writer, path string, opts followOptions) (err error) {
	src, err := wav.Open(path,
		wav.WithIncrementalTimeouts(opts.poll, opts.maxWait),
		wav.WithReaderLogger(a.logger))
	if err != nil {
		return err
	}

	channels := src.Channels()

	r, err := buffered.New(src,
		buffered.WithBufferDuration(opts.buffer),
		buffered.WithWaitTimeout(max(opts.poll, time.Millisecond)),
		buffered.WithLogger(a.logger))
	if err != nil {
		_ = src.Close()
		return err
	}
	defer func() {
		// Close repeats the producer error already returned from Err.
		if cerr := r.Close(); err == nil {
			err = cerr
		}
	}()

	var sink audio.Sink
	if opts.output != "" {
		sink, err = audstream.Create(opts.output, channels, src.SampleRate())
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, sink.Close()) }()
	}

	a.logger.Info("following",
		slog.String("path", path),
		slog.Bool("growing", src.Growing()),
		slog.Int("sample_rate", src.SampleRate()),
		slog.Int("channels", channels))

	out := make([][]float32, channels)
	for c := range out {
		out[c] = make([]float32, 1024)
	}
	interleaved := make([]float32, 1024*channels)

	idle := time.NewTimer(opts.idle)
	defer idle.Stop()

	var (
		total int64
		peak  float64
	)

loop:
	for !r.Finished() {
		n := r.ReadFrames(out)
		if n > 0 {
			total += int64(n)
			for f := range n {
				for c := range channels {
					v := out[c][f]
					interleaved[f*channels+c] = v
					peak = max(peak, math.Abs(float64(v)))
				}
			}

			if sink != nil {
				if _, err := sink.WriteFrames(interleaved[:n*channels]); err != nil {
					return fmt.Errorf("write %s: %w", opts.output, err)
				}
			}

			idle.Reset(opts.idle)
			continue
		}

		select {
		case <-ctx.Done():
			a.logger.Info("interrupted")
			break loop
		case <-idle.C:
			a.logger.Info("no new frames", slog.Duration("idle", opts.idle))
			break loop
		case <-r.DataAvailable():
		}
	}

	if err := r.Err(); err != nil {
		return err
	}

	seconds := float64(total) / float64(src.SampleRate())
	fmt.Fprintf(w, "read %d frames (%.2fs) from %s, peak %.3f\n", total, seconds, path, peak)

	return nil
}
