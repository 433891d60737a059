// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ik5/audstream"
	"github.com/ik5/audstream/audio"
)

func (a *app) infoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>...",
		Short: "Print format, length and tags of audio files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if err := a.info(cmd.OutOrStdout(), path); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (a *app) info(w io.Writer, path string) error {
	stream, err := audstream.Open(path, audio.WithLogger(a.logger))
	if err != nil {
		return err
	}
	defer stream.Close()

	frames := stream.EstimatedFrameCount()

	fmt.Fprintf(w, "%s\n", path)
	fmt.Fprintf(w, "  format:      %s\n", audio.ExtensionOf(path))
	fmt.Fprintf(w, "  sample rate: %d Hz\n", stream.SampleRate())
	fmt.Fprintf(w, "  channels:    %d\n", stream.Channels())
	if frames > 0 && stream.SampleRate() > 0 {
		d := time.Duration(frames) * time.Second / time.Duration(stream.SampleRate())
		fmt.Fprintf(w, "  frames:      %d (%s)\n", frames, d)
	} else {
		fmt.Fprintf(w, "  frames:      unknown\n")
	}
	fmt.Fprintf(w, "  seekable:    %t\n", stream.Seekable())
	if t := stream.TrackName(); t != "" {
		fmt.Fprintf(w, "  track:       %s\n", t)
	}
	if ar := stream.ArtistName(); ar != "" {
		fmt.Fprintf(w, "  artist:      %s\n", ar)
	}

	a.logger.Debug("inspected file", "path", path, "frames", frames)

	return nil
}
