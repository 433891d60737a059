// SPDX-License-Identifier: EPL-2.0

// Command audstream inspects, converts and follows audio files.
//
// Usage:
//
//	audstream [flags] <command> [args]
//
// Commands:
//
//	info     - Print format, length and tags of audio files
//	convert  - Convert between formats, optionally resampling
//	follow   - Read a WAV file that is still being written
//
// Every flag can also be set through the environment with an AUDSTREAM_
// prefix, e.g. AUDSTREAM_LOG_LEVEL=debug or AUDSTREAM_POLL_INTERVAL=20ms.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ik5/audstream/cmd/audstream/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
