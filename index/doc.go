// SPDX-License-Identifier: EPL-2.0

// Package index sorts the audio files of a directory in the background.
//
// Every regular file in the directory (subdirectories are not entered) is
// opened through an audio.Registry and filed as good, unsupported or
// DRM-protected. Results are available while indexing runs; Wait blocks
// until it finishes and Close cancels it.
//
//	ix := index.New(ctx, audstream.DefaultRegistry(), "/music",
//	    index.WithProgress(func(p int) { fmt.Printf("\r%d%%", p) }))
//	defer ix.Close()
//
//	if err := ix.Wait(); err != nil {
//	    return err
//	}
//	for _, path := range ix.Good() {
//	    fmt.Println(path)
//	}
package index
