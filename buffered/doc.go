// SPDX-License-Identifier: EPL-2.0

// Package buffered decouples a real-time consumer from blocking decode I/O.
//
// A Reader runs one producer goroutine per source. The producer keeps a
// bounded buffer topped up and parks on a "space available" signal (or a
// timeout) when there is nothing to do. The consumer calls ReadFrames,
// which never waits and returns whatever is buffered, de-interleaved into
// one slice per channel.
//
//	r, err := buffered.New(src, buffered.WithBufferDuration(500*time.Millisecond))
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	out := [][]float32{make([]float32, 512), make([]float32, 512)}
//	for !r.Finished() {
//	    n := r.ReadFrames(out)
//	    if n == 0 {
//	        <-r.DataAvailable()
//	        continue
//	    }
//	    play(out, n)
//	}
//
// Close cancels the producer, waits for it to exit and only then closes the
// source.
package buffered
