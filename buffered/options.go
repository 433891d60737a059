// SPDX-License-Identifier: EPL-2.0

package buffered

import (
	"log/slog"
	"time"
)

const (
	// DefaultWaitTimeout bounds every producer wait, so shutdown is noticed
	// within one interval even when no signal arrives.
	DefaultWaitTimeout = 100 * time.Millisecond

	// DefaultBufferDuration is used when neither WithBufferFrames nor
	// WithBufferDuration is given.
	DefaultBufferDuration = time.Second

	minBufferFrames = 64
)

// Option configures a Reader.
type Option func(*config)

type config struct {
	bufferFrames   int
	bufferDuration time.Duration
	waitTimeout    time.Duration
	logger         *slog.Logger
	metrics        *Metrics
}

func defaultConfig() config {
	return config{
		bufferDuration: DefaultBufferDuration,
		waitTimeout:    DefaultWaitTimeout,
		logger:         slog.New(slog.DiscardHandler),
	}
}

// frames resolves the buffer size in frames for a source at sampleRate.
func (c config) frames(sampleRate int) int {
	if c.bufferFrames > 0 {
		return max(c.bufferFrames, minBufferFrames)
	}

	n := int(c.bufferDuration.Seconds() * float64(sampleRate))
	return max(n, minBufferFrames)
}

// WithBufferFrames sizes the buffer in frames. It takes precedence over
// WithBufferDuration.
func WithBufferFrames(n int) Option {
	return func(c *config) { c.bufferFrames = n }
}

// WithBufferDuration sizes the buffer to hold d of audio at the source's
// sample rate.
func WithBufferDuration(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.bufferDuration = d
		}
	}
}

// WithWaitTimeout sets how long the producer sleeps when it has nothing to
// do before checking again.
func WithWaitTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.waitTimeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records producer and consumer activity in m.
func WithMetrics(m *Metrics) Option {
	return func(c *config) { c.metrics = m }
}
