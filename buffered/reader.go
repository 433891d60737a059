// SPDX-License-Identifier: EPL-2.0

package buffered

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/internal/samplebuf"
)

// ErrNoChannels is returned by New for a source that reports no channels.
var ErrNoChannels = errors.New("source has no channels")

// Reader drains an audio.Source on a background goroutine into a bounded
// buffer, so a consumer can take frames without waiting on file or codec
// I/O.
//
// ReadFrames, AvailableFrames and Rewind belong to a single consumer
// goroutine. The producer is the only writer of the buffer.
type Reader struct {
	src        audio.Source
	channels   int
	sampleRate int

	buf *samplebuf.Buffer

	// srcMu serialises source access between the producer and Rewind.
	srcMu sync.Mutex

	dataAvailable  chan struct{}
	spaceAvailable chan struct{}

	cancel context.CancelFunc
	group  *errgroup.Group

	exhausted atomic.Bool
	err       atomic.Pointer[error]

	waitTimeout time.Duration
	logger      *slog.Logger
	metrics     *Metrics

	scratch []float32

	closeOnce sync.Once
	closeErr  error
}

// New starts a producer for src. The Reader owns src from here on and
// closes it in Close.
func New(src audio.Source, opts ...Option) (*Reader, error) {
	channels := src.Channels()
	if channels <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrNoChannels, channels)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	frames := cfg.frames(src.SampleRate())

	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)

	r := &Reader{
		src:            src,
		channels:       channels,
		sampleRate:     src.SampleRate(),
		buf:            samplebuf.New(frames * channels),
		dataAvailable:  make(chan struct{}, 1),
		spaceAvailable: make(chan struct{}, 1),
		cancel:         cancel,
		group:          group,
		waitTimeout:    cfg.waitTimeout,
		logger:         cfg.logger.With(slog.String("component", "buffered")),
		metrics:        cfg.metrics,
	}

	r.logger.Debug("producer starting",
		slog.Int("buffer_frames", frames),
		slog.Int("channels", channels),
		slog.Duration("wait_timeout", cfg.waitTimeout))

	group.Go(func() error { return r.produce(ctx) })

	return r, nil
}

func (r *Reader) SampleRate() int { return r.sampleRate }
func (r *Reader) Channels() int   { return r.channels }

// BufferFrames returns the buffer capacity in frames.
func (r *Reader) BufferFrames() int { return r.buf.Capacity() / r.channels }

// AvailableFrames returns how many frames ReadFrames can return right now.
// It never blocks.
func (r *Reader) AvailableFrames() int {
	return r.buf.ReadSpace() / r.channels
}

// DataAvailable is signalled whenever the producer adds frames or stops.
// Consumers that are not real-time may wait on it between reads.
func (r *Reader) DataAvailable() <-chan struct{} { return r.dataAvailable }

// Finished reports whether the source is exhausted (or failed) and every
// buffered frame has been read.
func (r *Reader) Finished() bool {
	return r.exhausted.Load() && r.buf.ReadSpace() == 0
}

// Err returns the error that stopped the producer, if any.
func (r *Reader) Err() error {
	if p := r.err.Load(); p != nil {
		return *p
	}

	return nil
}

// ReadFrames de-interleaves up to len(out[0]) frames into out, one slice
// per channel, and returns the number of frames written. It never waits:
// fewer frames than requested, including none, is a normal result. out must
// hold at least Channels slices; the shortest of them bounds the count.
func (r *Reader) ReadFrames(out [][]float32) int {
	if len(out) < r.channels {
		return 0
	}

	count := len(out[0])
	for _, ch := range out[1:r.channels] {
		count = min(count, len(ch))
	}
	if count == 0 {
		return 0
	}

	available := r.AvailableFrames()
	if available < count {
		r.metrics.underrun()
	}
	count = min(count, available)
	if count == 0 {
		return 0
	}

	samples := count * r.channels
	if cap(r.scratch) < samples {
		r.scratch = make([]float32, samples)
	}
	scratch := r.scratch[:samples]

	n := r.buf.Read(scratch) / r.channels
	for f := range n {
		base := f * r.channels
		for c := range r.channels {
			out[c][f] = scratch[base+c]
		}
	}

	r.metrics.consumed(n)
	r.metrics.fill(r.buf.ReadSpace(), r.buf.Capacity())
	signal(r.spaceAvailable)

	return n
}

// Rewind drops buffered frames and restarts the source from its first
// frame. It fails with audio.ErrNotSeekable when the source cannot seek.
func (r *Reader) Rewind() error {
	sk, ok := r.src.(audio.Seeker)
	if !ok || !sk.Seekable() {
		return audio.ErrNotSeekable
	}

	r.srcMu.Lock()
	defer r.srcMu.Unlock()

	if err := sk.Seek(0); err != nil {
		return fmt.Errorf("rewind: %w", err)
	}

	r.buf.Reset()
	r.exhausted.Store(false)
	r.metrics.fill(0, r.buf.Capacity())
	signal(r.spaceAvailable)

	r.logger.Debug("rewound")

	return nil
}

// Close stops the producer, waits for it to exit and closes the source.
// The producer's error, if any, is joined with the close error. Calling
// Close again returns the same result.
func (r *Reader) Close() error {
	r.closeOnce.Do(func() {
		r.cancel()
		signal(r.spaceAvailable)
		signal(r.dataAvailable)

		produceErr := r.group.Wait()

		var closeErr error
		if err := r.src.Close(); err != nil {
			closeErr = fmt.Errorf("close source: %w", err)
		}

		r.closeErr = errors.Join(produceErr, closeErr)
	})

	return r.closeErr
}

func (r *Reader) produce(ctx context.Context) error {
	defer r.logger.Debug("producer exited")

	timer := time.NewTimer(r.waitTimeout)
	defer timer.Stop()

	transfer := make([]float32, r.buf.Capacity())

	for ctx.Err() == nil {
		progressed := false

		if !r.exhausted.Load() {
			frames := r.buf.WriteSpace() / r.channels
			if frames > 0 {
				n, err := r.fill(transfer[:frames*r.channels])
				if err != nil {
					r.fail(err)
					return err
				}
				progressed = n > 0
			}
		}

		if progressed {
			signal(r.dataAvailable)
			continue
		}

		// Buffer full, source at its end, or a growing source with nothing
		// new: sleep until the consumer frees space or the timeout passes.
		timer.Reset(r.waitTimeout)
		select {
		case <-ctx.Done():
		case <-r.spaceAvailable:
		case <-timer.C:
		}
		timer.Stop()
	}

	return nil
}

// fill reads one batch from the source into the buffer and returns the
// number of frames added.
func (r *Reader) fill(transfer []float32) (int, error) {
	r.srcMu.Lock()
	defer r.srcMu.Unlock()

	n, err := r.src.ReadFrames(transfer)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("read source: %w", err)
	}

	if n > 0 {
		r.buf.Write(transfer[:n*r.channels])
		r.metrics.produced(n)
		r.metrics.fill(r.buf.ReadSpace(), r.buf.Capacity())
	}

	if errors.Is(err, io.EOF) {
		r.exhausted.Store(true)
		signal(r.dataAvailable)
		r.logger.Debug("source exhausted")
	}

	return n, nil
}

func (r *Reader) fail(err error) {
	r.err.Store(&err)
	r.exhausted.Store(true)
	signal(r.dataAvailable)

	r.logger.Warn("source read failed", slog.Any("error", err))
}

// signal performs a non-blocking send on a capacity-1 channel, so repeated
// signals coalesce.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
