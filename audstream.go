// SPDX-License-Identifier: EPL-2.0

package audstream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/buffered"
	"github.com/ik5/audstream/formats/aiff"
	"github.com/ik5/audstream/formats/flac"
	"github.com/ik5/audstream/formats/mp3"
	"github.com/ik5/audstream/formats/vorbis"
	"github.com/ik5/audstream/formats/wav"
	"github.com/ik5/audstream/index"
)

// RegisterDefaults registers every codec shipped with this module in reg.
// Nothing registers itself at init time; this list is the whole set.
func RegisterDefaults(reg *audio.Registry) {
	reg.RegisterSource(func(path string) (audio.Source, error) {
		return source(wav.Open(path))
	}, "wav", "wave")
	reg.RegisterSource(func(path string) (audio.Source, error) {
		return source(aiff.Open(path))
	}, "aiff", "aif")
	reg.RegisterSource(func(path string) (audio.Source, error) {
		return source(mp3.Open(path))
	}, "mp3")
	reg.RegisterSource(func(path string) (audio.Source, error) {
		return source(vorbis.Open(path))
	}, "ogg", "oga")
	reg.RegisterSource(func(path string) (audio.Source, error) {
		return source(flac.Open(path))
	}, "flac")

	reg.RegisterSink(func(path string, channels, sampleRate int) (audio.Sink, error) {
		return sink(wav.Create(path, channels, sampleRate))
	}, "wav", "wave")
	reg.RegisterSink(func(path string, channels, sampleRate int) (audio.Sink, error) {
		return sink(aiff.Create(path, channels, sampleRate))
	}, "aiff", "aif")
}

// source and sink keep a typed nil pointer from turning into a non-nil
// interface on the error path.
func source[S audio.Source](s S, err error) (audio.Source, error) {
	if err != nil {
		return nil, err
	}

	return s, nil
}

func sink[S audio.Sink](s S, err error) (audio.Sink, error) {
	if err != nil {
		return nil, err
	}

	return s, nil
}

var (
	defaultRegistry     *audio.Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the registry used by Open and Create, filled by
// RegisterDefaults on first use.
func DefaultRegistry() *audio.Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = audio.NewRegistry()
		RegisterDefaults(defaultRegistry)
	})

	return defaultRegistry
}

// Open opens path with the codec matching its extension and wraps it in a
// Stream. Pass audio.WithRetrievalRate to read at another rate.
func Open(path string, opts ...audio.StreamOption) (*audio.Stream, error) {
	src, err := DefaultRegistry().OpenSource(path)
	if err != nil {
		return nil, err
	}

	return audio.NewStream(src, opts...), nil
}

// Create creates path with the writer matching its extension.
func Create(path string, channels, sampleRate int) (audio.Sink, error) {
	return DefaultRegistry().CreateSink(path, channels, sampleRate)
}

// OpenBuffered opens path and hands it to a buffered.Reader holding
// bufferDuration of audio. A retrievalRate of 0 keeps the native rate.
func OpenBuffered(path string, bufferDuration time.Duration, retrievalRate int, opts ...buffered.Option) (*buffered.Reader, error) {
	stream, err := Open(path, audio.WithRetrievalRate(retrievalRate))
	if err != nil {
		return nil, err
	}

	// The buffer is sized at the rate the consumer sees.
	src := audio.Source(stream)
	if stream.RetrievalRate() != stream.SampleRate() {
		src = &retrievalSource{stream}
	}

	r, err := buffered.New(src, append([]buffered.Option{buffered.WithBufferDuration(bufferDuration)}, opts...)...)
	if err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("open buffered %s: %w", path, err)
	}

	return r, nil
}

// retrievalSource reports a Stream's retrieval rate as its sample rate.
type retrievalSource struct {
	*audio.Stream
}

func (r *retrievalSource) SampleRate() int { return r.RetrievalRate() }

// SupportedReadExtensions lists the extensions Open understands.
func SupportedReadExtensions() []string {
	return DefaultRegistry().SourceExtensions()
}

// SupportedWriteExtensions lists the extensions Create understands.
func SupportedWriteExtensions() []string {
	return DefaultRegistry().SinkExtensions()
}

// IndexDirectory starts classifying the files of dir in the background with
// the default registry. Close the index to stop it early.
func IndexDirectory(ctx context.Context, dir string, opts ...index.Option) *index.Index {
	return index.New(ctx, DefaultRegistry(), dir, opts...)
}
