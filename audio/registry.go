// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// DefaultExtension is used for paths without an extension, so temporary
// files created with os.CreateTemp and similar still resolve to a codec.
const DefaultExtension = "wav"

// Registry maps file extensions to source and sink factories. It is filled
// by explicit Register calls; nothing registers itself.
type Registry struct {
	sources map[string]SourceFactory
	sinks   map[string]SinkFactory

	mtx *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]SourceFactory),
		sinks:   make(map[string]SinkFactory),
		mtx:     &sync.Mutex{},
	}
}

// RegisterSource binds f to each extension. Extensions are matched without
// the leading dot and case-insensitively. A later registration for the same
// extension replaces the earlier one.
func (r *Registry) RegisterSource(f SourceFactory, extensions ...string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	for _, ext := range extensions {
		r.sources[normalizeExtension(ext)] = f
	}
}

// RegisterSink binds f to each extension.
func (r *Registry) RegisterSink(f SinkFactory, extensions ...string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	for _, ext := range extensions {
		r.sinks[normalizeExtension(ext)] = f
	}
}

func (r *Registry) source(ext string) (SourceFactory, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	f, ok := r.sources[ext]
	return f, ok
}

func (r *Registry) sink(ext string) (SinkFactory, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	f, ok := r.sinks[ext]
	return f, ok
}

// OpenSource opens path with the source registered for its extension.
func (r *Registry) OpenSource(path string) (Source, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewFileError("open", path, ErrFileNotFound, nil)
		}
		return nil, OperationError("open", path, err)
	}

	ext := lookupExtension(path)

	f, ok := r.source(ext)
	if !ok {
		return nil, NewFileError("open", path, ErrUnknownFileType, errorf("no reader for extension %q", ext))
	}

	src, err := f(path)
	if err != nil {
		var fe *FileError
		if errors.As(err, &fe) {
			return nil, err
		}
		return nil, FormatError(path, err)
	}

	return src, nil
}

// CreateSink creates path with the sink registered for its extension. An
// existing file is overwritten.
func (r *Registry) CreateSink(path string, channels, sampleRate int) (Sink, error) {
	ext := lookupExtension(path)

	f, ok := r.sink(ext)
	if !ok {
		return nil, NewFileError("create", path, ErrUnknownFileType, errorf("no writer for extension %q", ext))
	}

	sink, err := f(path, channels, sampleRate)
	if err != nil {
		var fe *FileError
		if errors.As(err, &fe) {
			return nil, err
		}
		return nil, OperationError("create", path, err)
	}

	return sink, nil
}

// SourceExtensions lists the extensions with a registered source, sorted.
func (r *Registry) SourceExtensions() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	exts := make([]string, 0, len(r.sources))
	for ext := range r.sources {
		exts = append(exts, ext)
	}
	slices.Sort(exts)

	return exts
}

// SinkExtensions lists the extensions with a registered sink, sorted.
func (r *Registry) SinkExtensions() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	exts := make([]string, 0, len(r.sinks))
	for ext := range r.sinks {
		exts = append(exts, ext)
	}
	slices.Sort(exts)

	return exts
}

// IsSupported reports whether a source is registered for path's extension.
func (r *Registry) IsSupported(path string) bool {
	_, ok := r.source(lookupExtension(path))
	return ok
}

// ExtensionOf returns the lower-cased extension of path without its dot,
// or "" when there is none.
func ExtensionOf(path string) string {
	return normalizeExtension(filepath.Ext(path))
}

func lookupExtension(path string) string {
	ext := ExtensionOf(path)
	if ext == "" {
		return DefaultExtension
	}

	return ext
}

func normalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
