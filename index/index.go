// SPDX-License-Identifier: EPL-2.0

package index

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ik5/audstream/audio"
)

// Index holds the classification of one directory. It is safe for
// concurrent use.
type Index struct {
	dir        string
	reg        *audio.Registry
	logger     *slog.Logger
	onProgress func(percent int)

	cancel context.CancelFunc
	g      *errgroup.Group
	done   chan struct{}

	mu          sync.Mutex
	good        []string
	unsupported []string
	protected   []string
	percent     int
	complete    bool
}

// Option configures an Index.
type Option func(*Index)

func WithLogger(l *slog.Logger) Option {
	return func(ix *Index) {
		if l != nil {
			ix.logger = l
		}
	}
}

// WithProgress calls fn from the indexing goroutine every time the
// completion percentage changes. fn must not block.
func WithProgress(fn func(percent int)) Option {
	return func(ix *Index) { ix.onProgress = fn }
}

// New starts indexing dir with the sources registered in reg. Indexing stops
// early when ctx is cancelled or Close is called.
func New(ctx context.Context, reg *audio.Registry, dir string, opts ...Option) *Index {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	ix := &Index{
		dir:    dir,
		reg:    reg,
		logger: slog.New(slog.DiscardHandler),
		done:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(ix)
	}

	ctx, ix.cancel = context.WithCancel(ctx)
	ix.g, ctx = errgroup.WithContext(ctx)
	ix.g.Go(func() error {
		defer close(ix.done)
		return ix.run(ctx)
	})

	return ix
}

// Dir returns the absolute path being indexed.
func (ix *Index) Dir() string { return ix.dir }

// Done is closed when indexing ends, whether it completed, failed or was
// cancelled.
func (ix *Index) Done() <-chan struct{} { return ix.done }

// Wait blocks until indexing ends. It returns an error only when the
// directory itself could not be read; a cancelled index returns nil.
func (ix *Index) Wait() error {
	return ix.g.Wait()
}

// Close cancels indexing and waits for the file being opened to finish.
func (ix *Index) Close() error {
	ix.cancel()
	return ix.Wait()
}

// Complete reports whether every file in the directory has been classified.
func (ix *Index) Complete() bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	return ix.complete
}

// Completion returns the percentage of files classified so far.
func (ix *Index) Completion() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	return ix.percent
}

// Good returns the absolute paths of files a registered source could open,
// in directory order.
func (ix *Index) Good() []string {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	return slices.Clone(ix.good)
}

// Unsupported returns files with no matching source, or that the source
// rejected.
func (ix *Index) Unsupported() []string {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	return slices.Clone(ix.unsupported)
}

// Protected returns files rejected as DRM-protected.
func (ix *Index) Protected() []string {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	return slices.Clone(ix.protected)
}

// Counts returns the sizes of the good, unsupported and protected lists.
func (ix *Index) Counts() (good, unsupported, protected int) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	return len(ix.good), len(ix.unsupported), len(ix.protected)
}

func (ix *Index) run(ctx context.Context) error {
	files, err := ix.list()
	if err != nil {
		return err
	}

	ix.logger.Debug("indexing directory",
		slog.String("dir", ix.dir),
		slog.Int("files", len(files)))

	for n, path := range files {
		if ctx.Err() != nil {
			ix.logger.Debug("indexing cancelled",
				slog.String("dir", ix.dir),
				slog.Int("indexed", n))
			return nil
		}

		ix.classify(path)
		ix.setProgress(n+1, len(files), false)
	}

	ix.setProgress(len(files), len(files), true)

	return nil
}

// list returns the readable regular files of the directory. Symlinks are
// followed; anything that cannot be stat'ed is skipped.
func (ix *Index) list() ([]string, error) {
	entries, err := os.ReadDir(ix.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, audio.NewFileError("index", ix.dir, audio.ErrFileNotFound, nil)
		}
		return nil, audio.OperationError("index", ix.dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		path := filepath.Join(ix.dir, e.Name())

		fi, err := os.Stat(path)
		if err != nil || !fi.Mode().IsRegular() {
			ix.logger.Debug("skipping entry",
				slog.String("path", path))
			continue
		}
		files = append(files, path)
	}

	return files, nil
}

func (ix *Index) classify(path string) {
	src, err := ix.reg.OpenSource(path)

	var list *[]string
	switch {
	case errors.Is(err, audio.ErrDRMProtected):
		list = &ix.protected
	case err != nil:
		ix.logger.Debug("unsupported file",
			slog.String("path", path),
			slog.Any("error", err))
		list = &ix.unsupported
	default:
		if src.Channels() == 0 || src.SampleRate() == 0 {
			ix.logger.Debug("file has no channels or sample rate",
				slog.String("path", path))
			list = &ix.unsupported
		} else {
			list = &ix.good
		}

		if err := src.Close(); err != nil {
			ix.logger.Debug("close failed",
				slog.String("path", path),
				slog.Any("error", err))
		}
	}

	ix.mu.Lock()
	*list = append(*list, path)
	ix.mu.Unlock()
}

func (ix *Index) setProgress(done, total int, complete bool) {
	percent := 100
	if !complete && total > 0 {
		percent = done * 100 / total
	}

	ix.mu.Lock()
	changed := percent != ix.percent
	ix.percent = percent
	ix.complete = complete
	ix.mu.Unlock()

	if changed && ix.onProgress != nil {
		ix.onProgress(percent)
	}
}
