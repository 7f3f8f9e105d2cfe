// Package writer flushes emitted files to disk: parallel writes, an
// unchanged-content skip, and a manifest that lets the next run prune files
// a previous run generated but the current one no longer does.
package writer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/pgforge/pgforge/compiler/gen"
)

// ManifestName is the bookkeeping file tracking generated paths.
const ManifestName = ".pgforge.manifest"

// Writer flushes one emission result to an output directory.
type Writer struct {
	dir     string
	dryRun  bool
	workers int
	logger  *log.Logger

	mu      sync.Mutex
	results []Result
}

// Result records the outcome for one path.
type Result struct {
	Path    string
	Written bool
	// Reason explains a skipped or non-write outcome: "unchanged",
	// "dry-run" or "pruned".
	Reason string
}

// Option configures a Writer.
type Option func(*Writer)

// WithDryRun reports what would be written without touching the disk.
func WithDryRun(dry bool) Option {
	return func(w *Writer) { w.dryRun = dry }
}

// WithWorkers caps the parallel write workers.
func WithWorkers(n int) Option {
	return func(w *Writer) {
		if n > 0 {
			w.workers = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *log.Logger) Option {
	return func(w *Writer) { w.logger = l }
}

// New creates a writer rooted at dir.
func New(dir string, opts ...Option) *Writer {
	w := &Writer{
		dir:     dir,
		workers: runtime.GOMAXPROCS(0),
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write flushes the files in parallel and returns one result per path, in
// path order. Files whose on-disk content already matches are skipped, and
// paths present in the previous run's manifest but absent from this run
// are removed.
func (w *Writer) Write(ctx context.Context, files []gen.File) ([]Result, error) {
	w.results = nil
	previous, err := w.readManifest()
	if err != nil {
		return nil, err
	}

	if !w.dryRun {
		if err := os.MkdirAll(w.dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(w.workers)
	for _, f := range files {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return w.writeFile(f)
			}
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	current := make(map[string]struct{}, len(files))
	for _, f := range files {
		current[f.Path] = struct{}{}
	}
	if err := w.prune(previous, current); err != nil {
		return nil, err
	}
	if !w.dryRun {
		if err := w.writeManifest(current); err != nil {
			return nil, err
		}
	}

	sort.Slice(w.results, func(i, j int) bool { return w.results[i].Path < w.results[j].Path })
	return w.results, nil
}

func (w *Writer) writeFile(f gen.File) error {
	full := filepath.Join(w.dir, filepath.FromSlash(f.Path))
	content := []byte(f.Content)

	if existing, err := os.ReadFile(full); err == nil && bytes.Equal(existing, content) {
		w.record(Result{Path: f.Path, Reason: "unchanged"})
		return nil
	}
	if w.dryRun {
		w.logger.Info("would write", "path", f.Path, "bytes", len(content))
		w.record(Result{Path: f.Path, Reason: "dry-run"})
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", f.Path, err)
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", f.Path, err)
	}
	w.logger.Debug("wrote file", "path", f.Path, "bytes", len(content))
	w.record(Result{Path: f.Path, Written: true})
	return nil
}

// prune removes files the previous manifest tracked that no longer exist
// in the current emission set.
func (w *Writer) prune(previous *Manifest, current map[string]struct{}) error {
	if previous == nil {
		return nil
	}
	for _, path := range previous.Paths() {
		if _, ok := current[path]; ok {
			continue
		}
		if w.dryRun {
			w.logger.Info("would prune", "path", path)
			w.record(Result{Path: path, Reason: "dry-run"})
			continue
		}
		full := filepath.Join(w.dir, filepath.FromSlash(path))
		if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("prune %s: %w", path, err)
		}
		w.logger.Debug("pruned stale file", "path", path)
		w.record(Result{Path: path, Reason: "pruned"})
	}
	return nil
}

func (w *Writer) record(r Result) {
	w.mu.Lock()
	w.results = append(w.results, r)
	w.mu.Unlock()
}

func (w *Writer) readManifest() (*Manifest, error) {
	m, err := ReadManifest(filepath.Join(w.dir, ManifestName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		// A corrupt manifest only disables pruning; generation proceeds.
		w.logger.Warn("unreadable manifest, skipping prune", "err", err)
		return nil, nil
	}
	return m, nil
}

func (w *Writer) writeManifest(current map[string]struct{}) error {
	m := &Manifest{Version: manifestVersion, GeneratedAt: time.Now().UTC()}
	for path := range current {
		m.Files = append(m.Files, path)
	}
	sort.Strings(m.Files)
	return m.WriteTo(filepath.Join(w.dir, ManifestName))
}
