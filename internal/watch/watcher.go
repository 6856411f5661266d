// Package watch runs the transform pipeline over a hot folder: every image
// dropped into the watched directory is transformed and written to an output
// directory as {name}.{ext}.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ironsheep/ai-tools/internal/imaging"
	"github.com/ironsheep/ai-tools/internal/pipeline"
)

// DefaultSettle is how long a file must stay quiet before it is processed.
const DefaultSettle = 250 * time.Millisecond

// ErrSameDir is returned when the output directory is the watched directory.
var ErrSameDir = errors.New("output directory must differ from the watched directory")

// Event is the outcome of processing one file.
type Event struct {
	Source string
	Output string // path written, empty on failure
	Result *pipeline.Result
	Err    error
}

// Watcher monitors one directory and transforms the images that appear in it.
// Files are processed one at a time in the order they settle.
type Watcher struct {
	dir       string
	outDir    string
	cfg       pipeline.Config
	pipeline  *pipeline.Pipeline
	settle    time.Duration
	overwrite bool
	existing  bool
	onResult  func(Event)
	logger    *zap.Logger
}

// Option configures a Watcher.
type Option func(w *Watcher)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithPipeline sets the pipeline used for transforms.
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(w *Watcher) {
		if p != nil {
			w.pipeline = p
		}
	}
}

// WithSettle sets the quiet period after the last write before a file is
// processed. Non-positive values select DefaultSettle.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithOverwrite replaces existing outputs instead of adding a -N suffix.
func WithOverwrite(overwrite bool) Option {
	return func(w *Watcher) {
		w.overwrite = overwrite
	}
}

// WithExisting also processes the images already in the directory when Run
// starts.
func WithExisting(existing bool) Option {
	return func(w *Watcher) {
		w.existing = existing
	}
}

// WithOnResult registers a callback invoked after each file is processed.
func WithOnResult(fn func(Event)) Option {
	return func(w *Watcher) {
		w.onResult = fn
	}
}

// New creates a watcher for dir writing into outDir. The output directory is
// created if needed and cfg is normalized.
func New(dir, outDir string, cfg pipeline.Config, opts ...Option) (*Watcher, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", outDir, err)
	}
	if absDir == absOut {
		return nil, ErrSameDir
	}

	info, err := os.Stat(absDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	if err := os.MkdirAll(absOut, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	w := &Watcher{
		dir:    absDir,
		outDir: absOut,
		cfg:    cfg.Normalize(),
		settle: DefaultSettle,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.pipeline == nil {
		w.pipeline = pipeline.New(pipeline.WithLogger(w.logger))
	}
	return w, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string { return w.dir }

// OutputDir returns the output directory.
func (w *Watcher) OutputDir() string { return w.outDir }

// Run watches until ctx is cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch folder %s: %w", w.dir, err)
	}
	w.logger.Info("watching",
		zap.String("dir", w.dir),
		zap.String("output_dir", w.outDir),
		zap.String("format", string(w.cfg.Format)))

	if w.existing {
		if err := w.processExisting(ctx); err != nil {
			return err
		}
	}

	deb := newDebouncer(w.settle)
	defer deb.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.wants(event) {
				deb.touch(ctx, event.Name)
			}

		case s := <-deb.ready:
			if deb.due(s) {
				w.Process(ctx, s.name)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// settled is sent when a file's quiet period ends. gen identifies the timer
// that fired.
type settled struct {
	name string
	gen  uint64
}

type pendingFile struct {
	gen   uint64
	timer *time.Timer
}

// debouncer restarts a file's quiet period on every write. It is owned by the
// Run loop and is not safe for concurrent use.
type debouncer struct {
	settle  time.Duration
	ready   chan settled
	pending map[string]pendingFile
	gen     uint64
}

func newDebouncer(settle time.Duration) *debouncer {
	return &debouncer{
		settle:  settle,
		ready:   make(chan settled, 64),
		pending: make(map[string]pendingFile),
	}
}

func (d *debouncer) touch(ctx context.Context, name string) {
	if p, ok := d.pending[name]; ok {
		p.timer.Stop()
	}
	d.gen++
	s := settled{name: name, gen: d.gen}
	d.pending[name] = pendingFile{
		gen: s.gen,
		timer: time.AfterFunc(d.settle, func() {
			select {
			case d.ready <- s:
			case <-ctx.Done():
			}
		}),
	}
}

// due reports whether s is from the file's current timer and, if so, forgets
// the file. A timer that fired before a later write was seen is stale.
func (d *debouncer) due(s settled) bool {
	p, ok := d.pending[s.name]
	if !ok || p.gen != s.gen {
		return false
	}
	delete(d.pending, s.name)
	return true
}

func (d *debouncer) stop() {
	for _, p := range d.pending {
		p.timer.Stop()
	}
}

// wants reports whether an event should schedule its file for processing.
func (w *Watcher) wants(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return imaging.IsImageFile(base)
}

func (w *Watcher) processExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", w.dir, err)
	}
	for _, e := range entries {
		if ctx.Err() != nil {
			return nil
		}
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !imaging.IsImageFile(e.Name()) {
			continue
		}
		w.Process(ctx, filepath.Join(w.dir, e.Name()))
	}
	return nil
}

// Process transforms one file and writes the result. Files that vanished or
// turned out to be directories are skipped and the callback is not invoked.
func (w *Watcher) Process(ctx context.Context, path string) Event {
	ev := Event{Source: path}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		w.logger.Debug("skipping", zap.String("path", path))
		return ev
	}

	ev.Err = w.process(ctx, path, &ev)
	if ev.Err != nil {
		w.logger.Warn("transform failed", zap.String("path", path), zap.Error(ev.Err))
	} else {
		w.logger.Info("transformed",
			zap.String("path", path),
			zap.String("output", ev.Output),
			zap.Int("width", ev.Result.Width),
			zap.Int("height", ev.Result.Height))
	}
	if w.onResult != nil {
		w.onResult(ev)
	}
	return ev
}

func (w *Watcher) process(ctx context.Context, path string, ev *Event) error {
	src, err := imaging.ReadSource(path)
	if err != nil {
		return err
	}
	res, err := w.pipeline.TransformOne(ctx, src, w.cfg)
	if err != nil {
		return err
	}
	out, err := imaging.WriteResult(w.outDir, res, w.overwrite)
	if err != nil {
		return err
	}
	ev.Result = res
	ev.Output = out
	return nil
}
