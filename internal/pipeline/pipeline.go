package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/font/opentype"
)

// DefaultBaseName names outputs whose source has no usable filename.
const DefaultBaseName = "image"

// Source is one input image: its original filename and raw bytes.
type Source struct {
	Name string
	Data []byte
}

// Result is one transformed image.
type Result struct {
	Data     []byte `json:"-"`
	Format   Format `json:"format"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	BaseName string `json:"base_name"`
}

// Filename returns the download name of the result, {BaseName}.{ext}.
func (r *Result) Filename() string {
	return r.BaseName + "." + r.Format.Extension()
}

// Item is the outcome of one batch entry. Exactly one of Result and Err is set.
type Item struct {
	Source string
	Result *Result
	Err    error
}

// Pipeline runs image transforms.
type Pipeline struct {
	logger   *zap.Logger
	encoders map[Format]Encoder

	fontOnce sync.Once
	font     *opentype.Font
	fontErr  error
}

// Option configures a Pipeline.
type Option func(p *Pipeline)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithEncoder registers or replaces the encoder for a format.
func WithEncoder(format Format, enc Encoder) Option {
	return func(p *Pipeline) {
		if enc != nil {
			p.encoders[format] = enc
		}
	}
}

// WithFont sets the overlay font. The bundled Go Regular face is used otherwise.
func WithFont(f *opentype.Font) Option {
	return func(p *Pipeline) {
		p.font = f
	}
}

// LoadFont reads a TrueType or OpenType font file for use with WithFont.
func LoadFont(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newError(KindConfig, "overlay font: %w", err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, newError(KindConfig, "overlay font %s: %w", filepath.Base(path), err)
	}
	return f, nil
}

// New creates a Pipeline with png, jpeg and webp encoders.
func New(options ...Option) *Pipeline {
	p := &Pipeline{
		logger:   zap.NewNop(),
		encoders: defaultEncoders(),
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// BaseName strips the directory and the last extension from a filename.
func BaseName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		return DefaultBaseName
	}
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" {
		return DefaultBaseName
	}
	return base
}

// TransformOne decodes src, fits it into the configured bounds, renders the
// overlay and encodes the result. cfg is normalized first. Errors are *Error
// values naming src.
//
// ctx is only checked before work starts; a transform in progress runs to
// completion.
func (p *Pipeline) TransformOne(ctx context.Context, src Source, cfg Config) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg = cfg.Normalize()
	start := time.Now()

	img, err := Decode(src.Data)
	if err != nil {
		return nil, WithSource(err, src.Name)
	}
	b := img.Bounds()
	w, h := FitDimensions(b.Dx(), b.Dy(), cfg.MaxWidth, cfg.MaxHeight)

	canvas, err := p.Render(img, w, h, cfg.Overlay)
	if err != nil {
		return nil, WithSource(err, src.Name)
	}
	data, err := p.Encode(canvas, cfg.Format, cfg.EncodeQuality())
	if err != nil {
		return nil, WithSource(err, src.Name)
	}

	p.logger.Debug("transformed",
		zap.String("source", src.Name),
		zap.Int("src_width", b.Dx()), zap.Int("src_height", b.Dy()),
		zap.Int("width", w), zap.Int("height", h),
		zap.String("format", string(cfg.Format)),
		zap.Int("bytes", len(data)),
		zap.Duration("took", time.Since(start)))

	return &Result{
		Data:     data,
		Format:   cfg.Format,
		Width:    w,
		Height:   h,
		BaseName: BaseName(src.Name),
	}, nil
}

// TransformBatch transforms each source in order and returns one Item per
// source. A failed item never stops the rest. Once ctx is done the remaining
// items fail with the context error.
func (p *Pipeline) TransformBatch(ctx context.Context, srcs []Source, cfg Config) []Item {
	items := make([]Item, len(srcs))
	for i, src := range srcs {
		items[i].Source = src.Name
		if err := ctx.Err(); err != nil {
			items[i].Err = err
			continue
		}
		res, err := p.TransformOne(ctx, src, cfg)
		if err != nil {
			p.logger.Warn("transform failed", zap.String("source", src.Name), zap.Error(err))
			items[i].Err = err
			continue
		}
		items[i].Result = res
	}
	return items
}

// Succeeded returns the results of the items that did not fail, in order.
func Succeeded(items []Item) []*Result {
	var out []*Result
	for _, it := range items {
		if it.Err == nil && it.Result != nil {
			out = append(out, it.Result)
		}
	}
	return out
}

// Failed returns the errors of the failed items, in order.
func Failed(items []Item) []error {
	var out []error
	for _, it := range items {
		if it.Err != nil {
			out = append(out, it.Err)
		}
	}
	return out
}
