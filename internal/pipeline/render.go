package pipeline

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Overlay drop shadow: 4px blur, offset (2,2), 35% black.
const (
	minOverlayPadding = 16
	shadowOffset      = 2
	shadowAlpha       = 0.35
	// bild weights samples by exp(-x²/4r); r=2 gives sigma 2, the
	// equivalent of a 4px shadow blur.
	shadowBlurRadius = 2.0
	shadowMargin     = 8
)

// OverlayPadding is the distance kept between the overlay text and the
// right and bottom canvas edges.
func OverlayPadding(fontSize int) int {
	p := int(math.Round(float64(fontSize) * 0.5))
	if p < minOverlayPadding {
		return minOverlayPadding
	}
	return p
}

// Placement returns where overlay text of the given width starts (X) and where
// its bottom edge sits (Y) on a canvasW×canvasH canvas.
func Placement(canvasW, canvasH, textWidth, fontSize int) image.Point {
	pad := OverlayPadding(fontSize)
	return image.Pt(canvasW-textWidth-pad, canvasH-pad)
}

// Render draws img scaled to width×height into a new canvas and stamps the
// overlay, if any. The source image is never modified.
func (p *Pipeline) Render(img image.Image, width, height int, overlay *Overlay) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, newError(KindEncode, "invalid canvas size %dx%d", width, height)
	}

	var canvas *image.NRGBA
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		canvas = imaging.Clone(img)
	} else {
		canvas = imaging.Resize(img, width, height, imaging.Lanczos)
	}

	if overlay == nil || overlay.Text == "" {
		return canvas, nil
	}
	if err := p.drawOverlay(canvas, overlay); err != nil {
		return nil, err
	}
	return canvas, nil
}

// textMetrics is a measured overlay run at one font size.
type textMetrics struct {
	face    font.Face
	size    int
	width   int
	ascent  int
	descent int
}

func (p *Pipeline) measure(text string, size int) (*textMetrics, error) {
	f, err := p.overlayFont()
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	m := face.Metrics()
	return &textMetrics{
		face:    face,
		size:    size,
		width:   font.MeasureString(face, text).Ceil(),
		ascent:  m.Ascent.Ceil(),
		descent: m.Descent.Ceil(),
	}, nil
}

// fitText measures text at the requested size and shrinks it until the run
// fits inside the padded canvas. It returns nil when even 1px text cannot fit.
func (p *Pipeline) fitText(text string, size, canvasW, canvasH int) (*textMetrics, error) {
	for {
		tm, err := p.measure(text, size)
		if err != nil {
			return nil, err
		}
		pad := OverlayPadding(size)
		availW, availH := canvasW-2*pad, canvasH-2*pad
		textH := tm.ascent + tm.descent
		if tm.width <= availW && textH <= availH {
			return tm, nil
		}
		tm.face.Close()
		if size <= 1 || availW <= 0 || availH <= 0 {
			return nil, nil
		}

		scale := math.Min(float64(availW)/float64(tm.width), float64(availH)/float64(textH))
		next := int(float64(size) * scale)
		if next >= size {
			next = size - 1
		}
		if next < 1 {
			next = 1
		}
		size = next
	}
}

func (p *Pipeline) drawOverlay(canvas *image.NRGBA, o *Overlay) error {
	if o.Opacity <= 0 {
		return nil
	}
	b := canvas.Bounds()
	tm, err := p.fitText(o.Text, o.FontSize, b.Dx(), b.Dy())
	if err != nil {
		return newError(KindEncode, "overlay: %w", err)
	}
	if tm == nil {
		p.logger.Debug("overlay does not fit canvas, skipped",
			zap.Int("width", b.Dx()), zap.Int("height", b.Dy()))
		return nil
	}
	defer tm.face.Close()
	if tm.size != o.FontSize {
		p.logger.Debug("overlay font shrunk to fit",
			zap.Int("requested", o.FontSize), zap.Int("size", tm.size))
	}

	alpha := float64(clampInt(o.Opacity, 0, 100)) / 100
	pt := Placement(b.Dx(), b.Dy(), tm.width, tm.size)
	baseline := pt.Y - tm.descent

	// Shadow: render the run into a small patch, blur it, composite under the fill.
	patch := image.Rect(
		pt.X-shadowMargin, baseline-tm.ascent-shadowMargin,
		pt.X+tm.width+shadowOffset+shadowMargin, pt.Y+shadowOffset+shadowMargin,
	).Intersect(b)
	mask := image.NewRGBA(image.Rect(0, 0, patch.Dx(), patch.Dy()))
	shadow := font.Drawer{
		Dst:  mask,
		Src:  image.NewUniform(color.NRGBA{A: uint8(math.Round(255 * shadowAlpha * alpha))}),
		Face: tm.face,
		Dot:  fixed.P(pt.X+shadowOffset-patch.Min.X, baseline+shadowOffset-patch.Min.Y),
	}
	shadow.DrawString(o.Text)
	draw.Draw(canvas, patch, blur.Gaussian(mask, shadowBlurRadius), image.Point{}, draw.Over)

	fill := font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: uint8(math.Round(255 * alpha))}),
		Face: tm.face,
		Dot:  fixed.P(b.Min.X+pt.X, b.Min.Y+baseline),
	}
	fill.DrawString(o.Text)
	return nil
}

// overlayFont returns the configured font, parsing the bundled Go Regular
// face on first use.
func (p *Pipeline) overlayFont() (*opentype.Font, error) {
	p.fontOnce.Do(func() {
		if p.font != nil {
			return
		}
		p.font, p.fontErr = opentype.Parse(goregular.TTF)
	})
	if p.fontErr != nil {
		return nil, fmt.Errorf("failed to load overlay font: %w", p.fontErr)
	}
	return p.font, nil
}
