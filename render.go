package strimg

import (
	"fmt"
	"image"
	"image/draw"
	"strings"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/bidi"
)

// Default canvas bounds. Renders larger than this are clamped, not
// rejected: the caller gets a cropped image plus Rendered.Cropped and a
// warning through the package logger.
const (
	DefaultMaxWidth  = 4096
	DefaultMaxHeight = 4096
)

const (
	renderDPI = 72
	tabStop   = 8
)

// TextRenderer is the default Renderer. It delegates rasterization to the
// host font stack (golang.org/x/image/font/opentype) and only adds line
// layout, padding, auto-cropping and the alpha mask on top.
//
// TextRenderer is designed for a single logical caller; the opentype faces
// it creates are not safe for concurrent use.
type TextRenderer struct {
	lib       *FontLibrary
	maxWidth  int
	maxHeight int
}

// RendererOption configures a TextRenderer.
type RendererOption func(*TextRenderer)

// WithMaxCanvas bounds the output canvas. Renders exceeding the bounds are
// cropped. Non-positive values keep the defaults.
func WithMaxCanvas(width, height int) RendererOption {
	return func(r *TextRenderer) {
		if width > 0 {
			r.maxWidth = width
		}
		if height > 0 {
			r.maxHeight = height
		}
	}
}

// NewTextRenderer creates a renderer drawing with fonts from lib.
func NewTextRenderer(lib *FontLibrary, opts ...RendererOption) *TextRenderer {
	r := &TextRenderer{
		lib:       lib,
		maxWidth:  DefaultMaxWidth,
		maxHeight: DefaultMaxHeight,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderText implements Renderer.
func (r *TextRenderer) RenderText(fragment string, style Style) (*Rendered, error) {
	if err := style.validate(); err != nil {
		return nil, err
	}
	otf, err := r.lib.font(style.Family, style.Weight, style.Slant)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(otf, &opentype.FaceOptions{
		Size:    style.Size,
		DPI:     renderDPI,
		Hinting: xfont.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStyle, err)
	}
	defer func() {
		_ = face.Close()
	}()

	lines := splitLines(fragment, style.Markup)
	layer := renderLines(face, lines, style)
	layer = autoCrop(layer, style.Pad)
	return r.finish(layer, style), nil
}

// splitLines breaks a fragment into render lines according to the markup
// mode.
func splitLines(fragment string, markup Markup) []string {
	if markup == MarkupRaw {
		return []string{fragment}
	}
	lines := strings.Split(fragment, "\n")
	for i, line := range lines {
		lines[i] = expandTabs(line)
	}
	return lines
}

// expandTabs replaces '\t' with spaces up to the next 8-column tab stop.
// Columns are counted in runes.
func expandTabs(line string) string {
	if !strings.ContainsRune(line, '\t') {
		return line
	}
	var b strings.Builder
	col := 0
	for _, r := range line {
		if r == '\t' {
			n := tabStop - col%tabStop
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}

// renderLines draws the lines onto a transparent layer sized to the
// measured text, honoring horizontal alignment.
func renderLines(face xfont.Face, lines []string, style Style) *image.NRGBA {
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	descent := metrics.Descent.Ceil()
	lineH := ascent + descent

	advances := make([]int, len(lines))
	width := 0
	for i, line := range lines {
		advances[i] = xfont.MeasureString(face, line).Ceil()
		if advances[i] > width {
			width = advances[i]
		}
	}
	height := lineH * len(lines)

	layer := image.NewNRGBA(image.Rect(0, 0, width, height))
	drawer := &xfont.Drawer{
		Dst:  layer,
		Src:  image.NewUniform(style.Foreground.Color()),
		Face: face,
	}

	align := resolveAlign(style.Align, strings.Join(lines, "\n"))
	for i, line := range lines {
		x := 0
		switch align {
		case AlignCenter:
			x = (width - advances[i]) / 2
		case AlignRight:
			x = width - advances[i]
		}
		drawer.Dot = fixed.P(x, ascent+i*lineH)
		drawer.DrawString(line)
	}
	return layer
}

// resolveAlign maps AlignAuto to a concrete alignment based on the text's
// first bidi run.
func resolveAlign(align Align, text string) Align {
	if align != AlignAuto {
		return align
	}
	if textIsRTL(text) {
		return AlignRight
	}
	return AlignLeft
}

// textIsRTL reports whether the text's leading bidi run is right-to-left.
func textIsRTL(text string) bool {
	if text == "" {
		return false
	}
	var p bidi.Paragraph
	if _, err := p.SetString(text); err != nil {
		return false
	}
	ordering, err := p.Order()
	if err != nil || ordering.NumRuns() == 0 {
		return false
	}
	run := ordering.Run(0)
	return run.Direction() == bidi.RightToLeft
}

// autoCrop trims blank rows/columns on the sides flagged in pad, using the
// layer's alpha channel. Unflagged sides keep their original extent.
func autoCrop(layer *image.NRGBA, pad Padding) *image.NRGBA {
	if !pad.CropLeft && !pad.CropTop && !pad.CropRight && !pad.CropBottom {
		return layer
	}
	b := layer.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X, b.Min.Y
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := layer.Pix[(y-b.Min.Y)*layer.Stride:]
		for x := b.Min.X; x < b.Max.X; x++ {
			if row[(x-b.Min.X)*4+3] == 0 {
				continue
			}
			if x < minX {
				minX = x
			}
			if x >= maxX {
				maxX = x + 1
			}
			if y < minY {
				minY = y
			}
			if y >= maxY {
				maxY = y + 1
			}
		}
	}

	crop := b
	if pad.CropLeft {
		crop.Min.X = minX
	}
	if pad.CropRight {
		crop.Max.X = maxX
	}
	if pad.CropTop {
		crop.Min.Y = minY
	}
	if pad.CropBottom {
		crop.Max.Y = maxY
	}
	// A fully blank layer collapses the flagged sides.
	if crop.Max.X < crop.Min.X {
		crop.Max.X = crop.Min.X
	}
	if crop.Max.Y < crop.Min.Y {
		crop.Max.Y = crop.Min.Y
	}
	if crop == b {
		return layer
	}

	out := image.NewNRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	draw.Draw(out, out.Bounds(), layer, crop.Min, draw.Src)
	return out
}

// finish composes the final canvas: background fill, padding, clamping to
// the maximum canvas size, and the alpha mask.
func (r *TextRenderer) finish(layer *image.NRGBA, style Style) *Rendered {
	lb := layer.Bounds()
	width := lb.Dx() + style.Pad.Left + style.Pad.Right
	height := lb.Dy() + style.Pad.Top + style.Pad.Bottom

	cropped := false
	if width > r.maxWidth {
		width = r.maxWidth
		cropped = true
	}
	if height > r.maxHeight {
		height = r.maxHeight
		cropped = true
	}
	if cropped {
		Logger().Warn("strimg: render clamped to maximum canvas",
			"width", width, "height", height,
			"max_width", r.maxWidth, "max_height", r.maxHeight)
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, width, height))
	if !style.Transparent {
		draw.Draw(canvas, canvas.Bounds(), image.NewUniform(style.Background.Color()),
			image.Point{}, draw.Src)
	}
	target := image.Rect(style.Pad.Left, style.Pad.Top,
		style.Pad.Left+lb.Dx(), style.Pad.Top+lb.Dy())
	draw.Draw(canvas, target.Intersect(canvas.Bounds()), layer, lb.Min, draw.Over)

	alpha := image.NewAlpha(image.Rect(0, 0, width, height))
	if style.Transparent {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				alpha.Pix[y*alpha.Stride+x] = canvas.Pix[y*canvas.Stride+x*4+3]
			}
		}
	} else {
		for i := range alpha.Pix {
			alpha.Pix[i] = 0xff
		}
	}

	return &Rendered{
		Image:   canvas,
		Alpha:   alpha,
		Width:   width,
		Height:  height,
		Cropped: cropped,
	}
}
