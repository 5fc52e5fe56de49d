package strimg

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Context bundles a renderer and a glyph cache behind one caller-owned
// object. All cache state lives here: there is no package-global
// dictionary, so two Contexts never share entries unless given the same
// GlyphCache explicitly.
type Context struct {
	renderer Renderer
	cache    *GlyphCache
}

// Option configures a Context during creation.
type Option func(*Context)

// WithCache makes the Context operate on an existing cache instead of a
// fresh one. Useful for sharing one dictionary between renderers.
func WithCache(c *GlyphCache) Option {
	return func(ctx *Context) {
		if c != nil {
			ctx.cache = c
		}
	}
}

// NewContext creates a Context rendering through r with an empty cache.
func NewContext(r Renderer, opts ...Option) *Context {
	ctx := &Context{
		renderer: r,
		cache:    NewGlyphCache(),
	}
	for _, opt := range opts {
		opt(ctx)
	}
	return ctx
}

// Cache returns the underlying glyph cache.
func (c *Context) Cache() *GlyphCache { return c.cache }

// SetStyle updates the active style used for future misses.
func (c *Context) SetStyle(s Style) { c.cache.SetStyle(s) }

// Clear removes all cached entries.
func (c *Context) Clear() { c.cache.Clear() }

// Replace wholesale-replaces the cache contents.
func (c *Context) Replace(entries []Entry) { c.cache.Replace(entries) }

// Entries returns a snapshot of the cache contents.
func (c *Context) Entries() []Entry { return c.cache.Entries() }

// Resolve maps fragments to cache indices, rendering misses.
func (c *Context) Resolve(fragments []string) ([]int, error) {
	return c.cache.Resolve(c.renderer, fragments)
}

// Assemble concatenates cached entries addressed by grid.
func (c *Context) Assemble(grid [][]int) (*Rendered, error) {
	return c.cache.Assemble(grid)
}

// Render renders text directly under the active style, bypassing the
// cache.
func (c *Context) Render(text string) (*Rendered, error) {
	return c.renderer.RenderText(text, c.cache.Style())
}

// RenderString renders text through the cache: the text is split into
// lines and per-line fragments, missing fragments are rendered once, and
// the cached images are concatenated into the final result. Repeated
// characters cost a single render.
//
// Fragments are normalization-boundary units (NFC), so combining marks
// stay attached to their base character. Blank lines resolve a single
// space fragment to preserve their line height.
//
// CropTop and CropBottom apply to the assembled block, not to the
// individual fragments: cells in a row must share the face's line
// height, so vertical auto-crop is deferred until after composition.
func (c *Context) RenderString(text string) (*Rendered, error) {
	style := c.cache.Style()
	fragStyle := style
	fragStyle.Pad.CropTop = false
	fragStyle.Pad.CropBottom = false

	var lines []string
	if style.Markup == MarkupRaw {
		lines = []string{text}
	} else {
		lines = strings.Split(text, "\n")
		for i, line := range lines {
			lines[i] = expandTabs(line)
		}
	}

	var flat []string
	shape := make([]int, len(lines))
	for i, line := range lines {
		frags := fragmentsOf(line)
		shape[i] = len(frags)
		flat = append(flat, frags...)
	}

	ids, err := c.cache.resolveWith(c.renderer, fragStyle, flat)
	if err != nil {
		return nil, err
	}

	grid := make([][]int, len(lines))
	off := 0
	for i, n := range shape {
		grid[i] = ids[off : off+n]
		off += n
	}
	res, err := c.Assemble(grid)
	if err != nil {
		return nil, err
	}
	return trimVertical(res, style), nil
}

// trimVertical trims blank rows from an assembled block on the sides
// flagged in the style, keeping Pad.Top/Pad.Bottom around the ink.
func trimVertical(res *Rendered, style Style) *Rendered {
	if !style.Pad.CropTop && !style.Pad.CropBottom {
		return res
	}
	minY, maxY := res.Height, 0
	for y := 0; y < res.Height; y++ {
		if !rowBlank(res, style, y) {
			if y < minY {
				minY = y
			}
			maxY = y + 1
		}
	}
	// A fully blank block keeps only the padding.
	if minY > maxY {
		minY = style.Pad.Top
		if minY > res.Height {
			minY = res.Height
		}
		maxY = minY
	}

	top, bottom := 0, res.Height
	if style.Pad.CropTop {
		top = minY - style.Pad.Top
		if top < 0 {
			top = 0
		}
	}
	if style.Pad.CropBottom {
		bottom = maxY + style.Pad.Bottom
		if bottom > res.Height {
			bottom = res.Height
		}
	}
	if bottom < top {
		bottom = top
	}
	if top == 0 && bottom == res.Height {
		return res
	}

	h := bottom - top
	img := image.NewNRGBA(image.Rect(0, 0, res.Width, h))
	draw.Draw(img, img.Bounds(), res.Image, image.Pt(0, top), draw.Src)
	alpha := image.NewAlpha(image.Rect(0, 0, res.Width, h))
	draw.Draw(alpha, alpha.Bounds(), res.Alpha, image.Pt(0, top), draw.Src)
	return &Rendered{
		Image:   img,
		Alpha:   alpha,
		Width:   res.Width,
		Height:  h,
		Cropped: res.Cropped,
	}
}

// rowBlank reports whether row y carries no ink: zero coverage for
// transparent styles, pure background pixels otherwise.
func rowBlank(res *Rendered, style Style, y int) bool {
	if style.Transparent {
		row := res.Alpha.Pix[y*res.Alpha.Stride : y*res.Alpha.Stride+res.Width]
		for _, a := range row {
			if a != 0 {
				return false
			}
		}
		return true
	}
	bg := style.Background.Color().(color.NRGBA)
	row := res.Image.Pix[y*res.Image.Stride:]
	for x := 0; x < res.Width; x++ {
		p := row[x*4 : x*4+4]
		if p[0] != bg.R || p[1] != bg.G || p[2] != bg.B || p[3] != bg.A {
			return false
		}
	}
	return true
}

// fragmentsOf splits a line into cacheable fragments at NFC normalization
// boundaries. An empty line maps to a single space so it keeps its height
// when composed.
func fragmentsOf(line string) []string {
	if line == "" {
		return []string{" "}
	}
	var frags []string
	var it norm.Iter
	it.InitString(norm.NFC, line)
	for !it.Done() {
		frags = append(frags, string(it.Next()))
	}
	return frags
}
