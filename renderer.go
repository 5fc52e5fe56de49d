package strimg

import "image"

// Rendered is the output of a text render: a color image and an alpha mask
// of identical dimensions.
type Rendered struct {
	// Image holds the rendered pixels.
	Image *image.NRGBA

	// Alpha is the mask separating text/background from empty canvas.
	// For transparent backgrounds it carries the text coverage; for
	// opaque backgrounds it is fully opaque.
	Alpha *image.Alpha

	// Width and Height are the pixel dimensions of Image and Alpha.
	Width, Height int

	// Cropped reports that the render exceeded the maximum canvas size
	// and was clamped.
	Cropped bool
}

// Renderer produces a raster image for a text fragment under a style.
// The default implementation is TextRenderer; tests and callers with their
// own rasterization stack can substitute any implementation.
//
// RenderText is a synchronous, possibly slow call. Implementations must
// return images and alpha masks with matching dimensions.
type Renderer interface {
	RenderText(fragment string, style Style) (*Rendered, error)
}

// emptyRendered returns a zero-sized render, used for empty grids.
func emptyRendered() *Rendered {
	return &Rendered{
		Image: image.NewNRGBA(image.Rect(0, 0, 0, 0)),
		Alpha: image.NewAlpha(image.Rect(0, 0, 0, 0)),
	}
}
