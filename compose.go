package strimg

import (
	"image"
	"image/draw"
)

// Compose concatenates cache entries into a single image following the
// shape of grid: entries within a row are laid out left to right, rows are
// stacked top to bottom.
//
// Entries within a row must share the same actual pixel height; a
// violation returns a *DimensionError. Slots referencing no entry return a
// *SlotError. Rows may differ in total width: the output is as wide as the
// widest row and shorter rows leave transparent pixels. The result's
// dimensions come from the concatenated image itself, never from entry
// metadata. An empty grid yields a 0x0 result.
func Compose(grid [][]int, entries []Entry) (*Rendered, error) {
	totalH := 0
	maxW := 0
	for ri, row := range grid {
		rowH := -1
		rowW := 0
		for ci, slot := range row {
			if slot < 0 || slot >= len(entries) {
				return nil, &SlotError{Row: ri, Col: ci, Slot: slot}
			}
			b := entries[slot].Image.Bounds()
			if rowH == -1 {
				rowH = b.Dy()
			} else if b.Dy() != rowH {
				return nil, &DimensionError{Row: ri, Col: ci, Got: b.Dy(), Want: rowH}
			}
			rowW += b.Dx()
		}
		if rowH > 0 {
			totalH += rowH
		}
		if rowW > maxW {
			maxW = rowW
		}
	}
	if maxW == 0 || totalH == 0 {
		return emptyRendered(), nil
	}

	img := image.NewNRGBA(image.Rect(0, 0, maxW, totalH))
	alpha := image.NewAlpha(image.Rect(0, 0, maxW, totalH))

	y := 0
	for _, row := range grid {
		x := 0
		rowH := 0
		for _, slot := range row {
			e := entries[slot]
			b := e.Image.Bounds()
			target := image.Rect(x, y, x+b.Dx(), y+b.Dy())
			draw.Draw(img, target, e.Image, b.Min, draw.Src)
			draw.Draw(alpha, target, e.Alpha, e.Alpha.Bounds().Min, draw.Src)
			x += b.Dx()
			rowH = b.Dy()
		}
		y += rowH
	}

	return &Rendered{
		Image:  img,
		Alpha:  alpha,
		Width:  maxW,
		Height: totalH,
	}, nil
}
