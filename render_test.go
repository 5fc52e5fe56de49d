package strimg

import (
	"errors"
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		markup Markup
		want   []string
	}{
		{"plain single", "abc", MarkupPlain, []string{"abc"}},
		{"plain multi", "ab\ncd", MarkupPlain, []string{"ab", "cd"}},
		{"plain empty line", "ab\n\ncd", MarkupPlain, []string{"ab", "", "cd"}},
		{"raw keeps newline", "ab\ncd", MarkupRaw, []string{"ab\ncd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitLines(tt.in, tt.markup)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("splitLines (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExpandTabs(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"abc", "abc"},
		{"\tx", "        x"},
		{"ab\tx", "ab      x"},
		{"12345678\tx", "12345678        x"},
		{"a\tb\tc", "a       b       c"},
	}
	for _, tt := range tests {
		if got := expandTabs(tt.in); got != tt.want {
			t.Errorf("expandTabs(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveAlignAuto(t *testing.T) {
	if got := resolveAlign(AlignAuto, "hello"); got != AlignLeft {
		t.Errorf("latin auto align = %d, want AlignLeft", got)
	}
	if got := resolveAlign(AlignAuto, "שלום"); got != AlignRight {
		t.Errorf("hebrew auto align = %d, want AlignRight", got)
	}
	if got := resolveAlign(AlignCenter, "ש"); got != AlignCenter {
		t.Errorf("explicit align overridden: got %d", got)
	}
	if got := resolveAlign(AlignAuto, ""); got != AlignLeft {
		t.Errorf("empty text auto align = %d, want AlignLeft", got)
	}
	// Mixed text follows the leading run.
	if got := resolveAlign(AlignAuto, "abc שלום"); got != AlignLeft {
		t.Errorf("ltr-leading mixed auto align = %d, want AlignLeft", got)
	}
	if got := resolveAlign(AlignAuto, "שלום abc"); got != AlignRight {
		t.Errorf("rtl-leading mixed auto align = %d, want AlignRight", got)
	}
}

// markLayer builds a transparent layer with one opaque pixel at (x, y).
func markLayer(w, h, x, y int) *image.NRGBA {
	layer := image.NewNRGBA(image.Rect(0, 0, w, h))
	layer.Pix[y*layer.Stride+x*4+3] = 0xff
	return layer
}

func TestAutoCrop(t *testing.T) {
	tests := []struct {
		name string
		pad  Padding
		w, h int
	}{
		{"no flags", Padding{}, 8, 6},
		{"left only", Padding{CropLeft: true}, 5, 6},
		{"all sides", Padding{CropLeft: true, CropTop: true, CropRight: true, CropBottom: true}, 1, 1},
		{"right bottom", Padding{CropRight: true, CropBottom: true}, 4, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layer := markLayer(8, 6, 3, 2)
			got := autoCrop(layer, tt.pad)
			b := got.Bounds()
			if b.Dx() != tt.w || b.Dy() != tt.h {
				t.Errorf("cropped to %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.w, tt.h)
			}
		})
	}
}

func TestAutoCropBlankLayer(t *testing.T) {
	layer := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	got := autoCrop(layer, Padding{CropLeft: true, CropTop: true, CropRight: true, CropBottom: true})
	b := got.Bounds()
	if b.Dx() != 0 || b.Dy() != 0 {
		t.Errorf("blank layer cropped to %dx%d, want 0x0", b.Dx(), b.Dy())
	}
}

func TestFinishPaddingAndAlpha(t *testing.T) {
	r := NewTextRenderer(NewFontLibrary())
	layer := markLayer(2, 2, 0, 0)

	style := DefaultStyle()
	style.Pad = Padding{Left: 1, Top: 2, Right: 3, Bottom: 4}
	res := r.finish(layer, style)

	if res.Width != 6 || res.Height != 8 {
		t.Fatalf("canvas = %dx%d, want 6x8", res.Width, res.Height)
	}
	if res.Cropped {
		t.Error("Cropped set without clamping")
	}
	// The mark lands at the padding offset; alpha tracks coverage.
	if a := res.Alpha.AlphaAt(1, 2).A; a != 0xff {
		t.Errorf("alpha at mark = %d, want 255", a)
	}
	if a := res.Alpha.AlphaAt(0, 0).A; a != 0 {
		t.Errorf("alpha in padding = %d, want 0", a)
	}
}

func TestFinishOpaqueBackground(t *testing.T) {
	r := NewTextRenderer(NewFontLibrary())
	layer := image.NewNRGBA(image.Rect(0, 0, 2, 2))

	style := DefaultStyle()
	style.Transparent = false
	style.Background = RGB(1, 1, 1)
	res := r.finish(layer, style)

	if got := res.Image.NRGBAAt(1, 1).R; got != 0xff {
		t.Errorf("background pixel = %d, want 255", got)
	}
	for i, a := range res.Alpha.Pix {
		if a != 0xff {
			t.Fatalf("alpha[%d] = %d, want 255 for opaque background", i, a)
		}
	}
}

func TestFinishClampsToMaxCanvas(t *testing.T) {
	r := NewTextRenderer(NewFontLibrary(), WithMaxCanvas(4, 3))
	layer := image.NewNRGBA(image.Rect(0, 0, 10, 10))

	res := r.finish(layer, DefaultStyle())
	if res.Width != 4 || res.Height != 3 {
		t.Fatalf("canvas = %dx%d, want 4x3", res.Width, res.Height)
	}
	if !res.Cropped {
		t.Error("Cropped not set after clamping")
	}
}

func TestRenderTextInvalidStyle(t *testing.T) {
	r := NewTextRenderer(NewFontLibrary())

	bad := DefaultStyle()
	bad.Size = 0
	if _, err := r.RenderText("x", bad); !errors.Is(err, ErrInvalidStyle) {
		t.Errorf("err = %v, want ErrInvalidStyle", err)
	}

	missing := DefaultStyle()
	missing.Family = "NoSuchFamily"
	if _, err := r.RenderText("x", missing); !errors.Is(err, ErrUnknownFamily) {
		t.Errorf("err = %v, want ErrUnknownFamily", err)
	}
}
