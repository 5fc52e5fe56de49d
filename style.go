package strimg

import (
	"fmt"
	"strconv"
	"strings"
)

// Weight is a font weight on the usual 100..900 scale.
type Weight uint16

const (
	WeightLight  Weight = 300
	WeightNormal Weight = 400
	WeightMedium Weight = 500
	WeightBold   Weight = 700
)

// Slant selects the upright or italic variant of a family.
type Slant uint8

const (
	SlantRoman Slant = iota
	SlantItalic
)

// Markup controls how a fragment's text is interpreted before rendering.
type Markup uint8

const (
	// MarkupPlain treats '\n' as a line break and expands '\t' to
	// 8-column tab stops.
	MarkupPlain Markup = iota

	// MarkupRaw renders the fragment as a single line; control characters
	// fall through to the font's notdef glyph.
	MarkupRaw
)

// Align selects horizontal alignment for multi-line renders.
type Align uint8

const (
	// AlignAuto aligns left, or right when the text's first bidi run is
	// right-to-left.
	AlignAuto Align = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// Padding describes per-side pixel padding and per-side auto-cropping.
// Cropping removes blank rows/columns on the flagged side before padding
// is applied.
type Padding struct {
	Left, Top, Right, Bottom int

	CropLeft, CropTop, CropRight, CropBottom bool
}

// Style is the full set of visual properties controlling how a fragment
// is rendered. It is a normalized value type: two styles are the same
// cache bucket exactly when they compare equal with ==, regardless of the
// key order they were parsed from.
type Style struct {
	// Foreground is the text color.
	Foreground RGBA

	// Background is the fill color behind the text. It is ignored when
	// Transparent is set.
	Background RGBA

	// Transparent leaves the background unfilled; the alpha channel then
	// carries the text coverage.
	Transparent bool

	// Family names the font family. Empty matches the first loaded font.
	Family string

	// Size is the font size in points at 72 DPI.
	Size float64

	Weight Weight
	Slant  Slant
	Markup Markup
	Align  Align
	Pad    Padding
}

// Pair is one (key, value) formatting property, the external, ordered
// representation of a style.
type Pair struct {
	Key, Value string
}

// DefaultStyle returns the baseline style: black text on a transparent
// background, 12pt, normal weight, upright, plain markup, auto alignment,
// no padding.
func DefaultStyle() Style {
	return Style{
		Foreground:  RGB(0, 0, 0),
		Transparent: true,
		Size:        12,
		Weight:      WeightNormal,
	}
}

// ParseStyle builds a Style from ordered (key, value) pairs, starting from
// DefaultStyle. Key aliases are folded ("fg" == "foreground") and a later
// pair for the same property wins, so distinct orderings of the same
// properties produce equal styles. Unknown keys or malformed values return
// an error wrapping ErrInvalidStyle.
//
// Recognized keys:
//
//	foreground|fg      color (hex or named)
//	background|bg      color, or "transparent"
//	family|font        font family name
//	size               points, > 0
//	weight             normal|light|medium|bold or 100..900
//	slant              roman|italic
//	markup             plain|raw
//	align              auto|left|center|right
//	padding|pad        "l,t,r,b" or a single value for all sides
//	crop               comma list of left,top,right,bottom, or all|none
func ParseStyle(pairs []Pair) (Style, error) {
	s := DefaultStyle()
	for _, p := range pairs {
		if err := s.set(p.Key, p.Value); err != nil {
			return Style{}, err
		}
	}
	if err := s.validate(); err != nil {
		return Style{}, err
	}
	return s, nil
}

func (s *Style) set(key, value string) error {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "foreground", "fg", "color":
		c, err := ParseColor(value)
		if err != nil {
			return err
		}
		s.Foreground = c
	case "background", "bg":
		if strings.EqualFold(value, "transparent") {
			s.Transparent = true
			s.Background = RGBA{}
			return nil
		}
		c, err := ParseColor(value)
		if err != nil {
			return err
		}
		s.Background = c
		s.Transparent = false
	case "family", "font":
		s.Family = value
	case "size":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: bad size %q", ErrInvalidStyle, value)
		}
		s.Size = v
	case "weight":
		w, err := parseWeight(value)
		if err != nil {
			return err
		}
		s.Weight = w
	case "slant":
		switch strings.ToLower(value) {
		case "roman", "normal":
			s.Slant = SlantRoman
		case "italic", "oblique":
			s.Slant = SlantItalic
		default:
			return fmt.Errorf("%w: bad slant %q", ErrInvalidStyle, value)
		}
	case "markup":
		switch strings.ToLower(value) {
		case "plain":
			s.Markup = MarkupPlain
		case "raw":
			s.Markup = MarkupRaw
		default:
			return fmt.Errorf("%w: bad markup %q", ErrInvalidStyle, value)
		}
	case "align", "justify":
		switch strings.ToLower(value) {
		case "auto":
			s.Align = AlignAuto
		case "left":
			s.Align = AlignLeft
		case "center", "centre":
			s.Align = AlignCenter
		case "right":
			s.Align = AlignRight
		default:
			return fmt.Errorf("%w: bad align %q", ErrInvalidStyle, value)
		}
	case "padding", "pad":
		p, err := parsePadding(value)
		if err != nil {
			return err
		}
		p.CropLeft = s.Pad.CropLeft
		p.CropTop = s.Pad.CropTop
		p.CropRight = s.Pad.CropRight
		p.CropBottom = s.Pad.CropBottom
		s.Pad = p
	case "crop":
		return s.setCrop(value)
	default:
		return fmt.Errorf("%w: unknown key %q", ErrInvalidStyle, key)
	}
	return nil
}

func parseWeight(value string) (Weight, error) {
	switch strings.ToLower(value) {
	case "normal", "regular":
		return WeightNormal, nil
	case "light":
		return WeightLight, nil
	case "medium":
		return WeightMedium, nil
	case "bold":
		return WeightBold, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 100 || n > 900 {
		return 0, fmt.Errorf("%w: bad weight %q", ErrInvalidStyle, value)
	}
	return Weight(n), nil
}

func parsePadding(value string) (Padding, error) {
	parts := strings.Split(value, ",")
	vals := make([]int, 0, 4)
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Padding{}, fmt.Errorf("%w: bad padding %q", ErrInvalidStyle, value)
		}
		vals = append(vals, n)
	}
	switch len(vals) {
	case 1:
		return Padding{Left: vals[0], Top: vals[0], Right: vals[0], Bottom: vals[0]}, nil
	case 4:
		return Padding{Left: vals[0], Top: vals[1], Right: vals[2], Bottom: vals[3]}, nil
	}
	return Padding{}, fmt.Errorf("%w: bad padding %q", ErrInvalidStyle, value)
}

func (s *Style) setCrop(value string) error {
	s.Pad.CropLeft = false
	s.Pad.CropTop = false
	s.Pad.CropRight = false
	s.Pad.CropBottom = false
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "none", "":
		return nil
	case "all":
		s.Pad.CropLeft = true
		s.Pad.CropTop = true
		s.Pad.CropRight = true
		s.Pad.CropBottom = true
		return nil
	}
	for _, side := range strings.Split(value, ",") {
		switch strings.ToLower(strings.TrimSpace(side)) {
		case "left":
			s.Pad.CropLeft = true
		case "top":
			s.Pad.CropTop = true
		case "right":
			s.Pad.CropRight = true
		case "bottom":
			s.Pad.CropBottom = true
		default:
			return fmt.Errorf("%w: bad crop side %q", ErrInvalidStyle, side)
		}
	}
	return nil
}

// validate reports whether the style can be rendered at all. Family
// existence is checked later, against the renderer's font library.
func (s Style) validate() error {
	if s.Size <= 0 {
		return fmt.Errorf("%w: size %g", ErrInvalidStyle, s.Size)
	}
	if s.Pad.Left < 0 || s.Pad.Top < 0 || s.Pad.Right < 0 || s.Pad.Bottom < 0 {
		return fmt.Errorf("%w: negative padding", ErrInvalidStyle)
	}
	return nil
}

// Pairs returns the style's canonical ordered pair form. ParseStyle on the
// result reproduces the style exactly; the codec relies on this.
func (s Style) Pairs() []Pair {
	bg := "transparent"
	if !s.Transparent {
		bg = FormatColor(s.Background)
	}
	return []Pair{
		{"foreground", FormatColor(s.Foreground)},
		{"background", bg},
		{"family", s.Family},
		{"size", strconv.FormatFloat(s.Size, 'g', -1, 64)},
		{"weight", strconv.Itoa(int(s.Weight))},
		{"slant", s.slantName()},
		{"markup", s.markupName()},
		{"align", s.alignName()},
		{"padding", fmt.Sprintf("%d,%d,%d,%d", s.Pad.Left, s.Pad.Top, s.Pad.Right, s.Pad.Bottom)},
		{"crop", s.cropNames()},
	}
}

// Key returns a stable textual identity for the style, useful for logging
// and debugging. Equal styles have equal keys.
func (s Style) Key() string {
	var b strings.Builder
	for i, p := range s.Pairs() {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}
	return b.String()
}

func (s Style) slantName() string {
	if s.Slant == SlantItalic {
		return "italic"
	}
	return "roman"
}

func (s Style) markupName() string {
	if s.Markup == MarkupRaw {
		return "raw"
	}
	return "plain"
}

func (s Style) alignName() string {
	switch s.Align {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "auto"
	}
}

func (s Style) cropNames() string {
	var sides []string
	if s.Pad.CropLeft {
		sides = append(sides, "left")
	}
	if s.Pad.CropTop {
		sides = append(sides, "top")
	}
	if s.Pad.CropRight {
		sides = append(sides, "right")
	}
	if s.Pad.CropBottom {
		sides = append(sides, "bottom")
	}
	if len(sides) == 0 {
		return "none"
	}
	if len(sides) == 4 {
		return "all"
	}
	return strings.Join(sides, ",")
}
