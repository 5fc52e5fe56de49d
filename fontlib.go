package strimg

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	tsfont "github.com/go-text/typesetting/font"
	"golang.org/x/image/font/opentype"

	"github.com/gogpu/strimg/cache"
)

// fontRecord is one registered font file with the metadata used for
// lookup. The raw bytes are kept; rasterization fonts are parsed lazily.
type fontRecord struct {
	data   []byte
	family string
	weight Weight
	slant  Slant
}

// FontLibrary is a collection of fonts indexed by family, weight and
// slant. Load fonts in bulk once and share the library between renderers.
//
// Family and aspect metadata is read with go-text/typesetting (the OS/2
// and name tables; x/image/font/sfnt exposes no weight or slant). The
// opentype fonts used for rasterization are parsed on first use and kept
// in a small LRU.
//
// FontLibrary is safe for concurrent use.
type FontLibrary struct {
	mu     sync.RWMutex
	fonts  []fontRecord
	parsed *cache.LRU[int, *opentype.Font]
}

// NewFontLibrary creates a new, empty font library.
func NewFontLibrary() *FontLibrary {
	return &FontLibrary{
		parsed: cache.New[int, *opentype.Font](16),
	}
}

// AddBytes registers a font from raw TTF/OTF data and returns its family
// name. The data is copied and can be reused after the call.
func (l *FontLibrary) AddBytes(data []byte) (string, error) {
	face, err := tsfont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("strimg: parse font: %w", err)
	}
	desc := face.Describe()

	slant := SlantRoman
	if desc.Aspect.Style == tsfont.StyleItalic {
		slant = SlantItalic
	}
	weight := Weight(desc.Aspect.Weight)
	if weight == 0 {
		weight = WeightNormal
	}

	cp := make([]byte, len(data))
	copy(cp, data)

	l.mu.Lock()
	l.fonts = append(l.fonts, fontRecord{
		data:   cp,
		family: desc.Family,
		weight: weight,
		slant:  slant,
	})
	l.mu.Unlock()

	return desc.Family, nil
}

// AddFile registers a font file and returns its family name.
func (l *FontLibrary) AddFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("strimg: read font file: %w", err)
	}
	return l.AddBytes(data)
}

// AddDir registers every .ttf and .otf file under dir in fsys and returns
// how many fonts were added. Files that fail to parse are skipped with a
// warning through the package logger.
func (l *FontLibrary) AddDir(fsys fs.FS, dir string) (int, error) {
	added := 0
	err := fs.WalkDir(fsys, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".ttf", ".otf":
		default:
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		if _, err := l.AddBytes(data); err != nil {
			Logger().Warn("strimg: skipping font", "path", path, "err", err)
			return nil
		}
		added++
		return nil
	})
	if err != nil {
		return added, fmt.Errorf("strimg: scan font dir: %w", err)
	}
	return added, nil
}

// Size returns the number of registered fonts.
func (l *FontLibrary) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.fonts)
}

// Families returns the distinct family names currently registered, in
// registration order.
func (l *FontLibrary) Families() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	seen := make(map[string]bool, len(l.fonts))
	var out []string
	for _, rec := range l.fonts {
		if !seen[rec.family] {
			seen[rec.family] = true
			out = append(out, rec.family)
		}
	}
	return out
}

// font returns the parsed opentype font best matching the request.
func (l *FontLibrary) font(family string, weight Weight, slant Slant) (*opentype.Font, error) {
	idx, err := l.lookup(family, weight, slant)
	if err != nil {
		return nil, err
	}
	return l.parsed.GetOrCreate(idx, func() (*opentype.Font, error) {
		l.mu.RLock()
		data := l.fonts[idx].data
		l.mu.RUnlock()
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("strimg: parse font: %w", err)
		}
		return f, nil
	})
}

// lookup picks the registered font closest to the request: family match is
// mandatory (case-insensitive, empty family matches anything), then the
// nearest weight wins with a large penalty for a slant mismatch. Ties go
// to the earliest registered font.
func (l *FontLibrary) lookup(family string, weight Weight, slant Slant) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	best := -1
	bestScore := 0
	for i, rec := range l.fonts {
		if family != "" && !strings.EqualFold(rec.family, family) {
			continue
		}
		score := matchScore(rec, weight, slant)
		if best == -1 || score < bestScore {
			best = i
			bestScore = score
		}
	}
	if best == -1 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownFamily, family)
	}
	return best, nil
}

// matchScore is the distance between a registered font and a requested
// aspect; lower is better.
func matchScore(rec fontRecord, weight Weight, slant Slant) int {
	score := int(rec.weight) - int(weight)
	if score < 0 {
		score = -score
	}
	if rec.slant != slant {
		score += 1000
	}
	return score
}
