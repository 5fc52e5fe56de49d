package strimg

import (
	"fmt"
	"image"
	"sort"
	"sync"
	"sync/atomic"
)

// Entry is one cached render: a fragment, the style it was rendered under,
// and the resulting image/alpha pair. Image and Alpha always share
// dimensions; Width and Height mirror the image's actual size.
//
// Within entries of equal Style, fragments are unique. The same fragment
// may appear under several styles; that is how one character rendered in
// different visual styles coexists in the cache.
type Entry struct {
	Fragment string
	Image    *image.NRGBA
	Alpha    *image.Alpha
	Width    int
	Height   int
	Style    Style
}

// newEntry builds a cache entry from a render result.
func newEntry(fragment string, style Style, res *Rendered) Entry {
	b := res.Image.Bounds()
	return Entry{
		Fragment: fragment,
		Image:    res.Image,
		Alpha:    res.Alpha,
		Width:    b.Dx(),
		Height:   b.Dy(),
		Style:    style,
	}
}

// GlyphCache is an ordered dictionary of rendered fragments. Entries are
// addressed by their index, which is what Resolve returns and what grids
// passed to Assemble contain. Indices stay valid until Clear or Replace.
//
// The cache holds the active style used for future misses; existing
// entries are never restyled. A single mutex covers the whole lookup,
// render, append sequence in Resolve, so the cache is safe for concurrent
// use, though it is designed for one logical caller.
type GlyphCache struct {
	mu      sync.Mutex
	entries []Entry
	style   Style

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewGlyphCache creates an empty cache with DefaultStyle active.
func NewGlyphCache() *GlyphCache {
	return &GlyphCache{style: DefaultStyle()}
}

// Clear removes all entries. Subsequent resolves repopulate via misses.
func (g *GlyphCache) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries = nil
}

// Replace wholesale-replaces the cache contents, e.g. with entries loaded
// through ReadEntries. Uniqueness of (fragment, style) is the caller's
// responsibility; Resolve always returns the first match.
func (g *GlyphCache) Replace(entries []Entry) {
	cp := make([]Entry, len(entries))
	copy(cp, entries)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries = cp
}

// SetStyle updates the active style used for resolving future misses.
// Existing entries are unaffected.
func (g *GlyphCache) SetStyle(s Style) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.style = s
}

// Style returns the active style.
func (g *GlyphCache) Style() Style {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.style
}

// Entries returns a snapshot of the cache contents, for export through
// WriteEntries or inspection.
func (g *GlyphCache) Entries() []Entry {
	g.mu.Lock()
	defer g.mu.Unlock()
	cp := make([]Entry, len(g.entries))
	copy(cp, g.entries)
	return cp
}

// Len returns the number of cached entries across all styles.
func (g *GlyphCache) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// Stats returns the number of fragment lookups served from the cache and
// the number that required a render.
func (g *GlyphCache) Stats() (hits, misses uint64) {
	return g.hits.Load(), g.misses.Load()
}

// Resolve maps each fragment to the index of its entry under the active
// style, rendering and appending entries for fragments not cached yet.
// Missing fragments are rendered in sorted order, so population order is
// deterministic regardless of the input order.
//
// A render error aborts the call; entries appended before the failure are
// kept, so already-resolved fragments stay valid for future calls.
func (g *GlyphCache) Resolve(r Renderer, fragments []string) ([]int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.resolveLocked(r, g.style, fragments)
}

// resolveWith is Resolve under an explicit style instead of the active
// one. The cached string pipeline uses it to render fragments with
// vertical auto-crop disabled while the active style keeps its flags.
func (g *GlyphCache) resolveWith(r Renderer, style Style, fragments []string) ([]int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.resolveLocked(r, style, fragments)
}

func (g *GlyphCache) resolveLocked(r Renderer, style Style, fragments []string) ([]int, error) {
	have := make(map[string]int, len(g.entries))
	for i, e := range g.entries {
		if e.Style != style {
			continue
		}
		if _, ok := have[e.Fragment]; !ok {
			have[e.Fragment] = i
		}
	}

	var missing []string
	seen := make(map[string]bool, len(fragments))
	for _, f := range fragments {
		if seen[f] {
			continue
		}
		seen[f] = true
		if _, ok := have[f]; !ok {
			missing = append(missing, f)
		}
	}
	sort.Strings(missing)

	rendered := make(map[string]bool, len(missing))
	for _, f := range missing {
		g.misses.Add(1)
		res, err := r.RenderText(f, style)
		if err != nil {
			return nil, fmt.Errorf("strimg: render %q: %w", f, err)
		}
		g.entries = append(g.entries, newEntry(f, style, res))
		have[f] = len(g.entries) - 1
		rendered[f] = true
		Logger().Debug("strimg: cached fragment",
			"fragment", f, "index", have[f], "width", res.Width, "height", res.Height)
	}

	ids := make([]int, len(fragments))
	for i, f := range fragments {
		idx, ok := have[f]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingEntry, f)
		}
		if !rendered[f] {
			g.hits.Add(1)
		}
		ids[i] = idx
	}
	return ids, nil
}

// Assemble concatenates cached entries addressed by grid into one image.
// See Compose for the layout rules.
func (g *GlyphCache) Assemble(grid [][]int) (*Rendered, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Compose(grid, g.entries)
}
