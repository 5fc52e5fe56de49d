package strimg

import (
	"errors"
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// stubRenderer is a counting test double producing solid images whose red
// channel encodes the fragment's first byte.
type stubRenderer struct {
	calls int
	size  map[string][2]int // per-fragment width/height override
	fail  map[string]bool
}

func (r *stubRenderer) RenderText(fragment string, style Style) (*Rendered, error) {
	r.calls++
	if r.fail[fragment] {
		return nil, errors.New("stub render failure")
	}
	w, h := 3, 4
	if s, ok := r.size[fragment]; ok {
		w, h = s[0], s[1]
	}
	shade := uint8(0)
	if fragment != "" {
		shade = fragment[0]
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = shade
		img.Pix[i+3] = 0xff
	}
	alpha := image.NewAlpha(image.Rect(0, 0, w, h))
	for i := range alpha.Pix {
		alpha.Pix[i] = 0xff
	}
	return &Rendered{Image: img, Alpha: alpha, Width: w, Height: h}, nil
}

func monoStyle() Style {
	s := DefaultStyle()
	s.Family = "Mono"
	return s
}

func TestResolveIdempotent(t *testing.T) {
	r := &stubRenderer{}
	g := NewGlyphCache()
	g.SetStyle(monoStyle())

	first, err := g.Resolve(r, []string{"a", "b", "a"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.calls != 2 {
		t.Errorf("first Resolve made %d renders, want 2", r.calls)
	}

	second, err := g.Resolve(r, []string{"a", "b", "a"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.calls != 2 {
		t.Errorf("second Resolve made %d extra renders, want 0", r.calls-2)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("identifiers changed between calls (-first +second):\n%s", diff)
	}
}

func TestResolveStyleIsolation(t *testing.T) {
	r := &stubRenderer{}
	g := NewGlyphCache()

	c1 := monoStyle()
	c2 := monoStyle()
	c2.Size = 24

	g.SetStyle(c1)
	if _, err := g.Resolve(r, []string{"A"}); err != nil {
		t.Fatalf("Resolve under c1: %v", err)
	}
	g.SetStyle(c2)
	if _, err := g.Resolve(r, []string{"A"}); err != nil {
		t.Fatalf("Resolve under c2: %v", err)
	}

	entries := g.Entries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	for i, e := range entries {
		if e.Fragment != "A" {
			t.Errorf("entry %d fragment = %q, want \"A\"", i, e.Fragment)
		}
	}
	if entries[0].Style == entries[1].Style {
		t.Error("both entries share one style, want distinct buckets")
	}
}

func TestClearResets(t *testing.T) {
	r := &stubRenderer{}
	g := NewGlyphCache()
	g.SetStyle(monoStyle())

	if _, err := g.Resolve(r, []string{"x"}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	g.Clear()

	if got := g.Entries(); len(got) != 0 {
		t.Fatalf("Entries after Clear = %d, want 0", len(got))
	}
	if _, err := g.Resolve(r, []string{"x"}); err != nil {
		t.Fatalf("Resolve after Clear: %v", err)
	}
	if r.calls != 2 {
		t.Errorf("renders = %d, want 2 (fresh render after Clear)", r.calls)
	}
}

func TestResolvePopulatesInSortedOrder(t *testing.T) {
	r := &stubRenderer{}
	g := NewGlyphCache()
	g.SetStyle(monoStyle())

	if _, err := g.Resolve(r, []string{"c", "a", "b"}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	var got []string
	for _, e := range g.Entries() {
		got = append(got, e.Fragment)
	}
	want := []string{"a", "b", "c"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("population order (-want +got):\n%s", diff)
	}
}

func TestResolvePartialPopulationOnError(t *testing.T) {
	r := &stubRenderer{fail: map[string]bool{"b": true}}
	g := NewGlyphCache()
	g.SetStyle(monoStyle())

	if _, err := g.Resolve(r, []string{"c", "b", "a"}); err == nil {
		t.Fatal("Resolve should fail when a fragment cannot render")
	}
	// "a" renders before the failing "b"; it must survive.
	if got := g.Len(); got != 1 {
		t.Fatalf("entries after failure = %d, want 1", got)
	}

	calls := r.calls
	if _, err := g.Resolve(r, []string{"a"}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.calls != calls {
		t.Errorf("resolving the surviving fragment rendered again (%d extra calls)", r.calls-calls)
	}
}

func TestResolveConcreteScenario(t *testing.T) {
	r := &stubRenderer{}
	g := NewGlyphCache()
	g.Clear()

	style, err := ParseStyle([]Pair{{Key: "font", Value: "Mono"}})
	if err != nil {
		t.Fatalf("ParseStyle: %v", err)
	}
	g.SetStyle(style)

	first, err := g.Resolve(r, []string{"H", "i"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.calls != 2 {
		t.Errorf("renders = %d, want 2", r.calls)
	}
	if g.Len() != 2 {
		t.Errorf("entries = %d, want 2", g.Len())
	}

	second, err := g.Resolve(r, []string{"H", "i"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.calls != 2 {
		t.Errorf("second Resolve rendered %d times, want 0", r.calls-2)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("identifiers differ (-first +second):\n%s", diff)
	}
}

func TestReplaceRoundTrip(t *testing.T) {
	r := &stubRenderer{}
	g := NewGlyphCache()
	g.SetStyle(monoStyle())

	first, err := g.Resolve(r, []string{"a", "b"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	g.Replace(g.Entries())

	second, err := g.Resolve(r, []string{"a", "b"})
	if err != nil {
		t.Fatalf("Resolve after Replace: %v", err)
	}
	if r.calls != 2 {
		t.Errorf("Replace(Entries()) changed miss behavior: %d extra renders", r.calls-2)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("identifiers differ after round trip (-first +second):\n%s", diff)
	}
}

func TestStats(t *testing.T) {
	r := &stubRenderer{}
	g := NewGlyphCache()
	g.SetStyle(monoStyle())

	if _, err := g.Resolve(r, []string{"a", "b"}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, err := g.Resolve(r, []string{"a", "b", "a"}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	hits, misses := g.Stats()
	if misses != 2 {
		t.Errorf("misses = %d, want 2", misses)
	}
	if hits != 3 {
		t.Errorf("hits = %d, want 3", hits)
	}
}
