// Package strimg renders short text strings into raster images, with a
// memoization layer that caches rendered fragments per formatting style.
//
// # Overview
//
// strimg is a thin convenience layer over the host font rasterizer
// (golang.org/x/image/font). It does not implement text shaping or
// rasterization itself: the default TextRenderer wraps opentype faces,
// adds padding, per-side auto-cropping and an alpha channel, and the
// GlyphCache avoids repeating costly renders for fragments that were
// already produced under the same style.
//
// # Quick Start
//
//	import "github.com/gogpu/strimg"
//
//	lib := strimg.NewFontLibrary()
//	if _, err := lib.AddFile("fonts/Go-Regular.ttf"); err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := strimg.NewContext(strimg.NewTextRenderer(lib))
//	style := strimg.DefaultStyle()
//	style.Family = "Go"
//	style.Size = 24
//	ctx.SetStyle(style)
//
//	res, err := ctx.RenderString("Hello")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// res.Image is an *image.NRGBA, res.Alpha the matching mask.
//
// # Architecture
//
// The library is organized into:
//   - Public API: Context, Style, GlyphCache, Rendered, Compose
//   - Renderer: the Renderer interface and the default TextRenderer
//   - FontLibrary: font registration and family/weight/slant lookup
//   - cache/: a small generic LRU used for parsed font objects
//
// All cache state is owned by the caller through Context (or a bare
// GlyphCache); the package keeps no hidden global dictionary.
//
// # Concurrency
//
// GlyphCache guards its state with a single mutex, so concurrent callers
// are safe, but the library is designed for one logical caller: two
// goroutines racing on a cold cache may render the same fragment twice.
// Renders are synchronous calls with no timeout; pre-warm the cache with
// Resolve if latency matters.
package strimg

// Version is the current version of the library.
const Version = "0.1.0"
