// Command strimg renders a text string to a PNG image.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"strings"

	"github.com/gogpu/strimg"
)

func main() {
	var (
		fontDir  = flag.String("fonts", ".", "directory scanned for .ttf/.otf fonts")
		family   = flag.String("family", "", "font family (default: first loaded font)")
		size     = flag.Float64("size", 16, "font size in points")
		fg       = flag.String("fg", "black", "text color")
		bg       = flag.String("bg", "transparent", "background color, or \"transparent\"")
		weight   = flag.String("weight", "normal", "font weight: normal|light|medium|bold|100..900")
		slant    = flag.String("slant", "roman", "font slant: roman|italic")
		align    = flag.String("align", "auto", "alignment: auto|left|center|right")
		pad      = flag.String("pad", "0", "padding: one value or l,t,r,b")
		crop     = flag.String("crop", "none", "auto-crop sides: none|all|left,top,right,bottom")
		output   = flag.String("output", "text.png", "output PNG file")
		alphaOut = flag.String("alpha", "", "optional output PNG for the alpha mask")
		dict     = flag.String("dict", "", "fragment dictionary file; enables the cached pipeline and persists renders across runs")
	)
	flag.Parse()

	text := strings.Join(flag.Args(), " ")
	if text == "" {
		log.Fatal("usage: strimg [flags] text...")
	}

	lib := strimg.NewFontLibrary()
	n, err := lib.AddDir(os.DirFS(*fontDir), ".")
	if err != nil {
		log.Fatalf("Failed to scan %s: %v", *fontDir, err)
	}
	if n == 0 {
		log.Fatalf("No fonts found in %s", *fontDir)
	}

	style, err := strimg.ParseStyle([]strimg.Pair{
		{Key: "family", Value: *family},
		{Key: "size", Value: fmt.Sprintf("%g", *size)},
		{Key: "fg", Value: *fg},
		{Key: "bg", Value: *bg},
		{Key: "weight", Value: *weight},
		{Key: "slant", Value: *slant},
		{Key: "align", Value: *align},
		{Key: "pad", Value: *pad},
		{Key: "crop", Value: *crop},
	})
	if err != nil {
		log.Fatalf("Bad style: %v", err)
	}

	ctx := strimg.NewContext(strimg.NewTextRenderer(lib))
	ctx.SetStyle(style)

	var res *strimg.Rendered
	if *dict != "" {
		if err := loadDict(ctx, *dict); err != nil {
			log.Fatalf("Failed to load dictionary: %v", err)
		}
		res, err = ctx.RenderString(text)
		if err != nil {
			log.Fatalf("Render failed: %v", err)
		}
		if err := saveDict(ctx, *dict); err != nil {
			log.Fatalf("Failed to save dictionary: %v", err)
		}
	} else {
		res, err = ctx.Render(text)
		if err != nil {
			log.Fatalf("Render failed: %v", err)
		}
	}
	if res.Cropped {
		log.Printf("warning: output clamped to %dx%d", res.Width, res.Height)
	}

	if err := savePNG(*output, res.Image); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	if *alphaOut != "" {
		if err := savePNG(*alphaOut, res.Alpha); err != nil {
			log.Fatalf("Failed to save alpha: %v", err)
		}
	}

	log.Printf("Saved %s (%dx%d)", *output, res.Width, res.Height)
}

// loadDict seeds the context's cache from a dictionary file. A missing
// file is not an error; the first run starts with an empty cache.
func loadDict(ctx *strimg.Context, path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	entries, err := strimg.ReadEntries(f)
	if err != nil {
		return err
	}
	ctx.Replace(entries)
	log.Printf("Loaded %d cached fragments from %s", len(entries), path)
	return nil
}

func saveDict(ctx *strimg.Context, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := strimg.WriteEntries(f, ctx.Entries()); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
