package strimg

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
)

// Dictionary container format: "SIMG" magic, one version byte, an entry
// count, then per entry the fragment, the style as canonical pairs, the
// dimensions and two PNG blocks (image, alpha). All integers big-endian.
const codecVersion = 1

var codecMagic = [4]byte{'S', 'I', 'M', 'G'}

// maxBlockLen bounds any length field read from the wire.
const maxBlockLen = 1 << 28

// WriteEntries serializes cache entries (as returned by
// GlyphCache.Entries) to w.
func WriteEntries(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(codecMagic[:]); err != nil {
		return err
	}
	if err := bw.WriteByte(codecVersion); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, uint32(len(entries))); err != nil {
		return err
	}
	for i := range entries {
		if err := writeEntry(bw, &entries[i]); err != nil {
			return fmt.Errorf("strimg: encode entry %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// ReadEntries deserializes cache entries from r, for use with
// GlyphCache.Replace.
func ReadEntries(r io.Reader) ([]Entry, error) {
	br := bufio.NewReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	if magic != codecMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrCodec)
	}
	version, err := br.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	if version != codecVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCodec, version)
	}

	var count uint32
	if err := binary.Read(br, binary.BigEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	// Capacity comes from the wire; grow instead of trusting it.
	var entries []Entry
	for i := uint32(0); i < count; i++ {
		e, err := readEntry(br)
		if err != nil {
			return nil, fmt.Errorf("strimg: decode entry %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func writeEntry(w *bufio.Writer, e *Entry) error {
	if err := writeBytes(w, []byte(e.Fragment)); err != nil {
		return err
	}

	pairs := e.Style.Pairs()
	if err := binary.Write(w, binary.BigEndian, uint16(len(pairs))); err != nil {
		return err
	}
	for _, p := range pairs {
		if err := writeBytes(w, []byte(p.Key)); err != nil {
			return err
		}
		if err := writeBytes(w, []byte(p.Value)); err != nil {
			return err
		}
	}

	if err := binary.Write(w, binary.BigEndian, uint32(e.Width)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(e.Height)); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, e.Image); err != nil {
		return err
	}
	if err := writeBytes(w, buf.Bytes()); err != nil {
		return err
	}
	buf.Reset()
	if err := png.Encode(&buf, e.Alpha); err != nil {
		return err
	}
	return writeBytes(w, buf.Bytes())
}

func readEntry(r *bufio.Reader) (Entry, error) {
	var e Entry

	frag, err := readBytes(r)
	if err != nil {
		return e, err
	}
	e.Fragment = string(frag)

	var pairCount uint16
	if err := binary.Read(r, binary.BigEndian, &pairCount); err != nil {
		return e, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	pairs := make([]Pair, 0, pairCount)
	for i := uint16(0); i < pairCount; i++ {
		key, err := readBytes(r)
		if err != nil {
			return e, err
		}
		val, err := readBytes(r)
		if err != nil {
			return e, err
		}
		pairs = append(pairs, Pair{Key: string(key), Value: string(val)})
	}
	style, err := ParseStyle(pairs)
	if err != nil {
		return e, err
	}
	e.Style = style

	var width, height uint32
	if err := binary.Read(r, binary.BigEndian, &width); err != nil {
		return e, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	if err := binary.Read(r, binary.BigEndian, &height); err != nil {
		return e, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	e.Width = int(width)
	e.Height = int(height)

	imgData, err := readBytes(r)
	if err != nil {
		return e, err
	}
	img, err := png.Decode(bytes.NewReader(imgData))
	if err != nil {
		return e, fmt.Errorf("%w: image: %v", ErrCodec, err)
	}
	e.Image = toNRGBA(img)

	alphaData, err := readBytes(r)
	if err != nil {
		return e, err
	}
	alphaImg, err := png.Decode(bytes.NewReader(alphaData))
	if err != nil {
		return e, fmt.Errorf("%w: alpha: %v", ErrCodec, err)
	}
	e.Alpha = toAlpha(alphaImg)

	ib := e.Image.Bounds()
	if ib.Dx() != e.Width || ib.Dy() != e.Height || !e.Alpha.Bounds().Eq(ib) {
		return e, fmt.Errorf("%w: dimension mismatch", ErrCodec)
	}
	return e, nil
}

// toNRGBA converts a decoded image to *image.NRGBA at origin.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// toAlpha converts a decoded mask (PNG stores *image.Alpha as grayscale)
// back to *image.Alpha at origin.
func toAlpha(img image.Image) *image.Alpha {
	b := img.Bounds()
	out := image.NewAlpha(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			out.SetAlpha(x-b.Min.X, y-b.Min.Y, color.Alpha{A: g.Y})
		}
	}
	return out
}

func writeBytes(w *bufio.Writer, b []byte) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readBytes(r *bufio.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	if n > maxBlockLen {
		return nil, fmt.Errorf("%w: block too large (%d bytes)", ErrCodec, n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	return b, nil
}
