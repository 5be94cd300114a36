package imaging

import (
	"image"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"os"

	"golang.org/x/image/draw"

	"mcqmark/internal/model"
)

// Canonical working resolution and JPEG quality for submitted sheets.
const (
	DefaultWidth   = 800
	DefaultHeight  = 600
	DefaultQuality = 80
)

// Normalizer crops acquired images to the canonical 4:3 ratio and resizes
// them to a fixed working resolution before submission.
type Normalizer struct {
	Width   int
	Height  int
	Quality int
}

// NewNormalizer returns a normalizer with the canonical settings.
func NewNormalizer() *Normalizer {
	return &Normalizer{Width: DefaultWidth, Height: DefaultHeight, Quality: DefaultQuality}
}

// Normalize produces a 4:3 image at the working resolution from raw. If the
// ratio is wider than 4:3 the width is cropped symmetrically about the
// horizontal center; if taller, the height is cropped about the vertical
// center. The result is re-encoded as JPEG into a temporary file the caller
// must Release. Any manipulation failure falls back to the raw image
// unchanged: grading can still proceed on an unnormalized sheet, so the
// pipeline never fails here.
func (n *Normalizer) Normalize(raw model.RawImage) model.NormalizedImage {
	src, err := decodeFile(raw.Path)
	if err != nil {
		slog.Warn("image normalization skipped, submitting original", "path", raw.Path, "error", err)
		return model.NormalizedImage{Path: raw.Path}
	}

	crop := cropRect(src.Bounds())
	dst := image.NewRGBA(image.Rect(0, 0, n.Width, n.Height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)

	tmp, err := os.CreateTemp("", "mcqmark-*.jpg")
	if err != nil {
		slog.Warn("image normalization skipped, submitting original", "path", raw.Path, "error", err)
		return model.NormalizedImage{Path: raw.Path}
	}
	if err := jpeg.Encode(tmp, dst, &jpeg.Options{Quality: n.Quality}); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		slog.Warn("image normalization skipped, submitting original", "path", raw.Path, "error", err)
		return model.NormalizedImage{Path: raw.Path}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		slog.Warn("image normalization skipped, submitting original", "path", raw.Path, "error", err)
		return model.NormalizedImage{Path: raw.Path}
	}

	return model.NormalizedImage{
		Path:   tmp.Name(),
		Width:  n.Width,
		Height: n.Height,
		Temp:   true,
	}
}

// cropRect returns the largest centered 4:3 sub-rectangle of b.
func cropRect(b image.Rectangle) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	switch {
	case w*3 > h*4: // wider than 4:3, trim the sides
		cw := h * 4 / 3
		x0 := b.Min.X + (w-cw)/2
		return image.Rect(x0, b.Min.Y, x0+cw, b.Max.Y)
	case w*3 < h*4: // taller than 4:3, trim top and bottom
		ch := w * 3 / 4
		y0 := b.Min.Y + (h-ch)/2
		return image.Rect(b.Min.X, y0, b.Max.X, y0+ch)
	default:
		return b
	}
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}
