package imaging

import (
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"mcqmark/internal/model"
)

func TestCropRect(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		want image.Rectangle
	}{
		{"wide 16:9", 1600, 900, image.Rect(200, 0, 1400, 900)},
		{"tall 9:16", 900, 1600, image.Rect(0, 462, 900, 1137)},
		{"already 4:3", 800, 600, image.Rect(0, 0, 800, 600)},
		{"slightly wide", 1000, 600, image.Rect(100, 0, 900, 600)},
		{"square", 600, 600, image.Rect(0, 75, 600, 525)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cropRect(image.Rect(0, 0, tt.w, tt.h))
			if got != tt.want {
				t.Errorf("cropRect(%dx%d) = %v, want %v", tt.w, tt.h, got, tt.want)
			}
		})
	}
}

func writeTestJPEG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "sheet.jpg")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create test image: %v", err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return path
}

func TestNormalize(t *testing.T) {
	n := NewNormalizer()
	path := writeTestJPEG(t, 1600, 900)

	norm := n.Normalize(model.RawImage{Path: path})
	if !norm.Temp {
		t.Fatal("expected a temporary normalized image")
	}
	t.Cleanup(func() { norm.Release() })

	if norm.Width != DefaultWidth || norm.Height != DefaultHeight {
		t.Errorf("expected %dx%d, got %dx%d", DefaultWidth, DefaultHeight, norm.Width, norm.Height)
	}

	f, err := os.Open(norm.Path)
	if err != nil {
		t.Fatalf("open normalized image: %v", err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode normalized image: %v", err)
	}
	if cfg.Width != DefaultWidth || cfg.Height != DefaultHeight {
		t.Errorf("normalized file is %dx%d, want %dx%d", cfg.Width, cfg.Height, DefaultWidth, DefaultHeight)
	}
}

func TestNormalizeFallsBackOnBadInput(t *testing.T) {
	n := NewNormalizer()

	// Not an image at all.
	path := filepath.Join(t.TempDir(), "garbage.jpg")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	norm := n.Normalize(model.RawImage{Path: path})
	if norm.Temp {
		t.Error("expected fallback, got a temp image")
	}
	if norm.Path != path {
		t.Errorf("fallback should keep the original path, got %q", norm.Path)
	}

	// Missing file.
	norm = n.Normalize(model.RawImage{Path: filepath.Join(t.TempDir(), "missing.jpg")})
	if norm.Temp {
		t.Error("expected fallback for missing file")
	}
}

func TestReleaseRemovesTempFile(t *testing.T) {
	n := NewNormalizer()
	path := writeTestJPEG(t, 800, 600)

	norm := n.Normalize(model.RawImage{Path: path})
	if !norm.Temp {
		t.Fatal("expected a temporary normalized image")
	}
	if err := norm.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(norm.Path); !os.IsNotExist(err) {
		t.Error("temp file still exists after Release")
	}

	// Release on a fallback image must not touch the original.
	fallback := model.NormalizedImage{Path: path}
	if err := fallback.Release(); err != nil {
		t.Fatalf("Release fallback: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("original file removed by fallback Release")
	}
}
