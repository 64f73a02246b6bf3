package texsrc

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestLoadFromBytesNRGBA(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 40})
	img.SetNRGBA(3, 2, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	src, err := LoadFromBytes(encodePNG(t, img))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}
	if src.Width != 4 || src.Height != 3 || src.Channels != 4 {
		t.Fatalf("got %dx%d ch=%d, want 4x3 ch=4", src.Width, src.Height, src.Channels)
	}
	if src.Data[0] != 10 || src.Data[1] != 20 || src.Data[2] != 30 || src.Data[3] != 40 {
		t.Errorf("pixel (0,0) = %v", src.Data[:4])
	}
	off := (2*4 + 3) * 4
	if src.Data[off] != 200 || src.Data[off+3] != 255 {
		t.Errorf("pixel (3,2) = %v", src.Data[off:off+4])
	}
}

func TestLoadFromBytesGray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.SetGray(1, 1, color.Gray{Y: 77})

	src, err := LoadFromBytes(encodePNG(t, img))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}
	if src.Channels != 1 {
		t.Fatalf("Channels = %d, want 1 for grayscale", src.Channels)
	}
	if src.Data[1*2+1] != 77 {
		t.Errorf("pixel (1,1) = %d, want 77", src.Data[3])
	}
}

func TestLoadFromBytesEmpty(t *testing.T) {
	if _, err := LoadFromBytes(nil); err != ErrEmptyData {
		t.Errorf("LoadFromBytes(nil) error = %v, want ErrEmptyData", err)
	}
}

func TestFromImageGeneric(t *testing.T) {
	// YCbCr forces the generic At() path.
	img := image.NewYCbCr(image.Rect(0, 0, 2, 2), image.YCbCrSubsampleRatio444)

	src := FromImage(img)
	if src.Width != 2 || src.Height != 2 || src.Channels != 4 {
		t.Fatalf("got %dx%d ch=%d, want 2x2 ch=4", src.Width, src.Height, src.Channels)
	}
	if err := src.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestLoaderCaching(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tex.png")

	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	if err := os.WriteFile(path, encodePNG(t, img), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader(8)
	first, err := l.Load(path)
	if err != nil {
		t.Fatalf("first Load failed: %v", err)
	}
	second, err := l.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if first != second {
		t.Error("second Load did not return the cached texture")
	}
	if stats := l.Stats(); stats.Hits != 1 {
		t.Errorf("cache hits = %d, want 1", stats.Hits)
	}

	if !l.Evict(path) {
		t.Error("Evict returned false for cached path")
	}
	if l.Evict(path) {
		t.Error("Evict returned true for already-evicted path")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Error("Load of missing file succeeded")
	}
}
