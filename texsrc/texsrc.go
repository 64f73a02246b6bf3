// Package texsrc decodes image files into vtex source textures.
//
// Formats: PNG, JPEG, BMP, TIFF (auto-detected from content). A Loader
// keeps decoded textures in a sharded LRU cache keyed by path, so
// re-registering the same asset does not decode it twice.
package texsrc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	// Register decoders for image.Decode format detection.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/gogpu/vtex"
	"github.com/gogpu/vtex/cache"
)

// Decode errors.
var (
	// ErrEmptyData is returned when image data is empty.
	ErrEmptyData = errors.New("texsrc: empty data")
)

// Load reads and decodes an image file into a source texture.
func Load(path string) (*vtex.SourceTexture, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("texsrc: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Decode(f)
}

// LoadFromBytes decodes an image from a byte slice, auto-detecting the
// format.
func LoadFromBytes(data []byte) (*vtex.SourceTexture, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	return Decode(bytes.NewReader(data))
}

// Decode decodes an image from the given reader, auto-detecting the
// format.
func Decode(r io.Reader) (*vtex.SourceTexture, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("texsrc: decode: %w", err)
	}
	return FromImage(img), nil
}

// FromImage converts a standard library image into an RGBA source
// texture. Grayscale inputs stay single-channel.
func FromImage(img image.Image) *vtex.SourceTexture {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	// Fast path for NRGBA: pixel layout already matches.
	if nrgba, ok := img.(*image.NRGBA); ok {
		src := &vtex.SourceTexture{
			Width:    width,
			Height:   height,
			Channels: 4,
			Data:     make([]byte, width*height*4),
		}
		for y := range height {
			srcStart := y * nrgba.Stride
			copy(src.Data[y*width*4:], nrgba.Pix[srcStart:srcStart+width*4])
		}
		return src
	}

	// Fast path for grayscale: keep it single-channel, the staging
	// path expands on upload.
	if gray, ok := img.(*image.Gray); ok {
		src := &vtex.SourceTexture{
			Width:    width,
			Height:   height,
			Channels: 1,
			Data:     make([]byte, width*height),
		}
		for y := range height {
			srcStart := y * gray.Stride
			copy(src.Data[y*width:], gray.Pix[srcStart:srcStart+width])
		}
		return src
	}

	// Generic slow path for any image type.
	src := &vtex.SourceTexture{
		Width:    width,
		Height:   height,
		Channels: 4,
		Data:     make([]byte, width*height*4),
	}
	for y := range height {
		for x := range width {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			off := (y*width + x) * 4
			// RGBA() returns 16-bit values, scale to 8-bit.
			src.Data[off] = byte(r >> 8)
			src.Data[off+1] = byte(g >> 8)
			src.Data[off+2] = byte(b >> 8)
			src.Data[off+3] = byte(a >> 8)
		}
	}
	return src
}

// Loader caches decoded source textures by file path.
type Loader struct {
	cache *cache.ShardedCache[string, *vtex.SourceTexture]
}

// NewLoader creates a loader holding up to capacity decoded textures
// per cache shard.
func NewLoader(capacity int) *Loader {
	return &Loader{
		cache: cache.NewSharded[string, *vtex.SourceTexture](capacity, cache.StringHasher),
	}
}

// Load returns the decoded texture for path, decoding on first use.
// Cached textures are shared; callers must not mutate them.
func (l *Loader) Load(path string) (*vtex.SourceTexture, error) {
	if src, ok := l.cache.Get(path); ok {
		return src, nil
	}
	src, err := Load(path)
	if err != nil {
		return nil, err
	}
	l.cache.Set(path, src)
	return src, nil
}

// Evict drops a cached texture, reporting whether it was present.
func (l *Loader) Evict(path string) bool { return l.cache.Delete(path) }

// Stats returns the loader's cache counters.
func (l *Loader) Stats() cache.Stats { return l.cache.Stats() }
