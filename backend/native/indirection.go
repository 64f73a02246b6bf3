//go:build !nogpu

package native

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vtex/backend"
)

// indirectionTexture is the R32Uint tile-to-page lookup array texture.
// Layer l entry (x, y) holds the physical page index of tile (x, y) of
// virtual texture l, or the no-page sentinel.
type indirectionTexture struct {
	dev    *Device
	tex    hal.Texture
	tilesX int
	tilesY int
	layers int
	closed bool
}

var _ backend.IndirectionTexture = (*indirectionTexture)(nil)

// Upload replaces the whole table. entries is layer-major:
// entries[layer*tilesX*tilesY + y*tilesX + x]. It blocks until the GPU
// copy completes and the texture is shader readable.
func (t *indirectionTexture) Upload(entries []uint32) error {
	if t.closed {
		return backend.ErrNotInitialized
	}
	want := t.tilesX * t.tilesY * t.layers
	if len(entries) != want {
		return fmt.Errorf("%w: got %d entries, want %d",
			backend.ErrBadTileData, len(entries), want)
	}

	data := make([]byte, len(entries)*4)
	for i, e := range entries {
		binary.LittleEndian.PutUint32(data[i*4:], e)
	}

	err := t.dev.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   hal.Origin3D{},
		},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(t.tilesX * 4),
			RowsPerImage: uint32(t.tilesY),
		},
		&hal.Extent3D{
			Width:              uint32(t.tilesX),
			Height:             uint32(t.tilesY),
			DepthOrArrayLayers: uint32(t.layers),
		},
	)
	if err != nil {
		return fmt.Errorf("native: write indirection table: %w", err)
	}
	if err := t.dev.sync(); err != nil {
		return err
	}
	return t.dev.transition(t.tex,
		gputypes.TextureUsageCopyDst, gputypes.TextureUsageTextureBinding)
}

// Handle returns the hal.Texture for binding into render pipelines.
func (t *indirectionTexture) Handle() any { return t.tex }

func (t *indirectionTexture) Close() {
	if t.closed {
		return
	}
	t.dev.device.DestroyTexture(t.tex)
	t.tex = nil
	t.closed = true
}
