//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vtex/backend"
)

// cacheSurface is the GPU physical cache texture. Tile uploads go
// through queue.WriteTexture and are fenced at batch submit.
type cacheSurface struct {
	dev    *Device
	tex    hal.Texture
	width  int
	height int

	batchOpen bool
	finalized bool // surface is in TextureBinding usage
	closed    bool
}

var _ backend.CacheSurface = (*cacheSurface)(nil)

func (s *cacheSurface) Width() int  { return s.width }
func (s *cacheSurface) Height() int { return s.height }

// Handle returns the hal.Texture for binding into render pipelines.
func (s *cacheSurface) Handle() any { return s.tex }

// NewBatch starts an upload batch. Only one batch may be open at a time.
func (s *cacheSurface) NewBatch(label string) (backend.UploadBatch, error) {
	if s.closed {
		return nil, backend.ErrNotInitialized
	}
	if s.batchOpen {
		return nil, fmt.Errorf("native: batch %q: previous batch still open", label)
	}
	if err := s.makeWritable(); err != nil {
		return nil, err
	}
	s.batchOpen = true
	return &uploadBatch{surf: s, label: label}, nil
}

// makeWritable transitions a finalized surface back to copy destination
// so WriteTexture uploads can target it again.
func (s *cacheSurface) makeWritable() error {
	if !s.finalized {
		return nil
	}
	if err := s.dev.transition(s.tex,
		gputypes.TextureUsageTextureBinding, gputypes.TextureUsageCopyDst); err != nil {
		return err
	}
	s.finalized = false
	return nil
}

// Unbind clears the tile slot at (x, y) to transparent black. There is
// no real unmapping on the atlas tier; stale texels are zeroed so
// samplers cannot read evicted content.
func (s *cacheSurface) Unbind(x, y, tileSize int) error {
	if s.closed {
		return backend.ErrNotInitialized
	}
	wasFinalized := s.finalized
	if err := s.makeWritable(); err != nil {
		return err
	}
	zero := make([]byte, tileSize*tileSize*4)
	err := s.dev.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  s.tex,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: uint32(x), Y: uint32(y)},
		},
		zero,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(tileSize * 4),
			RowsPerImage: uint32(tileSize),
		},
		&hal.Extent3D{
			Width:              uint32(tileSize),
			Height:             uint32(tileSize),
			DepthOrArrayLayers: 1,
		},
	)
	if err != nil {
		return fmt.Errorf("native: clear tile slot: %w", err)
	}
	if err := s.dev.sync(); err != nil {
		return err
	}
	if wasFinalized {
		return s.Finalize()
	}
	return nil
}

// Finalize transitions the surface from copy destination to shader
// readable. Call it after the last upload of a residency cycle, before
// rendering samples the cache. Finalizing an already-readable surface
// is a no-op.
func (s *cacheSurface) Finalize() error {
	if s.closed {
		return backend.ErrNotInitialized
	}
	if s.finalized {
		return nil
	}
	if err := s.dev.transition(s.tex,
		gputypes.TextureUsageCopyDst, gputypes.TextureUsageTextureBinding); err != nil {
		return err
	}
	s.finalized = true
	return nil
}

func (s *cacheSurface) Close() {
	if s.closed {
		return
	}
	s.dev.device.DestroyTexture(s.tex)
	s.tex = nil
	s.closed = true
}

// tileCopy is one recorded tile upload.
type tileCopy struct {
	x, y     int
	tileSize int
	data     []byte
}

// uploadBatch stages tile copies and issues them on Submit, then blocks
// on a fence so the caller can reuse its staging memory immediately.
type uploadBatch struct {
	surf   *cacheSurface
	label  string
	copies []tileCopy
	done   bool
}

var _ backend.UploadBatch = (*uploadBatch)(nil)

// CopyTile records one tile upload. The data is copied before return,
// so the caller may reuse the slice.
func (b *uploadBatch) CopyTile(x, y, tileSize int, data []byte) error {
	if b.done {
		return backend.ErrBatchConsumed
	}
	if len(data) != tileSize*tileSize*4 {
		return fmt.Errorf("%w: got %d bytes, want %d",
			backend.ErrBadTileData, len(data), tileSize*tileSize*4)
	}
	if x < 0 || y < 0 || x+tileSize > b.surf.width || y+tileSize > b.surf.height {
		return fmt.Errorf("%w: tile at (%d,%d) size %d in %dx%d surface",
			backend.ErrCopyOutOfBounds, x, y, tileSize, b.surf.width, b.surf.height)
	}
	staged := make([]byte, len(data))
	copy(staged, data)
	b.copies = append(b.copies, tileCopy{x: x, y: y, tileSize: tileSize, data: staged})
	return nil
}

// Submit issues every recorded copy and blocks until the GPU signals
// the fence. The batch cannot be reused afterwards.
func (b *uploadBatch) Submit() error {
	if b.done {
		return backend.ErrBatchConsumed
	}
	b.done = true
	b.surf.batchOpen = false

	if len(b.copies) == 0 {
		return nil
	}
	for _, c := range b.copies {
		err := b.surf.dev.queue.WriteTexture(
			&hal.ImageCopyTexture{
				Texture:  b.surf.tex,
				MipLevel: 0,
				Origin:   hal.Origin3D{X: uint32(c.x), Y: uint32(c.y)},
			},
			c.data,
			&hal.ImageDataLayout{
				Offset:       0,
				BytesPerRow:  uint32(c.tileSize * 4),
				RowsPerImage: uint32(c.tileSize),
			},
			&hal.Extent3D{
				Width:              uint32(c.tileSize),
				Height:             uint32(c.tileSize),
				DepthOrArrayLayers: 1,
			},
		)
		if err != nil {
			b.copies = nil
			return fmt.Errorf("native: write tile at (%d,%d): %w", c.x, c.y, err)
		}
	}
	n := len(b.copies)
	b.copies = nil

	if err := b.surf.dev.sync(); err != nil {
		return err
	}
	slogger().Debug("native: upload batch submitted", "label", b.label, "tiles", n)
	return nil
}

// Discard drops the recorded copies without touching the GPU.
func (b *uploadBatch) Discard() {
	if b.done {
		return
	}
	b.done = true
	b.copies = nil
	b.surf.batchOpen = false
}
