package backend

import (
	"fmt"
)

// init registers the software backend on package import.
func init() {
	Register(BackendSoftware, func() Device {
		return NewSoftwareDevice()
	})
}

// SoftwareDevice is a CPU-side implementation of the residency contract.
// The cache surface is a plain RGBA byte slab, batches apply their copies
// on Submit, and the indirection texture is an in-memory uint32 array.
//
// Besides serving as the no-GPU fallback, the software device gives tests
// full visibility into every byte the contract produces.
type SoftwareDevice struct {
	initialized bool
}

// NewSoftwareDevice creates a software device. Init must be called
// before creating resources.
func NewSoftwareDevice() *SoftwareDevice {
	return &SoftwareDevice{}
}

// Name returns the backend identifier.
func (d *SoftwareDevice) Name() string { return BackendSoftware }

// Init initializes the device. The software device has no external
// resources, so this only flips state.
func (d *SoftwareDevice) Init() error {
	d.initialized = true
	return nil
}

// Close releases the device.
func (d *SoftwareDevice) Close() {
	d.initialized = false
}

// SupportTier reports atlas emulation: the contract is honored with
// CPU copies rather than page-table remapping.
func (d *SoftwareDevice) SupportTier() Tier {
	if !d.initialized {
		return TierNone
	}
	return TierAtlas
}

// NewCacheSurface allocates the CPU atlas slab.
func (d *SoftwareDevice) NewCacheSurface(widthPx, heightPx int) (CacheSurface, error) {
	if !d.initialized {
		return nil, ErrNotInitialized
	}
	if widthPx <= 0 || heightPx <= 0 {
		return nil, fmt.Errorf("backend: invalid cache surface size %dx%d", widthPx, heightPx)
	}
	return &SoftwareCache{
		width:  widthPx,
		height: heightPx,
		pix:    make([]byte, widthPx*heightPx*4),
	}, nil
}

// NewIndirectionTexture allocates the in-memory lookup array.
func (d *SoftwareDevice) NewIndirectionTexture(tilesX, tilesY, layers int) (IndirectionTexture, error) {
	if !d.initialized {
		return nil, ErrNotInitialized
	}
	if tilesX <= 0 || tilesY <= 0 || layers <= 0 {
		return nil, fmt.Errorf("backend: invalid indirection size %dx%dx%d", tilesX, tilesY, layers)
	}
	return &SoftwareIndirection{
		tilesX: tilesX,
		tilesY: tilesY,
		layers: layers,
	}, nil
}

// SoftwareCache is the CPU atlas slab behind SoftwareDevice.
// Test code may inspect it directly via the concrete type returned by
// CacheSurface.Handle.
type SoftwareCache struct {
	width     int
	height    int
	pix       []byte // RGBA, row-major
	batch     bool   // a batch is open
	submits   int
	finalizes int
	closed    bool
}

// Width returns the surface width in texels.
func (c *SoftwareCache) Width() int { return c.width }

// Height returns the surface height in texels.
func (c *SoftwareCache) Height() int { return c.height }

// NewBatch opens a copy batch. Only one batch may be open at a time.
func (c *SoftwareCache) NewBatch(label string) (UploadBatch, error) {
	if c.closed {
		return nil, ErrNotInitialized
	}
	if c.batch {
		return nil, fmt.Errorf("backend: batch %q opened while previous batch pending", label)
	}
	c.batch = true
	return &softwareBatch{cache: c}, nil
}

// Unbind clears the page-sized region at (x, y) to zero so stale texels
// cannot leak if a caller samples an evicted slot by mistake.
func (c *SoftwareCache) Unbind(x, y, tileSize int) error {
	if c.closed {
		return ErrNotInitialized
	}
	if x < 0 || y < 0 || x+tileSize > c.width || y+tileSize > c.height {
		return fmt.Errorf("%w: unbind (%d,%d)+%d in %dx%d",
			ErrCopyOutOfBounds, x, y, tileSize, c.width, c.height)
	}
	for row := 0; row < tileSize; row++ {
		off := ((y+row)*c.width + x) * 4
		clear(c.pix[off : off+tileSize*4])
	}
	return nil
}

// Finalize marks the slab shader-readable. The CPU atlas needs no real
// transition; calls are counted so tests can observe the contract.
func (c *SoftwareCache) Finalize() error {
	if c.closed {
		return ErrNotInitialized
	}
	c.finalizes++
	return nil
}

// Handle returns the cache itself so callers can reach Pix and At.
func (c *SoftwareCache) Handle() any { return c }

// Close releases the slab.
func (c *SoftwareCache) Close() {
	c.closed = true
	c.pix = nil
}

// Pix returns the raw RGBA slab. The slice stays owned by the cache.
func (c *SoftwareCache) Pix() []byte { return c.pix }

// At returns the RGBA texel at (x, y).
func (c *SoftwareCache) At(x, y int) (r, g, b, a byte) {
	off := (y*c.width + x) * 4
	return c.pix[off], c.pix[off+1], c.pix[off+2], c.pix[off+3]
}

// Submits returns the number of batches submitted so far. Tests use this
// to verify the batching discipline of bulk uploads.
func (c *SoftwareCache) Submits() int { return c.submits }

// Finalizes reports how many times Finalize has run.
func (c *SoftwareCache) Finalizes() int { return c.finalizes }

// pendingCopy is one staged tile copy inside a software batch.
type pendingCopy struct {
	x, y     int
	tileSize int
	data     []byte
}

// softwareBatch stages copies and applies them on Submit, mirroring the
// submit-then-fence semantics of a device batch.
type softwareBatch struct {
	cache    *SoftwareCache
	pending  []pendingCopy
	consumed bool
}

// CopyTile validates and stages one page-sized copy. The data slice is
// cloned so the caller may reuse its staging buffer.
func (b *softwareBatch) CopyTile(x, y, tileSize int, data []byte) error {
	if b.consumed {
		return ErrBatchConsumed
	}
	if len(data) != tileSize*tileSize*4 {
		return fmt.Errorf("%w: %d bytes for %dpx tile", ErrBadTileData, len(data), tileSize)
	}
	if x < 0 || y < 0 || x+tileSize > b.cache.width || y+tileSize > b.cache.height {
		return fmt.Errorf("%w: copy (%d,%d)+%d in %dx%d",
			ErrCopyOutOfBounds, x, y, tileSize, b.cache.width, b.cache.height)
	}
	b.pending = append(b.pending, pendingCopy{
		x: x, y: y, tileSize: tileSize,
		data: append([]byte(nil), data...),
	})
	return nil
}

// Submit applies all staged copies to the slab. "Fence completion" is
// immediate for CPU copies.
func (b *softwareBatch) Submit() error {
	if b.consumed {
		return ErrBatchConsumed
	}
	b.consumed = true
	b.cache.batch = false

	for _, pc := range b.pending {
		for row := 0; row < pc.tileSize; row++ {
			dst := ((pc.y+row)*b.cache.width + pc.x) * 4
			src := row * pc.tileSize * 4
			copy(b.cache.pix[dst:dst+pc.tileSize*4], pc.data[src:src+pc.tileSize*4])
		}
	}
	b.pending = nil
	b.cache.submits++
	return nil
}

// Discard abandons the staged copies.
func (b *softwareBatch) Discard() {
	if b.consumed {
		return
	}
	b.consumed = true
	b.cache.batch = false
	b.pending = nil
}

// SoftwareIndirection is the in-memory lookup array behind SoftwareDevice.
type SoftwareIndirection struct {
	tilesX, tilesY, layers int
	entries                []uint32
	uploads                int
}

// Upload stores a copy of the full table.
func (t *SoftwareIndirection) Upload(entries []uint32) error {
	if want := t.tilesX * t.tilesY * t.layers; len(entries) != want {
		return fmt.Errorf("%w: %d entries for %dx%dx%d table",
			ErrBadTileData, len(entries), t.tilesX, t.tilesY, t.layers)
	}
	t.entries = append([]uint32(nil), entries...)
	t.uploads++
	return nil
}

// Handle returns the indirection itself so callers can reach At.
func (t *SoftwareIndirection) Handle() any { return t }

// Close releases the table.
func (t *SoftwareIndirection) Close() { t.entries = nil }

// At returns the uploaded entry for (x, y, layer).
func (t *SoftwareIndirection) At(x, y, layer int) uint32 {
	return t.entries[layer*t.tilesX*t.tilesY+y*t.tilesX+x]
}

// Uploads returns the number of Upload calls, for batching tests.
func (t *SoftwareIndirection) Uploads() int { return t.uploads }
