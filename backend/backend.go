package backend

import (
	"errors"
	"fmt"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not
	// registered or none of the registered backends can initialize.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")

	// ErrBatchConsumed is returned when recording into a batch that has
	// already been submitted or discarded.
	ErrBatchConsumed = errors.New("backend: upload batch already consumed")

	// ErrCopyOutOfBounds is returned when a tile copy falls outside the
	// cache surface.
	ErrCopyOutOfBounds = errors.New("backend: copy region outside cache surface")

	// ErrBadTileData is returned when staged tile data has the wrong length
	// for the page size.
	ErrBadTileData = errors.New("backend: tile data length does not match page size")
)

// Tier is the device's sparse-binding support level.
// Higher tiers are strict supersets of lower ones.
type Tier int

const (
	// TierNone means the device offers no way to honor the residency
	// contract; manager initialization must fail.
	TierNone Tier = iota

	// TierAtlas means the device emulates residency with copies into a
	// conventional atlas texture. The external contract (shared cache
	// surface plus indirection lookup) is fully preserved.
	TierAtlas

	// TierSparse means the device supports true sparse binding: remapping
	// a page-sized region of a logical resource to physical memory.
	TierSparse
)

// String returns a human-readable tier name.
func (t Tier) String() string {
	switch t {
	case TierNone:
		return "none"
	case TierAtlas:
		return "atlas"
	case TierSparse:
		return "sparse"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// Device is a graphics device capable of backing the residency manager.
//
// Implementations must be usable from the single goroutine that drives
// the manager; no internal locking is required of them.
type Device interface {
	// Name returns the backend identifier (e.g. "software", "native").
	Name() string

	// Init initializes the device. It must be called before any resource
	// creation and must be safe to call on an already-initialized device.
	Init() error

	// Close releases all device resources. The device must not be used
	// after Close.
	Close()

	// SupportTier reports the sparse-binding support level. Called by the
	// manager before any resource creation; a TierNone result aborts
	// initialization with no side effects.
	SupportTier() Tier

	// NewCacheSurface allocates the shared physical cache surface:
	// an RGBA8 texture of widthPx by heightPx covering all page slots in
	// a fixed grid.
	NewCacheSurface(widthPx, heightPx int) (CacheSurface, error)

	// NewIndirectionTexture allocates the lookup array: one tilesX by
	// tilesY layer of 32-bit page indices per registered texture.
	NewIndirectionTexture(tilesX, tilesY, layers int) (IndirectionTexture, error)
}

// CacheSurface is the single flat texture holding every resident page.
type CacheSurface interface {
	// Width and Height return the surface dimensions in texels.
	Width() int
	Height() int

	// NewBatch opens a command batch for staged tile copies. Batches are
	// strictly sequential: the previous batch must be submitted or
	// discarded first.
	NewBatch(label string) (UploadBatch, error)

	// Unbind releases the page-sized region at (x, y). Sparse backends
	// unmap the tile; atlas backends may clear the region or leave it
	// stale, since the indirection table is what prevents sampling it.
	Unbind(x, y, tileSize int) error

	// Finalize transitions the surface into its shader-readable state
	// after a bulk upload.
	Finalize() error

	// Handle returns the backend-native texture handle for the rendering
	// collaborator (e.g. a hal.Texture for the native backend).
	Handle() any

	// Close releases the surface.
	Close()
}

// UploadBatch accumulates page-sized tile copies into the cache surface.
//
// Submit closes the batch, submits the recorded copies to the device,
// blocks until the device signals the batch fence, and releases the
// batch's staging memory. This bounds peak staging memory at the cost of
// a synchronous stall per batch, which is acceptable on the load path.
type UploadBatch interface {
	// CopyTile stages data (tileSize*tileSize*4 bytes of RGBA texels) and
	// records a copy into the cache surface with its top-left corner at
	// (x, y). The data slice is consumed before CopyTile returns and may
	// be reused by the caller.
	CopyTile(x, y, tileSize int, data []byte) error

	// Submit executes the batch and waits for completion. The batch
	// cannot be used afterwards.
	Submit() error

	// Discard abandons the batch without executing it.
	Discard()
}

// IndirectionTexture is the GPU-readable lookup array mapping
// (tileX, tileY, textureIndex) to a physical page index or the
// not-resident sentinel.
type IndirectionTexture interface {
	// Upload transfers the full table in a single batched transfer with
	// its own fence wait. Entries are layer-major then row-major:
	// entries[layer*tilesX*tilesY + y*tilesX + x].
	Upload(entries []uint32) error

	// Handle returns the backend-native texture handle.
	Handle() any

	// Close releases the texture.
	Close()
}
