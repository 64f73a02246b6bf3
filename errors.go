package vtex

import "errors"

// Residency manager errors.
var (
	// ErrUnsupported is returned by NewManager when the backend device does
	// not meet the required capability tier. No partial state is retained;
	// callers are expected to fall back to a non-sparse strategy.
	ErrUnsupported = errors.New("vtex: backend capability tier not supported")

	// ErrNotInitialized is returned when operations are called on a closed
	// or never-initialized manager.
	ErrNotInitialized = errors.New("vtex: manager not initialized")

	// ErrCapacityExceeded is returned by AddVirtualTexture when the registry
	// already holds MaxVirtualTextures entries. The registry is not mutated.
	ErrCapacityExceeded = errors.New("vtex: maximum virtual textures reached")

	// ErrOutOfPhysicalMemory is returned when the physical page free list is
	// empty. A bulk upload aborts at this point; tiles committed earlier in
	// the same call stay resident (documented partial success, no rollback).
	ErrOutOfPhysicalMemory = errors.New("vtex: out of physical pages")

	// ErrDeviceResource is returned when the backend fails to create or
	// write a device resource (staging buffer, cache surface, indirection
	// texture). The page allocated for the failing tile is returned to the
	// free list before the error propagates.
	ErrDeviceResource = errors.New("vtex: device resource operation failed")

	// ErrPageNotAllocated is returned by PagePool.Free for a page index that
	// is not currently allocated. Freeing an unallocated page is a caller
	// bug; the pool state is left unchanged.
	ErrPageNotAllocated = errors.New("vtex: page is not allocated")

	// ErrInvalidCoordinate is returned for tile coordinates outside the
	// owning texture's tile grid or mip range.
	ErrInvalidCoordinate = errors.New("vtex: tile coordinate out of range")

	// ErrNoTextures is returned by BuildIndirectionTable when no virtual
	// textures have been registered.
	ErrNoTextures = errors.New("vtex: no virtual textures registered")

	// ErrInvalidSource is returned when a source texture descriptor has
	// zero dimensions, an unsupported channel count, or a short data slice.
	ErrInvalidSource = errors.New("vtex: invalid source texture")

	// ErrNoEvictionPolicy is returned by ReclaimPages when the manager was
	// created without an eviction policy.
	ErrNoEvictionPolicy = errors.New("vtex: no eviction policy configured")
)
