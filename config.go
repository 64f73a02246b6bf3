package vtex

import (
	"fmt"
	"math/bits"
)

// Default configuration values.
const (
	// DefaultTileSize is the edge length of a tile in texels (256x256 is
	// the standard page granularity for 8-bit RGBA virtual texturing).
	DefaultTileSize = 256

	// DefaultMaxPhysicalPages is the default cap on simultaneously
	// resident tiles (256 MB of physical cache at 256x256 RGBA).
	DefaultMaxPhysicalPages = 4096

	// DefaultMaxVirtualTextures is the default cap on registered textures.
	DefaultMaxVirtualTextures = 1024

	// DefaultFeedbackBufferSize is the default capacity of the feedback
	// buffer, in tile-access records per frame.
	DefaultFeedbackBufferSize = 1024
)

// Config holds the residency manager configuration.
// It is immutable once a Manager has been created from it.
type Config struct {
	// TileSize is the edge length of a page in texels. Power-of-two
	// values are recommended; other values work but waste cache space
	// on alignment.
	TileSize int

	// MaxPhysicalPages is the hard cap on simultaneously resident tiles.
	// The physical page pool is created at this size and never grows.
	MaxPhysicalPages int

	// MaxVirtualTextures is the hard cap on registered textures.
	MaxVirtualTextures int

	// FeedbackBufferSize is the capacity of the tile-access feedback
	// buffer, reserved for usage-driven streaming.
	FeedbackBufferSize int

	// RequireSparse requires true sparse-binding support from the backend.
	// When false (the default), a backend that emulates the contract with
	// a copy-based atlas is accepted.
	RequireSparse bool
}

// defaultConfig returns the default manager configuration.
func defaultConfig() Config {
	return Config{
		TileSize:           DefaultTileSize,
		MaxPhysicalPages:   DefaultMaxPhysicalPages,
		MaxVirtualTextures: DefaultMaxVirtualTextures,
		FeedbackBufferSize: DefaultFeedbackBufferSize,
	}
}

// validate checks the configuration for values the manager cannot operate
// with. It warns (but does not fail) on a non-power-of-two tile size.
func (c Config) validate() error {
	if c.TileSize <= 0 {
		return fmt.Errorf("vtex: tile size must be positive, got %d", c.TileSize)
	}
	if c.MaxPhysicalPages <= 0 {
		return fmt.Errorf("vtex: max physical pages must be positive, got %d", c.MaxPhysicalPages)
	}
	if c.MaxVirtualTextures <= 0 {
		return fmt.Errorf("vtex: max virtual textures must be positive, got %d", c.MaxVirtualTextures)
	}
	if c.FeedbackBufferSize < 0 {
		return fmt.Errorf("vtex: feedback buffer size must be non-negative, got %d", c.FeedbackBufferSize)
	}
	if bits.OnesCount(uint(c.TileSize)) != 1 {
		Logger().Warn("vtex: tile size is not a power of two", "tileSize", c.TileSize)
	}
	return nil
}

// Option configures a Manager during creation.
//
// Example:
//
//	mgr, err := vtex.NewManager(dev,
//		vtex.WithTileSize(128),
//		vtex.WithMaxPhysicalPages(1024),
//	)
type Option func(*managerOptions)

// managerOptions holds optional configuration for Manager creation.
type managerOptions struct {
	config Config
	policy EvictionPolicy
}

// WithTileSize sets the tile edge length in texels.
func WithTileSize(size int) Option {
	return func(o *managerOptions) {
		o.config.TileSize = size
	}
}

// WithMaxPhysicalPages sets the cap on simultaneously resident tiles.
func WithMaxPhysicalPages(n int) Option {
	return func(o *managerOptions) {
		o.config.MaxPhysicalPages = n
	}
}

// WithMaxVirtualTextures sets the cap on registered textures.
func WithMaxVirtualTextures(n int) Option {
	return func(o *managerOptions) {
		o.config.MaxVirtualTextures = n
	}
}

// WithFeedbackBufferSize sets the feedback buffer capacity in records.
func WithFeedbackBufferSize(n int) Option {
	return func(o *managerOptions) {
		o.config.FeedbackBufferSize = n
	}
}

// WithRequireSparse requires true sparse-binding support from the backend
// device. NewManager fails with ErrUnsupported if the device only offers
// atlas emulation.
func WithRequireSparse() Option {
	return func(o *managerOptions) {
		o.config.RequireSparse = true
	}
}

// WithEvictionPolicy attaches a usage-driven eviction policy to the
// manager. The policy observes MakeResident calls and feedback records;
// ProcessFeedback and ReclaimPages consult it for eviction candidates.
// UploadAllTiles and MakeResident never evict implicitly, with or
// without a policy.
func WithEvictionPolicy(p EvictionPolicy) Option {
	return func(o *managerOptions) {
		o.policy = p
	}
}
