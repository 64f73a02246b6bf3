package vtex

import (
	"fmt"
	"math"

	"github.com/gogpu/vtex/backend"
)

// Manager is the sparse texture residency manager. It owns the physical
// page pool, the virtual texture catalog, the shared physical cache
// surface, and the indirection table, and drives all uploads through a
// backend device.
//
// A Manager is confined to a single issuing goroutine; see the package
// documentation for the threading model.
type Manager struct {
	cfg         Config
	dev         backend.Device
	pool        *PagePool
	registry    *Registry
	cache       backend.CacheSurface
	indirection backend.IndirectionTexture
	feedback    *feedbackBuffer
	policy      EvictionPolicy

	// pagesPerRow is the fixed row length of the page grid inside the
	// cache surface. Constant for the manager's lifetime; page index i
	// lives at column i%pagesPerRow, row i/pagesPerRow.
	pagesPerRow int

	initialized bool
}

// NewManager initializes a residency manager on an initialized backend
// device. It probes the device's support tier first and fails with
// ErrUnsupported, retaining no partial state, when the tier is below the
// configured minimum (TierAtlas, or TierSparse with WithRequireSparse).
func NewManager(dev backend.Device, opts ...Option) (*Manager, error) {
	o := managerOptions{config: defaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	cfg := o.config
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	propagateLogger(dev)

	required := backend.TierAtlas
	if cfg.RequireSparse {
		required = backend.TierSparse
	}
	tier := dev.SupportTier()
	if tier < required {
		return nil, fmt.Errorf("%w: device %q reports tier %v, need %v",
			ErrUnsupported, dev.Name(), tier, required)
	}

	pagesPerRow := pageGridDim(cfg.MaxPhysicalPages)
	side := pagesPerRow * cfg.TileSize
	cache, err := dev.NewCacheSurface(side, side)
	if err != nil {
		return nil, fmt.Errorf("%w: create cache surface: %w", ErrDeviceResource, err)
	}

	m := &Manager{
		cfg:         cfg,
		dev:         dev,
		pool:        NewPagePool(cfg.MaxPhysicalPages),
		registry:    NewRegistry(cfg.TileSize, cfg.MaxVirtualTextures),
		cache:       cache,
		feedback:    newFeedbackBuffer(cfg.FeedbackBufferSize),
		policy:      o.policy,
		pagesPerRow: pagesPerRow,
		initialized: true,
	}

	Logger().Info("vtex: residency manager initialized",
		"backend", dev.Name(),
		"tier", tier.String(),
		"tileSize", cfg.TileSize,
		"maxPhysicalPages", cfg.MaxPhysicalPages,
		"maxVirtualTextures", cfg.MaxVirtualTextures,
		"cacheSurface", fmt.Sprintf("%dx%d", side, side))
	return m, nil
}

// pageGridDim returns the fixed pages-per-row value: the smallest square
// grid covering n pages.
func pageGridDim(n int) int {
	return int(math.Ceil(math.Sqrt(float64(n))))
}

// Close releases the cache surface and indirection texture. The backend
// device stays open; it belongs to the caller.
func (m *Manager) Close() {
	if !m.initialized {
		return
	}
	if m.indirection != nil {
		m.indirection.Close()
		m.indirection = nil
	}
	if m.cache != nil {
		m.cache.Close()
		m.cache = nil
	}
	releaseLogger(m.dev)
	m.initialized = false
}

// Config returns a copy of the immutable manager configuration.
func (m *Manager) Config() Config { return m.cfg }

// PagesPerRow returns the fixed row length of the page grid inside the
// cache surface. Shading code needs it to turn a page index into a slot.
func (m *Manager) PagesPerRow() int { return m.pagesPerRow }

// PageOrigin returns the texel coordinates of the top-left corner of a
// page's slot inside the cache surface.
func (m *Manager) PageOrigin(page uint32) (x, y int) {
	col := int(page) % m.pagesPerRow
	row := int(page) / m.pagesPerRow
	return col * m.cfg.TileSize, row * m.cfg.TileSize
}

// AddVirtualTexture registers a decoded source texture and returns its
// virtual texture index. All of its tiles start non-resident; nothing is
// uploaded until UploadAllTiles or MakeResident.
func (m *Manager) AddVirtualTexture(src *SourceTexture) (uint32, error) {
	if !m.initialized {
		return 0, ErrNotInitialized
	}
	return m.registry.Add(src)
}

// Registry exposes the virtual texture catalog for read access.
func (m *Manager) Registry() *Registry { return m.registry }

// Pool exposes the physical page pool for read access.
func (m *Manager) Pool() *PagePool { return m.pool }

// TextureInfo describes one virtual texture's tile layout for shaders.
type TextureInfo struct {
	TileSize int
	TilesX   int
	TilesY   int
	Width    int
	Height   int
}

// TextureInfo returns the tile layout of a registered texture.
func (m *Manager) TextureInfo(id uint32) (TextureInfo, error) {
	if !m.initialized {
		return TextureInfo{}, ErrNotInitialized
	}
	vt, err := m.registry.Texture(id)
	if err != nil {
		return TextureInfo{}, err
	}
	return TextureInfo{
		TileSize: m.cfg.TileSize,
		TilesX:   vt.TilesX,
		TilesY:   vt.TilesY,
		Width:    vt.Width,
		Height:   vt.Height,
	}, nil
}

// CacheHandle returns the backend-native handle of the physical cache
// surface for the rendering collaborator.
func (m *Manager) CacheHandle() any {
	if m.cache == nil {
		return nil
	}
	return m.cache.Handle()
}

// IndirectionHandle returns the backend-native handle of the indirection
// texture, or nil before the first BuildIndirectionTable call.
func (m *Manager) IndirectionHandle() any {
	if m.indirection == nil {
		return nil
	}
	return m.indirection.Handle()
}

// MakeResident backs a single tile with a physical page and uploads its
// content, synchronizing on the device fence before returning. On
// success the cache surface is left shader readable. Calling
// MakeResident on an already-resident tile is a no-op.
//
// The aggregate indirection table is NOT refreshed; callers re-invoke
// BuildIndirectionTable once their residency changes are complete.
func (m *Manager) MakeResident(coord TileCoord) error {
	if !m.initialized {
		return ErrNotInitialized
	}
	tile, err := m.registry.Tile(coord)
	if err != nil {
		return err
	}
	if tile.Resident {
		m.touch(coord)
		return nil
	}
	vt, err := m.registry.Texture(coord.Texture)
	if err != nil {
		return err
	}

	page, err := m.pool.Allocate(coord)
	if err != nil {
		return err
	}

	staging := make([]byte, m.cfg.TileSize*m.cfg.TileSize*4)
	stageTile(vt.Source, m.cfg.TileSize, int(coord.X), int(coord.Y), staging)

	x, y := m.PageOrigin(page)
	batch, err := m.cache.NewBatch("make_resident")
	if err != nil {
		m.freePage(page)
		return fmt.Errorf("%w: %w", ErrDeviceResource, err)
	}
	if err := batch.CopyTile(x, y, m.cfg.TileSize, staging); err != nil {
		batch.Discard()
		m.freePage(page)
		return fmt.Errorf("%w: %w", ErrDeviceResource, err)
	}
	if err := batch.Submit(); err != nil {
		m.freePage(page)
		return fmt.Errorf("%w: %w", ErrDeviceResource, err)
	}
	if err := m.cache.Finalize(); err != nil {
		m.freePage(page)
		return fmt.Errorf("%w: %w", ErrDeviceResource, err)
	}

	tile.Resident = true
	tile.PageIndex = page
	m.touch(coord)

	Logger().Debug("vtex: tile made resident", "tile", coord.String(), "page", page)
	return nil
}

// Evict releases a tile's physical page and marks it non-resident.
// Evicting a non-resident tile is a no-op. Like MakeResident, Evict does
// not refresh the indirection table.
func (m *Manager) Evict(coord TileCoord) error {
	if !m.initialized {
		return ErrNotInitialized
	}
	tile, err := m.registry.Tile(coord)
	if err != nil {
		return err
	}
	if !tile.Resident {
		return nil
	}

	x, y := m.PageOrigin(tile.PageIndex)
	if err := m.cache.Unbind(x, y, m.cfg.TileSize); err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceResource, err)
	}
	if err := m.pool.Free(tile.PageIndex); err != nil {
		return err
	}

	page := tile.PageIndex
	tile.Resident = false
	tile.PageIndex = PageIndexNone
	if m.policy != nil {
		m.policy.Remove(coord)
	}

	Logger().Debug("vtex: tile evicted", "tile", coord.String(), "page", page)
	return nil
}

// freePage returns a page to the pool on an error path. Failing to free
// here would leak the page for the manager's lifetime, so a pool error
// is loud.
func (m *Manager) freePage(page uint32) {
	if err := m.pool.Free(page); err != nil {
		Logger().Warn("vtex: failed to release page on error path",
			"page", page, "error", err)
	}
}

// touch reports a tile access to the eviction policy, if one is set.
func (m *Manager) touch(coord TileCoord) {
	if m.policy != nil {
		m.policy.Touch(coord)
	}
}
