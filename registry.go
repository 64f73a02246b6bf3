package vtex

import "fmt"

// Registry is the virtual texture catalog: per-texture metadata and one
// Tile record per grid cell. A Registry is an explicitly constructed
// object with caller-controlled lifetime; there is no hidden process-wide
// texture cache in this package.
//
// Entries are append-only. Virtual textures are never removed; their
// tiles transition residency instead.
type Registry struct {
	tileSize    int
	maxTextures int
	textures    []*VirtualTexture
}

// NewRegistry creates an empty catalog for up to maxTextures entries,
// partitioning each texture into tileSize-square tiles.
func NewRegistry(tileSize, maxTextures int) *Registry {
	return &Registry{
		tileSize:    tileSize,
		maxTextures: maxTextures,
		textures:    make([]*VirtualTexture, 0, min(maxTextures, 64)),
	}
}

// Add registers a decoded source texture and returns its virtual texture
// index. The tile grid is computed by ceiling division, so edge tiles may
// cover less than a full tile of source texels. All tiles start
// non-resident.
//
// Add fails with ErrCapacityExceeded, without mutating the registry, once
// maxTextures entries exist.
func (r *Registry) Add(src *SourceTexture) (uint32, error) {
	if len(r.textures) >= r.maxTextures {
		return 0, fmt.Errorf("%w: %d", ErrCapacityExceeded, r.maxTextures)
	}
	if err := src.Validate(); err != nil {
		return 0, err
	}

	id := uint32(len(r.textures))
	tilesX := tileGridDim(src.Width, r.tileSize)
	tilesY := tileGridDim(src.Height, r.tileSize)

	vt := &VirtualTexture{
		Width:     src.Width,
		Height:    src.Height,
		MipLevels: 1,
		TilesX:    tilesX,
		TilesY:    tilesY,
		Tiles:     make([]Tile, 0, tilesX*tilesY),
		Source:    src,
	}
	for y := 0; y < tilesY; y++ {
		for x := 0; x < tilesX; x++ {
			vt.Tiles = append(vt.Tiles, Tile{
				Coord:     TileCoord{Texture: id, X: uint32(x), Y: uint32(y)},
				PageIndex: PageIndexNone,
			})
		}
	}
	r.textures = append(r.textures, vt)

	Logger().Debug("vtex: registered virtual texture",
		"id", id,
		"size", fmt.Sprintf("%dx%d", src.Width, src.Height),
		"tiles", fmt.Sprintf("%dx%d", tilesX, tilesY))
	return id, nil
}

// Texture returns the catalog entry for id.
func (r *Registry) Texture(id uint32) (*VirtualTexture, error) {
	if int(id) >= len(r.textures) {
		return nil, fmt.Errorf("%w: texture %d of %d", ErrInvalidCoordinate, id, len(r.textures))
	}
	return r.textures[id], nil
}

// Tile resolves a tile coordinate to its catalog record.
func (r *Registry) Tile(coord TileCoord) (*Tile, error) {
	vt, err := r.Texture(coord.Texture)
	if err != nil {
		return nil, err
	}
	if int(coord.Mip) >= vt.MipLevels {
		return nil, fmt.Errorf("%w: mip %d of %d", ErrInvalidCoordinate, coord.Mip, vt.MipLevels)
	}
	return vt.TileAt(coord.X, coord.Y)
}

// Len returns the number of registered textures.
func (r *Registry) Len() int {
	return len(r.textures)
}

// MaxTileGrid returns the maximum tile-grid dimensions across all
// registered textures. Both are zero when the registry is empty.
func (r *Registry) MaxTileGrid() (tilesX, tilesY int) {
	for _, vt := range r.textures {
		tilesX = max(tilesX, vt.TilesX)
		tilesY = max(tilesY, vt.TilesY)
	}
	return tilesX, tilesY
}
