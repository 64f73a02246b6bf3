package vtex

import "fmt"

// PageIndexNone is the sentinel physical page index meaning "not resident".
// It appears in Tile.PageIndex for non-resident tiles and in the
// indirection table for unmapped coordinates.
const PageIndexNone = ^uint32(0)

// TileCoord addresses a single tile of a virtual texture.
type TileCoord struct {
	// Texture is the virtual texture index returned by AddVirtualTexture.
	Texture uint32
	// Mip is the mip level. Only level 0 is populated today; the field is
	// carried for forward compatibility with mipped virtual textures.
	Mip uint32
	// X and Y are tile-grid coordinates, (0,0) at the top-left.
	X uint32
	Y uint32
}

// String returns a compact representation for logs and test failures.
func (c TileCoord) String() string {
	return fmt.Sprintf("tex%d/mip%d[%d,%d]", c.Texture, c.Mip, c.X, c.Y)
}

// Tile is the unit of residency: one fixed-size square region of a
// virtual texture's texel grid.
type Tile struct {
	// Coord identifies the tile.
	Coord TileCoord

	// Resident reports whether the tile currently has a physical page
	// backing it.
	Resident bool

	// PageIndex is the backing physical page while Resident is true.
	// It is a weak index into the page pool, never ownership; the value
	// is PageIndexNone while the tile is not resident.
	PageIndex uint32
}

// VirtualTexture is the per-texture catalog entry: grid geometry, the
// ordered tile list, and the decoded source supplying tile content.
type VirtualTexture struct {
	// Width and Height are the full virtual dimensions in texels.
	Width  int
	Height int

	// MipLevels is the number of mip levels. Always 1 today.
	MipLevels int

	// TilesX and TilesY are the tile grid dimensions, computed by
	// ceiling division of the texel dimensions by the tile size.
	TilesX int
	TilesY int

	// Tiles holds one record per grid cell in row-major order
	// (insertion order is (y, x)). All tiles start non-resident.
	Tiles []Tile

	// Source is the decoded texel buffer supplying tile content.
	Source *SourceTexture
}

// TileAt returns the tile record at grid position (x, y).
// The pointer stays valid for the lifetime of the texture.
func (vt *VirtualTexture) TileAt(x, y uint32) (*Tile, error) {
	if int(x) >= vt.TilesX || int(y) >= vt.TilesY {
		return nil, fmt.Errorf("%w: tile [%d,%d] in %dx%d grid",
			ErrInvalidCoordinate, x, y, vt.TilesX, vt.TilesY)
	}
	return &vt.Tiles[int(y)*vt.TilesX+int(x)], nil
}

// tileGridDim computes the number of tiles covering dim texels, by
// ceiling division. Edge tiles may cover fewer than tileSize texels.
func tileGridDim(dim, tileSize int) int {
	return (dim + tileSize - 1) / tileSize
}
