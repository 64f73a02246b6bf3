package vtex

import (
	"errors"
	"testing"
)

// testSource returns a solid RGBA source texture of the given size.
func testSource(width, height int) *SourceTexture {
	return &SourceTexture{
		Width:    width,
		Height:   height,
		Channels: 4,
		Data:     make([]byte, width*height*4),
	}
}

func TestTileGridDim(t *testing.T) {
	tests := []struct {
		dim, tileSize, want int
	}{
		{256, 256, 1},
		{257, 256, 2},
		{512, 256, 2},
		{300, 256, 2},
		{1, 256, 1},
		{1024, 256, 4},
		{100, 128, 1},
	}
	for _, tt := range tests {
		if got := tileGridDim(tt.dim, tt.tileSize); got != tt.want {
			t.Errorf("tileGridDim(%d, %d) = %d, want %d", tt.dim, tt.tileSize, got, tt.want)
		}
	}
}

func TestRegistryAdd(t *testing.T) {
	r := NewRegistry(256, 4)

	id, err := r.Add(testSource(300, 520))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if id != 0 {
		t.Errorf("first id = %d, want 0", id)
	}

	vt, err := r.Texture(id)
	if err != nil {
		t.Fatal(err)
	}
	if vt.TilesX != 2 || vt.TilesY != 3 {
		t.Errorf("grid = %dx%d, want 2x3", vt.TilesX, vt.TilesY)
	}
	if len(vt.Tiles) != 6 {
		t.Fatalf("len(Tiles) = %d, want 6", len(vt.Tiles))
	}
	for i := range vt.Tiles {
		tile := &vt.Tiles[i]
		if tile.Resident {
			t.Errorf("tile %v starts resident", tile.Coord)
		}
		if tile.PageIndex != PageIndexNone {
			t.Errorf("tile %v PageIndex = %d, want sentinel", tile.Coord, tile.PageIndex)
		}
	}

	// Row-major order: second record is (1, 0).
	if c := vt.Tiles[1].Coord; c.X != 1 || c.Y != 0 {
		t.Errorf("Tiles[1].Coord = %v, want [1,0]", c)
	}
	if c := vt.Tiles[2].Coord; c.X != 0 || c.Y != 1 {
		t.Errorf("Tiles[2].Coord = %v, want [0,1]", c)
	}
}

func TestRegistryCapacity(t *testing.T) {
	r := NewRegistry(256, 2)
	for i := 0; i < 2; i++ {
		if _, err := r.Add(testSource(64, 64)); err != nil {
			t.Fatal(err)
		}
	}

	_, err := r.Add(testSource(64, 64))
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("Add past capacity error = %v, want ErrCapacityExceeded", err)
	}
	if r.Len() != 2 {
		t.Errorf("Len() after rejected Add = %d, want 2", r.Len())
	}
}

func TestRegistryAddInvalidSource(t *testing.T) {
	r := NewRegistry(256, 4)

	tests := []struct {
		name string
		src  *SourceTexture
	}{
		{"zero size", &SourceTexture{Channels: 4}},
		{"bad channels", &SourceTexture{Width: 4, Height: 4, Channels: 2, Data: make([]byte, 32)}},
		{"short data", &SourceTexture{Width: 4, Height: 4, Channels: 4, Data: make([]byte, 3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Add(tt.src); !errors.Is(err, ErrInvalidSource) {
				t.Errorf("Add error = %v, want ErrInvalidSource", err)
			}
		})
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d after rejected sources, want 0", r.Len())
	}
}

func TestRegistryTileLookup(t *testing.T) {
	r := NewRegistry(256, 4)
	if _, err := r.Add(testSource(512, 256)); err != nil {
		t.Fatal(err)
	}

	tile, err := r.Tile(TileCoord{Texture: 0, X: 1, Y: 0})
	if err != nil {
		t.Fatalf("Tile lookup failed: %v", err)
	}
	if tile.Coord.X != 1 {
		t.Errorf("tile.Coord = %v", tile.Coord)
	}

	bad := []TileCoord{
		{Texture: 9},
		{Texture: 0, Mip: 1},
		{Texture: 0, X: 2, Y: 0},
		{Texture: 0, X: 0, Y: 1},
	}
	for _, coord := range bad {
		if _, err := r.Tile(coord); !errors.Is(err, ErrInvalidCoordinate) {
			t.Errorf("Tile(%v) error = %v, want ErrInvalidCoordinate", coord, err)
		}
	}
}

func TestRegistryMaxTileGrid(t *testing.T) {
	r := NewRegistry(256, 4)
	if x, y := r.MaxTileGrid(); x != 0 || y != 0 {
		t.Errorf("empty MaxTileGrid = %dx%d, want 0x0", x, y)
	}

	_, _ = r.Add(testSource(512, 256)) // 2x1
	_, _ = r.Add(testSource(256, 768)) // 1x3

	if x, y := r.MaxTileGrid(); x != 2 || y != 3 {
		t.Errorf("MaxTileGrid = %dx%d, want 2x3", x, y)
	}
}
