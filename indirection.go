package vtex

import (
	"fmt"
)

// BuildIndirectionTable rebuilds the full indirection texture from the
// current residency state: one layer per registered virtual texture,
// each entry either the tile's physical page index or PageIndexNone.
//
// The table is sized for the largest tile grid among all textures;
// smaller textures pad their layer with PageIndexNone. The previous
// indirection texture, if any, is released after the new one uploads.
func (m *Manager) BuildIndirectionTable() error {
	if !m.initialized {
		return ErrNotInitialized
	}
	if m.registry.Len() == 0 {
		return ErrNoTextures
	}

	tilesX, tilesY := m.registry.MaxTileGrid()
	layers := m.registry.Len()

	entries := make([]uint32, tilesX*tilesY*layers)
	for i := range entries {
		entries[i] = PageIndexNone
	}
	for id := uint32(0); id < uint32(layers); id++ {
		vt, err := m.registry.Texture(id)
		if err != nil {
			return err
		}
		base := int(id) * tilesX * tilesY
		for i := range vt.Tiles {
			t := &vt.Tiles[i]
			if !t.Resident {
				continue
			}
			entries[base+int(t.Coord.Y)*tilesX+int(t.Coord.X)] = t.PageIndex
		}
	}

	tex, err := m.dev.NewIndirectionTexture(tilesX, tilesY, layers)
	if err != nil {
		return fmt.Errorf("%w: create indirection texture: %w", ErrDeviceResource, err)
	}
	if err := tex.Upload(entries); err != nil {
		tex.Close()
		return fmt.Errorf("%w: upload indirection table: %w", ErrDeviceResource, err)
	}

	if m.indirection != nil {
		m.indirection.Close()
	}
	m.indirection = tex

	Logger().Debug("vtex: indirection table rebuilt",
		"tilesX", tilesX, "tilesY", tilesY, "layers", layers)
	return nil
}
