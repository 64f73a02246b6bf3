package vtex

// Statistics is a point-in-time snapshot of residency state, suitable
// for overlays and logs.
type Statistics struct {
	// TotalTextures is the number of registered virtual textures.
	TotalTextures int
	// TotalTiles is the tile count across all registered textures.
	TotalTiles int
	// ResidentTiles is how many of those tiles are currently backed by
	// a physical page.
	ResidentTiles int
	// TotalPages is the physical pool capacity; UsedPages and FreePages
	// partition it.
	TotalPages int
	UsedPages  int
	FreePages  int
	// PhysicalMemoryMB is the RGBA8 byte size of the used pages,
	// in mebibytes.
	PhysicalMemoryMB float64
	// TotalVirtualMemoryMB is the RGBA8 byte size of every registered
	// texture at full residency, in mebibytes.
	TotalVirtualMemoryMB float64
}

// Statistics computes a fresh snapshot by walking the catalog and the
// pool. It is cheap enough to call every frame.
func (m *Manager) Statistics() Statistics {
	var s Statistics
	if !m.initialized {
		return s
	}
	s.TotalTextures = m.registry.Len()
	for id := uint32(0); id < uint32(s.TotalTextures); id++ {
		vt, err := m.registry.Texture(id)
		if err != nil {
			continue
		}
		s.TotalTiles += len(vt.Tiles)
		for i := range vt.Tiles {
			if vt.Tiles[i].Resident {
				s.ResidentTiles++
			}
		}
		s.TotalVirtualMemoryMB +=
			float64(vt.Source.Width*vt.Source.Height*4) / (1024 * 1024)
	}
	s.TotalPages = m.pool.Cap()
	s.UsedPages = m.pool.Used()
	s.FreePages = m.pool.FreeCount()

	pageBytes := m.cfg.TileSize * m.cfg.TileSize * 4
	s.PhysicalMemoryMB = float64(s.UsedPages*pageBytes) / (1024 * 1024)
	return s
}
