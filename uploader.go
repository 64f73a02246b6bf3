// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package vtex

import (
	"context"
	"fmt"

	"github.com/gogpu/vtex/backend"
)

// uploadBatchSize is the number of tile copies recorded into a single
// command batch before it is submitted and fenced.
const uploadBatchSize = 50

// UploadAllTiles makes every tile of every registered texture resident,
// streaming the copies in fence-synchronized batches of up to 50 tiles.
// On success, and on the pool-exhaustion and cancellation returns, the
// cache surface is finalized into its shader-readable state.
//
// On physical pool exhaustion the batch recorded so far is still
// submitted, so every tile marked resident has its content in the cache
// surface, and ErrOutOfPhysicalMemory is returned. Earlier tiles stay
// resident; there is no rollback.
//
// For cancellable uploads, use UploadAllTilesWithContext.
func (m *Manager) UploadAllTiles() error {
	return m.UploadAllTilesWithContext(context.Background())
}

// UploadAllTilesWithContext is UploadAllTiles with cancellation support.
// The context is checked between batches; when canceled the function
// returns ctx.Err() and tiles uploaded so far stay resident. A fence
// wait in progress is never interrupted.
func (m *Manager) UploadAllTilesWithContext(ctx context.Context) error {
	if !m.initialized {
		return ErrNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.registry.Len() == 0 {
		return ErrNoTextures
	}

	staging := make([]byte, m.cfg.TileSize*m.cfg.TileSize*4)

	var (
		batch   backend.UploadBatch
		pending int
		total   int
	)
	finalize := func() error {
		if err := m.cache.Finalize(); err != nil {
			return fmt.Errorf("%w: %w", ErrDeviceResource, err)
		}
		return nil
	}
	flush := func() error {
		if batch == nil || pending == 0 {
			if batch != nil {
				batch.Discard()
				batch = nil
			}
			return nil
		}
		err := batch.Submit()
		batch = nil
		pending = 0
		if err != nil {
			return fmt.Errorf("%w: %w", ErrDeviceResource, err)
		}
		return nil
	}

	for id := uint32(0); id < uint32(m.registry.Len()); id++ {
		vt, err := m.registry.Texture(id)
		if err != nil {
			return err
		}
		for i := range vt.Tiles {
			tile := &vt.Tiles[i]
			if tile.Resident {
				continue
			}

			page, err := m.pool.Allocate(tile.Coord)
			if err != nil {
				// Pool exhausted. Submit what has been recorded so
				// tiles already marked resident have real content.
				if ferr := flush(); ferr != nil {
					return ferr
				}
				if ferr := finalize(); ferr != nil {
					return ferr
				}
				return fmt.Errorf("%w: after %d tiles, at %s",
					ErrOutOfPhysicalMemory, total, tile.Coord.String())
			}

			if batch == nil {
				batch, err = m.cache.NewBatch("upload_all_tiles")
				if err != nil {
					m.freePage(page)
					return fmt.Errorf("%w: %w", ErrDeviceResource, err)
				}
			}

			stageTile(vt.Source, m.cfg.TileSize, int(tile.Coord.X), int(tile.Coord.Y), staging)
			x, y := m.PageOrigin(page)
			if err := batch.CopyTile(x, y, m.cfg.TileSize, staging); err != nil {
				m.freePage(page)
				if ferr := flush(); ferr != nil {
					return ferr
				}
				return fmt.Errorf("%w: %w", ErrDeviceResource, err)
			}

			tile.Resident = true
			tile.PageIndex = page
			m.touch(tile.Coord)
			pending++
			total++

			if pending == uploadBatchSize {
				if err := flush(); err != nil {
					return err
				}
				if err := ctx.Err(); err != nil {
					if ferr := finalize(); ferr != nil {
						return ferr
					}
					return err
				}
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	if err := finalize(); err != nil {
		return err
	}

	Logger().Info("vtex: uploaded all tiles",
		"tiles", total,
		"pagesUsed", m.pool.Used(),
		"pagesFree", m.pool.FreeCount())
	return nil
}

// stageTile fills dst (tileSize*tileSize*4 bytes, RGBA8, tightly packed)
// with the tile at grid cell (tileX, tileY) of src. Texels past the
// source edge are zeroed, so boundary tiles carry transparent black in
// the clipped region.
func stageTile(src *SourceTexture, tileSize, tileX, tileY int, dst []byte) {
	x0 := tileX * tileSize
	y0 := tileY * tileSize
	for row := 0; row < tileSize; row++ {
		sy := y0 + row
		out := dst[row*tileSize*4 : (row+1)*tileSize*4]
		if sy >= src.Height {
			clear(out)
			continue
		}
		for col := 0; col < tileSize; col++ {
			sx := x0 + col
			if sx >= src.Width {
				clear(out[col*4:])
				break
			}
			r, g, b, a := src.pixelRGBA(sx, sy)
			out[col*4+0] = r
			out[col*4+1] = g
			out[col*4+2] = b
			out[col*4+3] = a
		}
	}
}
