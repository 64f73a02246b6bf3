package vtex

import (
	"errors"
	"testing"
)

func TestLRUPolicy(t *testing.T) {
	p := NewLRUPolicy()

	if _, ok := p.Victim(); ok {
		t.Error("Victim on empty policy returned ok")
	}

	a := TileCoord{X: 0}
	b := TileCoord{X: 1}
	c := TileCoord{X: 2}
	p.Touch(a)
	p.Touch(b)
	p.Touch(c)

	if v, _ := p.Victim(); v != a {
		t.Errorf("Victim = %v, want %v", v, a)
	}

	// Touching refreshes recency.
	p.Touch(a)
	if v, _ := p.Victim(); v != b {
		t.Errorf("Victim after touch = %v, want %v", v, b)
	}

	p.Remove(b)
	if v, _ := p.Victim(); v != c {
		t.Errorf("Victim after remove = %v, want %v", v, c)
	}
	if p.Len() != 2 {
		t.Errorf("Len() = %d, want 2", p.Len())
	}
}

func TestFeedbackBufferDedupAndBound(t *testing.T) {
	b := newFeedbackBuffer(2)

	b.record(TileCoord{X: 0})
	b.record(TileCoord{X: 0}) // duplicate collapses
	b.record(TileCoord{X: 1})
	b.record(TileCoord{X: 2}) // over capacity, dropped

	got := b.drain()
	if len(got) != 2 {
		t.Fatalf("drained %d records, want 2", len(got))
	}
	if b.dropped != 1 {
		t.Errorf("dropped = %d, want 1", b.dropped)
	}

	// Drain resets dedup state.
	b.record(TileCoord{X: 0})
	if got := b.drain(); len(got) != 1 {
		t.Errorf("drained %d records after reset, want 1", len(got))
	}
}

func TestProcessFeedback(t *testing.T) {
	m, _ := newTestManager(t, WithTileSize(64), WithMaxPhysicalPages(8), WithMaxVirtualTextures(4))

	id, _ := m.AddVirtualTexture(testSource(256, 64)) // 4x1

	for x := uint32(0); x < 3; x++ {
		if err := m.RequestTile(TileCoord{Texture: id, X: x}); err != nil {
			t.Fatal(err)
		}
	}
	loaded, err := m.ProcessFeedback()
	if err != nil {
		t.Fatalf("ProcessFeedback failed: %v", err)
	}
	if loaded != 3 {
		t.Errorf("loaded = %d, want 3", loaded)
	}
	if m.Statistics().ResidentTiles != 3 {
		t.Errorf("ResidentTiles = %d, want 3", m.Statistics().ResidentTiles)
	}

	// Requesting resident tiles loads nothing.
	if err := m.RequestTile(TileCoord{Texture: id, X: 0}); err != nil {
		t.Fatal(err)
	}
	loaded, err = m.ProcessFeedback()
	if err != nil || loaded != 0 {
		t.Errorf("ProcessFeedback = %d, %v; want 0, nil", loaded, err)
	}
}

func TestRequestTileValidation(t *testing.T) {
	m, _ := newTestManager(t, WithMaxVirtualTextures(4))
	if err := m.RequestTile(TileCoord{Texture: 3}); !errors.Is(err, ErrInvalidCoordinate) {
		t.Errorf("RequestTile error = %v, want ErrInvalidCoordinate", err)
	}
}

func TestProcessFeedbackEvictsWithPolicy(t *testing.T) {
	m, _ := newTestManager(t,
		WithTileSize(64), WithMaxPhysicalPages(2), WithMaxVirtualTextures(4),
		WithEvictionPolicy(NewLRUPolicy()))

	id, _ := m.AddVirtualTexture(testSource(256, 64)) // 4x1

	// Fill the pool with tiles 0 and 1, then request tile 2. The LRU
	// victim (tile 0) gives up its page.
	if err := m.MakeResident(TileCoord{Texture: id, X: 0}); err != nil {
		t.Fatal(err)
	}
	if err := m.MakeResident(TileCoord{Texture: id, X: 1}); err != nil {
		t.Fatal(err)
	}
	if err := m.RequestTile(TileCoord{Texture: id, X: 2}); err != nil {
		t.Fatal(err)
	}
	loaded, err := m.ProcessFeedback()
	if err != nil {
		t.Fatalf("ProcessFeedback failed: %v", err)
	}
	if loaded != 1 {
		t.Errorf("loaded = %d, want 1", loaded)
	}

	t0, _ := m.Registry().Tile(TileCoord{Texture: id, X: 0})
	t2, _ := m.Registry().Tile(TileCoord{Texture: id, X: 2})
	if t0.Resident {
		t.Error("LRU victim still resident")
	}
	if !t2.Resident {
		t.Error("requested tile not resident")
	}
}

func TestProcessFeedbackWithoutPolicyFailsOnFullPool(t *testing.T) {
	m, _ := newTestManager(t, WithTileSize(64), WithMaxPhysicalPages(1), WithMaxVirtualTextures(4))

	id, _ := m.AddVirtualTexture(testSource(128, 64)) // 2x1
	if err := m.MakeResident(TileCoord{Texture: id, X: 0}); err != nil {
		t.Fatal(err)
	}
	if err := m.RequestTile(TileCoord{Texture: id, X: 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.ProcessFeedback(); !errors.Is(err, ErrOutOfPhysicalMemory) {
		t.Errorf("ProcessFeedback error = %v, want ErrOutOfPhysicalMemory", err)
	}
}

func TestReclaimPages(t *testing.T) {
	m, _ := newTestManager(t,
		WithTileSize(64), WithMaxPhysicalPages(8), WithMaxVirtualTextures(4),
		WithEvictionPolicy(NewLRUPolicy()))

	id, _ := m.AddVirtualTexture(testSource(256, 64)) // 4x1
	if err := m.UploadAllTiles(); err != nil {
		t.Fatal(err)
	}

	freed, err := m.ReclaimPages(2)
	if err != nil {
		t.Fatalf("ReclaimPages failed: %v", err)
	}
	if freed != 2 {
		t.Errorf("freed = %d, want 2", freed)
	}
	if got := m.Statistics().ResidentTiles; got != 2 {
		t.Errorf("ResidentTiles = %d, want 2", got)
	}

	// Reclaiming more than the policy tracks frees what it can.
	freed, err = m.ReclaimPages(10)
	if err != nil {
		t.Fatalf("ReclaimPages failed: %v", err)
	}
	if freed != 2 {
		t.Errorf("freed = %d, want 2", freed)
	}
	_ = id
}

func TestReclaimPagesWithoutPolicy(t *testing.T) {
	m, _ := newTestManager(t, WithMaxPhysicalPages(4))
	if _, err := m.ReclaimPages(1); !errors.Is(err, ErrNoEvictionPolicy) {
		t.Errorf("ReclaimPages error = %v, want ErrNoEvictionPolicy", err)
	}
}
