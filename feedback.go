// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package vtex

import (
	"container/list"
	"fmt"
)

// EvictionPolicy picks which resident tile gives up its physical page
// when the pool runs dry. Policies are notified of accesses through
// Touch and of explicit evictions through Remove.
type EvictionPolicy interface {
	// Touch records an access to a resident tile.
	Touch(coord TileCoord)
	// Remove forgets a tile, typically because it was evicted.
	Remove(coord TileCoord)
	// Victim returns the next tile to evict. ok is false when the
	// policy is tracking nothing.
	Victim() (coord TileCoord, ok bool)
}

// LRUPolicy evicts the least recently touched tile first.
type LRUPolicy struct {
	order *list.List
	index map[TileCoord]*list.Element
}

// NewLRUPolicy returns an empty least-recently-used policy.
func NewLRUPolicy() *LRUPolicy {
	return &LRUPolicy{
		order: list.New(),
		index: make(map[TileCoord]*list.Element),
	}
}

// Touch moves the tile to the most-recently-used position, inserting it
// if unseen.
func (p *LRUPolicy) Touch(coord TileCoord) {
	if el, ok := p.index[coord]; ok {
		p.order.MoveToFront(el)
		return
	}
	p.index[coord] = p.order.PushFront(coord)
}

// Remove forgets the tile.
func (p *LRUPolicy) Remove(coord TileCoord) {
	if el, ok := p.index[coord]; ok {
		p.order.Remove(el)
		delete(p.index, coord)
	}
}

// Victim returns the least recently touched tile.
func (p *LRUPolicy) Victim() (TileCoord, bool) {
	el := p.order.Back()
	if el == nil {
		return TileCoord{}, false
	}
	return el.Value.(TileCoord), true
}

// Len reports how many tiles the policy is tracking.
func (p *LRUPolicy) Len() int { return p.order.Len() }

// feedbackBuffer collects tile requests between resolve passes. It is
// bounded; requests past capacity are dropped and counted.
type feedbackBuffer struct {
	cap     int
	pending []TileCoord
	seen    map[TileCoord]struct{}
	dropped int
}

func newFeedbackBuffer(capacity int) *feedbackBuffer {
	return &feedbackBuffer{
		cap:  capacity,
		seen: make(map[TileCoord]struct{}),
	}
}

func (b *feedbackBuffer) record(coord TileCoord) {
	if _, dup := b.seen[coord]; dup {
		return
	}
	if len(b.pending) >= b.cap {
		b.dropped++
		return
	}
	b.seen[coord] = struct{}{}
	b.pending = append(b.pending, coord)
}

func (b *feedbackBuffer) drain() []TileCoord {
	out := b.pending
	b.pending = nil
	b.seen = make(map[TileCoord]struct{})
	return out
}

// RequestTile records a tile access in the feedback buffer, to be acted
// on by the next ProcessFeedback call. Duplicate requests within one
// cycle collapse; requests beyond the configured buffer size are
// dropped.
func (m *Manager) RequestTile(coord TileCoord) error {
	if !m.initialized {
		return ErrNotInitialized
	}
	if _, err := m.registry.Tile(coord); err != nil {
		return err
	}
	m.feedback.record(coord)
	return nil
}

// ProcessFeedback drains the feedback buffer and makes every requested
// tile resident, evicting policy victims when the pool is exhausted.
// It returns the number of tiles newly made resident. Without an
// eviction policy a dry pool surfaces as ErrOutOfPhysicalMemory.
//
// The indirection table is not refreshed; call BuildIndirectionTable
// after a cycle that made changes.
func (m *Manager) ProcessFeedback() (int, error) {
	if !m.initialized {
		return 0, ErrNotInitialized
	}
	requests := m.feedback.drain()
	loaded := 0
	for _, coord := range requests {
		tile, err := m.registry.Tile(coord)
		if err != nil {
			return loaded, err
		}
		if tile.Resident {
			m.touch(coord)
			continue
		}
		if m.pool.FreeCount() == 0 {
			if err := m.evictVictim(coord); err != nil {
				return loaded, err
			}
		}
		if err := m.MakeResident(coord); err != nil {
			return loaded, err
		}
		loaded++
	}
	if loaded > 0 {
		Logger().Debug("vtex: feedback processed",
			"requested", len(requests), "loaded", loaded)
	}
	return loaded, nil
}

// ReclaimPages evicts up to n policy victims, returning how many pages
// were actually freed. It requires an eviction policy.
func (m *Manager) ReclaimPages(n int) (int, error) {
	if !m.initialized {
		return 0, ErrNotInitialized
	}
	if m.policy == nil {
		return 0, ErrNoEvictionPolicy
	}
	freed := 0
	for freed < n {
		victim, ok := m.policy.Victim()
		if !ok {
			break
		}
		if err := m.Evict(victim); err != nil {
			return freed, err
		}
		freed++
	}
	return freed, nil
}

// evictVictim frees one page for the requesting tile by evicting the
// policy's choice, skipping the requester itself.
func (m *Manager) evictVictim(requester TileCoord) error {
	if m.policy == nil {
		return fmt.Errorf("%w: pool exhausted serving %s",
			ErrOutOfPhysicalMemory, requester.String())
	}
	victim, ok := m.policy.Victim()
	if !ok || victim == requester {
		return fmt.Errorf("%w: no evictable tile for %s",
			ErrOutOfPhysicalMemory, requester.String())
	}
	return m.Evict(victim)
}
