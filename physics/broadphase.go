// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"math"
	"sort"

	"github.com/saptak7777/forgecore/math/lin"
)

// DefaultCellSize is the broad phase's default uniform grid cell size,
// order-of-magnitude of the largest expected collider, per SPEC_FULL.md
// §4.4.
const DefaultCellSize = 5.0

// cell is a hashmap key for the uniform spatial hash, one entry per
// overlapped (i32, i32, i32) grid cell.
type cell struct {
	X, Y, Z int32
}

// ColliderPair is an ordered, deduplicated candidate pair of colliders that
// may be touching, emitted by Broadphase.Rebuild for the narrow phase to
// test.
type ColliderPair struct {
	A, B EntityId
}

// Broadphase is the uniform spatial hash from SPEC_FULL.md §4.4, replacing
// broad.go's O(n²) all-pairs scan (an explicit REDESIGN FLAG) while
// keeping broad.go's broad_Collision_Pair/dedup idiom for candidate-pair
// bookkeeping.
type Broadphase struct {
	CellSize float64
	cells    map[cell][]EntityId
}

// NewBroadphase returns a broad phase with the given cell size. A
// non-positive size falls back to DefaultCellSize.
func NewBroadphase(cellSize float64) *Broadphase {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Broadphase{CellSize: cellSize, cells: map[cell][]EntityId{}}
}

func (bp *Broadphase) cellOf(p lin.V3) cell {
	return cell{
		X: int32(math.Floor(p.X / bp.CellSize)),
		Y: int32(math.Floor(p.Y / bp.CellSize)),
		Z: int32(math.Floor(p.Z / bp.CellSize)),
	}
}

// Rebuild clears and repopulates the hash from every live collider's world
// AABB, then returns the deduplicated, filter-accepted candidate pairs.
// margin pads each collider's AABB (speculative-contact margin, shared
// with CCD).
func (bp *Broadphase) Rebuild(bodies *BodyPool, colliders *ColliderPool, margin float64) []ColliderPair {
	for k := range bp.cells {
		delete(bp.cells, k)
	}

	colliders.Each(func(h EntityId, cv ColliderView) {
		bodyView, ok := bodies.Get(cv.Body())
		if !ok {
			return
		}
		bodyXform := bodyView.Transform()
		worldXform := cv.WorldTransform(&bodyXform)
		lo, hi := cv.Shape().WorldAABB(&worldXform, margin)

		loCell, hiCell := bp.cellOf(lo), bp.cellOf(hi)
		for x := loCell.X; x <= hiCell.X; x++ {
			for y := loCell.Y; y <= hiCell.Y; y++ {
				for z := loCell.Z; z <= hiCell.Z; z++ {
					k := cell{X: x, Y: y, Z: z}
					bp.cells[k] = append(bp.cells[k], h)
				}
			}
		}
	})

	type pairKey struct{ a, b uint32 }
	seen := map[pairKey]bool{}
	pairs := []ColliderPair{}

	for _, handles := range bp.cells {
		for i := 0; i < len(handles); i++ {
			for j := i + 1; j < len(handles); j++ {
				a, b := handles[i], handles[j]
				if a.Index == b.Index {
					continue
				}
				lo, hi := a.Index, b.Index
				if lo > hi {
					lo, hi = hi, lo
					a, b = b, a
				}
				key := pairKey{lo, hi}
				if seen[key] {
					continue
				}
				seen[key] = true

				if !bp.accept(colliders, a, b) {
					continue
				}
				pairs = append(pairs, ColliderPair{A: a, B: b})
			}
		}
	}

	// bp.cells is a Go map, so the order handles are visited above is
	// nondeterministic across runs; sort the deduplicated pairs by index
	// before returning so candidate-pair emission order (and everything
	// downstream that consumes it in order -- islands, the solver) is
	// stable from one run to the next, per SPEC_FULL.md's determinism
	// goal.
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A.Index != pairs[j].A.Index {
			return pairs[i].A.Index < pairs[j].A.Index
		}
		return pairs[i].B.Index < pairs[j].B.Index
	})
	return pairs
}

// accept rejects self-pairs (same owning body) and pairs whose collision
// filters do not intersect, per SPEC_FULL.md §4.4.
func (bp *Broadphase) accept(colliders *ColliderPool, a, b EntityId) bool {
	av, ok := colliders.Get(a)
	if !ok {
		return false
	}
	bv, ok := colliders.Get(b)
	if !ok {
		return false
	}
	if av.Body() == bv.Body() {
		return false
	}
	if !av.Filter().Collides(*bv.Filter()) {
		return false
	}
	return true
}
