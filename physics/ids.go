// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

// EntityId is a stable handle into one of the body, collider, or joint
// pools. A handle stays valid only as long as the generation recorded at
// the handle's slot matches the generation it was issued with -- removing
// an entry bumps the slot's generation so old handles fail validation
// instead of silently aliasing whatever gets inserted next.
type EntityId struct {
	Index      uint32
	Generation uint32
}

// Nil is the zero-value handle. It never validates against a live pool.
var NilEntityId = EntityId{}

// slot bookkeeping shared by the body, collider, and joint pools. Each
// pool embeds a slots + free list and keeps its per-field data separately
// so that SoA iteration stays simple slice indexing.
type slots struct {
	generations []uint32
	live        []bool
	free        []uint32
}

// alloc reserves a slot, reusing a freed one when available, and returns
// the handle for it. grow is called by the owning pool to extend its
// parallel field slices when a brand new slot (not a reused one) is
// needed.
func (s *slots) alloc(grow func()) EntityId {
	if n := len(s.free); n > 0 {
		idx := s.free[n-1]
		s.free = s.free[:n-1]
		s.live[idx] = true
		return EntityId{Index: idx, Generation: s.generations[idx]}
	}
	idx := uint32(len(s.generations))
	s.generations = append(s.generations, 0)
	s.live = append(s.live, true)
	grow()
	return EntityId{Index: idx, Generation: 0}
}

// free releases a slot, bumping its generation so any outstanding handle
// for it fails the next validity check.
func (s *slots) release(idx uint32) {
	s.generations[idx]++
	s.live[idx] = false
	s.free = append(s.free, idx)
}

// valid reports whether handle h still refers to a live slot.
func (s *slots) valid(h EntityId) bool {
	return int(h.Index) < len(s.generations) &&
		s.live[h.Index] &&
		s.generations[h.Index] == h.Generation
}

// each calls fn with the index of every live slot, in slot order. Used by
// the body/collider/joint pools to implement their iteration contract.
func (s *slots) each(fn func(idx uint32)) {
	for i, alive := range s.live {
		if alive {
			fn(uint32(i))
		}
	}
}
