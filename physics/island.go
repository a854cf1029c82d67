// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

// Island is a connected component of bodies linked by contacts and joints,
// plus the subset of contacts/joint pairs touching it, per SPEC_FULL.md
// §4.7. The solver resolves each island independently, which is what lets
// it run islands in parallel.
type Island struct {
	Bodies   []EntityId
	Contacts []Contact
	Joints   [][2]EntityId
	Awake    bool
}

// unionFind is the island builder's connectivity structure, ported from
// broad.go's body_to_parent_map + uf_find/uf_union free functions,
// generalized from that map's int body-index keys to EntityId.Index.
type unionFind struct {
	parent map[uint32]uint32
}

func newUnionFind() *unionFind {
	return &unionFind{parent: map[uint32]uint32{}}
}

func (u *unionFind) add(idx uint32) {
	if _, ok := u.parent[idx]; !ok {
		u.parent[idx] = idx
	}
}

// find follows parent pointers to the representative of idx's set, ported
// from broad.go's uf_find.
func (u *unionFind) find(idx uint32) uint32 {
	p, ok := u.parent[idx]
	if !ok {
		u.parent[idx] = idx
		return idx
	}
	if p == idx {
		return idx
	}
	root := u.find(p)
	u.parent[idx] = root
	return root
}

// union merges x and y's sets, ported from broad.go's uf_union.
func (u *unionFind) union(x, y uint32) {
	rx, ry := u.find(x), u.find(y)
	if rx != ry {
		u.parent[ry] = rx
	}
}

// BuildIslands partitions live bodies into connected components over the
// given contacts and joint body-pairs, per SPEC_FULL.md §4.7. Static
// bodies are never used as a union bridge between two otherwise-unrelated
// dynamic bodies, but a static body does get added to every island whose
// contact or joint touches it, so the solver can read its (immovable)
// state while resolving that island.
func BuildIslands(bodies *BodyPool, contacts []Contact, jointBodyPairs [][2]EntityId) []Island {
	uf := newUnionFind()
	bodies.Each(func(h EntityId, v BodyView) {
		if !v.IsStatic() {
			uf.add(h.Index)
		}
	})

	union := func(a, b EntityId) {
		va, okA := bodies.Get(a)
		vb, okB := bodies.Get(b)
		if !okA || !okB || va.IsStatic() || vb.IsStatic() {
			return
		}
		uf.union(a.Index, b.Index)
	}
	for _, c := range contacts {
		union(c.BodyA, c.BodyB)
	}
	for _, jp := range jointBodyPairs {
		union(jp[0], jp[1])
	}

	islands := []Island{}
	rootToIsland := map[uint32]int{}

	islandFor := func(root uint32) int {
		if idx, ok := rootToIsland[root]; ok {
			return idx
		}
		idx := len(islands)
		islands = append(islands, Island{})
		rootToIsland[root] = idx
		return idx
	}

	seen := map[uint32]map[int]bool{} // body index -> island indices it's already listed in
	addBody := func(h EntityId, islandIdx int) {
		if seen[h.Index] == nil {
			seen[h.Index] = map[int]bool{}
		}
		if seen[h.Index][islandIdx] {
			return
		}
		seen[h.Index][islandIdx] = true
		islands[islandIdx].Bodies = append(islands[islandIdx].Bodies, h)
	}

	bodies.Each(func(h EntityId, v BodyView) {
		if v.IsStatic() {
			return
		}
		idx := islandFor(uf.find(h.Index))
		addBody(h, idx)
	})

	islandsOf := func(a, b EntityId) []int {
		var idxs []int
		va, okA := bodies.Get(a)
		if okA && !va.IsStatic() {
			idxs = append(idxs, islandFor(uf.find(a.Index)))
		}
		vb, okB := bodies.Get(b)
		if okB && !vb.IsStatic() {
			idx := islandFor(uf.find(b.Index))
			if len(idxs) == 0 || idxs[0] != idx {
				idxs = append(idxs, idx)
			}
		}
		return idxs
	}

	for _, c := range contacts {
		for _, idx := range islandsOf(c.BodyA, c.BodyB) {
			islands[idx].Contacts = append(islands[idx].Contacts, c)
			if va, ok := bodies.Get(c.BodyA); ok && va.IsStatic() {
				addBody(c.BodyA, idx)
			}
			if vb, ok := bodies.Get(c.BodyB); ok && vb.IsStatic() {
				addBody(c.BodyB, idx)
			}
		}
	}
	for _, jp := range jointBodyPairs {
		for _, idx := range islandsOf(jp[0], jp[1]) {
			islands[idx].Joints = append(islands[idx].Joints, jp)
			if va, ok := bodies.Get(jp[0]); ok && va.IsStatic() {
				addBody(jp[0], idx)
			}
			if vb, ok := bodies.Get(jp[1]); ok && vb.IsStatic() {
				addBody(jp[1], idx)
			}
		}
	}

	for i := range islands {
		awake := false
		for _, h := range islands[i].Bodies {
			if v, ok := bodies.Get(h); ok && v.IsAwake() {
				awake = true
				break
			}
		}
		islands[i].Awake = awake
	}
	return islands
}
