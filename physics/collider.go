// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"github.com/saptak7777/forgecore/math/lin"
)

// Filter is the {layer, mask} collision filter pair from SPEC_FULL.md §4.3:
// two colliders interact only when each one's layer bit is present in the
// other's mask.
type Filter struct {
	Layer uint32
	Mask  uint32
}

// DefaultFilter collides with everything on layer 0.
func DefaultFilter() Filter { return Filter{Layer: 1, Mask: 0xFFFFFFFF} }

// Collides reports whether two filters permit a pair to generate contacts.
func (f Filter) Collides(o Filter) bool {
	return f.Layer&o.Mask != 0 && o.Layer&f.Mask != 0
}

// Collider is one collision shape attached to a body, offset from the
// body's origin by a local transform, per SPEC_FULL.md §4.3. Grounded on
// the teacher's collider.go tagged struct (collider_TYPE_SPHERE /
// collider_TYPE_CONVEX_HULL), restructured to reference a *Shape by value
// instead of embedding hull/sphere data directly, and extended with the
// body-owning handle, filter, and trigger flag the spec's collider model
// requires.
type Collider struct {
	Body      EntityId
	Shape     *Shape
	Offset    lin.T
	Filter    Filter
	IsTrigger bool
}

// NewCollider returns a non-trigger collider attached to body with a zero
// local offset and the default filter.
func NewCollider(body EntityId, shape *Shape) Collider {
	return Collider{
		Body:   body,
		Shape:  shape,
		Offset: lin.T{Loc: &lin.V3{}, Rot: lin.NewQI()},
		Filter: DefaultFilter(),
	}
}

// colliderFields is the SoA store backing a ColliderPool, mirroring
// bodyFields' approach in body.go.
type colliderFields struct {
	body      []EntityId
	shape     []*Shape
	offset    []lin.T
	filter    []Filter
	isTrigger []bool
}

func (f *colliderFields) grow() {
	f.body = append(f.body, NilEntityId)
	f.shape = append(f.shape, nil)
	f.offset = append(f.offset, lin.T{Loc: &lin.V3{}, Rot: lin.NewQI()})
	f.filter = append(f.filter, DefaultFilter())
	f.isTrigger = append(f.isTrigger, false)
}

// ColliderPool owns every Collider in a World, per SPEC_FULL.md §4.3.
type ColliderPool struct {
	slots
	f colliderFields
}

// NewColliderPool returns an empty collider pool.
func NewColliderPool() *ColliderPool { return &ColliderPool{} }

// Insert reserves a slot for desc and returns its handle.
func (p *ColliderPool) Insert(desc Collider) EntityId {
	h := p.slots.alloc(p.f.grow)
	idx := h.Index
	if desc.Offset.Loc == nil {
		desc.Offset.Loc = &lin.V3{}
	}
	if desc.Offset.Rot == nil {
		desc.Offset.Rot = lin.NewQI()
	}
	if desc.Filter == (Filter{}) {
		desc.Filter = DefaultFilter()
	}
	p.f.body[idx] = desc.Body
	p.f.shape[idx] = desc.Shape
	p.f.offset[idx] = desc.Offset
	p.f.filter[idx] = desc.Filter
	p.f.isTrigger[idx] = desc.IsTrigger
	return h
}

// Remove invalidates handle h and frees its slot for reuse.
func (p *ColliderPool) Remove(h EntityId) {
	if !p.slots.valid(h) {
		return
	}
	p.slots.release(h.Index)
}

// ColliderView is the per-slot proxy returned by Get/Each, following the
// same pattern as BodyView in body.go.
type ColliderView struct {
	pool *ColliderPool
	idx  uint32
}

// Get returns a view of collider h, or ok=false if h is invalid.
func (p *ColliderPool) Get(h EntityId) (ColliderView, bool) {
	if !p.slots.valid(h) {
		return ColliderView{}, false
	}
	return ColliderView{pool: p, idx: h.Index}, true
}

func (v ColliderView) Body() EntityId    { return v.pool.f.body[v.idx] }
func (v ColliderView) Shape() *Shape     { return v.pool.f.shape[v.idx] }
func (v ColliderView) Offset() *lin.T    { return &v.pool.f.offset[v.idx] }
func (v ColliderView) Filter() *Filter   { return &v.pool.f.filter[v.idx] }
func (v ColliderView) IsTrigger() bool   { return v.pool.f.isTrigger[v.idx] }
func (v ColliderView) SetTrigger(t bool) { v.pool.f.isTrigger[v.idx] = t }

// WorldTransform composes a body's transform with this collider's local
// offset: world = body * offset, per SPEC_FULL.md §4.3.
func (v ColliderView) WorldTransform(bodyXform *lin.T) lin.T {
	off := v.Offset()
	loc := lin.V3{}
	loc.SetS(bodyXform.AppS(off.Loc.X, off.Loc.Y, off.Loc.Z))
	rot := lin.Q{}
	rot.Mult(bodyXform.Rot, off.Rot)
	return lin.T{Loc: &loc, Rot: &rot}
}

// Each calls fn once per live collider, in slot order.
func (p *ColliderPool) Each(fn func(h EntityId, v ColliderView)) {
	p.slots.each(func(idx uint32) {
		fn(EntityId{Index: idx, Generation: p.generations[idx]}, ColliderView{pool: p, idx: idx})
	})
}

// Len returns the number of live colliders.
func (p *ColliderPool) Len() int {
	n := 0
	p.slots.each(func(uint32) { n++ })
	return n
}
