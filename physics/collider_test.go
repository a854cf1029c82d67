// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"testing"

	"github.com/saptak7777/forgecore/math/lin"
)

func TestColliderInsertGet(t *testing.T) {
	bodies := NewBodyPool()
	bh := bodies.Insert(NewRigidBody())

	colliders := NewColliderPool()
	ch := colliders.Insert(NewCollider(bh, NewSphereShape(1)))

	v, ok := colliders.Get(ch)
	if !ok {
		t.Fatal("expected collider handle to be valid")
	}
	if v.Body() != bh {
		t.Error("expected collider to reference the inserted body")
	}
	if v.Shape().Kind != SphereShape {
		t.Error("expected sphere shape")
	}
}

func TestFilterCollides(t *testing.T) {
	a := Filter{Layer: 1, Mask: 0x2}
	b := Filter{Layer: 0x2, Mask: 1}
	if !a.Collides(b) {
		t.Error("expected complementary layer/mask pair to collide")
	}
	c := Filter{Layer: 0x4, Mask: 0x4}
	if a.Collides(c) {
		t.Error("expected disjoint layer/mask pair to not collide")
	}
}

func TestColliderWorldTransform(t *testing.T) {
	colliders := NewColliderPool()
	desc := NewCollider(NilEntityId, NewBoxShape(1, 1, 1))
	desc.Offset.Loc = &lin.V3{X: 1}
	ch := colliders.Insert(desc)
	v, _ := colliders.Get(ch)

	bodyXform := lin.T{Loc: &lin.V3{X: 5}, Rot: lin.NewQI()}
	world := v.WorldTransform(&bodyXform)
	if dumpV3(world.Loc) != "{6.0 0.0 0.0}" {
		t.Errorf("expected composed offset {6.0 0.0 0.0}, got %s", dumpV3(world.Loc))
	}
}

func TestColliderRemoveInvalidatesHandle(t *testing.T) {
	colliders := NewColliderPool()
	ch := colliders.Insert(NewCollider(NilEntityId, NewSphereShape(1)))
	colliders.Remove(ch)
	if _, ok := colliders.Get(ch); ok {
		t.Error("expected stale handle to be invalid after Remove")
	}
}
