// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"testing"

	"github.com/saptak7777/forgecore/math/lin"
)

func setupPair(t *testing.T, posA, posB lin.V3, filterA, filterB Filter) (*BodyPool, *ColliderPool, EntityId, EntityId) {
	t.Helper()
	bodies := NewBodyPool()
	colliders := NewColliderPool()

	da := NewRigidBody()
	da.Position = posA
	ba := bodies.Insert(da)
	ca := NewCollider(ba, NewSphereShape(1))
	ca.Filter = filterA
	cha := colliders.Insert(ca)

	db := NewRigidBody()
	db.Position = posB
	bb := bodies.Insert(db)
	cb := NewCollider(bb, NewSphereShape(1))
	cb.Filter = filterB
	chb := colliders.Insert(cb)

	return bodies, colliders, cha, chb
}

func TestBroadphaseFindsOverlappingPair(t *testing.T) {
	bodies, colliders, cha, chb := setupPair(t, lin.V3{}, lin.V3{X: 1.5}, DefaultFilter(), DefaultFilter())
	bp := NewBroadphase(5)
	pairs := bp.Rebuild(bodies, colliders, 0.01)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 candidate pair, got %d", len(pairs))
	}
	got := pairs[0]
	if !(got.A == cha && got.B == chb) && !(got.A == chb && got.B == cha) {
		t.Error("expected candidate pair to reference the two inserted colliders")
	}
}

func TestBroadphaseSkipsDistantPair(t *testing.T) {
	bodies, colliders, _, _ := setupPair(t, lin.V3{}, lin.V3{X: 500}, DefaultFilter(), DefaultFilter())
	bp := NewBroadphase(5)
	pairs := bp.Rebuild(bodies, colliders, 0.01)
	if len(pairs) != 0 {
		t.Errorf("expected no candidate pairs for distant colliders, got %d", len(pairs))
	}
}

func TestBroadphaseFilterRejectsPair(t *testing.T) {
	bodies, colliders, _, _ := setupPair(t, lin.V3{}, lin.V3{X: 1.5}, Filter{Layer: 1, Mask: 1}, Filter{Layer: 2, Mask: 2})
	bp := NewBroadphase(5)
	pairs := bp.Rebuild(bodies, colliders, 0.01)
	if len(pairs) != 0 {
		t.Errorf("expected filter to reject the pair, got %d", len(pairs))
	}
}

func TestBroadphaseDedupesAcrossCells(t *testing.T) {
	bodies, colliders, _, _ := setupPair(t, lin.V3{X: -2}, lin.V3{X: 2}, DefaultFilter(), DefaultFilter())
	bp := NewBroadphase(1) // small cells force the pair to share several cells
	pairs := bp.Rebuild(bodies, colliders, 3)
	if len(pairs) != 1 {
		t.Errorf("expected exactly 1 deduplicated pair, got %d", len(pairs))
	}
}
