// Copyright © 2014-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"testing"

	"github.com/saptak7777/forgecore/math/lin"
)

func newTestPools() (*BodyPool, *ColliderPool) {
	return NewBodyPool(), NewColliderPool()
}

func TestRaycastHitsSphere(t *testing.T) {
	bodies, colliders := newTestPools()
	desc := NewRigidBody()
	desc.Position = lin.V3{X: 0, Y: 0, Z: 5}
	desc.Flags |= FlagStatic
	bh := bodies.Insert(desc)
	colliders.Insert(NewCollider(bh, NewSphereShape(1)))

	hits := Raycast(bodies, colliders, RaycastQuery{
		Origin:      lin.V3{X: 0, Y: 0, Z: 0},
		Direction:   lin.V3{X: 0, Y: 0, Z: 1},
		MaxDistance: 100,
	})
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if !lin.Aeq(hits[0].Distance, 4) {
		t.Errorf("expected distance 4, got %f", hits[0].Distance)
	}
}

func TestRaycastMissesWhenPointingAway(t *testing.T) {
	bodies, colliders := newTestPools()
	desc := NewRigidBody()
	desc.Position = lin.V3{X: 0, Y: 0, Z: 5}
	desc.Flags |= FlagStatic
	bh := bodies.Insert(desc)
	colliders.Insert(NewCollider(bh, NewSphereShape(1)))

	hits := Raycast(bodies, colliders, RaycastQuery{
		Origin:      lin.V3{X: 0, Y: 0, Z: 0},
		Direction:   lin.V3{X: 0, Y: 0, Z: -1},
		MaxDistance: 100,
	})
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %d", len(hits))
	}
}

func TestRaycastHitsBoxFace(t *testing.T) {
	bodies, colliders := newTestPools()
	desc := NewRigidBody()
	desc.Position = lin.V3{X: 0, Y: 0, Z: 5}
	desc.Flags |= FlagStatic
	bh := bodies.Insert(desc)
	colliders.Insert(NewCollider(bh, NewBoxShape(1, 1, 1)))

	hits := Raycast(bodies, colliders, RaycastQuery{
		Origin:      lin.V3{X: 0, Y: 0, Z: 0},
		Direction:   lin.V3{X: 0, Y: 0, Z: 1},
		MaxDistance: 100,
	})
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if !lin.Aeq(hits[0].Distance, 4) {
		t.Errorf("expected distance 4, got %f", hits[0].Distance)
	}
	if hits[0].Normal.Z >= 0 {
		t.Errorf("expected face normal pointing back at ray origin, got %+v", hits[0].Normal)
	}
}

func TestRaycastSortsHitsByDistance(t *testing.T) {
	bodies, colliders := newTestPools()
	near := NewRigidBody()
	near.Position = lin.V3{Z: 5}
	near.Flags |= FlagStatic
	nh := bodies.Insert(near)
	colliders.Insert(NewCollider(nh, NewSphereShape(1)))

	far := NewRigidBody()
	far.Position = lin.V3{Z: 10}
	far.Flags |= FlagStatic
	fh := bodies.Insert(far)
	colliders.Insert(NewCollider(fh, NewSphereShape(1)))

	hits := Raycast(bodies, colliders, RaycastQuery{
		Origin:      lin.V3{},
		Direction:   lin.V3{Z: 1},
		MaxDistance: 100,
	})
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Distance > hits[1].Distance {
		t.Errorf("expected hits sorted ascending by distance, got %v", hits)
	}
}

func TestRaycastRespectsFilter(t *testing.T) {
	bodies, colliders := newTestPools()
	desc := NewRigidBody()
	desc.Position = lin.V3{Z: 5}
	desc.Flags |= FlagStatic
	bh := bodies.Insert(desc)
	colliders.Insert(NewCollider(bh, NewSphereShape(1)))

	hits := Raycast(bodies, colliders, RaycastQuery{
		Origin:      lin.V3{},
		Direction:   lin.V3{Z: 1},
		MaxDistance: 100,
		Filter:      func(ColliderView) bool { return false },
	})
	if len(hits) != 0 {
		t.Fatalf("expected filter to reject every collider, got %d hits", len(hits))
	}
}

func TestRaycastCapsuleFallsBackToSupportSearch(t *testing.T) {
	bodies, colliders := newTestPools()
	desc := NewRigidBody()
	desc.Position = lin.V3{Z: 5}
	desc.Flags |= FlagStatic
	bh := bodies.Insert(desc)
	colliders.Insert(NewCollider(bh, NewCapsuleShape(0.5, 1)))

	hits := Raycast(bodies, colliders, RaycastQuery{
		Origin:      lin.V3{},
		Direction:   lin.V3{Z: 1},
		MaxDistance: 100,
	})
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit against the capsule, got %d", len(hits))
	}
	if hits[0].Distance <= 0 || hits[0].Distance > 5 {
		t.Errorf("expected a plausible entry distance, got %f", hits[0].Distance)
	}
}
