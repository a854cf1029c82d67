// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"testing"

	"github.com/saptak7777/forgecore/math/lin"
)

func setupCCDPair(t *testing.T, posA, velA, posB, velB lin.V3) (BodyView, ColliderView, BodyView, ColliderView) {
	t.Helper()
	bodies := NewBodyPool()
	colliders := NewColliderPool()

	descA := NewRigidBody()
	descA.Position = posA
	descA.LinearVelocity = velA
	hA := bodies.Insert(descA)

	descB := NewRigidBody()
	descB.Position = posB
	descB.LinearVelocity = velB
	hB := bodies.Insert(descB)

	shape := NewSphereShape(0.5)
	cA := colliders.Insert(NewCollider(hA, shape))
	cB := colliders.Insert(NewCollider(hB, shape))

	bodyA, _ := bodies.Get(hA)
	bodyB, _ := bodies.Get(hB)
	colliderA, _ := colliders.Get(cA)
	colliderB, _ := colliders.Get(cB)
	return bodyA, colliderA, bodyB, colliderB
}

func TestNeedsTOIFastApproachTrips(t *testing.T) {
	bodyA, colliderA, bodyB, colliderB := setupCCDPair(t,
		lin.V3{}, lin.V3{X: 50},
		lin.V3{X: 10}, lin.V3{},
	)
	xa := colliderA.WorldTransform(bodyWorldTransform(bodyA))
	xb := colliderB.WorldTransform(bodyWorldTransform(bodyB))
	if !needsTOI(colliderA.Shape(), &xa, *bodyA.LinearVelocity(), *bodyA.AngularVelocity(),
		colliderB.Shape(), &xb, *bodyB.LinearVelocity(), *bodyB.AngularVelocity(),
		1.0/60, DefaultCCDSpeedThreshold) {
		t.Error("expected a fast-approaching pair to trip the TOI trigger")
	}
}

func TestNeedsTOISlowApproachDoesNotTrip(t *testing.T) {
	bodyA, colliderA, bodyB, colliderB := setupCCDPair(t,
		lin.V3{}, lin.V3{X: 0.1},
		lin.V3{X: 10}, lin.V3{},
	)
	xa := colliderA.WorldTransform(bodyWorldTransform(bodyA))
	xb := colliderB.WorldTransform(bodyWorldTransform(bodyB))
	if needsTOI(colliderA.Shape(), &xa, *bodyA.LinearVelocity(), *bodyA.AngularVelocity(),
		colliderB.Shape(), &xb, *bodyB.LinearVelocity(), *bodyB.AngularVelocity(),
		1.0/60, DefaultCCDSpeedThreshold) {
		t.Error("expected a slow-moving, distant pair to not trip the TOI trigger")
	}
}

func TestFindTOIDetectsImpactWithinStep(t *testing.T) {
	// A sphere at the origin moving +X at 100 units/s will reach a
	// stationary sphere 1 unit away well within a 1/60s step.
	bodyA, colliderA, bodyB, colliderB := setupCCDPair(t,
		lin.V3{}, lin.V3{X: 100},
		lin.V3{X: 1}, lin.V3{},
	)
	dt := 1.0 / 60
	result := FindTOI(bodyA, colliderA, bodyB, colliderB, dt, DefaultMaxTOIIterations)
	if !result.Hit {
		t.Fatal("expected the bisection search to find an impact")
	}
	if result.Time <= 0 || result.Time > dt {
		t.Errorf("expected impact time within (0, dt], got %f", result.Time)
	}
	if result.Contact.Penetration < 0 {
		t.Errorf("expected non-negative penetration at the bracketed impact, got %f", result.Contact.Penetration)
	}
}

func TestFindTOIMissWhenPathsDiverge(t *testing.T) {
	bodyA, colliderA, bodyB, colliderB := setupCCDPair(t,
		lin.V3{}, lin.V3{X: -100},
		lin.V3{X: 1}, lin.V3{},
	)
	dt := 1.0 / 60
	result := FindTOI(bodyA, colliderA, bodyB, colliderB, dt, DefaultMaxTOIIterations)
	if result.Hit {
		t.Error("expected no impact when the moving body retreats")
	}
}

func TestSpeculativeContactWithinMargin(t *testing.T) {
	bodyA, colliderA, bodyB, colliderB := setupCCDPair(t,
		lin.V3{}, lin.V3{X: 0.5},
		lin.V3{X: 1.02}, lin.V3{},
	)
	dt := 1.0 / 60
	c, ok := SpeculativeContact(bodyA, colliderA, bodyB, colliderB, dt, DefaultSpeculativeMargin)
	if !ok {
		t.Fatal("expected a speculative contact for a pair about to close within margin")
	}
	if c.Normal.AeqZ() {
		t.Error("expected a non-zero speculative contact normal")
	}
}

func TestSpeculativeContactBeyondMarginReportsNothing(t *testing.T) {
	bodyA, colliderA, bodyB, colliderB := setupCCDPair(t,
		lin.V3{}, lin.V3{},
		lin.V3{X: 20}, lin.V3{},
	)
	dt := 1.0 / 60
	if _, ok := SpeculativeContact(bodyA, colliderA, bodyB, colliderB, dt, DefaultSpeculativeMargin); ok {
		t.Error("expected no speculative contact for a pair far outside the margin")
	}
}

func TestResolveCCDFallsBackToSpeculativeBelowThreshold(t *testing.T) {
	bodyA, colliderA, bodyB, colliderB := setupCCDPair(t,
		lin.V3{}, lin.V3{X: 0.5},
		lin.V3{X: 1.02}, lin.V3{},
	)
	dt := 1.0 / 60
	_, ok := ResolveCCD(bodyA, colliderA, bodyB, colliderB, dt, DefaultCCDSpeedThreshold, DefaultSpeculativeMargin, DefaultMaxTOIIterations)
	if !ok {
		t.Error("expected ResolveCCD to report a speculative contact when the TOI trigger doesn't fire")
	}
}

func TestSweptSpeedIncludesAngularPadding(t *testing.T) {
	still := sweptSpeed(lin.V3{}, lin.V3{}, lin.V3{}, 1, 1, 1.0/60)
	spinning := sweptSpeed(lin.V3{}, lin.V3{Y: 10}, lin.V3{}, 1, 1, 1.0/60)
	if spinning <= still {
		t.Error("expected angular velocity to increase the swept-speed bound")
	}
}
