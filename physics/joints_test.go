// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"math"
	"testing"

	"github.com/saptak7777/forgecore/math/lin"
)

func newJointBody(t *testing.T, bodies *BodyPool, pos lin.V3) EntityId {
	t.Helper()
	desc := NewRigidBody()
	desc.Position = pos
	shape := NewSphereShape(0.5)
	desc.SetMassFromShape(shape, 1)
	return bodies.Insert(desc)
}

func TestFixedJointPullsApartBodiesTogether(t *testing.T) {
	bodies := NewBodyPool()
	a := newJointBody(t, bodies, lin.V3{})
	b := newJointBody(t, bodies, lin.V3{X: 1.2}) // 0.2 beyond the joint's rest separation

	joint := NewFixedJoint(bodies, a, b, lin.V3{X: 1}, lin.V3{})
	joint.SolveVelocity(bodies, 1.0/60)

	bv, _ := bodies.Get(b)
	if bv.LinearVelocity().X >= 0 {
		t.Errorf("expected the fixed joint to pull the stretched body back toward its anchor, got vx=%f", bv.LinearVelocity().X)
	}
}

func TestFixedJointRestPoseGivesNoCorrection(t *testing.T) {
	bodies := NewBodyPool()
	a := newJointBody(t, bodies, lin.V3{})
	b := newJointBody(t, bodies, lin.V3{X: 1})

	joint := NewFixedJoint(bodies, a, b, lin.V3{X: 1}, lin.V3{})
	joint.SolveVelocity(bodies, 1.0/60)

	bv, _ := bodies.Get(b)
	if bv.LinearVelocity().Len() > 1e-6 {
		t.Errorf("expected no correction at the joint's rest pose, got v=%+v", *bv.LinearVelocity())
	}
}

func TestRevoluteJointMotorDrivesAngularVelocity(t *testing.T) {
	bodies := NewBodyPool()
	static := NewRigidBody()
	static.Flags |= FlagStatic
	hStatic := bodies.Insert(static)
	arm := newJointBody(t, bodies, lin.V3{X: 1})

	joint := NewRevoluteJoint(hStatic, arm, lin.V3{}, lin.V3{X: -1}, lin.V3{Z: 1}, lin.V3{Z: 1})
	joint.HasMotor = true
	joint.MotorSpeed = 5
	joint.MaxMotorTorque = 1000

	for i := 0; i < 8; i++ {
		joint.SolveVelocity(bodies, 1.0/60)
	}

	armView, _ := bodies.Get(arm)
	if armView.AngularVelocity().Z <= 0 {
		t.Errorf("expected the motor to spin the arm up about +Z, got az=%f", armView.AngularVelocity().Z)
	}
}

func TestRevoluteJointLimitPushesBackInsideRange(t *testing.T) {
	bodies := NewBodyPool()
	static := NewRigidBody()
	static.Flags |= FlagStatic
	hStatic := bodies.Insert(static)
	arm := newJointBody(t, bodies, lin.V3{X: 1})

	joint := NewRevoluteJoint(hStatic, arm, lin.V3{}, lin.V3{X: -1}, lin.V3{Z: 1}, lin.V3{Z: 1})
	joint.HasLimits = true
	joint.LowerAngle = -0.1
	joint.UpperAngle = 0.1
	joint.RefA = lin.V3{X: 1}
	joint.RefB = lin.V3{X: 1}

	// Spin the arm well past the upper limit so the next solve should see
	// the reference vectors already past 0.1 rad and push back.
	armView, _ := bodies.Get(arm)
	armView.SetAngularVelocity(lin.V3{Z: 10})
	joint.RefB = lin.V3{X: math.Cos(0.5), Y: math.Sin(0.5)}

	joint.SolveVelocity(bodies, 1.0/60)
	if armView.AngularVelocity().Z >= 10 {
		t.Errorf("expected the angle limit to resist further rotation past the upper bound, got az=%f", armView.AngularVelocity().Z)
	}
}

func TestDistanceJointClosesGapBeyondRestLength(t *testing.T) {
	bodies := NewBodyPool()
	a := newJointBody(t, bodies, lin.V3{})
	b := newJointBody(t, bodies, lin.V3{X: 3})

	joint := NewDistanceJoint(a, b, lin.V3{}, lin.V3{}, 2)
	joint.SolveVelocity(bodies, 1.0/60)

	bv, _ := bodies.Get(b)
	if bv.LinearVelocity().X >= 0 {
		t.Errorf("expected the distance joint to pull the far body inward, got vx=%f", bv.LinearVelocity().X)
	}
}

func TestDistanceJointAtRestLengthIsQuiet(t *testing.T) {
	bodies := NewBodyPool()
	a := newJointBody(t, bodies, lin.V3{})
	b := newJointBody(t, bodies, lin.V3{X: 2})

	joint := NewDistanceJoint(a, b, lin.V3{}, lin.V3{}, 2)
	joint.SolveVelocity(bodies, 1.0/60)

	bv, _ := bodies.Get(b)
	if math.Abs(bv.LinearVelocity().X) > 1e-9 {
		t.Errorf("expected no correction exactly at rest length, got vx=%f", bv.LinearVelocity().X)
	}
}

func TestSpringJointPullsStretchedBodiesTogether(t *testing.T) {
	bodies := NewBodyPool()
	a := newJointBody(t, bodies, lin.V3{})
	b := newJointBody(t, bodies, lin.V3{X: 3})

	joint := NewSpringJoint(a, b, lin.V3{}, lin.V3{}, 1, 50, 0)
	joint.SolveVelocity(bodies, 1.0/60)

	av, _ := bodies.Get(a)
	bv, _ := bodies.Get(b)
	if av.LinearVelocity().X <= 0 {
		t.Errorf("expected body a to accelerate toward body b, got vx=%f", av.LinearVelocity().X)
	}
	if bv.LinearVelocity().X >= 0 {
		t.Errorf("expected body b to accelerate toward body a, got vx=%f", bv.LinearVelocity().X)
	}
}

func TestPrismaticJointLocksLateralVelocity(t *testing.T) {
	bodies := NewBodyPool()
	static := NewRigidBody()
	static.Flags |= FlagStatic
	hStatic := bodies.Insert(static)
	slider := newJointBody(t, bodies, lin.V3{})

	joint := NewPrismaticJoint(bodies, hStatic, slider, lin.V3{}, lin.V3{}, lin.V3{X: 1}, lin.V3{X: 1})

	sv, _ := bodies.Get(slider)
	sv.SetLinearVelocity(lin.V3{X: 2, Y: 3})

	for i := 0; i < 8; i++ {
		joint.SolveVelocity(bodies, 1.0/60)
	}

	if math.Abs(sv.LinearVelocity().Y) > 0.5 {
		t.Errorf("expected the prismatic joint to damp out lateral velocity, got vy=%f", sv.LinearVelocity().Y)
	}
}

func TestJointBodiesReturnsConfiguredHandles(t *testing.T) {
	bodies := NewBodyPool()
	a := newJointBody(t, bodies, lin.V3{})
	b := newJointBody(t, bodies, lin.V3{X: 1})
	joint := NewDistanceJoint(a, b, lin.V3{}, lin.V3{}, 1)

	gotA, gotB := joint.Bodies()
	if gotA != a || gotB != b {
		t.Errorf("expected Bodies() to return the joint's configured handles")
	}
}
