// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"testing"

	"github.com/saptak7777/forgecore/math/lin"
)

func TestGravityAppliesToDynamicBody(t *testing.T) {
	bodies := NewBodyPool()
	desc := NewRigidBody()
	desc.InvMass = 1
	h := bodies.Insert(desc)

	reg := NewForceRegistry()
	reg.Add(NewGravity(0, -9.8, 0))
	reg.ApplyAll(bodies, 1.0/60.0)

	v, _ := bodies.Get(h)
	if dumpV3(v.LinearAccel()) != "{0.0 -9.8 0.0}" {
		t.Errorf("expected gravity accel, got %s", dumpV3(v.LinearAccel()))
	}
}

func TestGravitySkipsStaticBody(t *testing.T) {
	bodies := NewBodyPool()
	desc := NewRigidBody()
	desc.Flags |= FlagStatic
	h := bodies.Insert(desc)

	reg := NewForceRegistry()
	reg.Add(NewGravity(0, -9.8, 0))
	reg.ApplyAll(bodies, 1.0/60.0)

	v, _ := bodies.Get(h)
	if dumpV3(v.LinearAccel()) != "{0.0 0.0 0.0}" {
		t.Error("expected static body to receive no acceleration")
	}
}

func TestDragOpposesVelocity(t *testing.T) {
	bodies := NewBodyPool()
	desc := NewRigidBody()
	desc.InvMass = 1
	desc.LinearVelocity = lin.V3{X: 2}
	h := bodies.Insert(desc)

	reg := NewForceRegistry()
	reg.Add(NewDrag(1))
	reg.ApplyAll(bodies, 1.0/60.0)

	v, _ := bodies.Get(h)
	if v.LinearAccel().X >= 0 {
		t.Errorf("expected drag to decelerate along +X, got accel %s", dumpV3(v.LinearAccel()))
	}
}

func TestSpringPullsTowardAnchor(t *testing.T) {
	bodies := NewBodyPool()
	desc := NewRigidBody()
	desc.InvMass = 1
	desc.Position = lin.V3{X: 5}
	h := bodies.Insert(desc)

	reg := NewForceRegistry()
	reg.Add(NewSpring(lin.V3{}, 1, 0, 0))
	reg.ApplyAll(bodies, 1.0/60.0)

	v, _ := bodies.Get(h)
	if v.LinearAccel().X >= 0 {
		t.Errorf("expected spring to pull toward origin (negative X accel), got %s", dumpV3(v.LinearAccel()))
	}
}

func TestForceRegistrySkipsSleepingBodies(t *testing.T) {
	bodies := NewBodyPool()
	desc := NewRigidBody()
	desc.InvMass = 1
	h := bodies.Insert(desc)
	v, _ := bodies.Get(h)
	v.Sleep()

	reg := NewForceRegistry()
	reg.Add(NewGravity(0, -9.8, 0))
	reg.ApplyAll(bodies, 1.0/60.0)

	if dumpV3(v.LinearAccel()) != "{0.0 0.0 0.0}" {
		t.Error("expected sleeping body to receive no acceleration")
	}
}
