// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"testing"

	"github.com/saptak7777/forgecore/math/lin"
)

func TestBoxAabb(t *testing.T) {
	bx := NewBoxShape(1, 1, 1)
	lo, hi := bx.WorldAABB(lin.NewT().SetI(), 0.01)
	if dumpV3(&lo) != "{-1.0 -1.0 -1.0}" || dumpV3(&hi) != "{1.0 1.0 1.0}" {
		t.Errorf("Invalid bounding box for box: %s %s", dumpV3(&lo), dumpV3(&hi))
	}
}

func TestBoxVolume(t *testing.T) {
	bx := NewBoxShape(1, 1, 1)
	if bx.Volume() != 8 {
		t.Errorf("Expected box volume 8, got %f", bx.Volume())
	}
}

func TestBoxInertia(t *testing.T) {
	bx, want := NewBoxShape(1, 1, 1), "{0.7 0.7 0.7}"
	inertia := bx.Inertia(1)
	if dumpV3(&inertia) != want {
		t.Errorf("Expected box inertia %s, got %s", want, dumpV3(&inertia))
	}
}

func TestSphereAabb(t *testing.T) {
	sp := NewSphereShape(1)
	lo, hi := sp.WorldAABB(lin.NewT().SetI(), 0.01)
	if dumpV3(&lo) != "{-1.0 -1.0 -1.0}" || dumpV3(&hi) != "{1.0 1.0 1.0}" {
		t.Errorf("Invalid bounding box for sphere: %s %s", dumpV3(&lo), dumpV3(&hi))
	}
}

func TestSphereVolume(t *testing.T) {
	sp := NewSphereShape(1.25)
	if !lin.Aeq(sp.Volume(), 8.18123 /* (4/3)*pi*1.25^3 */) {
		t.Errorf("Expected sphere volume ~8.18123, got %2.5f", sp.Volume())
	}
}

func TestSphereInertia(t *testing.T) {
	sp, want := NewSphereShape(1.25), "{0.6 0.6 0.6}"
	inertia := sp.Inertia(1)
	if dumpV3(&inertia) != want {
		t.Errorf("Expected sphere inertia %s, got %s", want, dumpV3(&inertia))
	}
}

func TestSphereSupport(t *testing.T) {
	sp := NewSphereShape(2)
	dir := lin.V3{X: 1}
	got := sp.Support(&dir)
	if dumpV3(&got) != "{2.0 0.0 0.0}" {
		t.Errorf("Expected support point {2.0 0.0 0.0}, got %s", dumpV3(&got))
	}
}

func TestConvexHullBoundingRadius(t *testing.T) {
	hull := NewConvexHullShape([]lin.V3{{X: 1}, {Y: 1}, {Z: 1}, {X: -1}})
	if !lin.Aeq(hull.BoundingRadius(), 1) {
		t.Errorf("Expected bounding radius 1, got %f", hull.BoundingRadius())
	}
}

func TestCompoundSupport(t *testing.T) {
	child := Child{Shape: NewSphereShape(1), Offset: lin.T{Loc: &lin.V3{X: 5}, Rot: lin.NewQI()}}
	compound := NewCompoundShape([]Child{child})
	dir := lin.V3{X: 1}
	got := compound.Support(&dir)
	if dumpV3(&got) != "{6.0 0.0 0.0}" {
		t.Errorf("Expected compound support {6.0 0.0 0.0}, got %s", dumpV3(&got))
	}
}
