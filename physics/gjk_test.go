// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"testing"

	"github.com/saptak7777/forgecore/math/lin"
)

func identityT(pos lin.V3) *lin.T {
	p := pos
	return &lin.T{Loc: &p, Rot: lin.NewQI()}
}

func TestGjkOverlappingSpheres(t *testing.T) {
	a, b := NewSphereShape(1), NewSphereShape(1)
	xa, xb := identityT(lin.V3{}), identityT(lin.V3{X: 1.5})
	if !gjkCollides(a, xa, b, xb, nil) {
		t.Error("expected overlapping spheres to collide")
	}
}

func TestGjkSeparatedSpheres(t *testing.T) {
	a, b := NewSphereShape(1), NewSphereShape(1)
	xa, xb := identityT(lin.V3{}), identityT(lin.V3{X: 5})
	if gjkCollides(a, xa, b, xb, nil) {
		t.Error("expected distant spheres to not collide")
	}
}

func TestGjkOverlappingBoxes(t *testing.T) {
	a, b := NewBoxShape(1, 1, 1), NewBoxShape(1, 1, 1)
	xa, xb := identityT(lin.V3{}), identityT(lin.V3{X: 1.5})
	if !gjkCollides(a, xa, b, xb, nil) {
		t.Error("expected overlapping boxes to collide")
	}
}

func TestEpaRecoversSphereSpherePenetration(t *testing.T) {
	a, b := NewSphereShape(1), NewSphereShape(1)
	xa, xb := identityT(lin.V3{}), identityT(lin.V3{X: 1.5})
	var simplex gjkSimplex
	if !gjkCollides(a, xa, b, xb, &simplex) {
		t.Fatal("expected spheres to collide")
	}
	normal, depth, ok := epa(a, xa, b, xb, &simplex)
	if !ok {
		t.Fatal("expected EPA to converge")
	}
	if !lin.Aeq(depth, 0.5) {
		t.Errorf("expected penetration depth ~0.5, got %f", depth)
	}
	if normal.Len() < 0.99 || normal.Len() > 1.01 {
		t.Errorf("expected unit normal, got length %f", normal.Len())
	}
}
