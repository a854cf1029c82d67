// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"github.com/saptak7777/forgecore/math/lin"
)

// WorldSupport returns shape's farthest point along world-space direction
// dir, under world transform xform. Ported from support.go's support_point,
// generalized from the old collider's sphere/convex-hull switch to the new
// tagged-union Shape.Support.
func WorldSupport(shape *Shape, xform *lin.T, dir lin.V3) lin.V3 {
	localDir := inverseRotate(xform, &dir)
	sp := shape.Support(&localDir)
	world := lin.V3{}
	world.SetS(xform.AppS(sp.X, sp.Y, sp.Z))
	return world
}

// MinkowskiSupport returns the support point of the Minkowski difference
// A-B along dir, the core primitive GJK/EPA iterate on. Ported from
// support.go's support_point_of_minkowski_difference.
func MinkowskiSupport(shapeA *Shape, xformA *lin.T, shapeB *Shape, xformB *lin.T, dir lin.V3) lin.V3 {
	neg := lin.V3{}
	neg.Scale(&dir, -1)
	sa := WorldSupport(shapeA, xformA, dir)
	sb := WorldSupport(shapeB, xformB, neg)
	d := lin.V3{}
	d.Sub(&sa, &sb)
	return d
}

// closestPointsSkewLines finds the closest points between two skew lines in
// 3D, line 1 given by point p1/direction d1, line 2 by p2/d2. Ported from
// clipping.go's collision_distance_between_skew_lines, used by box-box
// edge-edge contact generation.
func closestPointsSkewLines(p1, d1, p2, d2 lin.V3) (l1, l2 lin.V3, ok bool) {
	n1 := d1.Dot(&d2)
	n2 := d2.Dot(&d2)
	m1 := -d1.Dot(&d1)
	m2 := -d2.Dot(&d1)
	diff := lin.V3{}
	diff.Sub(&p1, &p2)
	r1 := d1.Dot(&diff)
	r2 := d2.Dot(&diff)

	det := n1*m2 - n2*m1
	if det == 0 {
		return l1, l2, false
	}
	n := (r1*m2 - r2*m1) / det
	m := (n1*r2 - n2*r1) / det

	scaledD1 := lin.V3{}
	scaledD1.Scale(&d1, m)
	l1.Add(&p1, &scaledD1)

	scaledD2 := lin.V3{}
	scaledD2.Scale(&d2, n)
	l2.Add(&p2, &scaledD2)
	return l1, l2, true
}
