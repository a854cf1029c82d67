// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"math"

	"github.com/saptak7777/forgecore/math/lin"
)

// DegenerateAxisEpsilon is the minimum squared length a candidate SAT axis
// must have before it is considered non-degenerate, per SPEC_FULL.md §4.5
// ("degenerate axes pruned").
const DegenerateAxisEpsilon = 1e-8

func rotateAxis(rot *lin.Q, local lin.V3) lin.V3 {
	out := lin.V3{}
	out.MultQ(&local, rot)
	return out
}

// boxAxesAndHalfExtents returns a box shape's three world-space face
// normals and matching half-extents.
func boxAxesAndHalfExtents(b *Shape, xform *lin.T) (axes [3]lin.V3, half [3]float64) {
	axes[0] = rotateAxis(xform.Rot, lin.V3{X: 1})
	axes[1] = rotateAxis(xform.Rot, lin.V3{Y: 1})
	axes[2] = rotateAxis(xform.Rot, lin.V3{Z: 1})
	half = [3]float64{b.Hx, b.Hy, b.Hz}
	return axes, half
}

// boxBoxSAT runs the 3+3+9-axis separating-axis test between two boxes, per
// SPEC_FULL.md §4.5. It reports the axis of minimum positive overlap
// (pointing from a toward b) as normal/depth, or ok=false on separation.
func boxBoxSAT(a *Shape, xa *lin.T, b *Shape, xb *lin.T) (normal lin.V3, depth float64, ok bool) {
	axesA, halfA := boxAxesAndHalfExtents(a, xa)
	axesB, halfB := boxAxesAndHalfExtents(b, xb)

	centerDiff := lin.V3{}
	centerDiff.Sub(xb.Loc, xa.Loc)

	candidates := make([]lin.V3, 0, 15)
	candidates = append(candidates, axesA[:]...)
	candidates = append(candidates, axesB[:]...)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			cross := lin.V3{}
			cross.Cross(&axesA[i], &axesB[j])
			if cross.Dot(&cross) < DegenerateAxisEpsilon {
				continue
			}
			cross.Unit()
			candidates = append(candidates, cross)
		}
	}

	minOverlap := math.MaxFloat64
	var bestAxis lin.V3
	for _, axis := range candidates {
		ra := halfA[0]*math.Abs(axesA[0].Dot(&axis)) + halfA[1]*math.Abs(axesA[1].Dot(&axis)) + halfA[2]*math.Abs(axesA[2].Dot(&axis))
		rb := halfB[0]*math.Abs(axesB[0].Dot(&axis)) + halfB[1]*math.Abs(axesB[1].Dot(&axis)) + halfB[2]*math.Abs(axesB[2].Dot(&axis))
		dist := math.Abs(centerDiff.Dot(&axis))
		overlap := ra + rb - dist
		if overlap < 0 {
			return lin.V3{}, 0, false
		}
		if overlap < minOverlap {
			minOverlap, bestAxis = overlap, axis
		}
	}

	if centerDiff.Dot(&bestAxis) < 0 {
		bestAxis.Neg(&bestAxis)
	}
	return bestAxis, minOverlap, true
}

// boxBoxContact runs SAT and, on overlap, reports a single representative
// contact: the midpoint of the deepest feature pair (the witness points
// each box's Support function returns along the separating axis), exactly
// the heuristic SPEC_FULL.md §4.5 describes.
func boxBoxContact(a *Shape, xa *lin.T, b *Shape, xb *lin.T) (Contact, bool) {
	normal, depth, ok := boxBoxSAT(a, xa, b, xb)
	if !ok {
		return Contact{}, false
	}
	negNormal := lin.V3{}
	negNormal.Neg(&normal)
	pa := WorldSupport(a, xa, normal)
	pb := WorldSupport(b, xb, negNormal)
	mid := lin.V3{}
	mid.Add(&pa, &pb)
	mid.Scale(&mid, 0.5)

	return Contact{
		PointA:      mid,
		PointB:      mid,
		Normal:      normal,
		Penetration: depth,
		FeatureID:   0,
	}, true
}

// boxBoxEdgeContact handles the case where boxBoxSAT's separating axis came
// from a cross(edgeA, edgeB) term rather than either box's face normal: it
// recovers which edge pair produced that axis, then reports the closest
// points between the two (infinite) edge lines via closestPointsSkewLines
// (support.go), ported from clipping.go's edge-edge contact path.
func boxBoxEdgeContact(a *Shape, xa *lin.T, b *Shape, xb *lin.T, normal lin.V3, depth float64) (Contact, bool) {
	axesA, halfA := boxAxesAndHalfExtents(a, xa)
	axesB, halfB := boxAxesAndHalfExtents(b, xb)

	bestDot := -1.0
	edgeA, edgeB := -1, -1
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			cross := lin.V3{}
			cross.Cross(&axesA[i], &axesB[j])
			if cross.Dot(&cross) < DegenerateAxisEpsilon {
				continue
			}
			cross.Unit()
			if d := math.Abs(cross.Dot(&normal)); d > bestDot {
				bestDot, edgeA, edgeB = d, i, j
			}
		}
	}
	if edgeA == -1 || bestDot < 0.999 {
		return Contact{}, false
	}

	centerDiff := lin.V3{}
	centerDiff.Sub(xb.Loc, xa.Loc)
	negCenterDiff := lin.V3{}
	negCenterDiff.Neg(&centerDiff)

	// edgePoint walks the box's center out along its two non-edge axes,
	// each toward the other box, landing on the edge nearest the other box.
	edgePoint := func(xform *lin.T, axes [3]lin.V3, half [3]float64, axis int, toward *lin.V3) lin.V3 {
		p := *xform.Loc
		for k := 0; k < 3; k++ {
			if k == axis {
				continue
			}
			scaled := lin.V3{}
			scaled.Scale(&axes[k], signOf(axes[k].Dot(toward))*half[k])
			p.Add(&p, &scaled)
		}
		return p
	}

	p1 := edgePoint(xa, axesA, halfA, edgeA, &centerDiff)
	p2 := edgePoint(xb, axesB, halfB, edgeB, &negCenterDiff)

	l1, l2, ok := closestPointsSkewLines(p1, axesA[edgeA], p2, axesB[edgeB])
	if !ok {
		return Contact{}, false
	}
	return Contact{PointA: l1, PointB: l2, Normal: normal, Penetration: depth}, true
}

// boxCorners returns the 4 world-space corners of a box's face along local
// axis index faceAxis (0=X,1=Y,2=Z), on the side matching sign.
func boxCorners(b *Shape, xform *lin.T, axes [3]lin.V3, half [3]float64, faceAxis int, sign float64) []lin.V3 {
	u, v := (faceAxis+1)%3, (faceAxis+2)%3
	center := lin.V3{}
	scaledFace := lin.V3{}
	scaledFace.Scale(&axes[faceAxis], sign*half[faceAxis])
	center.Add(xform.Loc, &scaledFace)

	scaledU := lin.V3{}
	scaledU.Scale(&axes[u], half[u])
	scaledV := lin.V3{}
	scaledV.Scale(&axes[v], half[v])

	corners := make([]lin.V3, 4)
	signsU := [4]float64{1, 1, -1, -1}
	signsV := [4]float64{1, -1, -1, 1}
	for i := 0; i < 4; i++ {
		p := center
		du := lin.V3{}
		du.Scale(&scaledU, signsU[i])
		dv := lin.V3{}
		dv.Scale(&scaledV, signsV[i])
		p.Add(&p, &du)
		p.Add(&p, &dv)
		corners[i] = p
	}
	return corners
}

// boxBoxManifold runs SAT and, for a face contact, clips the incident
// box's face against the reference box's four side planes (Sutherland-
// Hodgman), producing up to 4 contact points instead of boxBoxContact's
// single midpoint -- better behaved for resting/stacking contacts. Edge
// contacts (no face aligns with the separating axis) resolve via
// boxBoxEdgeContact's closest-points-between-edges instead, since a box
// edge has no face to clip against.
func boxBoxManifold(a *Shape, xa *lin.T, b *Shape, xb *lin.T) []Contact {
	normal, depth, ok := boxBoxSAT(a, xa, b, xb)
	if !ok {
		return nil
	}

	axesA, halfA := boxAxesAndHalfExtents(a, xa)
	axesB, halfB := boxAxesAndHalfExtents(b, xb)

	refFace, refSign, refIsA := -1, 1.0, true
	bestAlign := 0.0
	for i := 0; i < 3; i++ {
		if d := axesA[i].Dot(&normal); math.Abs(d) > bestAlign {
			bestAlign, refFace, refSign, refIsA = math.Abs(d), i, signOf(d), true
		}
		if d := axesB[i].Dot(&normal); math.Abs(d) > bestAlign {
			bestAlign, refFace, refSign, refIsA = math.Abs(d), i, signOf(d), false
		}
	}
	if refFace == -1 || bestAlign < 0.999 {
		if c, ok := boxBoxEdgeContact(a, xa, b, xb, normal, depth); ok {
			return []Contact{c}
		}
		if c, ok := boxBoxContact(a, xa, b, xb); ok {
			return []Contact{c}
		}
		return nil
	}

	var incShape *Shape
	var refXform, incXform *lin.T
	var refAxes, incAxes [3]lin.V3
	var refHalf, incHalf [3]float64
	if refIsA {
		refXform, refAxes, refHalf = xa, axesA, halfA
		incShape, incXform, incAxes, incHalf = b, xb, axesB, halfB
	} else {
		refXform, refAxes, refHalf = xb, axesB, halfB
		incShape, incXform, incAxes, incHalf = a, xa, axesA, halfA
	}

	// Incident face: whichever of the incident box's ±axes is most
	// anti-parallel to the reference normal.
	incFace, incSign := 0, 1.0
	worst := math.MaxFloat64
	for i := 0; i < 3; i++ {
		if d := incAxes[i].Dot(&normal); d < worst {
			worst, incFace, incSign = d, i, 1
		}
		if d := -incAxes[i].Dot(&normal); d < worst {
			worst, incFace, incSign = d, i, -1
		}
	}
	incCorners := boxCorners(incShape, incXform, incAxes, incHalf, incFace, incSign)

	u, v := (refFace+1)%3, (refFace+2)%3
	sidePlanes := []clipPlane{
		{normal: scaledAxis(refAxes[u], 1), point: pointAt(refXform, refAxes[u], refHalf[u])},
		{normal: scaledAxis(refAxes[u], -1), point: pointAt(refXform, refAxes[u], -refHalf[u])},
		{normal: scaledAxis(refAxes[v], 1), point: pointAt(refXform, refAxes[v], refHalf[v])},
		{normal: scaledAxis(refAxes[v], -1), point: pointAt(refXform, refAxes[v], -refHalf[v])},
	}
	clipped := sutherlandHodgman(incCorners, sidePlanes, false)

	refNormal := scaledAxis(refAxes[refFace], refSign)
	refPlane := clipPlane{normal: refNormal, point: pointAt(refXform, refAxes[refFace], refSign*refHalf[refFace])}

	contacts := make([]Contact, 0, len(clipped))
	for _, p := range clipped {
		closest := closestPointOnPlane(p, &refPlane)
		diff := lin.V3{}
		diff.Sub(&p, &closest)
		sep := diff.Dot(&refNormal)
		if sep > 0 {
			continue
		}
		var c Contact
		c.Normal = normal
		c.Penetration = -sep
		if refIsA {
			c.PointA, c.PointB = closest, p
		} else {
			c.PointA, c.PointB = p, closest
		}
		contacts = append(contacts, c)
	}
	if len(contacts) == 0 {
		if c, ok := boxBoxContact(a, xa, b, xb); ok {
			return []Contact{c}
		}
		return nil
	}
	return contacts
}

func scaledAxis(axis lin.V3, s float64) lin.V3 {
	out := lin.V3{}
	out.Scale(&axis, s)
	return out
}

func pointAt(xform *lin.T, axis lin.V3, dist float64) lin.V3 {
	out := lin.V3{}
	scaled := scaledAxis(axis, dist)
	out.Add(xform.Loc, &scaled)
	return out
}

// genericContact handles any non-box-box convex pair via GJK/EPA, per
// SPEC_FULL.md §4.5. When EPA fails to converge it falls back to the
// documented approximation: the center-to-center direction as the normal
// with the last simplex vertex's depth.
func genericContact(a *Shape, xa *lin.T, b *Shape, xb *lin.T) (Contact, bool) {
	var simplex gjkSimplex
	if !gjkCollides(a, xa, b, xb, &simplex) {
		return Contact{}, false
	}

	normal, depth, ok := epa(a, xa, b, xb, &simplex)
	if !ok {
		normal.Sub(xb.Loc, xa.Loc)
		if normal.AeqZ() {
			normal = lin.V3{X: 1}
		}
		normal.Unit()
		depth = simplex.a.Len()
	}

	negNormal := lin.V3{}
	negNormal.Neg(&normal)
	pa := WorldSupport(a, xa, normal)
	pb := WorldSupport(b, xb, negNormal)

	return Contact{PointA: pa, PointB: pb, Normal: normal, Penetration: depth}, true
}

// meshContact iterates the triangles of a TriangleMeshShape whose local
// AABB (after the collider's world transform) overlaps other's world AABB,
// treating each as a degenerate 3-vertex convex hull, and keeps the
// deepest resulting contact. Per SPEC_FULL.md §4.5's mesh-pair dispatch.
func meshContact(mesh *Shape, meshXform *lin.T, other *Shape, otherXform *lin.T, meshIsA bool) (Contact, bool) {
	otherLo, otherHi := other.WorldAABB(otherXform, 0)

	var best Contact
	found := false
	for _, tri := range mesh.Triangles {
		triShape := NewConvexHullShape([]lin.V3{mesh.Vertices[tri.A], mesh.Vertices[tri.B], mesh.Vertices[tri.C]})
		lo, hi := triShape.WorldAABB(meshXform, 0)
		if hi.X < otherLo.X || lo.X > otherHi.X ||
			hi.Y < otherLo.Y || lo.Y > otherHi.Y ||
			hi.Z < otherLo.Z || lo.Z > otherHi.Z {
			continue
		}

		var c Contact
		var ok bool
		if meshIsA {
			c, ok = genericContact(triShape, meshXform, other, otherXform)
		} else {
			c, ok = genericContact(other, otherXform, triShape, meshXform)
		}
		if ok && (!found || c.Penetration > best.Penetration) {
			best, found = c, true
		}
	}
	return best, found
}

// Dispatch runs the narrow phase between two shapes at their world
// transforms, selecting the algorithm per SPEC_FULL.md §4.5: box-box SAT,
// GJK/EPA for any other convex pair, mesh triangle iteration, or compound
// recursion into children (on whichever side is a Compound).
func Dispatch(a *Shape, xa *lin.T, b *Shape, xb *lin.T) (Contact, bool) {
	switch {
	case a.Kind == CompoundShape:
		return dispatchCompound(a, xa, b, xb, true)
	case b.Kind == CompoundShape:
		return dispatchCompound(b, xb, a, xa, false)
	case a.Kind == TriangleMeshShape:
		return meshContact(a, xa, b, xb, true)
	case b.Kind == TriangleMeshShape:
		return meshContact(b, xb, a, xa, false)
	case a.Kind == BoxShape && b.Kind == BoxShape:
		return deepestOf(boxBoxManifold(a, xa, b, xb))
	default:
		return genericContact(a, xa, b, xb)
	}
}

// DispatchManifold is Dispatch's multi-point counterpart: for a box-box
// face contact it returns the full clipped manifold (up to 4 points)
// instead of collapsing to one, so the solver can stabilize resting
// stacks rather than pivoting around a single midpoint. Every other
// shape pair still reports at most one contact, per SPEC_FULL.md §4.5's
// "single Contact per pair" baseline.
func DispatchManifold(a *Shape, xa *lin.T, b *Shape, xb *lin.T) []Contact {
	if a.Kind == BoxShape && b.Kind == BoxShape {
		return boxBoxManifold(a, xa, b, xb)
	}
	if c, ok := Dispatch(a, xa, b, xb); ok {
		return []Contact{c}
	}
	return nil
}

// deepestOf reduces a manifold to its single deepest-penetration contact,
// for callers (Dispatch, CCD) that only need one representative point.
func deepestOf(contacts []Contact) (Contact, bool) {
	if len(contacts) == 0 {
		return Contact{}, false
	}
	best := contacts[0]
	for _, c := range contacts[1:] {
		if c.Penetration > best.Penetration {
			best = c
		}
	}
	return best, true
}

func dispatchCompound(compound *Shape, compoundXform *lin.T, other *Shape, otherXform *lin.T, compoundIsA bool) (Contact, bool) {
	var best Contact
	found := false
	for _, child := range compound.Children {
		childXform := composeT(compoundXform, &child.Offset)
		var c Contact
		var ok bool
		if compoundIsA {
			c, ok = Dispatch(child.Shape, &childXform, other, otherXform)
		} else {
			c, ok = Dispatch(other, otherXform, child.Shape, &childXform)
		}
		if ok && (!found || c.Penetration > best.Penetration) {
			best, found = c, true
		}
	}
	return best, found
}

// composeT composes parent*child into a single world transform.
func composeT(parent *lin.T, child *lin.T) lin.T {
	loc := lin.V3{}
	loc.SetS(parent.AppS(child.Loc.X, child.Loc.Y, child.Loc.Z))
	rot := lin.Q{}
	rot.Mult(parent.Rot, child.Rot)
	return lin.T{Loc: &loc, Rot: &rot}
}
