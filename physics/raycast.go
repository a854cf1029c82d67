// Copyright © 2014-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"math"
	"sort"

	"github.com/saptak7777/forgecore/math/lin"
)

// RaycastQuery is one ray test against the world's colliders, per
// SPEC_FULL.md §6: `{origin, direction (unit), max_distance}`.
type RaycastQuery struct {
	Origin      lin.V3
	Direction   lin.V3 // expected unit length.
	MaxDistance float64

	// Filter, when non-nil, rejects a collider from the results before any
	// geometric test runs -- SPEC_FULL.md §6's "optional filter predicate".
	Filter func(ColliderView) bool
}

// RaycastHit is one ray/collider intersection, per SPEC_FULL.md §6.
type RaycastHit struct {
	Body     EntityId
	Collider EntityId
	Point    lin.V3
	Normal   lin.V3
	Distance float64
}

// Raycast runs q against every live collider, returning hits sorted
// ascending by distance, per SPEC_FULL.md §6. Sphere and box shapes use an
// analytic solve (ray-sphere, ray-slab AABB); every other shape kind falls
// back to a swept support-point search, grounded on caster.go's
// castRayPlane/castRaySphere idiom (ray origin + unit direction, nearest
// contact point) generalized from the teacher's two hardcoded shape cases
// to the full Shape union.
func Raycast(bodies *BodyPool, colliders *ColliderPool, q RaycastQuery) []RaycastHit {
	dir := q.Direction
	if dir.AeqZ() {
		return nil
	}
	dir.Unit()
	maxDist := q.MaxDistance
	if maxDist <= 0 {
		maxDist = math.MaxFloat64
	}

	var hits []RaycastHit
	colliders.Each(func(h EntityId, cv ColliderView) {
		if q.Filter != nil && !q.Filter(cv) {
			return
		}
		bv, ok := bodies.Get(cv.Body())
		if !ok {
			return
		}
		xform := cv.WorldTransform(bodyWorldTransform(bv))
		shape := cv.Shape()

		var (
			dist   float64
			normal lin.V3
			hit    bool
		)
		switch shape.Kind {
		case SphereShape:
			dist, normal, hit = rayVsSphere(q.Origin, dir, *xform.Loc, shape.Radius)
		case BoxShape:
			dist, normal, hit = rayVsBox(q.Origin, dir, &xform, shape.Hx, shape.Hy, shape.Hz)
		default:
			dist, normal, hit = rayVsSupport(q.Origin, dir, shape, &xform, maxDist)
		}
		if !hit || dist < 0 || dist > maxDist {
			return
		}
		point := lin.V3{}
		scaled := lin.V3{}
		scaled.Scale(&dir, dist)
		point.Add(&q.Origin, &scaled)
		hits = append(hits, RaycastHit{
			Body: cv.Body(), Collider: h,
			Point: point, Normal: normal, Distance: dist,
		})
	})

	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits
}

// rayVsSphere solves the ray-sphere quadratic analytically, the same
// derivation as caster.go's castRaySphere, generalized from a body-pair
// call to a plain center/radius test.
func rayVsSphere(origin, dir, center lin.V3, radius float64) (dist float64, normal lin.V3, hit bool) {
	toCenter := lin.V3{}
	toCenter.Sub(&center, &origin)
	proj := dir.Dot(&toCenter)
	if proj < 0 {
		return 0, lin.V3{}, false
	}
	perpSqr := toCenter.Dot(&toCenter) - proj*proj
	radiusSqr := radius * radius
	if perpSqr > radiusSqr {
		return 0, lin.V3{}, false
	}
	dist = proj - math.Sqrt(radiusSqr-perpSqr)
	if dist < 0 {
		return 0, lin.V3{}, false
	}
	point := lin.V3{}
	scaled := lin.V3{}
	scaled.Scale(&dir, dist)
	point.Add(&origin, &scaled)
	normal.Sub(&point, &center)
	normal.Scale(&normal, 1/radius)
	return dist, normal, true
}

// rayVsBox is the analytic ray-slab test for an oriented box: transform the
// ray into the box's local frame (undoing rotation and translation), then
// run the classic axis-aligned slab intersection.
func rayVsBox(origin, dir lin.V3, xform *lin.T, hx, hy, hz float64) (dist float64, normal lin.V3, hit bool) {
	localOrigin := inverseTranslateRotate(xform, origin)
	localDir := inverseRotate(xform, &dir)

	half := [3]float64{hx, hy, hz}
	o := [3]float64{localOrigin.X, localOrigin.Y, localOrigin.Z}
	d := [3]float64{localDir.X, localDir.Y, localDir.Z}

	tMin, tMax := -math.MaxFloat64, math.MaxFloat64
	axis := 0
	sign := 1.0
	for i := 0; i < 3; i++ {
		if math.Abs(d[i]) < lin.Epsilon {
			if o[i] < -half[i] || o[i] > half[i] {
				return 0, lin.V3{}, false
			}
			continue
		}
		inv := 1 / d[i]
		t1, t2 := (-half[i]-o[i])*inv, (half[i]-o[i])*inv
		s := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			s = 1
		}
		if t1 > tMin {
			tMin, axis, sign = t1, i, s
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return 0, lin.V3{}, false
		}
	}
	if tMax < 0 {
		return 0, lin.V3{}, false
	}
	dist = tMin
	if dist < 0 {
		dist = tMax
	}
	localNormal := lin.V3{}
	switch axis {
	case 0:
		localNormal.X = sign
	case 1:
		localNormal.Y = sign
	case 2:
		localNormal.Z = sign
	}
	normal = rotateAxis(xform.Rot, localNormal)
	return dist, normal, true
}

// rayVsSupport is the fallback for capsule/cylinder/hull/mesh/compound
// shapes, per SPEC_FULL.md §6's "may fall back to swept support-point
// iteration": a fixed-step marching search along the ray, refined by
// bisection once the samples change between inside and outside. A sample
// counts as inside when its distance from the shape's center is at most the
// distance of the shape's support point in that direction. This is exact for
// spheres; for other shapes the support point can lie beyond the surface in
// that direction, so the reported hit can lie outside the true surface.
func rayVsSupport(origin, dir lin.V3, shape *Shape, xform *lin.T, maxDist float64) (dist float64, normal lin.V3, hit bool) {
	const steps = 64
	center := *xform.Loc
	step := maxDist / steps
	if !(step > 0) || !(step < math.MaxFloat64) {
		step = shape.BoundingRadius() * 2 / steps
	}

	inside := func(t float64) bool {
		point := lin.V3{}
		scaled := lin.V3{}
		scaled.Scale(&dir, t)
		point.Add(&origin, &scaled)
		toPoint := lin.V3{}
		toPoint.Sub(&point, &center)
		if toPoint.AeqZ() {
			return true
		}
		away := toPoint
		away.Unit()
		support := WorldSupport(shape, xform, away)
		toSupport := lin.V3{}
		toSupport.Sub(&support, &center)
		return toPoint.Dot(&toPoint) <= toSupport.Dot(&toSupport)
	}

	prevT, prevIn := 0.0, inside(0)
	for i := 1; i <= steps; i++ {
		t := step * float64(i)
		in := inside(t)
		if in != prevIn {
			lo, hi := prevT, t
			for b := 0; b < 24; b++ {
				mid := (lo + hi) / 2
				if inside(mid) == prevIn {
					lo = mid
				} else {
					hi = mid
				}
			}
			dist = (lo + hi) / 2
			point := lin.V3{}
			scaled := lin.V3{}
			scaled.Scale(&dir, dist)
			point.Add(&origin, &scaled)
			normal.Sub(&point, &center)
			if normal.AeqZ() {
				normal = lin.V3{X: 1}
			} else {
				normal.Unit()
			}
			return dist, normal, true
		}
		prevT, prevIn = t, in
	}
	return 0, lin.V3{}, false
}

// inverseTranslateRotate maps a world point into xform's local frame.
func inverseTranslateRotate(xform *lin.T, p lin.V3) lin.V3 {
	diff := lin.V3{}
	diff.Sub(&p, xform.Loc)
	return inverseRotate(xform, &diff)
}
