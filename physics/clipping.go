// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"math"

	"github.com/saptak7777/forgecore/math/lin"
)

// clipPlane is a half-space boundary used by Sutherland-Hodgman clipping,
// ported from clipping.go's cPlane.
type clipPlane struct {
	normal lin.V3
	point  lin.V3
}

func (p *clipPlane) contains(v lin.V3) bool {
	d := -p.normal.Dot(&p.point)
	return v.Dot(&p.normal)+d >= 0
}

// planeEdgeIntersection finds where segment start-end crosses plane,
// ported from clipping.go's plane_edge_intersection.
func planeEdgeIntersection(p *clipPlane, start, end lin.V3) (lin.V3, bool) {
	const eps = 1e-6
	ab := lin.V3{}
	ab.Sub(&end, &start)
	abp := p.normal.Dot(&ab)
	if math.Abs(abp) <= eps {
		return lin.V3{}, false
	}

	d := -p.normal.Dot(&p.point)
	pco := lin.V3{}
	pco.Scale(&p.normal, -d)

	diff := lin.V3{}
	diff.Sub(&start, &pco)
	fac := -p.normal.Dot(&diff) / abp
	fac = math.Min(math.Max(fac, 0), 1)

	scaled := lin.V3{}
	scaled.Scale(&ab, fac)
	out := lin.V3{}
	out.Add(&start, &scaled)
	return out, true
}

// sutherlandHodgman clips a polygon against a sequence of half-spaces.
// When removeOnly is true, vertices outside a plane are dropped rather
// than clipped to it (used to intersect an already-clipped polygon against
// a single reference plane). Ported from clipping.go's sutherland_hodgman.
func sutherlandHodgman(polygon []lin.V3, planes []clipPlane, removeOnly bool) []lin.V3 {
	if len(planes) == 0 {
		return nil
	}
	input := append([]lin.V3{}, polygon...)
	var output []lin.V3

	for i := range planes {
		if len(input) == 0 {
			break
		}
		plane := &planes[i]
		start := input[len(input)-1]
		for _, end := range input {
			startIn, endIn := plane.contains(start), plane.contains(end)
			switch {
			case removeOnly:
				if endIn {
					output = append(output, end)
				}
			case startIn && endIn:
				output = append(output, end)
			case startIn && !endIn:
				if p, ok := planeEdgeIntersection(plane, start, end); ok {
					output = append(output, p)
				}
			case !startIn && endIn:
				if p, ok := planeEdgeIntersection(plane, start, end); ok {
					output = append(output, p)
				}
				output = append(output, end)
			}
			start = end
		}
		input, output = output, input[:0]
	}
	return input
}

// closestPointOnPlane projects v onto reference, ported from clipping.go's
// get_closest_point_polygon.
func closestPointOnPlane(v lin.V3, reference *clipPlane) lin.V3 {
	d := -reference.normal.Dot(&reference.point)
	proj := reference.normal.Dot(&v) + d
	scaled := lin.V3{}
	scaled.Scale(&reference.normal, proj)
	out := lin.V3{}
	out.Sub(&v, &scaled)
	return out
}
