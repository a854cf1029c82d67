// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"math"

	"github.com/saptak7777/forgecore/math/lin"
)

// triFace is a polytope face, indices into an epaPolytope's vertex slice.
// Ported from epa.go's v3Int usage.
type triFace struct{ a, b, c uint32 }

// edgeKey is a polytope edge, indices into the same vertex slice. Ported
// from epa.go's v2Int usage.
type edgeKey struct{ a, b uint32 }

// epaPolytopeFromSimplex seeds an EPA polytope from a terminating GJK
// tetrahedron, ported from epa.go's polytope_from_gjk_simplex.
func epaPolytopeFromSimplex(s *gjkSimplex) (poly []lin.V3, faces []triFace) {
	poly = []lin.V3{s.a, s.b, s.c, s.d}
	faces = []triFace{
		{0, 1, 2},
		{0, 2, 3},
		{0, 3, 1},
		{1, 2, 3},
	}
	return poly, faces
}

// faceNormalAndDistance returns face's outward unit normal and its plane's
// distance from the origin, flipping the normal to face outward using the
// polytope's other vertices when the face passes exactly through the
// origin. Ported from epa.go's get_face_normal_and_distance_to_origin.
func faceNormalAndDistance(face triFace, poly []lin.V3) (normal lin.V3, distance float64) {
	a, b, c := poly[face.a], poly[face.b], poly[face.c]
	ab := lin.V3{}
	ab.Sub(&b, &a)
	ac := lin.V3{}
	ac.Sub(&c, &a)
	n := lin.V3{}
	n.Cross(&ab, &ac)
	n.Unit()

	distance = n.Dot(&a)
	switch {
	case distance < 0:
		n.Neg(&n)
		distance = -distance
	case distance == 0:
		for _, v := range poly {
			d := n.Dot(&v)
			if d != 0 {
				if d >= 0 {
					n.Neg(&n)
				}
				break
			}
		}
	}
	return n, distance
}

func addEdge(edges []edgeKey, e edgeKey) []edgeKey {
	for i, cur := range edges {
		if (cur.a == e.a && cur.b == e.b) || (cur.a == e.b && cur.b == e.a) {
			return append(edges[:i], edges[i+1:]...)
		}
	}
	return append(edges, e)
}

func triangleCentroid(a, b, c lin.V3) lin.V3 {
	centroid := lin.V3{}
	centroid.Add(&b, &c)
	centroid.Add(&centroid, &a)
	centroid.Scale(&centroid, 1.0/3.0)
	return centroid
}

// epa expands a GJK containment simplex into the penetration normal and
// depth via the expanding polytope algorithm, ported from epa.go's epa.
func epa(shapeA *Shape, xformA *lin.T, shapeB *Shape, xformB *lin.T, simplex *gjkSimplex) (normal lin.V3, penetration float64, ok bool) {
	const epsilon = 1e-4

	poly, faces := epaPolytopeFromSimplex(simplex)
	normals := make([]lin.V3, len(faces))
	distances := make([]float64, len(faces))
	minDist := math.MaxFloat64
	minIdx := 0
	for i, f := range faces {
		normals[i], distances[i] = faceNormalAndDistance(f, poly)
		if distances[i] < minDist {
			minDist, minIdx = distances[i], i
		}
	}

	var edges []edgeKey
	for iter := 0; iter < 100; iter++ {
		minNormal := normals[minIdx]
		support := MinkowskiSupport(shapeA, xformA, shapeB, xformB, minNormal)

		d := minNormal.Dot(&support)
		if math.Abs(d-minDist) < epsilon {
			return minNormal, minDist, true
		}

		newIdx := uint32(len(poly))
		poly = append(poly, support)

		edges = edges[:0]
		for i := 0; i < len(faces); i++ {
			face := faces[i]
			centroid := triangleCentroid(poly[face.a], poly[face.b], poly[face.c])
			toSupport := lin.V3{}
			toSupport.Sub(&support, &centroid)
			if normals[i].Dot(&toSupport) <= 0 {
				continue
			}
			edges = addEdge(edges, edgeKey{face.a, face.b})
			edges = addEdge(edges, edgeKey{face.b, face.c})
			edges = addEdge(edges, edgeKey{face.c, face.a})

			faces = append(faces[:i], faces[i+1:]...)
			normals = append(normals[:i], normals[i+1:]...)
			distances = append(distances[:i], distances[i+1:]...)
			i--
		}

		for _, e := range edges {
			nf := triFace{e.a, e.b, newIdx}
			n, dist := faceNormalAndDistance(nf, poly)
			faces = append(faces, nf)
			normals = append(normals, n)
			distances = append(distances, dist)
		}

		minDist = math.MaxFloat64
		for i, dist := range distances {
			if dist < minDist {
				minDist, minIdx = dist, i
			}
		}
	}
	return lin.V3{}, 0, false
}
