// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"math"

	"github.com/saptak7777/forgecore/math/lin"
)

// ShapeKind discriminates the Shape tagged union.
type ShapeKind int

const (
	SphereShape ShapeKind = iota
	BoxShape
	CapsuleShape
	CylinderShape
	ConvexHullShape
	CompoundShape
	TriangleMeshShape
	numShapeKinds
)

// Triangle is one face of a TriangleMesh, indices into Shape.Vertices.
type Triangle struct {
	A, B, C uint32
}

// Child is one member of a Compound shape: a sub-shape at a local offset.
type Child struct {
	Shape  *Shape
	Offset lin.T
}

// Shape is the sum type covering every collider geometry this engine
// understands. Every variant answers Support/BoundingRadius/WorldAABB; the
// fields below that don't apply to a given Kind are simply unused, the same
// tagged-struct approach the teacher used for its convex-hull/sphere
// collider union.
type Shape struct {
	Kind ShapeKind

	// Sphere, Capsule (radius + half-height), Cylinder (radius + half-height).
	Radius     float64
	HalfHeight float64 // capsule/cylinder: half distance between caps, along local +Y.

	// Box: half-extents.
	Hx, Hy, Hz float64

	// ConvexHull / TriangleMesh: raw vertex pool (local space).
	Vertices []lin.V3

	// TriangleMesh only.
	Triangles              []Triangle
	meshAabbLo, meshAabbHi lin.V3 // precomputed local-space AABB.

	// Compound only.
	Children []Child
}

// NewSphereShape builds a sphere of the given radius.
func NewSphereShape(radius float64) *Shape {
	return &Shape{Kind: SphereShape, Radius: math.Abs(radius)}
}

// NewBoxShape builds a box from half-extents.
func NewBoxShape(hx, hy, hz float64) *Shape {
	return &Shape{Kind: BoxShape, Hx: math.Abs(hx), Hy: math.Abs(hy), Hz: math.Abs(hz)}
}

// NewCapsuleShape builds a capsule: a cylinder of the given radius and
// half-height capped by two hemispheres, axis along local +Y.
func NewCapsuleShape(radius, halfHeight float64) *Shape {
	return &Shape{Kind: CapsuleShape, Radius: math.Abs(radius), HalfHeight: math.Abs(halfHeight)}
}

// NewCylinderShape builds a cylinder, axis along local +Y.
func NewCylinderShape(radius, halfHeight float64) *Shape {
	return &Shape{Kind: CylinderShape, Radius: math.Abs(radius), HalfHeight: math.Abs(halfHeight)}
}

// NewConvexHullShape builds a convex hull shape directly from a raw vertex
// cloud. Unlike the teacher's collider_convex_hull_create, which derives
// half-edge face/neighbor structure from a triangle soup purely for contact
// clipping, this variant keeps only the vertex set; no face/adjacency
// structure is built, and the narrow phase handles hulls through their
// support function (GJK/EPA) alone.
func NewConvexHullShape(vertices []lin.V3) *Shape {
	return &Shape{Kind: ConvexHullShape, Vertices: vertices}
}

// NewTriangleMeshShape builds a static triangle-soup shape with a
// precomputed local-space AABB, per SPEC_FULL.md §4.2.
func NewTriangleMeshShape(vertices []lin.V3, triangles []Triangle) *Shape {
	s := &Shape{Kind: TriangleMeshShape, Vertices: vertices, Triangles: triangles}
	if len(vertices) > 0 {
		lo, hi := vertices[0], vertices[0]
		for _, v := range vertices[1:] {
			lo.Min(&lo, &v)
			hi.Max(&hi, &v)
		}
		s.meshAabbLo, s.meshAabbHi = lo, hi
	}
	return s
}

// NewCompoundShape aggregates children, each offset in the compound's
// local frame.
func NewCompoundShape(children []Child) *Shape {
	return &Shape{Kind: CompoundShape, Children: children}
}

// Support returns the farthest point of the shape, in local space, along
// direction dir. Compound picks whichever child's (offset) support
// projects farthest along dir, matching SPEC_FULL.md §4.2.
func (s *Shape) Support(dir *lin.V3) lin.V3 {
	switch s.Kind {
	case SphereShape:
		u := unitOrAxis(dir)
		u.Scale(&u, s.Radius)
		return u
	case BoxShape:
		return lin.V3{X: signOf(dir.X) * s.Hx, Y: signOf(dir.Y) * s.Hy, Z: signOf(dir.Z) * s.Hz}
	case CapsuleShape:
		u := unitOrAxis(dir)
		return lin.V3{X: u.X * s.Radius, Y: u.Y*s.Radius + signOf(dir.Y)*s.HalfHeight, Z: u.Z * s.Radius}
	case CylinderShape:
		rlen := math.Sqrt(dir.X*dir.X + dir.Z*dir.Z)
		var rx, rz float64
		if rlen > lin.Epsilon {
			rx, rz = dir.X/rlen*s.Radius, dir.Z/rlen*s.Radius
		}
		return lin.V3{X: rx, Y: signOf(dir.Y) * s.HalfHeight, Z: rz}
	case ConvexHullShape, TriangleMeshShape:
		if len(s.Vertices) == 0 {
			return lin.V3{}
		}
		best, bestDot := s.Vertices[0], s.Vertices[0].Dot(dir)
		for _, v := range s.Vertices[1:] {
			if d := v.Dot(dir); d > bestDot {
				bestDot, best = d, v
			}
		}
		return best
	case CompoundShape:
		best := lin.V3{}
		bestDot := -lin.Large
		for _, c := range s.Children {
			localDir := inverseRotate(&c.Offset, dir)
			sp := c.Shape.Support(&localDir)
			world := lin.V3{}
			world.SetS(c.Offset.AppS(sp.X, sp.Y, sp.Z))
			if d := world.Dot(dir); d > bestDot {
				bestDot, best = d, world
			}
		}
		return best
	}
	return lin.V3{}
}

// BoundingRadius returns the radius of the smallest sphere, centered at
// local origin, that fully contains the shape.
func (s *Shape) BoundingRadius() float64 {
	switch s.Kind {
	case SphereShape:
		return s.Radius
	case BoxShape:
		return math.Sqrt(s.Hx*s.Hx + s.Hy*s.Hy + s.Hz*s.Hz)
	case CapsuleShape, CylinderShape:
		return s.Radius + s.HalfHeight
	case ConvexHullShape, TriangleMeshShape:
		best := 0.0
		for _, v := range s.Vertices {
			if l := v.Len(); l > best {
				best = l
			}
		}
		return best
	case CompoundShape:
		best := 0.0
		for _, c := range s.Children {
			if d := c.Offset.Loc.Len() + c.Shape.BoundingRadius(); d > best {
				best = d
			}
		}
		return best
	}
	return 0
}

// WorldAABB samples Support along the six axis directions under the given
// world transform to produce an axis-aligned bounding box, per
// SPEC_FULL.md §4.2. margin pads the result (used by broadphase/CCD).
func (s *Shape) WorldAABB(xform *lin.T, margin float64) (lo, hi lin.V3) {
	if s.Kind == TriangleMeshShape {
		a := lin.V3{}
		b := lin.V3{}
		a.SetS(xform.AppS(s.meshAabbLo.X, s.meshAabbLo.Y, s.meshAabbLo.Z))
		b.SetS(xform.AppS(s.meshAabbHi.X, s.meshAabbHi.Y, s.meshAabbHi.Z))
		lo.Min(&a, &b)
		hi.Max(&a, &b)
	} else {
		dirs := [3]lin.V3{{X: 1}, {Y: 1}, {Z: 1}}
		for i := 0; i < 3; i++ {
			pos := dirs[i]
			neg := lin.V3{}
			neg.Neg(&pos)

			localDir := inverseRotate(xform, &pos)
			sp := s.Support(&localDir)
			wp := lin.V3{}
			wp.SetS(xform.AppS(sp.X, sp.Y, sp.Z))

			localDir = inverseRotate(xform, &neg)
			sn := s.Support(&localDir)
			wn := lin.V3{}
			wn.SetS(xform.AppS(sn.X, sn.Y, sn.Z))

			switch i {
			case 0:
				hi.X, lo.X = math.Max(wp.X, wn.X), math.Min(wp.X, wn.X)
			case 1:
				hi.Y, lo.Y = math.Max(wp.Y, wn.Y), math.Min(wp.Y, wn.Y)
			case 2:
				hi.Z, lo.Z = math.Max(wp.Z, wn.Z), math.Min(wp.Z, wn.Z)
			}
		}
	}
	lo.SetS(lo.X-margin, lo.Y-margin, lo.Z-margin)
	hi.SetS(hi.X+margin, hi.Y+margin, hi.Z+margin)
	return lo, hi
}

// Volume returns the shape's volume.
func (s *Shape) Volume() float64 {
	switch s.Kind {
	case SphereShape:
		return 4.0 / 3.0 * math.Pi * s.Radius * s.Radius * s.Radius
	case BoxShape:
		return 8 * s.Hx * s.Hy * s.Hz
	case CapsuleShape:
		cyl := math.Pi * s.Radius * s.Radius * (2 * s.HalfHeight)
		caps := 4.0 / 3.0 * math.Pi * s.Radius * s.Radius * s.Radius
		return cyl + caps
	case CylinderShape:
		return math.Pi * s.Radius * s.Radius * (2 * s.HalfHeight)
	default:
		return 0 // convex hull/mesh/compound: caller supplies mass explicitly.
	}
}

// Inertia returns the local inertia tensor diagonal for the given mass, for
// the primitive shapes (the same formulas as the teacher's box/sphere
// Inertia, extended to capsule/cylinder). Compound/hull/mesh bodies are
// expected to supply their own inertia at construction time.
func (s *Shape) Inertia(mass float64) lin.V3 {
	switch s.Kind {
	case SphereShape:
		i := 0.4 * mass * s.Radius * s.Radius
		return lin.V3{X: i, Y: i, Z: i}
	case BoxShape:
		c := mass / 3.0
		return lin.V3{
			X: c * (s.Hy*s.Hy + s.Hz*s.Hz),
			Y: c * (s.Hx*s.Hx + s.Hz*s.Hz),
			Z: c * (s.Hx*s.Hx + s.Hy*s.Hy),
		}
	case CylinderShape:
		h := 2 * s.HalfHeight
		ixz := mass / 12.0 * (3*s.Radius*s.Radius + h*h)
		iy := 0.5 * mass * s.Radius * s.Radius
		return lin.V3{X: ixz, Y: iy, Z: ixz}
	case CapsuleShape:
		// Approximated as a cylinder of the same radius/half-height plus the
		// sphere contribution of the two caps -- adequate for a solver that
		// only needs an effective inverse mass, not graphics-grade accuracy.
		h := 2 * s.HalfHeight
		ixz := mass/12.0*(3*s.Radius*s.Radius+h*h) + 0.4*mass*s.Radius*s.Radius
		iy := 0.5*mass*s.Radius*s.Radius + 0.4*mass*s.Radius*s.Radius
		return lin.V3{X: ixz, Y: iy, Z: ixz}
	default:
		return lin.V3{}
	}
}

func signOf(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func unitOrAxis(dir *lin.V3) lin.V3 {
	u := *dir
	if u.AeqZ() {
		return lin.V3{X: 1}
	}
	u.Unit()
	return u
}

// inverseRotate rotates direction dir by the inverse (conjugate) of
// xform's rotation, leaving translation untouched -- used to bring a
// world-space direction into a shape's local space for Support queries.
func inverseRotate(xform *lin.T, dir *lin.V3) lin.V3 {
	q := xform.Rot
	conj := lin.Q{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W}
	v := lin.V3{}
	v.MultQ(dir, &conj)
	return v
}
