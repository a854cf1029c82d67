// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"github.com/saptak7777/forgecore/math/lin"
)

// gjkSimplex is the evolving GJK simplex (1 to 4 points), ported verbatim
// in structure from gjk.go's gjk_Simplex.
type gjkSimplex struct {
	a, b, c, d lin.V3
	num        uint32
}

func (s *gjkSimplex) push(p lin.V3) {
	switch s.num {
	case 0:
		s.a = p
	case 1:
		s.b, s.a = s.a, p
	case 2:
		s.c, s.b, s.a = s.b, s.a, p
	case 3:
		s.d, s.c, s.b, s.a = s.c, s.b, s.a, p
	}
	s.num++
}

func tripleCross(a, b, c lin.V3) lin.V3 {
	tc := lin.V3{}
	tc.Cross(&a, &b)
	tc.Cross(&tc, &c)
	return tc
}

// doSimplex2 handles the line-segment case, ported from gjk.go's
// do_simplex_2.
func doSimplex2(s *gjkSimplex, dir *lin.V3) bool {
	a, b := s.a, s.b
	ao := lin.V3{}
	ao.Neg(&a)
	ab := lin.V3{}
	ab.Sub(&b, &a)
	if ab.Dot(&ao) >= 0 {
		s.a, s.b, s.num = a, b, 2
		*dir = tripleCross(ab, ao, ab)
	} else {
		s.a, s.num = a, 1
		*dir = ao
	}
	return false
}

// doSimplex3 handles the triangle case, ported from gjk.go's do_simplex_3.
func doSimplex3(s *gjkSimplex, dir *lin.V3) bool {
	a, b, c := s.a, s.b, s.c
	ao := lin.V3{}
	ao.Neg(&a)
	ab := lin.V3{}
	ab.Sub(&b, &a)
	ac := lin.V3{}
	ac.Sub(&c, &a)
	abc := lin.V3{}
	abc.Cross(&ab, &ac)

	crossAbcAc := lin.V3{}
	crossAbcAc.Cross(&abc, &ac)
	if crossAbcAc.Dot(&ao) >= 0 {
		if ac.Dot(&ao) >= 0 {
			s.a, s.b, s.num = a, c, 2
			*dir = tripleCross(ac, ao, ac)
		} else if ab.Dot(&ao) >= 0 {
			s.a, s.b, s.num = a, b, 2
			*dir = tripleCross(ab, ao, ab)
		} else {
			s.a, s.num = a, 1
			*dir = ao
		}
		return false
	}

	crossAbAbc := lin.V3{}
	crossAbAbc.Cross(&ab, &abc)
	if crossAbAbc.Dot(&ao) >= 0 {
		if ab.Dot(&ao) >= 0 {
			s.a, s.b, s.num = a, b, 2
			*dir = tripleCross(ab, ao, ab)
		} else {
			s.a, s.num = a, 1
			*dir = ao
		}
		return false
	}

	if abc.Dot(&ao) >= 0 {
		s.a, s.b, s.c, s.num = a, b, c, 3
		*dir = abc
	} else {
		s.a, s.b, s.c, s.num = a, c, b, 3
		neg := lin.V3{}
		neg.Neg(&abc)
		*dir = neg
	}
	return false
}

// doSimplex4 handles the tetrahedron case, ported from gjk.go's
// do_simplex_4.
func doSimplex4(s *gjkSimplex, dir *lin.V3) bool {
	a, b, c, d := s.a, s.b, s.c, s.d

	ao := lin.V3{}
	ao.Neg(&a)
	ab := lin.V3{}
	ab.Sub(&b, &a)
	ac := lin.V3{}
	ac.Sub(&c, &a)
	ad := lin.V3{}
	ad.Sub(&d, &a)
	abc := lin.V3{}
	abc.Cross(&ab, &ac)
	acd := lin.V3{}
	acd.Cross(&ac, &ad)
	adb := lin.V3{}
	adb.Cross(&ad, &ab)

	info := uint8(0)
	if abc.Dot(&ao) >= 0 {
		info |= 0x1
	}
	if acd.Dot(&ao) >= 0 {
		info |= 0x2
	}
	if adb.Dot(&ao) >= 0 {
		info |= 0x4
	}

	switch info {
	case 0x0:
		return true // origin enclosed: intersection.
	case 0x1:
		s.a, s.b, s.c, s.num = a, b, c, 3
		return doSimplex3(s, dir)
	case 0x2:
		s.a, s.b, s.c, s.num = a, c, d, 3
		return doSimplex3(s, dir)
	case 0x4:
		s.a, s.b, s.c, s.num = a, d, b, 3
		return doSimplex3(s, dir)
	case 0x3:
		// Line AC.
		if ac.Dot(&ao) >= 0 {
			s.a, s.b, s.num = a, c, 2
			*dir = tripleCross(ac, ao, ac)
		} else {
			s.a, s.num = a, 1
			*dir = ao
		}
	case 0x5:
		// Line AB.
		if ab.Dot(&ao) >= 0 {
			s.a, s.b, s.num = a, b, 2
			*dir = tripleCross(ab, ao, ab)
		} else {
			s.a, s.num = a, 1
			*dir = ao
		}
	case 0x6:
		// Line AD.
		if ad.Dot(&ao) >= 0 {
			s.a, s.b, s.num = a, d, 2
			*dir = tripleCross(ad, ao, ad)
		} else {
			s.a, s.num = a, 1
			*dir = ao
		}
	case 0x7:
		s.a, s.num = a, 1
		*dir = ao
	}
	return false
}

func doSimplex(s *gjkSimplex, dir *lin.V3) bool {
	switch s.num {
	case 2:
		return doSimplex2(s, dir)
	case 3:
		return doSimplex3(s, dir)
	case 4:
		return doSimplex4(s, dir)
	}
	return false
}

// gjkCollides reports whether the Minkowski difference of (shapeA,xformA)
// and (shapeB,xformB) contains the origin -- i.e. whether the two shapes
// overlap -- and, on a hit, fills outSimplex with the terminating
// tetrahedron for EPA. Ported from gjk.go's gjk_collides.
func gjkCollides(shapeA *Shape, xformA *lin.T, shapeB *Shape, xformB *lin.T, outSimplex *gjkSimplex) bool {
	var simplex gjkSimplex
	simplex.a = MinkowskiSupport(shapeA, xformA, shapeB, xformB, lin.V3{Z: 1})
	simplex.num = 1
	dir := lin.V3{}
	dir.Scale(&simplex.a, -1)

	for i := 0; i < 100; i++ {
		next := MinkowskiSupport(shapeA, xformA, shapeB, xformB, dir)
		if next.Dot(&dir) < 0 {
			return false
		}
		simplex.push(next)
		if doSimplex(&simplex, &dir) {
			if outSimplex != nil {
				*outSimplex = simplex
			}
			return true
		}
	}
	return false
}
