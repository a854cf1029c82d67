// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"math"

	"github.com/saptak7777/forgecore/math/lin"
)

// Default continuous-collision tuning, per SPEC_FULL.md §4.6.
const (
	DefaultCCDSpeedThreshold = 10.0
	DefaultMaxTOIIterations  = 8
	DefaultSpeculativeMargin = 0.05
)

// sweptSpeed is the relative linear speed plus angular-swept padding the
// spec's CCD trigger compares against the pair's combined support radii,
// ported from spec.md §4.6's `swept_speed` formula.
func sweptSpeed(vRel lin.V3, angA, angB lin.V3, radA, radB, dt float64) float64 {
	omegaBound := angA.Len()*radA + angB.Len()*radB
	angTerm := omegaBound * dt
	return math.Sqrt(vRel.Dot(&vRel) + angTerm*angTerm)
}

// needsTOI reports whether a candidate pair's swept speed this step exceeds
// their combined support extent along the relative-velocity direction by
// more than threshold, implementing spec.md §4.6's trigger formula
// literally: swept_speed·dt > support_a(+v̂_rel) + support_b(−v̂_rel), by
// more than the CCD threshold.
func needsTOI(shapeA *Shape, xformA *lin.T, velA, angA lin.V3, shapeB *Shape, xformB *lin.T, velB, angB lin.V3, dt, threshold float64) bool {
	vRel := lin.V3{}
	vRel.Sub(&velB, &velA)
	if vRel.AeqZ() {
		return false
	}
	dir := lin.V3{}
	dir.Set(&vRel)
	dir.Unit()
	negDir := lin.V3{}
	negDir.Neg(&dir)

	sa := WorldSupport(shapeA, xformA, dir)
	sb := WorldSupport(shapeB, xformB, negDir)
	diff := lin.V3{}
	diff.Sub(&sb, &sa)
	combinedExtent := diff.Dot(&dir)

	speed := sweptSpeed(vRel, angA, angB, shapeA.BoundingRadius(), shapeB.BoundingRadius(), dt)
	return speed*dt-combinedExtent > threshold*dt
}

// integrateRotation advances a rotation by angVel over dt via the
// standard quaternion derivative dq/dt = ½·ω·q, matching the semi-implicit
// Euler step the world's integrator (world.go) applies every tick.
func integrateRotation(rot *lin.Q, angVel lin.V3, dt float64) lin.Q {
	spin := lin.Q{
		X: angVel.X*rot.W + angVel.Y*rot.Z - angVel.Z*rot.Y,
		Y: angVel.Y*rot.W + angVel.Z*rot.X - angVel.X*rot.Z,
		Z: angVel.Z*rot.W + angVel.X*rot.Y - angVel.Y*rot.X,
		W: -angVel.X*rot.X - angVel.Y*rot.Y - angVel.Z*rot.Z,
	}
	out := lin.Q{
		X: rot.X + 0.5*dt*spin.X,
		Y: rot.Y + 0.5*dt*spin.Y,
		Z: rot.Z + 0.5*dt*spin.Z,
		W: rot.W + 0.5*dt*spin.W,
	}
	out.Unit()
	return out
}

// sweptTransform returns a collider's world transform at time t (0..dt)
// into the step, assuming constant linear/angular velocity over the
// interval -- the same assumption the TOI bisection search samples under.
func sweptTransform(bodyPos lin.V3, bodyRot lin.Q, linVel, angVel lin.V3, t float64, offset *lin.T) lin.T {
	scaled := lin.V3{}
	scaled.Scale(&linVel, t)
	pos := lin.V3{}
	pos.Add(&bodyPos, &scaled)
	rot := integrateRotation(&bodyRot, angVel, t)
	bodyXform := lin.T{Loc: &pos, Rot: &rot}
	world := composeT(&bodyXform, offset)
	return world
}

// TOIResult is the outcome of a bisected time-of-impact search between two
// bodies over one step.
type TOIResult struct {
	Hit     bool
	Time    float64 // time into the step (0..dt) at which the earliest contact was found
	Contact Contact
}

// FindTOI runs spec.md §4.6's bounded bisection: it samples the narrow
// phase at t=0, the midpoint, and t=dt (via the integrated transforms at
// those times), brackets the first sample reporting penetration, then
// bisects for at most maxIter steps, returning the lower bound of the
// bracket as the impact time.
func FindTOI(bodyA BodyView, colliderA ColliderView, bodyB BodyView, colliderB ColliderView, dt float64, maxIter int) TOIResult {
	shapeA, shapeB := colliderA.Shape(), colliderB.Shape()
	offsetA, offsetB := colliderA.Offset(), colliderB.Offset()
	posA, rotA := *bodyA.Position(), *bodyA.Rotation()
	posB, rotB := *bodyB.Position(), *bodyB.Rotation()
	linA, angA := *bodyA.LinearVelocity(), *bodyA.AngularVelocity()
	linB, angB := *bodyB.LinearVelocity(), *bodyB.AngularVelocity()

	sample := func(t float64) (Contact, bool) {
		xa := sweptTransform(posA, rotA, linA, angA, t, offsetA)
		xb := sweptTransform(posB, rotB, linB, angB, t, offsetB)
		return Dispatch(shapeA, &xa, shapeB, &xb)
	}

	lo, hi := 0.0, dt
	loContact, loHit := sample(lo)
	if loHit {
		return TOIResult{Hit: true, Time: lo, Contact: loContact}
	}
	mid := dt * 0.5
	midContact, midHit := sample(mid)
	hiContact, hiHit := sample(hi)

	var bracketHi float64
	var bracketContact Contact
	switch {
	case midHit:
		bracketHi, bracketContact = mid, midContact
	case hiHit:
		bracketHi, bracketContact = hi, hiContact
	default:
		return TOIResult{Hit: false}
	}

	for i := 0; i < maxIter; i++ {
		t := (lo + bracketHi) * 0.5
		c, hit := sample(t)
		if hit {
			bracketHi, bracketContact = t, c
		} else {
			lo = t
		}
	}

	contact := bracketContact
	if contact.Normal.AeqZ() {
		atImpact := integrateRotation(&rotA, angA, bracketHi)
		btImpact := integrateRotation(&rotB, angB, bracketHi)
		contact.Normal = fallbackTOINormal(shapeA, &atImpact, posA, shapeB, &btImpact, posB)
	}
	return TOIResult{Hit: true, Time: lo, Contact: contact}
}

// fallbackTOINormal implements spec.md §4.6's documented TOI fallback: a
// box-surface projection (snap the center-to-center direction to whichever
// box face normal it's most aligned with) when one side is a box, else
// plain center-to-center direction.
func fallbackTOINormal(shapeA *Shape, rotA *lin.Q, posA lin.V3, shapeB *Shape, rotB *lin.Q, posB lin.V3) lin.V3 {
	diff := lin.V3{}
	diff.Sub(&posB, &posA)
	if diff.AeqZ() {
		return lin.V3{X: 1}
	}
	diff.Unit()

	switch {
	case shapeA.Kind == BoxShape:
		return snapToNearestBoxFace(rotA, diff)
	case shapeB.Kind == BoxShape:
		negDiff := lin.V3{}
		negDiff.Neg(&diff)
		snapped := snapToNearestBoxFace(rotB, negDiff)
		snapped.Neg(&snapped)
		return snapped
	default:
		return diff
	}
}

// snapToNearestBoxFace returns whichever of a box's world-space ± face
// normals is most aligned with dir.
func snapToNearestBoxFace(rot *lin.Q, dir lin.V3) lin.V3 {
	axes := [3]lin.V3{
		rotateAxis(rot, lin.V3{X: 1}),
		rotateAxis(rot, lin.V3{Y: 1}),
		rotateAxis(rot, lin.V3{Z: 1}),
	}
	best := axes[0]
	bestDot := axes[0].Dot(&dir)
	for _, axis := range axes[1:] {
		if d := axis.Dot(&dir); math.Abs(d) > math.Abs(bestDot) {
			best, bestDot = axis, d
		}
	}
	if bestDot < 0 {
		best.Neg(&best)
	}
	return best
}

// SpeculativeContact implements spec.md §4.6: when a pair doesn't trip the
// TOI threshold but the end-of-step gap (sampled via the narrow phase at
// the predicted end-of-step transforms) is within margin, it reports a
// contact -- with possibly-negative depth -- so the solver can apply
// restitution/friction before interpenetration develops.
func SpeculativeContact(bodyA BodyView, colliderA ColliderView, bodyB BodyView, colliderB ColliderView, dt, margin float64) (Contact, bool) {
	shapeA, shapeB := colliderA.Shape(), colliderB.Shape()
	offsetA, offsetB := colliderA.Offset(), colliderB.Offset()
	xa := sweptTransform(*bodyA.Position(), *bodyA.Rotation(), *bodyA.LinearVelocity(), *bodyA.AngularVelocity(), dt, offsetA)
	xb := sweptTransform(*bodyB.Position(), *bodyB.Rotation(), *bodyB.LinearVelocity(), *bodyB.AngularVelocity(), dt, offsetB)

	if c, ok := Dispatch(shapeA, &xa, shapeB, &xb); ok {
		return c, true
	}

	ra, rb := shapeA.BoundingRadius(), shapeB.BoundingRadius()
	centerDiff := lin.V3{}
	centerDiff.Sub(xb.Loc, xa.Loc)
	gap := centerDiff.Len() - ra - rb
	if gap > margin {
		return Contact{}, false
	}
	normal := centerDiff
	if normal.AeqZ() {
		normal = lin.V3{X: 1}
	}
	normal.Unit()
	negNormal := lin.V3{}
	negNormal.Neg(&normal)
	pa := WorldSupport(shapeA, &xa, normal)
	pb := WorldSupport(shapeB, &xb, negNormal)
	return Contact{PointA: pa, PointB: pb, Normal: normal, Penetration: -gap}, true
}

// ResolveCCD is the broad-phase-to-narrow-phase bridge for one candidate
// pair, per spec.md §4.6's trigger/TOI/speculative pipeline. It reports
// ok=false when the pair needs neither TOI nor a speculative contact, in
// which case the caller should fall back to the ordinary per-step narrow
// phase dispatch.
func ResolveCCD(bodyA BodyView, colliderA ColliderView, bodyB BodyView, colliderB ColliderView, dt, speedThreshold, margin float64, maxIter int) (Contact, bool) {
	shapeA, shapeB := colliderA.Shape(), colliderB.Shape()
	xa := colliderA.WorldTransform(bodyWorldTransform(bodyA))
	xb := colliderB.WorldTransform(bodyWorldTransform(bodyB))

	if needsTOI(shapeA, &xa, *bodyA.LinearVelocity(), *bodyA.AngularVelocity(), shapeB, &xb, *bodyB.LinearVelocity(), *bodyB.AngularVelocity(), dt, speedThreshold) {
		result := FindTOI(bodyA, colliderA, bodyB, colliderB, dt, maxIter)
		if result.Hit {
			return result.Contact, true
		}
	}
	return SpeculativeContact(bodyA, colliderA, bodyB, colliderB, dt, margin)
}

func bodyWorldTransform(v BodyView) *lin.T {
	xform := v.Transform()
	return &xform
}
