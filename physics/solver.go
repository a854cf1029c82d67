// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.
//
// The sequential-impulse scheme below -- accumulated impulses, warm
// starting, Baumgarte position bias, split velocity/position passes -- is
// the same Projected-Gauss-Seidel technique solver.go ported from Bullet's
// btSequentialImpulseConstraintSolver. This file generalizes it from that
// solver's per-body solverBody/solverPoint bookkeeping to direct reads and
// writes through BodyView against the new flat Contact struct, and adds
// rolling/torsional friction rows alongside the tangent-friction rows in
// the same accumulate/clamp idiom.

package physics

import (
	"math"

	"github.com/saptak7777/forgecore/math/lin"
)

// SolverConfig holds the PGS solver's tunable constants, per SPEC_FULL.md
// §4.8 and its configuration-constants table.
type SolverConfig struct {
	VelocityIterations   int
	PositionIterations   int
	Baumgarte            float64 // β, penetration correction strength.
	Slop                 float64 // deadband before position correction kicks in.
	RestitutionThreshold float64 // min closing speed before restitution applies.
}

// DefaultSolverConfig matches SPEC_FULL.md §6's configuration defaults.
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		VelocityIterations:   4,
		PositionIterations:   1,
		Baumgarte:            0.2,
		Slop:                 0.01,
		RestitutionThreshold: 1.0,
	}
}

// Joint is the velocity-constraint interface Solve (below) drives
// joints through, per SPEC_FULL.md §4.9: "For each joint, call the
// joint-specific velocity correction." Implementations live in joints.go.
type Joint interface {
	Bodies() (EntityId, EntityId)
	SolveVelocity(bodies *BodyPool, dt float64)
}

// solverContact precomputes the per-step quantities (lever arms, effective
// masses, bias terms) a contact's normal/friction/rolling/torsional rows
// need across every velocity iteration, mirroring solver.go's
// setupContactConstraint/setupFrictionConstraint split.
type solverContact struct {
	contact *Contact

	hasA, hasB   bool
	bodyA, bodyB BodyView

	rA, rB lin.V3 // contact point minus body center, in world space.
	t1, t2 lin.V3 // tangent basis orthogonal to the normal.

	kNormal, kT1, kT2, kRoll, kTorsion float64
	bias                               float64 // Baumgarte + restitution velocity bias, applied once.
}

func invMassOf(v BodyView, has bool) float64 {
	if !has {
		return 0
	}
	return v.InvMass()
}

// effectiveMass computes 1/m_a + 1/m_b + the angular contribution along
// direction d for a constraint with lever arms rA/rB, i.e. solver.go's
// `k = 1/m_a + 1/m_b + nᵀ([r_a]×ᵀ I_a⁻¹ [r_a]×)n + similar for b`.
func effectiveMass(d lin.V3, hasA, hasB bool, bodyA, bodyB BodyView, rA, rB lin.V3) float64 {
	k := invMassOf(bodyA, hasA) + invMassOf(bodyB, hasB)
	if hasA {
		torque := lin.V3{}
		torque.Cross(&rA, &d)
		angular := lin.V3{}
		angular.MultMv(bodyA.InvInertiaWorld(), &torque)
		cross := lin.V3{}
		cross.Cross(&angular, &rA)
		k += d.Dot(&cross)
	}
	if hasB {
		torque := lin.V3{}
		torque.Cross(&rB, &d)
		angular := lin.V3{}
		angular.MultMv(bodyB.InvInertiaWorld(), &torque)
		cross := lin.V3{}
		cross.Cross(&angular, &rB)
		k += d.Dot(&cross)
	}
	return k
}

// pointVelocity returns a body's velocity at a world point offset r from
// its center: v + ω × r.
func pointVelocity(v BodyView, r lin.V3) lin.V3 {
	spin := lin.V3{}
	spin.Cross(v.AngularVelocity(), &r)
	out := lin.V3{}
	out.Add(v.LinearVelocity(), &spin)
	return out
}

// applyLinearAngularImpulse applies impulse at lever arm r to body v:
// Δv = invMass·impulse, Δω = invInertiaWorld·(r × impulse).
func applyLinearAngularImpulse(v BodyView, impulse, r lin.V3) {
	if v.IsStatic() {
		return
	}
	dv := lin.V3{}
	dv.Scale(&impulse, v.InvMass())
	newLin := lin.V3{}
	newLin.Add(v.LinearVelocity(), &dv)
	v.SetLinearVelocity(newLin)

	torque := lin.V3{}
	torque.Cross(&r, &impulse)
	dw := lin.V3{}
	dw.MultMv(v.InvInertiaWorld(), &torque)
	newAng := lin.V3{}
	newAng.Add(v.AngularVelocity(), &dw)
	v.SetAngularVelocity(newAng)
}

func combinedFriction(a, b Material) (static, dynamic, rolling, torsional float64) {
	return math.Sqrt(a.StaticFriction * b.StaticFriction),
		math.Sqrt(a.DynamicFriction * b.DynamicFriction),
		math.Sqrt(a.RollingFriction * b.RollingFriction),
		math.Sqrt(a.TorsionalFriction * b.TorsionalFriction)
}

func combinedRestitution(a, b Material) float64 {
	return math.Sqrt(a.Restitution * b.Restitution)
}

// prepareSolverContact fills in a solverContact's lever arms, tangent
// basis, effective masses, and velocity bias, and warm-starts its
// accumulated impulses as the initial delta -- the setup half of
// solver.go's setupContactConstraint, generalized to also prepare the
// rolling/torsional rows per SPEC_FULL.md §4.8.
func prepareSolverContact(bodies *BodyPool, c *Contact, cfg SolverConfig, dt float64) (*solverContact, bool) {
	bodyA, hasA := bodies.Get(c.BodyA)
	bodyB, hasB := bodies.Get(c.BodyB)
	if !hasA && !hasB {
		return nil, false
	}
	if hasA && bodyA.IsStatic() {
		hasA = false
	}
	if hasB && bodyB.IsStatic() {
		hasB = false
	}
	if !hasA && !hasB {
		return nil, false
	}

	sc := &solverContact{contact: c, hasA: hasA, hasB: hasB, bodyA: bodyA, bodyB: bodyB}

	if hasA {
		sc.rA.Sub(&c.PointA, bodyA.Position())
	} else if hasB {
		sc.rA.Sub(&c.PointA, bodyB.Position())
	}
	if hasB {
		sc.rB.Sub(&c.PointB, bodyB.Position())
	} else if hasA {
		sc.rB.Sub(&c.PointB, bodyA.Position())
	}

	normal := c.Normal
	sc.kNormal = effectiveMass(normal, hasA, hasB, bodyA, bodyB, sc.rA, sc.rB)
	if sc.kNormal <= lin.Epsilon {
		return nil, false
	}

	relVel := relativeNormalVelocity(sc)
	closingSpeed := -relVel
	restitutionBias := 0.0
	if closingSpeed > cfg.RestitutionThreshold {
		var matA, matB Material
		if bodyA.pool != nil {
			matA = *bodyA.Material()
		}
		if bodyB.pool != nil {
			matB = *bodyB.Material()
		}
		restitutionBias = combinedRestitution(matA, matB) * closingSpeed
	}
	baumgarte := cfg.Baumgarte * math.Max(0, c.Penetration-cfg.Slop) / dt
	sc.bias = baumgarte + restitutionBias

	tangentFromVelocity(sc, relVel)

	sc.kT1 = effectiveMass(sc.t1, hasA, hasB, bodyA, bodyB, sc.rA, sc.rB)
	sc.kT2 = effectiveMass(sc.t2, hasA, hasB, bodyA, bodyB, sc.rA, sc.rB)
	sc.kRoll = angularEffectiveMass(sc.t1, hasA, hasB, bodyA, bodyB) + angularEffectiveMass(sc.t2, hasA, hasB, bodyA, bodyB)
	sc.kTorsion = angularEffectiveMass(normal, hasA, hasB, bodyA, bodyB)

	warmStartContact(sc)
	return sc, true
}

// relativeNormalVelocity returns (v_b - v_a)·n at the contact points.
func relativeNormalVelocity(sc *solverContact) float64 {
	var velA, velB lin.V3
	if sc.hasA {
		velA = pointVelocity(sc.bodyA, sc.rA)
	}
	if sc.hasB {
		velB = pointVelocity(sc.bodyB, sc.rB)
	}
	rel := lin.V3{}
	rel.Sub(&velB, &velA)
	return rel.Dot(&sc.contact.Normal)
}

// tangentFromVelocity picks the friction basis per SPEC_FULL.md §4.8's
// selection order: relative tangential velocity when there is any, else an
// arbitrary orthogonal basis via V3.Plane.
func tangentFromVelocity(sc *solverContact, relNormalVel float64) {
	var velA, velB lin.V3
	if sc.hasA {
		velA = pointVelocity(sc.bodyA, sc.rA)
	}
	if sc.hasB {
		velB = pointVelocity(sc.bodyB, sc.rB)
	}
	rel := lin.V3{}
	rel.Sub(&velB, &velA)
	normalComp := lin.V3{}
	normalComp.Scale(&sc.contact.Normal, relNormalVel)
	tangentVel := lin.V3{}
	tangentVel.Sub(&rel, &normalComp)

	if tangentVel.LenSqr() > lin.Epsilon {
		tangentVel.Unit()
		sc.t1 = tangentVel
		sc.t2.Cross(&sc.contact.Normal, &sc.t1)
	} else {
		sc.contact.Normal.Plane(&sc.t1, &sc.t2)
	}
}

func angularEffectiveMass(axis lin.V3, hasA, hasB bool, bodyA, bodyB BodyView) float64 {
	k := 0.0
	if hasA {
		iw := lin.V3{}
		iw.MultMv(bodyA.InvInertiaWorld(), &axis)
		k += axis.Dot(&iw)
	}
	if hasB {
		iw := lin.V3{}
		iw.MultMv(bodyB.InvInertiaWorld(), &axis)
		k += axis.Dot(&iw)
	}
	return k
}

// warmStartContact re-applies the contact's previous-step accumulated
// impulses as the initial delta, per SPEC_FULL.md §4.8's warm-starting
// contract. Fresh contacts (all-zero impulses) are a no-op.
func warmStartContact(sc *solverContact) {
	c := sc.contact
	if c.NormalImpulse != 0 {
		applyImpulsePair(sc, c.Normal, c.NormalImpulse)
	}
	if c.Tangent1Impulse != 0 {
		applyImpulsePair(sc, sc.t1, c.Tangent1Impulse)
	}
	if c.Tangent2Impulse != 0 {
		applyImpulsePair(sc, sc.t2, c.Tangent2Impulse)
	}
}

// applyImpulsePair applies -impulse*dir at A's lever arm and +impulse*dir
// at B's: dir points from A to B, so a positive impulse (e.g. a positive
// normal impulse resolving penetration) pushes B away along +dir and A
// away along -dir, the standard equal-and-opposite contact application.
func applyImpulsePair(sc *solverContact, dir lin.V3, impulse float64) {
	if sc.hasA {
		j := lin.V3{}
		j.Scale(&dir, -impulse)
		applyLinearAngularImpulse(sc.bodyA, j, sc.rA)
	}
	if sc.hasB {
		j := lin.V3{}
		j.Scale(&dir, impulse)
		applyLinearAngularImpulse(sc.bodyB, j, sc.rB)
	}
}

// applyAngularImpulsePair applies a pure angular impulse (no linear
// coupling), used for rolling/torsional friction rows. Same -A/+B sign
// convention as applyImpulsePair.
func applyAngularImpulsePair(sc *solverContact, axis lin.V3, impulse float64) {
	if sc.hasA {
		torque := lin.V3{}
		torque.Scale(&axis, -impulse)
		dw := lin.V3{}
		dw.MultMv(sc.bodyA.InvInertiaWorld(), &torque)
		newAng := lin.V3{}
		newAng.Add(sc.bodyA.AngularVelocity(), &dw)
		sc.bodyA.SetAngularVelocity(newAng)
	}
	if sc.hasB {
		torque := lin.V3{}
		torque.Scale(&axis, impulse)
		dw := lin.V3{}
		dw.MultMv(sc.bodyB.InvInertiaWorld(), &torque)
		newAng := lin.V3{}
		newAng.Add(sc.bodyB.AngularVelocity(), &dw)
		sc.bodyB.SetAngularVelocity(newAng)
	}
}

// resolveNormal runs one sequential-impulse iteration of the normal
// constraint: clamp the accumulator to >=0, per SPEC_FULL.md §4.8.
func resolveNormal(sc *solverContact) {
	relVel := relativeNormalVelocity(sc)
	lambda := (-relVel + sc.bias) / sc.kNormal
	c := sc.contact
	old := c.NormalImpulse
	c.NormalImpulse = math.Max(0, old+lambda)
	delta := c.NormalImpulse - old
	if delta != 0 {
		applyImpulsePair(sc, c.Normal, delta)
	}
}

// resolveFriction runs one iteration of both tangent rows, clamped to the
// friction cone `μ · accumulated_normal_impulse`, using the dynamic
// coefficient once the static limit is exceeded, per SPEC_FULL.md §4.8.
func resolveFriction(sc *solverContact, staticMu, dynamicMu float64) {
	c := sc.contact
	limit := staticMu * c.NormalImpulse

	resolveTangent := func(dir lin.V3, k float64, impulse *float64) {
		if k <= lin.Epsilon {
			return
		}
		var velA, velB lin.V3
		if sc.hasA {
			velA = pointVelocity(sc.bodyA, sc.rA)
		}
		if sc.hasB {
			velB = pointVelocity(sc.bodyB, sc.rB)
		}
		rel := lin.V3{}
		rel.Sub(&velB, &velA)
		relVel := rel.Dot(&dir)

		lambda := -relVel / k
		old := *impulse
		sum := old + lambda
		effectiveLimit := limit
		if math.Abs(sum) > staticMu*c.NormalImpulse {
			effectiveLimit = dynamicMu * c.NormalImpulse
		}
		if sum > effectiveLimit {
			sum = effectiveLimit
		} else if sum < -effectiveLimit {
			sum = -effectiveLimit
		}
		delta := sum - old
		*impulse = sum
		if delta != 0 {
			applyImpulsePair(sc, dir, delta)
		}
	}

	resolveTangent(sc.t1, sc.kT1, &c.Tangent1Impulse)
	resolveTangent(sc.t2, sc.kT2, &c.Tangent2Impulse)
}

// resolveRollingFriction damps relative spin around the tangent axes,
// clamped to `μ_roll · accumulated_normal_impulse`, per SPEC_FULL.md §4.8.
func resolveRollingFriction(sc *solverContact, muRoll float64) {
	if sc.kRoll <= lin.Epsilon {
		return
	}
	c := sc.contact
	limit := muRoll * c.NormalImpulse

	var angA, angB lin.V3
	if sc.hasA {
		angA = *sc.bodyA.AngularVelocity()
	}
	if sc.hasB {
		angB = *sc.bodyB.AngularVelocity()
	}
	relAng := lin.V3{}
	relAng.Sub(&angB, &angA)

	for _, axis := range [2]lin.V3{sc.t1, sc.t2} {
		relVel := relAng.Dot(&axis)
		lambda := -relVel / sc.kRoll
		old := c.RollImpulse
		sum := old + lambda
		if sum > limit {
			sum = limit
		} else if sum < -limit {
			sum = -limit
		}
		delta := sum - old
		c.RollImpulse = sum
		if delta != 0 {
			applyAngularImpulsePair(sc, axis, delta)
		}
	}
}

// resolveTorsionalFriction damps relative spin about the normal, clamped
// symmetrically to ±μ_tors·accumulated_normal_impulse.
func resolveTorsionalFriction(sc *solverContact, muTors float64) {
	if sc.kTorsion <= lin.Epsilon {
		return
	}
	c := sc.contact
	limit := muTors * c.NormalImpulse

	var angA, angB lin.V3
	if sc.hasA {
		angA = *sc.bodyA.AngularVelocity()
	}
	if sc.hasB {
		angB = *sc.bodyB.AngularVelocity()
	}
	relAng := lin.V3{}
	relAng.Sub(&angB, &angA)
	relVel := relAng.Dot(&c.Normal)

	lambda := -relVel / sc.kTorsion
	old := c.TorsionImpulse
	sum := old + lambda
	if sum > limit {
		sum = limit
	} else if sum < -limit {
		sum = -limit
	}
	delta := sum - old
	c.TorsionImpulse = sum
	if delta != 0 {
		applyAngularImpulsePair(sc, c.Normal, delta)
	}
}

// correctPosition applies SPEC_FULL.md §4.8's position-phase Baumgarte
// pass: for depth beyond slop, shift each body along ±normal,
// proportional to inverse mass, without touching velocities.
func correctPosition(bodies *BodyPool, c *Contact, slop float64) {
	bodyA, hasA := bodies.Get(c.BodyA)
	bodyB, hasB := bodies.Get(c.BodyB)
	if hasA && bodyA.IsStatic() {
		hasA = false
	}
	if hasB && bodyB.IsStatic() {
		hasB = false
	}
	penetration := c.Penetration - slop
	if penetration <= 0 {
		return
	}
	invA, invB := invMassOf(bodyA, hasA), invMassOf(bodyB, hasB)
	total := invA + invB
	if total <= lin.Epsilon {
		return
	}
	correction := penetration / total

	if hasA {
		delta := lin.V3{}
		delta.Scale(&c.Normal, -correction*invA)
		pos := lin.V3{}
		pos.Add(bodyA.Position(), &delta)
		bodyA.Position().Set(&pos)
	}
	if hasB {
		delta := lin.V3{}
		delta.Scale(&c.Normal, correction*invB)
		pos := lin.V3{}
		pos.Add(bodyB.Position(), &delta)
		bodyB.Position().Set(&pos)
	}
}

// Solve runs the full velocity + position PGS pass over one step's
// contacts and joints, per SPEC_FULL.md §4.8. Contacts are mutated in
// place (their accumulated-impulse fields updated) so the caller can feed
// them back into a ContactCache for the next step's warm start.
func Solve(bodies *BodyPool, contacts []Contact, joints []Joint, cfg SolverConfig, dt float64) {
	prepared := make([]*solverContact, 0, len(contacts))
	frictions := make([][4]float64, 0, len(contacts)) // static, dynamic, roll, torsion per contact.

	for i := range contacts {
		sc, ok := prepareSolverContact(bodies, &contacts[i], cfg, dt)
		if !ok {
			continue
		}
		var matA, matB Material
		if sc.bodyA.pool != nil {
			matA = *sc.bodyA.Material()
		}
		if sc.bodyB.pool != nil {
			matB = *sc.bodyB.Material()
		}
		static, dynamic, roll, torsion := combinedFriction(matA, matB)
		prepared = append(prepared, sc)
		frictions = append(frictions, [4]float64{static, dynamic, roll, torsion})
	}

	for iter := 0; iter < cfg.VelocityIterations; iter++ {
		for i, sc := range prepared {
			resolveNormal(sc)
			resolveFriction(sc, frictions[i][0], frictions[i][1])
			resolveRollingFriction(sc, frictions[i][2])
			resolveTorsionalFriction(sc, frictions[i][3])
		}
		for _, j := range joints {
			j.SolveVelocity(bodies, dt)
		}
	}

	for iter := 0; iter < cfg.PositionIterations; iter++ {
		for i := range contacts {
			correctPosition(bodies, &contacts[i], cfg.Slop)
		}
	}
}
