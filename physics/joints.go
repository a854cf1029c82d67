// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"math"

	"github.com/saptak7777/forgecore/math/lin"
)

// jointBase holds the two connected bodies and their local-frame anchor
// points, the geometry every joint kind declares per SPEC_FULL.md §4.9.
type jointBase struct {
	BodyA, BodyB     EntityId
	AnchorA, AnchorB lin.V3
}

// Bodies satisfies the Joint interface declared in solver.go.
func (j *jointBase) Bodies() (EntityId, EntityId) { return j.BodyA, j.BodyB }

// jointBodies resolves a joint's two body views once per SolveVelocity
// call, treating a static body as immovable the same way
// prepareSolverContact does for contacts.
type jointBodies struct {
	hasA, hasB   bool
	bodyA, bodyB BodyView
}

func fetchJointBodies(bodies *BodyPool, j *jointBase) (jointBodies, bool) {
	bodyA, okA := bodies.Get(j.BodyA)
	bodyB, okB := bodies.Get(j.BodyB)
	if !okA || !okB {
		return jointBodies{}, false
	}
	hasA, hasB := !bodyA.IsStatic(), !bodyB.IsStatic()
	return jointBodies{hasA: hasA, hasB: hasB, bodyA: bodyA, bodyB: bodyB}, true
}

// worldAnchor returns the world-space anchor point and its lever arm
// (offset from the body's center of mass) for a local-frame anchor.
func worldAnchor(jb jointBodies, local lin.V3, isA bool) (point, lever lin.V3) {
	var pos *lin.V3
	var rot *lin.Q
	if isA {
		pos, rot = jb.bodyA.Position(), jb.bodyA.Rotation()
	} else {
		pos, rot = jb.bodyB.Position(), jb.bodyB.Rotation()
	}
	lever.MultQ(&local, rot)
	point.Add(pos, &lever)
	return point, lever
}

// worldAxis rotates a local-frame direction into world space.
func worldAxis(jb jointBodies, local lin.V3, isA bool) lin.V3 {
	var rot *lin.Q
	if isA {
		rot = jb.bodyA.Rotation()
	} else {
		rot = jb.bodyB.Rotation()
	}
	out := lin.V3{}
	out.MultQ(&local, rot)
	return out
}

// solveLinearRow drives the relative velocity along dir (at lever arms
// rA/rB) toward -biasVel via one clamped sequential impulse, the same
// accumulate-then-clamp idiom solver.go uses for contact rows. lower/upper
// bound the accumulator; pass ±Inf for an equality (non-inequality) row.
func solveLinearRow(jb jointBodies, dir, rA, rB lin.V3, biasVel float64, accum *float64, lower, upper float64) float64 {
	k := effectiveMass(dir, jb.hasA, jb.hasB, jb.bodyA, jb.bodyB, rA, rB)
	if k <= lin.Epsilon {
		return 0
	}
	var velA, velB lin.V3
	if jb.hasA {
		velA = pointVelocity(jb.bodyA, rA)
	}
	if jb.hasB {
		velB = pointVelocity(jb.bodyB, rB)
	}
	rel := lin.V3{}
	rel.Sub(&velB, &velA)
	relVel := rel.Dot(&dir)

	lambda := (-relVel - biasVel) / k
	old := *accum
	sum := clampF(old+lambda, lower, upper)
	delta := sum - old
	*accum = sum
	if delta == 0 {
		return 0
	}
	// dir points from A to B: a positive delta pushes B along +dir and A
	// along -dir, matching applyImpulsePair's convention in solver.go.
	if jb.hasA {
		j := lin.V3{}
		j.Scale(&dir, -delta)
		applyLinearAngularImpulse(jb.bodyA, j, rA)
	}
	if jb.hasB {
		j := lin.V3{}
		j.Scale(&dir, delta)
		applyLinearAngularImpulse(jb.bodyB, j, rB)
	}
	return delta
}

// solveAngularRow is solveLinearRow's pure-rotation counterpart: it drives
// the relative angular velocity about axis toward -biasVel, with no
// linear coupling.
func solveAngularRow(jb jointBodies, axis lin.V3, biasVel float64, accum *float64, lower, upper float64) float64 {
	k := angularEffectiveMass(axis, jb.hasA, jb.hasB, jb.bodyA, jb.bodyB)
	if k <= lin.Epsilon {
		return 0
	}
	var angA, angB lin.V3
	if jb.hasA {
		angA = *jb.bodyA.AngularVelocity()
	}
	if jb.hasB {
		angB = *jb.bodyB.AngularVelocity()
	}
	rel := lin.V3{}
	rel.Sub(&angB, &angA)
	relVel := rel.Dot(&axis)

	lambda := (-relVel - biasVel) / k
	old := *accum
	sum := clampF(old+lambda, lower, upper)
	delta := sum - old
	*accum = sum
	if delta == 0 {
		return 0
	}
	applyAngularImpulseBodies(jb, axis, delta)
	return delta
}

// applyAngularImpulseBodies applies the same -A/+B convention as
// solveLinearRow, generalized to pure rotation.
func applyAngularImpulseBodies(jb jointBodies, axis lin.V3, impulse float64) {
	if jb.hasA {
		torque := lin.V3{}
		torque.Scale(&axis, -impulse)
		dw := lin.V3{}
		dw.MultMv(jb.bodyA.InvInertiaWorld(), &torque)
		newAng := lin.V3{}
		newAng.Add(jb.bodyA.AngularVelocity(), &dw)
		jb.bodyA.SetAngularVelocity(newAng)
	}
	if jb.hasB {
		torque := lin.V3{}
		torque.Scale(&axis, impulse)
		dw := lin.V3{}
		dw.MultMv(jb.bodyB.InvInertiaWorld(), &torque)
		newAng := lin.V3{}
		newAng.Add(jb.bodyB.AngularVelocity(), &dw)
		jb.bodyB.SetAngularVelocity(newAng)
	}
}

func clampF(v, lower, upper float64) float64 {
	if v < lower {
		return lower
	}
	if v > upper {
		return upper
	}
	return v
}

var worldAxes = [3]lin.V3{{X: 1}, {Y: 1}, {Z: 1}}

// quaternionError returns the small-angle axis-angle error (2·vector part,
// sign-corrected so the shortest rotation is taken) between qActual and
// qRest, used by Fixed/Prismatic's angular lock rows.
func quaternionError(qActual, qRest *lin.Q) lin.V3 {
	restInv := lin.Q{}
	restInv.Inv(qRest)
	qErr := lin.Q{}
	qErr.Mult(qActual, &restInv)
	if qErr.W < 0 {
		qErr.X, qErr.Y, qErr.Z, qErr.W = -qErr.X, -qErr.Y, -qErr.Z, -qErr.W
	}
	return lin.V3{X: 2 * qErr.X, Y: 2 * qErr.Y, Z: 2 * qErr.Z}
}

func relativeRotation(jb jointBodies) lin.Q {
	aInv := lin.Q{}
	aInv.Inv(jb.bodyA.Rotation())
	rel := lin.Q{}
	rel.Mult(jb.bodyB.Rotation(), &aInv)
	return rel
}

// FixedJoint welds two bodies at a relative transform: 3 linear anchor
// constraints plus 3 angular constraints against a stored rest
// orientation, per SPEC_FULL.md §4.9. Geometrically grounded on
// pbd_base_constraints.go's position/angular constraint pair
// (calculate_positional_constraint_preprocessed_data,
// angular_constraint_get_delta_lambda), reworked from that XPBD
// compliance/lambda scheme into solver.go's Baumgarte-biased
// accumulate-and-clamp velocity impulse, so joints and contacts solve the
// same way inside Solve's velocity loop.
type FixedJoint struct {
	jointBase
	RestRotation lin.Q
	Beta         float64

	linAccum [3]float64
	angAccum [3]float64
}

// NewFixedJoint welds bodyA and bodyB at their current relative pose.
func NewFixedJoint(bodies *BodyPool, bodyA, bodyB EntityId, anchorA, anchorB lin.V3) *FixedJoint {
	j := &FixedJoint{
		jointBase: jointBase{BodyA: bodyA, BodyB: bodyB, AnchorA: anchorA, AnchorB: anchorB},
		Beta:      DefaultSolverConfig().Baumgarte,
	}
	if jb, ok := fetchJointBodies(bodies, &j.jointBase); ok {
		j.RestRotation = relativeRotation(jb)
	} else {
		j.RestRotation = lin.Q{W: 1}
	}
	return j
}

func (j *FixedJoint) SolveVelocity(bodies *BodyPool, dt float64) {
	jb, ok := fetchJointBodies(bodies, &j.jointBase)
	if !ok {
		return
	}
	pointA, rA := worldAnchor(jb, j.AnchorA, true)
	pointB, rB := worldAnchor(jb, j.AnchorB, false)
	posErr := lin.V3{}
	posErr.Sub(&pointB, &pointA)

	for i, axis := range worldAxes {
		bias := j.Beta / dt * posErr.Dot(&axis)
		solveLinearRow(jb, axis, rA, rB, bias, &j.linAccum[i], math.Inf(-1), math.Inf(1))
	}

	rel := relativeRotation(jb)
	angErr := quaternionError(&rel, &j.RestRotation)
	for i, axis := range worldAxes {
		bias := j.Beta / dt * angErr.Dot(&axis)
		solveAngularRow(jb, axis, bias, &j.angAccum[i], math.Inf(-1), math.Inf(1))
	}
}

// RevoluteJoint constrains two bodies to rotate freely about a shared
// hinge axis: 3 linear anchor constraints plus 2 angular constraints
// perpendicular to the axis, with an optional speed motor and one-sided
// angle limits, per SPEC_FULL.md §4.9.
type RevoluteJoint struct {
	jointBase
	AxisA, AxisB lin.V3 // local-frame hinge axis, expected coincident at rest.
	Beta         float64

	HasMotor       bool
	MotorSpeed     float64
	MaxMotorTorque float64

	HasLimits  bool
	LowerAngle float64
	UpperAngle float64
	RefA, RefB lin.V3 // local-frame reference vectors perpendicular to the axis, for angle measurement.

	linAccum   [3]float64
	angAccum   [2]float64
	motorAccum float64
	limitAccum float64
}

// NewRevoluteJoint builds a hinge about axisA/axisB (each in its own
// body's local frame, expected to coincide at construction time).
func NewRevoluteJoint(bodyA, bodyB EntityId, anchorA, anchorB, axisA, axisB lin.V3) *RevoluteJoint {
	return &RevoluteJoint{
		jointBase: jointBase{BodyA: bodyA, BodyB: bodyB, AnchorA: anchorA, AnchorB: anchorB},
		AxisA:     axisA, AxisB: axisB,
		Beta: DefaultSolverConfig().Baumgarte,
	}
}

func (j *RevoluteJoint) SolveVelocity(bodies *BodyPool, dt float64) {
	jb, ok := fetchJointBodies(bodies, &j.jointBase)
	if !ok {
		return
	}
	pointA, rA := worldAnchor(jb, j.AnchorA, true)
	pointB, rB := worldAnchor(jb, j.AnchorB, false)
	posErr := lin.V3{}
	posErr.Sub(&pointB, &pointA)
	for i, axis := range worldAxes {
		bias := j.Beta / dt * posErr.Dot(&axis)
		solveLinearRow(jb, axis, rA, rB, bias, &j.linAccum[i], math.Inf(-1), math.Inf(1))
	}

	axisA := worldAxis(jb, j.AxisA, true)
	axisA.Unit()
	axisB := worldAxis(jb, j.AxisB, false)
	axisB.Unit()

	// Small-angle perpendicular error between the two hinge axes, same
	// cross-product linearization teacher's CCD rotation integration uses
	// for small per-step angle deltas.
	angErr := lin.V3{}
	angErr.Cross(&axisA, &axisB)
	p, q := lin.V3{}, lin.V3{}
	axisA.Plane(&p, &q)
	perp := [2]lin.V3{p, q}
	for i, axis := range perp {
		bias := j.Beta / dt * angErr.Dot(&axis)
		solveAngularRow(jb, axis, bias, &j.angAccum[i], math.Inf(-1), math.Inf(1))
	}

	if j.HasMotor {
		limit := j.MaxMotorTorque * dt
		solveAngularRow(jb, axisA, -j.MotorSpeed, &j.motorAccum, -limit, limit)
	}

	if j.HasLimits {
		refA := worldAxis(jb, j.RefA, true)
		refB := worldAxis(jb, j.RefB, false)
		cross := lin.V3{}
		cross.Cross(&refA, &refB)
		angle := math.Atan2(cross.Dot(&axisA), refA.Dot(&refB))
		switch {
		case angle < j.LowerAngle:
			bias := j.Beta / dt * (angle - j.LowerAngle)
			solveAngularRow(jb, axisA, bias, &j.limitAccum, 0, math.Inf(1))
		case angle > j.UpperAngle:
			bias := j.Beta / dt * (angle - j.UpperAngle)
			solveAngularRow(jb, axisA, bias, &j.limitAccum, math.Inf(-1), 0)
		default:
			j.limitAccum = 0
		}
	}
}

// PrismaticJoint constrains two bodies to slide along a shared axis: the
// 2 linear directions perpendicular to the axis and all 3 angular degrees
// of freedom are locked, with an optional force motor and one-sided
// translation limits along the free axis, per SPEC_FULL.md §4.9.
type PrismaticJoint struct {
	jointBase
	AxisA, AxisB lin.V3
	Beta         float64

	HasMotor      bool
	MotorSpeed    float64
	MaxMotorForce float64

	HasLimits      bool
	LowerTranslate float64
	UpperTranslate float64

	RestRotation lin.Q

	perpAccum  [2]float64
	angAccum   [3]float64
	motorAccum float64
	limitAccum float64
}

// NewPrismaticJoint builds a slider along axisA/axisB, locking the two
// bodies' relative orientation at construction time.
func NewPrismaticJoint(bodies *BodyPool, bodyA, bodyB EntityId, anchorA, anchorB, axisA, axisB lin.V3) *PrismaticJoint {
	j := &PrismaticJoint{
		jointBase: jointBase{BodyA: bodyA, BodyB: bodyB, AnchorA: anchorA, AnchorB: anchorB},
		AxisA:     axisA, AxisB: axisB,
		Beta: DefaultSolverConfig().Baumgarte,
	}
	if jb, ok := fetchJointBodies(bodies, &j.jointBase); ok {
		j.RestRotation = relativeRotation(jb)
	} else {
		j.RestRotation = lin.Q{W: 1}
	}
	return j
}

func (j *PrismaticJoint) SolveVelocity(bodies *BodyPool, dt float64) {
	jb, ok := fetchJointBodies(bodies, &j.jointBase)
	if !ok {
		return
	}
	pointA, rA := worldAnchor(jb, j.AnchorA, true)
	pointB, rB := worldAnchor(jb, j.AnchorB, false)
	posErr := lin.V3{}
	posErr.Sub(&pointB, &pointA)

	axis := worldAxis(jb, j.AxisA, true)
	axis.Unit()
	p, q := lin.V3{}, lin.V3{}
	axis.Plane(&p, &q)
	perp := [2]lin.V3{p, q}
	for i, dir := range perp {
		bias := j.Beta / dt * posErr.Dot(&dir)
		solveLinearRow(jb, dir, rA, rB, bias, &j.perpAccum[i], math.Inf(-1), math.Inf(1))
	}

	rel := relativeRotation(jb)
	angErr := quaternionError(&rel, &j.RestRotation)
	for i, wa := range worldAxes {
		bias := j.Beta / dt * angErr.Dot(&wa)
		solveAngularRow(jb, wa, bias, &j.angAccum[i], math.Inf(-1), math.Inf(1))
	}

	if j.HasMotor {
		limit := j.MaxMotorForce * dt
		solveLinearRow(jb, axis, rA, rB, -j.MotorSpeed, &j.motorAccum, -limit, limit)
	}

	if j.HasLimits {
		translate := posErr.Dot(&axis)
		switch {
		case translate < j.LowerTranslate:
			bias := j.Beta / dt * (translate - j.LowerTranslate)
			solveLinearRow(jb, axis, rA, rB, bias, &j.limitAccum, 0, math.Inf(1))
		case translate > j.UpperTranslate:
			bias := j.Beta / dt * (translate - j.UpperTranslate)
			solveLinearRow(jb, axis, rA, rB, bias, &j.limitAccum, math.Inf(-1), 0)
		default:
			j.limitAccum = 0
		}
	}
}

// DistanceJoint maintains |anchor_b - anchor_a| = Distance, a single
// linear constraint per SPEC_FULL.md §4.9.
type DistanceJoint struct {
	jointBase
	Distance float64
	Beta     float64

	accum float64
}

func NewDistanceJoint(bodyA, bodyB EntityId, anchorA, anchorB lin.V3, distance float64) *DistanceJoint {
	return &DistanceJoint{
		jointBase: jointBase{BodyA: bodyA, BodyB: bodyB, AnchorA: anchorA, AnchorB: anchorB},
		Distance:  distance,
		Beta:      DefaultSolverConfig().Baumgarte,
	}
}

func (j *DistanceJoint) SolveVelocity(bodies *BodyPool, dt float64) {
	jb, ok := fetchJointBodies(bodies, &j.jointBase)
	if !ok {
		return
	}
	pointA, rA := worldAnchor(jb, j.AnchorA, true)
	pointB, rB := worldAnchor(jb, j.AnchorB, false)
	diff := lin.V3{}
	diff.Sub(&pointB, &pointA)
	length := diff.Len()
	if length <= lin.Epsilon {
		return
	}
	dir := lin.V3{}
	dir.Scale(&diff, 1/length)
	bias := j.Beta / dt * (length - j.Distance)
	solveLinearRow(jb, dir, rA, rB, bias, &j.accum, math.Inf(-1), math.Inf(1))
}

// SpringJoint applies a soft linear spring force between two anchors,
// per SPEC_FULL.md §4.9: `F = -k·(|d|-rest)·d̂ - c·(v_b-v_a)·d̂`, applied
// directly as an impulse each step with no hard position correction and
// no accumulator to clamp.
type SpringJoint struct {
	jointBase
	RestLength float64
	Stiffness  float64
	Damping    float64
}

func NewSpringJoint(bodyA, bodyB EntityId, anchorA, anchorB lin.V3, restLength, stiffness, damping float64) *SpringJoint {
	return &SpringJoint{
		jointBase:  jointBase{BodyA: bodyA, BodyB: bodyB, AnchorA: anchorA, AnchorB: anchorB},
		RestLength: restLength, Stiffness: stiffness, Damping: damping,
	}
}

func (j *SpringJoint) SolveVelocity(bodies *BodyPool, dt float64) {
	jb, ok := fetchJointBodies(bodies, &j.jointBase)
	if !ok {
		return
	}
	pointA, rA := worldAnchor(jb, j.AnchorA, true)
	pointB, rB := worldAnchor(jb, j.AnchorB, false)
	diff := lin.V3{}
	diff.Sub(&pointB, &pointA)
	length := diff.Len()
	if length <= lin.Epsilon {
		return
	}
	dir := lin.V3{}
	dir.Scale(&diff, 1/length)

	var velA, velB lin.V3
	if jb.hasA {
		velA = pointVelocity(jb.bodyA, rA)
	}
	if jb.hasB {
		velB = pointVelocity(jb.bodyB, rB)
	}
	rel := lin.V3{}
	rel.Sub(&velB, &velA)
	closing := rel.Dot(&dir)

	forceMag := -j.Stiffness*(length-j.RestLength) - j.Damping*closing
	impulse := forceMag * dt

	if jb.hasA {
		j := lin.V3{}
		j.Scale(&dir, -impulse)
		applyLinearAngularImpulse(jb.bodyA, j, rA)
	}
	if jb.hasB {
		jImp := lin.V3{}
		jImp.Scale(&dir, impulse)
		applyLinearAngularImpulse(jb.bodyB, jImp, rB)
	}
}
