// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"github.com/saptak7777/forgecore/math/lin"
)

// Force is one entry in a World's force-generator registry, applied once
// per fixed step, before broadphase, per SPEC_FULL.md §4.3. Generalized
// from physics_util.go's calculate_external_force/calculate_external_torque
// summation, which folded a per-body list of applied forces into a single
// resultant; here each generator instead computes its own contribution
// directly against a body view so the registry can mix built-ins freely.
type Force interface {
	Apply(v BodyView, dt float64)
}

// Gravity applies F = m * g * gravity_scale to every non-static body.
type Gravity struct {
	Accel lin.V3
}

// NewGravity returns a Gravity generator with acceleration (x, y, z).
func NewGravity(x, y, z float64) Gravity { return Gravity{Accel: lin.V3{X: x, Y: y, Z: z}} }

// Apply adds Accel*GravityScale directly to the body's linear acceleration
// accumulator -- gravity needs no mass term since F=ma cancels it out.
func (g Gravity) Apply(v BodyView, dt float64) {
	if v.IsStatic() || v.InvMass() == 0 {
		return
	}
	a := v.LinearAccel()
	scale := v.GravityScale()
	a.X += g.Accel.X * scale
	a.Y += g.Accel.Y * scale
	a.Z += g.Accel.Z * scale
}

// Drag applies quadratic drag F = -c * |v| * v.
type Drag struct {
	Coefficient float64
}

// NewDrag returns a quadratic drag generator with the given coefficient.
func NewDrag(c float64) Drag { return Drag{Coefficient: c} }

func (d Drag) Apply(v BodyView, dt float64) {
	if v.IsStatic() || v.InvMass() == 0 {
		return
	}
	lv := v.LinearVelocity()
	speed := lv.Len()
	if speed < lin.Epsilon {
		return
	}
	scale := -d.Coefficient * speed * v.InvMass()
	a := v.LinearAccel()
	a.X += lv.X * scale
	a.Y += lv.Y * scale
	a.Z += lv.Z * scale
}

// Spring applies F = -k(|d|-rest)*d_hat - damping*v, pulling a body toward
// a fixed anchor point in world space.
type Spring struct {
	Anchor     lin.V3
	Stiffness  float64
	RestLength float64
	Damping    float64
}

// NewSpring returns a spring-to-point generator anchored at p.
func NewSpring(p lin.V3, stiffness, restLength, damping float64) Spring {
	return Spring{Anchor: p, Stiffness: stiffness, RestLength: restLength, Damping: damping}
}

func (s Spring) Apply(v BodyView, dt float64) {
	if v.IsStatic() || v.InvMass() == 0 {
		return
	}
	d := lin.V3{}
	d.Sub(v.Position(), &s.Anchor)
	length := d.Len()
	if length < lin.Epsilon {
		return
	}
	dHat := d
	dHat.Scale(&dHat, 1/length)

	mag := -s.Stiffness * (length - s.RestLength)
	lv := v.LinearVelocity()
	a := v.LinearAccel()
	a.X += dHat.X*mag*v.InvMass() - s.Damping*lv.X*v.InvMass()
	a.Y += dHat.Y*mag*v.InvMass() - s.Damping*lv.Y*v.InvMass()
	a.Z += dHat.Z*mag*v.InvMass() - s.Damping*lv.Z*v.InvMass()
}

// ForceRegistry owns a World's force generators and applies them to every
// awake body once per step, per SPEC_FULL.md §4.3.
type ForceRegistry struct {
	generators []Force
}

// NewForceRegistry returns an empty registry.
func NewForceRegistry() *ForceRegistry { return &ForceRegistry{} }

// Add registers a force generator, applied to every body on every
// subsequent step until removed.
func (r *ForceRegistry) Add(f Force) { r.generators = append(r.generators, f) }

// Clear removes every registered generator.
func (r *ForceRegistry) Clear() { r.generators = r.generators[:0] }

// ApplyAll runs every generator against every awake, dynamic body, then
// lets the integrator consume the accumulated acceleration. Generators
// never touch sleeping or static bodies, matching §4.1's sleep contract.
func (r *ForceRegistry) ApplyAll(bodies *BodyPool, dt float64) {
	bodies.Each(func(_ EntityId, v BodyView) {
		if v.IsStatic() || !v.IsAwake() || v.InvMass() == 0 {
			return
		}
		for _, g := range r.generators {
			g.Apply(v, dt)
		}
	})
}
