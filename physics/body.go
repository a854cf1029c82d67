// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"github.com/saptak7777/forgecore/math/lin"
)

// BodyFlags packs the RigidBody flag set from SPEC_FULL.md §3:
// {static, kinematic, awake, enabled}.
type BodyFlags uint8

const (
	FlagStatic BodyFlags = 1 << iota
	FlagKinematic
	FlagAwake
	FlagEnabled
)

// Material groups the per-body coefficients a Contact resolves into a
// combined material pair (e, mu_s, mu_d, mu_roll, mu_tors), per
// SPEC_FULL.md §3.
type Material struct {
	Restitution       float64
	StaticFriction    float64
	DynamicFriction   float64
	RollingFriction   float64
	TorsionalFriction float64
}

// DefaultMaterial matches the teacher's body.go defaults (friction 0.5,
// restitution 0) plus zeroed rolling/torsional terms, which the teacher
// never modeled.
func DefaultMaterial() Material {
	return Material{StaticFriction: 0.5, DynamicFriction: 0.5}
}

// RigidBody is both the construction descriptor passed to BodyPool.Insert
// and the value SPEC_FULL.md's World.Body/BodyMut hand back to callers.
type RigidBody struct {
	Position        lin.V3
	Rotation        lin.Q
	LinearVelocity  lin.V3
	AngularVelocity lin.V3
	InvMass         float64
	InvInertiaLocal lin.V3 // diagonal of the local inverse inertia tensor.
	Material        Material
	GravityScale    float64
	LinearDamping   float64
	AngularDamping  float64
	Flags           BodyFlags
}

// NewRigidBody returns a dynamic-body descriptor with sane defaults
// (gravity scale 1, zero damping, awake+enabled), ready to have its mass
// set from a shape via SetMassFromShape.
func NewRigidBody() RigidBody {
	return RigidBody{
		Rotation:     lin.Q{W: 1},
		GravityScale: 1,
		Material:     DefaultMaterial(),
		Flags:        FlagAwake | FlagEnabled,
	}
}

// SetMassFromShape sets InvMass from the given mass and InvInertiaLocal from
// the shape's inertia for that mass. A zero mass (or a static flag) makes the body immovable, matching the
// invariant in SPEC_FULL.md §3: static bodies carry inv_mass=inv_inertia=0.
func (b *RigidBody) SetMassFromShape(s *Shape, mass float64) {
	if b.Flags&FlagStatic != 0 || mass <= 0 {
		b.InvMass = 0
		b.InvInertiaLocal = lin.V3{}
		return
	}
	b.InvMass = 1 / mass
	i := s.Inertia(mass)
	b.InvInertiaLocal = lin.V3{
		X: invOrZero(i.X),
		Y: invOrZero(i.Y),
		Z: invOrZero(i.Z),
	}
}

func invOrZero(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return 1 / v
}

// bodyFields is the structure-of-arrays backing a BodyPool: one dense
// slice per RigidBody attribute, indexed by slot, per SPEC_FULL.md §3's
// "Structure-of-arrays layout" contract. Grounded on body.go's field set
// (imass, lvel, lfor, iit/iitw) generalized to the richer attribute list
// pbd.go's (never-defined) Body referenced.
type bodyFields struct {
	position        []lin.V3
	rotation        []lin.Q
	linVel          []lin.V3
	angVel          []lin.V3
	linAccel        []lin.V3
	angAccel        []lin.V3
	invMass         []float64
	invInertiaLocal []lin.V3
	invInertiaWorld []lin.M3
	material        []Material
	gravityScale    []float64
	linearDamping   []float64
	angularDamping  []float64
	flags           []BodyFlags
}

func (f *bodyFields) grow() {
	f.position = append(f.position, lin.V3{})
	f.rotation = append(f.rotation, lin.Q{W: 1})
	f.linVel = append(f.linVel, lin.V3{})
	f.angVel = append(f.angVel, lin.V3{})
	f.linAccel = append(f.linAccel, lin.V3{})
	f.angAccel = append(f.angAccel, lin.V3{})
	f.invMass = append(f.invMass, 0)
	f.invInertiaLocal = append(f.invInertiaLocal, lin.V3{})
	f.invInertiaWorld = append(f.invInertiaWorld, lin.M3{})
	f.material = append(f.material, Material{})
	f.gravityScale = append(f.gravityScale, 1)
	f.linearDamping = append(f.linearDamping, 0)
	f.angularDamping = append(f.angularDamping, 0)
	f.flags = append(f.flags, 0)
}

// BodyPool owns every RigidBody in a World, per SPEC_FULL.md §4.1.
type BodyPool struct {
	slots
	f bodyFields
}

// NewBodyPool returns an empty body pool.
func NewBodyPool() *BodyPool { return &BodyPool{} }

// Insert reserves a slot for desc and returns its handle. Inserts reuse
// free slots; the slot's generation only changes on Remove.
func (p *BodyPool) Insert(desc RigidBody) EntityId {
	h := p.slots.alloc(p.f.grow)
	idx := h.Index
	if desc.Rotation == (lin.Q{}) {
		desc.Rotation = lin.Q{W: 1}
	}
	if desc.GravityScale == 0 && desc.Flags&FlagStatic == 0 {
		desc.GravityScale = 1
	}
	p.f.position[idx] = desc.Position
	p.f.rotation[idx] = desc.Rotation
	p.f.linVel[idx] = desc.LinearVelocity
	p.f.angVel[idx] = desc.AngularVelocity
	p.f.invMass[idx] = desc.InvMass
	p.f.invInertiaLocal[idx] = desc.InvInertiaLocal
	p.f.material[idx] = desc.Material
	p.f.gravityScale[idx] = desc.GravityScale
	p.f.linearDamping[idx] = desc.LinearDamping
	p.f.angularDamping[idx] = desc.AngularDamping
	flags := desc.Flags | FlagEnabled | FlagAwake
	if flags&FlagStatic != 0 {
		p.f.invMass[idx] = 0
		p.f.invInertiaLocal[idx] = lin.V3{}
	}
	p.f.flags[idx] = flags
	BodyView{pool: p, idx: idx}.updateInertiaTensor()
	return h
}

// Remove invalidates handle h and frees its slot for reuse.
func (p *BodyPool) Remove(h EntityId) {
	if !p.slots.valid(h) {
		return
	}
	p.slots.release(h.Index)
}

// Snapshot returns a copy of the body's current state, or ok=false for an
// invalid handle. This is the read-only half of SPEC_FULL.md §6's
// `body(h) -> &RigidBody?`.
func (p *BodyPool) Snapshot(h EntityId) (RigidBody, bool) {
	if !p.slots.valid(h) {
		return RigidBody{}, false
	}
	idx := h.Index
	return RigidBody{
		Position:        p.f.position[idx],
		Rotation:        p.f.rotation[idx],
		LinearVelocity:  p.f.linVel[idx],
		AngularVelocity: p.f.angVel[idx],
		InvMass:         p.f.invMass[idx],
		InvInertiaLocal: p.f.invInertiaLocal[idx],
		Material:        p.f.material[idx],
		GravityScale:    p.f.gravityScale[idx],
		LinearDamping:   p.f.linearDamping[idx],
		AngularDamping:  p.f.angularDamping[idx],
		Flags:           p.f.flags[idx],
	}, true
}

// BodyView is the proxy struct SPEC_FULL.md §9 calls for: per-field mutable
// access at one slot, with velocity mutators that also set FlagAwake, per
// the "awaken-on-write" contract in §4.1.
type BodyView struct {
	pool *BodyPool
	idx  uint32
}

// Get returns a view of body h, or ok=false if h is invalid.
func (p *BodyPool) Get(h EntityId) (BodyView, bool) {
	if !p.slots.valid(h) {
		return BodyView{}, false
	}
	return BodyView{pool: p, idx: h.Index}, true
}

// GetPair returns views of h1 and h2 together, or ok=false if either handle
// is invalid or the two handles are equal -- SPEC_FULL.md §9's "two-element
// borrow" contract. Since bodyFields keeps independent slices rather than
// one backing array of structs, no index-split is needed to make the two
// views disjoint; they simply reference different slots of the same slices.
func (p *BodyPool) GetPair(h1, h2 EntityId) (BodyView, BodyView, bool) {
	if h1 == h2 || !p.slots.valid(h1) || !p.slots.valid(h2) {
		return BodyView{}, BodyView{}, false
	}
	return BodyView{pool: p, idx: h1.Index}, BodyView{pool: p, idx: h2.Index}, true
}

func (v BodyView) Position() *lin.V3        { return &v.pool.f.position[v.idx] }
func (v BodyView) Rotation() *lin.Q         { return &v.pool.f.rotation[v.idx] }
func (v BodyView) LinearVelocity() *lin.V3  { return &v.pool.f.linVel[v.idx] }
func (v BodyView) AngularVelocity() *lin.V3 { return &v.pool.f.angVel[v.idx] }
func (v BodyView) LinearAccel() *lin.V3     { return &v.pool.f.linAccel[v.idx] }
func (v BodyView) AngularAccel() *lin.V3    { return &v.pool.f.angAccel[v.idx] }
func (v BodyView) InvMass() float64         { return v.pool.f.invMass[v.idx] }
func (v BodyView) InvInertiaLocal() lin.V3  { return v.pool.f.invInertiaLocal[v.idx] }
func (v BodyView) InvInertiaWorld() *lin.M3 { return &v.pool.f.invInertiaWorld[v.idx] }
func (v BodyView) Material() *Material      { return &v.pool.f.material[v.idx] }
func (v BodyView) GravityScale() float64    { return v.pool.f.gravityScale[v.idx] }
func (v BodyView) LinearDamping() float64   { return v.pool.f.linearDamping[v.idx] }
func (v BodyView) AngularDamping() float64  { return v.pool.f.angularDamping[v.idx] }
func (v BodyView) Flags() *BodyFlags        { return &v.pool.f.flags[v.idx] }
func (v BodyView) IsStatic() bool           { return *v.Flags()&FlagStatic != 0 }
func (v BodyView) IsAwake() bool            { return *v.Flags()&(FlagAwake|FlagEnabled) == FlagAwake|FlagEnabled }

// Wake sets the body's awake flag, per the awaken-on-write contract.
func (v BodyView) Wake() { *v.Flags() |= FlagAwake }

// Sleep clears the awake flag and zeroes velocities.
func (v BodyView) Sleep() {
	*v.Flags() &^= FlagAwake
	v.pool.f.linVel[v.idx] = lin.V3{}
	v.pool.f.angVel[v.idx] = lin.V3{}
}

// SetLinearVelocity writes the body's linear velocity and wakes it.
func (v BodyView) SetLinearVelocity(lv lin.V3) {
	v.pool.f.linVel[v.idx] = lv
	v.Wake()
}

// SetAngularVelocity writes the body's angular velocity and wakes it.
func (v BodyView) SetAngularVelocity(av lin.V3) {
	v.pool.f.angVel[v.idx] = av
	v.Wake()
}

// ApplyImpulse adds a linear impulse (already includes inverse mass when
// the caller wants; here it is scaled by the body's own inverse mass) and
// wakes the body.
func (v BodyView) ApplyImpulse(impulse lin.V3) {
	lv := v.LinearVelocity()
	lv.X += impulse.X * v.InvMass()
	lv.Y += impulse.Y * v.InvMass()
	lv.Z += impulse.Z * v.InvMass()
	v.Wake()
}

// Transform returns a *lin.T view of the body's current position/rotation.
// The returned transform aliases the pool's own storage.
func (v BodyView) Transform() lin.T {
	return lin.T{Loc: v.Position(), Rot: v.Rotation()}
}

// Each calls fn once per live body, in slot order, matching SPEC_FULL.md
// §4.1's "iteration over live entries".
func (p *BodyPool) Each(fn func(h EntityId, v BodyView)) {
	p.slots.each(func(idx uint32) {
		fn(EntityId{Index: idx, Generation: p.generations[idx]}, BodyView{pool: p, idx: idx})
	})
}

// Len returns the number of live bodies.
func (p *BodyPool) Len() int {
	n := 0
	p.slots.each(func(uint32) { n++ })
	return n
}

// updateInertiaTensor recomputes the world-space inverse inertia tensor
// iitw = R * diag(iit) * R^T, exactly the formula in the teacher's
// body.go:updateInertiaTensor.
func (v BodyView) updateInertiaTensor() {
	r := lin.NewM3().SetQ(v.Rotation())
	rt := lin.NewM3().Transpose(r)
	local := v.InvInertiaLocal()
	s := lin.NewM3I().ScaleSM(local.X, local.Y, local.Z)
	rs := lin.NewM3().Mult(r, s)
	v.InvInertiaWorld().Mult(rs, rt)
}
