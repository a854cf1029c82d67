// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"fmt"
	"math"
	"sync"

	"github.com/saptak7777/forgecore/math/lin"
)

// GPUBackend is the optional compute-offload collaborator from
// SPEC_FULL.md §6: a host application may swap in a backend that runs
// broadphase/solver work on a GPU, but the CPU path above always remains
// authoritative -- World never consults the backend's results, only
// dispatches to it. Grounded on the teacher's render/back.go renderer
// backend interface, generalized from a draw-call surface to a physics
// compute surface; the concrete binding (original_source/src/gpu/ash_backend.rs's
// Vulkan backend) stays out of scope, so only the seam is modeled here.
type GPUBackend interface {
	Name() string
	PrepareStep(w *World)
	DispatchBroadphase(w *World)
	DispatchSolver(w *World)
}

// noopGPUBackend is the zero-value backend every World starts with: every
// method is a no-op, leaving the CPU pipeline as the sole path.
type noopGPUBackend struct{}

func (noopGPUBackend) Name() string              { return "cpu" }
func (noopGPUBackend) PrepareStep(*World)        {}
func (noopGPUBackend) DispatchBroadphase(*World) {}
func (noopGPUBackend) DispatchSolver(*World)     {}

// World owns every pool and subsystem in a simulation, per SPEC_FULL.md
// §2/§6. It is the single entry point a host application drives: add
// bodies/colliders/joints between ticks, call Step once a frame. Grounded
// on the teacher's physics.go Simulate free function plus its bod.go World
// collaborator, generalized from that package's global `bodies []Body`
// slice and freestanding Simulate call into an owned, instantiable struct
// per SPEC_FULL.md §5's "pools mutably owned by world" contract.
type World struct {
	Bodies    *BodyPool
	Colliders *ColliderPool

	gravity Gravity
	Forces  *ForceRegistry
	joints  []Joint

	solver   SolverConfig
	substeps int

	broad *Broadphase
	cache *ContactCache

	parallelEnabled bool

	ccdEnabled        bool
	ccdSpeedThreshold float64
	ccdAngularPadding float64
	ccdMaxIterations  int
	speculativeMargin float64

	linearDamping  float64
	angularDamping float64
	sleepThreshold float64

	fixedTimestep float64
	accumulator   float64

	gpu GPUBackend

	degenerate *logOnce
	nonFinite  *logOnce
}

// New returns a World configured with SPEC_FULL.md §6's defaults, running
// at the given fixed timestep (clamped to the default if non-positive).
func New(fixedTimestep float64) *World {
	cfg := DefaultConfig()
	cfg.FixedTimestep = fixedTimestep
	return NewWithConfig(cfg)
}

// NewWithConfig returns a World built from cfg, clamping any out-of-range
// field to its default per SPEC_FULL.md §7's ConfigOutOfRange contract.
func NewWithConfig(cfg Config) *World {
	cfg.Validate()
	return &World{
		Bodies:    NewBodyPool(),
		Colliders: NewColliderPool(),

		gravity: NewGravity(cfg.Gravity.X, cfg.Gravity.Y, cfg.Gravity.Z),
		Forces:  NewForceRegistry(),

		solver:   cfg.solverConfig(),
		substeps: cfg.Substeps,

		broad: NewBroadphase(cfg.BroadphaseCellSize),
		cache: NewContactCache(),

		ccdEnabled:        true,
		ccdSpeedThreshold: cfg.CCDSpeedThreshold,
		ccdMaxIterations:  cfg.CCDMaxIterations,
		speculativeMargin: cfg.SpeculativeMargin,

		linearDamping:  cfg.LinearDamping,
		angularDamping: cfg.AngularDamping,
		sleepThreshold: cfg.SleepThreshold,

		fixedTimestep: cfg.FixedTimestep,

		gpu: noopGPUBackend{},

		degenerate: newLogOnce(),
		nonFinite:  newLogOnce(),
	}
}

// SetGravity replaces the world's gravity acceleration, per SPEC_FULL.md
// §6's set_gravity API.
func (w *World) SetGravity(g lin.V3) { w.gravity = NewGravity(g.X, g.Y, g.Z) }

// SetParallelEnabled toggles per-island goroutine fan-out during solving,
// per SPEC_FULL.md §5 ("parallel island solve" opt-in).
func (w *World) SetParallelEnabled(enabled bool) { w.parallelEnabled = enabled }

// SetCCDEnabled toggles the continuous-collision pipeline; disabled worlds
// fall straight to DispatchManifold for every candidate pair.
func (w *World) SetCCDEnabled(enabled bool) { w.ccdEnabled = enabled }

// SetCCDThreshold replaces the swept-speed trigger threshold, per
// SPEC_FULL.md §6's set_ccd_threshold API.
func (w *World) SetCCDThreshold(threshold float64) {
	if threshold >= 0 {
		w.ccdSpeedThreshold = threshold
	}
}

// SetCCDAngularPadding replaces the angular padding folded into the
// effective CCD threshold, per SPEC_FULL.md §6's set_ccd_angular_padding
// API. ccd.go's needsTOI/ResolveCCD take a single scalar threshold rather
// than a separate angular term, so the padding is subtracted from the
// speed threshold at call time (never below zero) -- a deliberate
// simplification recorded in DESIGN.md.
func (w *World) SetCCDAngularPadding(padding float64) {
	if padding >= 0 {
		w.ccdAngularPadding = padding
	}
}

func (w *World) effectiveCCDThreshold() float64 {
	return math.Max(0, w.ccdSpeedThreshold-w.ccdAngularPadding)
}

// AddRigidBody inserts desc and returns its handle, per SPEC_FULL.md §6.
// A descriptor that leaves damping unset (the zero value) picks up the
// world's configured default damping, the same defaulting idiom
// BodyPool.Insert already applies to GravityScale.
func (w *World) AddRigidBody(desc RigidBody) EntityId {
	if desc.LinearDamping == 0 {
		desc.LinearDamping = w.linearDamping
	}
	if desc.AngularDamping == 0 {
		desc.AngularDamping = w.angularDamping
	}
	return w.Bodies.Insert(desc)
}

// AddCollider inserts desc and returns its handle, per SPEC_FULL.md §6.
func (w *World) AddCollider(desc Collider) EntityId { return w.Colliders.Insert(desc) }

// AddJoint registers j to be solved every tick until the world is
// discarded, per SPEC_FULL.md §6. Joints have no remove in this API
// surface, matching the teacher's append-only constraint list idiom.
func (w *World) AddJoint(j Joint) { w.joints = append(w.joints, j) }

// Body returns a value snapshot of the body at h, or ok=false for a stale
// or never-valid handle, per SPEC_FULL.md §7's InvalidHandle contract
// ("empty option, never panics").
func (w *World) Body(h EntityId) (RigidBody, bool) { return w.Bodies.Snapshot(h) }

// BodyMut returns a live, mutable view of the body at h. BodyView is
// already the package's mutable-accessor type (body.go), so it plays the
// role SPEC_FULL.md §6's "&mut RigidBody" plays in a borrow-checked
// language.
func (w *World) BodyMut(h EntityId) (BodyView, bool) { return w.Bodies.Get(h) }

// ApplyImpulse applies a world-space linear impulse to the body at h and
// wakes it, per spec.md §8's apply/remove-impulse property ("applying and
// then removing the same external impulse leaves the body state
// unchanged" -- callers restore state by applying the negated impulse).
// Reports ok=false for a stale or never-valid handle rather than panicking.
func (w *World) ApplyImpulse(h EntityId, impulse lin.V3) bool {
	v, ok := w.Bodies.Get(h)
	if !ok {
		return false
	}
	v.ApplyImpulse(impulse)
	return true
}

// Raycast runs q against every live collider, per SPEC_FULL.md §6.
func (w *World) Raycast(q RaycastQuery) []RaycastHit {
	return Raycast(w.Bodies, w.Colliders, q)
}

// Step accumulates wall-clock time and runs as many fixed-size ticks as
// have become due, per SPEC_FULL.md §4.10's step(dt_wall) contract. A tick
// is synchronous: Step returns only once every due sub-step has run.
func (w *World) Step(dtWall float64) {
	if dtWall <= 0 {
		return
	}
	w.gpu.PrepareStep(w)
	w.accumulator += dtWall
	for w.accumulator >= w.fixedTimestep {
		w.tick(w.fixedTimestep)
		w.accumulator -= w.fixedTimestep
	}
}

// tick runs the fixed-timestep update, split into w.substeps equal
// sub-intervals, each running the full eight-step pipeline from
// SPEC_FULL.md §4.10. Running the whole pipeline per substep (not just
// integration) follows the same stability idiom modern sequential-impulse
// engines use substeps for, and maps each substep onto one pass of the
// spec's numbered step list.
func (w *World) tick(dt float64) {
	sub := dt / float64(w.substeps)
	for i := 0; i < w.substeps; i++ {
		w.substep(sub)
	}
}

// substep runs one full pass of SPEC_FULL.md §4.10's numbered pipeline:
// forces, broadphase, narrowphase/CCD, islands, solve, integrate, sleep,
// clear accumulators.
func (w *World) substep(dt float64) {
	w.Bodies.Each(func(_ EntityId, v BodyView) {
		if v.IsStatic() || !v.IsAwake() {
			return
		}
		w.gravity.Apply(v, dt)
	})
	w.Forces.ApplyAll(w.Bodies, dt)

	w.gpu.DispatchBroadphase(w)
	pairs := w.broad.Rebuild(w.Bodies, w.Colliders, w.speculativeMargin)
	contacts := w.generateContacts(pairs, dt)

	jointPairs := make([][2]EntityId, 0, len(w.joints))
	jointsByPair := map[uint64][]Joint{}
	for _, j := range w.joints {
		a, b := j.Bodies()
		jointPairs = append(jointPairs, [2]EntityId{a, b})
		key := pairID(a, b)
		jointsByPair[key] = append(jointsByPair[key], j)
	}

	islands := BuildIslands(w.Bodies, contacts, jointPairs)

	w.gpu.DispatchSolver(w)
	w.solveIslands(islands, jointsByPair, dt)

	var solved []Contact
	for _, isl := range islands {
		solved = append(solved, isl.Contacts...)
	}
	w.cache.Commit(solved)

	w.integrate(dt)
	w.updateSleep(islands)
}

// generateContacts runs the narrow phase (CCD-augmented when enabled) over
// every broadphase candidate pair, skipping triggers, static-static pairs,
// and pairs where neither side is an awake dynamic body, per SPEC_FULL.md
// §3/§4.5/§4.6.
func (w *World) generateContacts(pairs []ColliderPair, dt float64) []Contact {
	contacts := make([]Contact, 0, len(pairs))
	for _, p := range pairs {
		ca, ok := w.Colliders.Get(p.A)
		if !ok || ca.IsTrigger() {
			continue
		}
		cb, ok := w.Colliders.Get(p.B)
		if !ok || cb.IsTrigger() {
			continue
		}
		ba, ok := w.Bodies.Get(ca.Body())
		if !ok {
			continue
		}
		bb, ok := w.Bodies.Get(cb.Body())
		if !ok {
			continue
		}
		if ba.IsStatic() && bb.IsStatic() {
			continue
		}
		activeA := !ba.IsStatic() && ba.IsAwake()
		activeB := !bb.IsStatic() && bb.IsAwake()
		if !activeA && !activeB {
			continue
		}
		if isDegenerate(ca.Shape()) {
			w.degenerate.warn(fmt.Sprintf("shape:%d:%d", ca.Shape().Kind, p.A.Index), "degenerate shape skipped", "collider", p.A)
			continue
		}
		if isDegenerate(cb.Shape()) {
			w.degenerate.warn(fmt.Sprintf("shape:%d:%d", cb.Shape().Kind, p.B.Index), "degenerate shape skipped", "collider", p.B)
			continue
		}

		var (
			found []Contact
		)
		if w.ccdEnabled {
			if c, ok := w.ResolveCCD(ba, ca, bb, cb, dt); ok {
				found = []Contact{c}
			}
		} else {
			xa := ca.WorldTransform(bodyWorldTransform(ba))
			xb := cb.WorldTransform(bodyWorldTransform(bb))
			found = DispatchManifold(ca.Shape(), &xa, cb.Shape(), &xb)
		}

		for i := range found {
			found[i].ColliderA, found[i].ColliderB = p.A, p.B
			found[i].BodyA, found[i].BodyB = ca.Body(), cb.Body()
			w.cache.WarmStart(&found[i])
		}
		contacts = append(contacts, found...)
	}
	return contacts
}

// ResolveCCD wraps ccd.go's package-level ResolveCCD with the world's
// configured threshold/margin/iteration-count, folding ccdAngularPadding
// into the effective threshold.
func (w *World) ResolveCCD(bodyA BodyView, colliderA ColliderView, bodyB BodyView, colliderB ColliderView, dt float64) (Contact, bool) {
	return ResolveCCD(bodyA, colliderA, bodyB, colliderB, dt, w.effectiveCCDThreshold(), w.speculativeMargin, w.ccdMaxIterations)
}

// islandActive reports whether any non-static body in isl is awake --
// Island.Awake (island.go) ORs in every body including statics, which
// BodyPool always flags awake, so it can't be used directly to gate
// solving without perpetually re-running (and re-waking) settled islands.
func islandActive(bodies *BodyPool, isl Island) bool {
	for _, h := range isl.Bodies {
		if v, ok := bodies.Get(h); ok && !v.IsStatic() && v.IsAwake() {
			return true
		}
	}
	return false
}

// solveIslands runs the PGS solver over every active island, sequentially
// or with one goroutine per island when parallelEnabled. Concurrent solves
// are data-race free because BuildIslands partitions bodies into disjoint
// index sets within the same SoA pool -- distinct goroutines only ever
// write distinct slice elements, per SPEC_FULL.md §5's "owned working set,
// solver run on private slices" model.
func (w *World) solveIslands(islands []Island, jointsByPair map[uint64][]Joint, dt float64) {
	solveOne := func(isl *Island) {
		if !islandActive(w.Bodies, *isl) {
			return
		}
		var joints []Joint
		for _, jp := range isl.Joints {
			joints = append(joints, jointsByPair[pairID(jp[0], jp[1])]...)
		}
		Solve(w.Bodies, isl.Contacts, joints, w.solver, dt)
	}

	if !w.parallelEnabled || len(islands) < 2 {
		for i := range islands {
			solveOne(&islands[i])
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(islands))
	for i := range islands {
		go func(isl *Island) {
			defer wg.Done()
			solveOne(isl)
		}(&islands[i])
	}
	wg.Wait()
}

// integrate advances every non-static body's velocity (damped
// semi-implicit Euler), position, and rotation by dt, per SPEC_FULL.md
// §4.10 step 6, then clears the step's force accumulators (step 8).
// Velocity/position/rotation are written through the BodyView's raw
// pointers rather than its Set* methods, since those wake the body as a
// side effect -- a sleeping body's (zero) velocity must integrate to
// zero without spuriously waking it.
func (w *World) integrate(dt float64) {
	w.Bodies.Each(func(h EntityId, v BodyView) {
		if v.IsStatic() {
			return
		}

		before, _ := w.Bodies.Snapshot(h)

		if v.IsAwake() {
			lv, av := v.LinearVelocity(), v.AngularVelocity()
			la, aa := v.LinearAccel(), v.AngularAccel()

			nlv := lin.V3{}
			scaledA := lin.V3{}
			scaledA.Scale(la, dt)
			nlv.Add(lv, &scaledA)
			ldf := math.Max(0, 1-v.LinearDamping()*dt)
			nlv.Scale(&nlv, ldf)

			nav := lin.V3{}
			scaledAlpha := lin.V3{}
			scaledAlpha.Scale(aa, dt)
			nav.Add(av, &scaledAlpha)
			adf := math.Max(0, 1-v.AngularDamping()*dt)
			nav.Scale(&nav, adf)

			*lv = nlv
			*av = nav
		}

		pos := v.Position()
		lv := *v.LinearVelocity()
		delta := lin.V3{}
		delta.Scale(&lv, dt)
		pos.Add(pos, &delta)

		rot := v.Rotation()
		*rot = integrateRotation(rot, *v.AngularVelocity(), dt)
		v.updateInertiaTensor()

		if !finiteBody(v) {
			w.nonFinite.warn(fmt.Sprintf("body:%d:%d", h.Index, h.Generation), "non-finite body state, rolling back", "body", h)
			restoreSnapshot(v, before)
			*v.Flags() &^= FlagAwake
		}

		*v.LinearAccel() = lin.V3{}
		*v.AngularAccel() = lin.V3{}
	})
}

// updateSleep computes each island's average kinetic-energy proxy
// (|v|^2+|w|^2) over its non-static bodies and puts the whole island to
// sleep or wakes it, per SPEC_FULL.md §4.10 step 7. Static bodies are
// never touched: BodyPool always flags them awake, and that flag (not
// island.Awake) is what generateContacts/islandActive rely on.
func (w *World) updateSleep(islands []Island) {
	for _, isl := range islands {
		var sum float64
		n := 0
		for _, h := range isl.Bodies {
			v, ok := w.Bodies.Get(h)
			if !ok || v.IsStatic() {
				continue
			}
			lv, av := v.LinearVelocity(), v.AngularVelocity()
			sum += lv.Dot(lv) + av.Dot(av)
			n++
		}
		if n == 0 {
			continue
		}
		avg := sum / float64(n)
		for _, h := range isl.Bodies {
			v, ok := w.Bodies.Get(h)
			if !ok || v.IsStatic() {
				continue
			}
			if avg < w.sleepThreshold {
				v.Sleep()
			} else {
				v.Wake()
			}
		}
	}
}

func finiteBody(v BodyView) bool {
	pos, rot := v.Position(), v.Rotation()
	lv, av := v.LinearVelocity(), v.AngularVelocity()
	vals := []float64{pos.X, pos.Y, pos.Z, rot.X, rot.Y, rot.Z, rot.W, lv.X, lv.Y, lv.Z, av.X, av.Y, av.Z}
	for _, f := range vals {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

func restoreSnapshot(v BodyView, snap RigidBody) {
	*v.Position() = snap.Position
	*v.Rotation() = snap.Rotation
	*v.LinearVelocity() = snap.LinearVelocity
	*v.AngularVelocity() = snap.AngularVelocity
}

// isDegenerate flags a shape SPEC_FULL.md §7's DegenerateShape contract
// must skip: zero/negative extents, non-finite geometry, or zero volume
// on a shape kind that has one.
func isDegenerate(s *Shape) bool {
	if s == nil {
		return true
	}
	switch s.Kind {
	case SphereShape:
		return !(s.Radius > 0) || math.IsNaN(s.Radius) || math.IsInf(s.Radius, 0)
	case BoxShape:
		return !(s.Hx > 0 && s.Hy > 0 && s.Hz > 0)
	case CapsuleShape, CylinderShape:
		return !(s.Radius > 0 && s.HalfHeight > 0)
	case ConvexHullShape:
		if len(s.Vertices) < 4 {
			return true
		}
		for _, v := range s.Vertices {
			if !finiteV3(v) {
				return true
			}
		}
		return false
	case TriangleMeshShape:
		return len(s.Triangles) == 0
	case CompoundShape:
		return len(s.Children) == 0
	default:
		return false
	}
}

func finiteV3(v lin.V3) bool {
	for _, f := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
