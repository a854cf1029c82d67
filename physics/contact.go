// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"github.com/saptak7777/forgecore/math/lin"
)

// Contact is a single point of contact between two colliders, the unit the
// narrow phase emits and the solver consumes, per SPEC_FULL.md §4.5/§4.8.
// Grounded on contact.go's contactPair/pointOfContact split, collapsed into
// one flat struct since the new narrow phase reports at most a handful of
// points per pair rather than contact.go's persistent multi-frame manifold
// object.
type Contact struct {
	ColliderA, ColliderB EntityId
	BodyA, BodyB         EntityId
	PointA, PointB       lin.V3 // world-space witness points on A and B.
	Normal               lin.V3 // unit, points from A to B.
	Penetration          float64

	// FeatureID identifies the contributing feature pair (e.g. face/vertex
	// indices) so the solver's warm-start cache can match this contact
	// against its accumulated impulses from the previous step, per
	// SPEC_FULL.md §4.8's warm-starting contract.
	FeatureID uint64

	// Accumulated impulses, read and written by the solver across velocity
	// iterations and carried into the next step's warm start.
	NormalImpulse   float64
	Tangent1Impulse float64
	Tangent2Impulse float64
	RollImpulse     float64
	TorsionImpulse  float64
}

// pairID packs two collider indices into the warm-start cache key used
// alongside FeatureID, ordered so (a,b) and (b,a) hash identically.
// Grounded on contact.go's bodyA.pairID(bodyB) scheme.
func pairID(a, b EntityId) uint64 {
	lo, hi := a.Index, b.Index
	if lo > hi {
		lo, hi = hi, lo
	}
	return uint64(lo)<<32 | uint64(hi)
}

// warmStartKey uniquely identifies a contact across steps for impulse
// carry-over: the collider pair plus the narrow phase's feature id.
type warmStartKey struct {
	pair    uint64
	feature uint64
}

func (c *Contact) key() warmStartKey {
	return warmStartKey{pair: pairID(c.ColliderA, c.ColliderB), feature: c.FeatureID}
}

// ContactCache persists accumulated impulses across steps, keyed by
// warmStartKey, so the solver's warm start can look up "this contact's
// impulse last step" the way SPEC_FULL.md §4.8 requires.
type ContactCache struct {
	impulses map[warmStartKey]Contact
}

// NewContactCache returns an empty warm-start cache.
func NewContactCache() *ContactCache { return &ContactCache{impulses: map[warmStartKey]Contact{}} }

// WarmStart copies any cached accumulated impulses for contact c's key
// into c, or leaves c at zero for a fresh contact.
func (cc *ContactCache) WarmStart(c *Contact) {
	if prev, ok := cc.impulses[c.key()]; ok {
		c.NormalImpulse = prev.NormalImpulse
		c.Tangent1Impulse = prev.Tangent1Impulse
		c.Tangent2Impulse = prev.Tangent2Impulse
		c.RollImpulse = prev.RollImpulse
		c.TorsionImpulse = prev.TorsionImpulse
	}
}

// Commit replaces the cache contents with this step's contacts, ready for
// next step's WarmStart lookups. Stale keys (contacts that stopped
// recurring) are dropped naturally since the cache is rebuilt wholesale.
func (cc *ContactCache) Commit(contacts []Contact) {
	next := make(map[warmStartKey]Contact, len(contacts))
	for _, c := range contacts {
		next[c.key()] = c
	}
	cc.impulses = next
}
