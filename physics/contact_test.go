// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"testing"
)

func TestPairIDOrderIndependent(t *testing.T) {
	a := EntityId{Index: 1}
	b := EntityId{Index: 2}
	if pairID(a, b) != pairID(b, a) {
		t.Error("expected pairID to be order-independent")
	}
	if pairID(a, b) != 0x100000002 {
		t.Errorf("expected packed id 0x100000002, got %#x", pairID(a, b))
	}
}

func TestContactCacheWarmStartsMatchingFeature(t *testing.T) {
	cache := NewContactCache()
	a := EntityId{Index: 1}
	b := EntityId{Index: 2}

	first := Contact{ColliderA: a, ColliderB: b, FeatureID: 7, NormalImpulse: 3.5}
	cache.Commit([]Contact{first})

	next := Contact{ColliderA: a, ColliderB: b, FeatureID: 7}
	cache.WarmStart(&next)
	if next.NormalImpulse != 3.5 {
		t.Errorf("expected warm-started impulse 3.5, got %f", next.NormalImpulse)
	}
}

func TestContactCacheSkipsMismatchedFeature(t *testing.T) {
	cache := NewContactCache()
	a := EntityId{Index: 1}
	b := EntityId{Index: 2}

	cache.Commit([]Contact{{ColliderA: a, ColliderB: b, FeatureID: 1, NormalImpulse: 9}})

	next := Contact{ColliderA: a, ColliderB: b, FeatureID: 2}
	cache.WarmStart(&next)
	if next.NormalImpulse != 0 {
		t.Error("expected a fresh feature id to start at zero impulse")
	}
}

func TestContactCacheDropsStaleContacts(t *testing.T) {
	cache := NewContactCache()
	a := EntityId{Index: 1}
	b := EntityId{Index: 2}
	cache.Commit([]Contact{{ColliderA: a, ColliderB: b, FeatureID: 1, NormalImpulse: 9}})
	cache.Commit(nil) // pair no longer touching this step

	next := Contact{ColliderA: a, ColliderB: b, FeatureID: 1}
	cache.WarmStart(&next)
	if next.NormalImpulse != 0 {
		t.Error("expected stale contact to be dropped from the cache")
	}
}
