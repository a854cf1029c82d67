// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"testing"
)

func newDynamicBody(t *testing.T, bodies *BodyPool) EntityId {
	t.Helper()
	return bodies.Insert(NewRigidBody())
}

func newStaticBody(t *testing.T, bodies *BodyPool) EntityId {
	t.Helper()
	desc := NewRigidBody()
	desc.Flags |= FlagStatic
	return bodies.Insert(desc)
}

func TestBuildIslandsGroupsConnectedBodies(t *testing.T) {
	bodies := NewBodyPool()
	a := newDynamicBody(t, bodies)
	b := newDynamicBody(t, bodies)
	c := newDynamicBody(t, bodies) // untouched, its own island

	contacts := []Contact{{BodyA: a, BodyB: b}}
	islands := BuildIslands(bodies, contacts, nil)

	if len(islands) != 2 {
		t.Fatalf("expected 2 islands (one merged pair, one solo), got %d", len(islands))
	}

	foundPair, foundSolo := false, false
	for _, isl := range islands {
		switch len(isl.Bodies) {
		case 2:
			foundPair = true
		case 1:
			if isl.Bodies[0] == c {
				foundSolo = true
			}
		}
	}
	if !foundPair || !foundSolo {
		t.Error("expected one 2-body island and one solo island for the untouched body")
	}
}

func TestBuildIslandsStaticBodyIsNotABridge(t *testing.T) {
	bodies := NewBodyPool()
	static := newStaticBody(t, bodies)
	a := newDynamicBody(t, bodies)
	b := newDynamicBody(t, bodies)

	contacts := []Contact{
		{BodyA: a, BodyB: static},
		{BodyA: static, BodyB: b},
	}
	islands := BuildIslands(bodies, contacts, nil)

	if len(islands) != 2 {
		t.Fatalf("expected a and b to remain in separate islands via the static body, got %d islands", len(islands))
	}
	for _, isl := range islands {
		foundStatic := false
		for _, h := range isl.Bodies {
			if h == static {
				foundStatic = true
			}
		}
		if !foundStatic {
			t.Error("expected the static body to appear in every island whose contact touches it")
		}
	}
}

func TestBuildIslandsJointsAlsoUnion(t *testing.T) {
	bodies := NewBodyPool()
	a := newDynamicBody(t, bodies)
	b := newDynamicBody(t, bodies)

	islands := BuildIslands(bodies, nil, [][2]EntityId{{a, b}})
	if len(islands) != 1 {
		t.Fatalf("expected a single island joining a and b, got %d", len(islands))
	}
	if len(islands[0].Bodies) != 2 {
		t.Errorf("expected both bodies in the joined island, got %d", len(islands[0].Bodies))
	}
}

func TestBuildIslandsAwakeReflectsAnyAwakeBody(t *testing.T) {
	bodies := NewBodyPool()
	a := newDynamicBody(t, bodies)
	b := newDynamicBody(t, bodies)
	if v, ok := bodies.Get(b); ok {
		v.Sleep()
	}

	islands := BuildIslands(bodies, []Contact{{BodyA: a, BodyB: b}}, nil)
	if len(islands) != 1 || !islands[0].Awake {
		t.Error("expected the merged island to be awake since body a is awake")
	}
}

func TestBuildIslandsAllSleepingIsNotAwake(t *testing.T) {
	bodies := NewBodyPool()
	a := newDynamicBody(t, bodies)
	if v, ok := bodies.Get(a); ok {
		v.Sleep()
	}
	islands := BuildIslands(bodies, nil, nil)
	if len(islands) != 1 || islands[0].Awake {
		t.Error("expected a solo sleeping body's island to not be awake")
	}
}
