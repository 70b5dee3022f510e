package companion

import (
	"math"
	"testing"

	"github.com/Garsondee/Companion-Sense/internal/geom"
)

func TestPerceptionFor_Tier1Blind(t *testing.T) {
	if _, ok := PerceptionFor(1, DefaultParams()); ok {
		t.Fatal("tier 1 should not perceive")
	}
	cone, ok := PerceptionFor(5, DefaultParams())
	if !ok {
		t.Fatal("tier 5 should perceive")
	}
	if math.Abs(cone.Range-15*1.3) > 1e-9 || math.Abs(cone.Angle-120*1.4) > 1e-9 {
		t.Fatalf("unexpected tier 5 cone %+v", cone)
	}
}

func TestInCone_AheadBehindAndEdge(t *testing.T) {
	cone := Perception{Range: 10, Angle: 90}
	origin, fwd := geom.V(0, 0, 0), geom.V(1, 0, 0)
	if !cone.InCone(origin, fwd, geom.V(5, 0, 0)) {
		t.Fatal("target directly ahead should be in cone")
	}
	if cone.InCone(origin, fwd, geom.V(-5, 0, 0)) {
		t.Fatal("target behind should not be in cone")
	}
	if cone.InCone(origin, fwd, geom.V(11, 0, 0)) {
		t.Fatal("target beyond range should not be in cone")
	}
	// Half-angle is 45°.
	if cone.InCone(origin, fwd, geom.V(3, 0, 3.1)) {
		t.Fatal("target just outside the edge should be excluded")
	}
	if !cone.InCone(origin, fwd, geom.V(3, 0, 2.9)) {
		t.Fatal("target just inside the edge should be included")
	}
}

func TestScan_SkipsOccludedAndPicksFirstVisible(t *testing.T) {
	w := newStubWorld()
	w.addHostile(1, geom.V(4, 0, 0), HostileIdle)
	w.addHostile(2, geom.V(6, 0, 1), HostileIdle)
	w.walls = func(_, to geom.Vec3) bool { return to.X < 5 } // wall hides hostile 1
	cone, _ := PerceptionFor(3, DefaultParams())
	id, ok := cone.Scan(geom.V(0, 0, 0), geom.V(1, 0, 0), w)
	if !ok || id != 2 {
		t.Fatalf("expected hostile 2, got %d (%v)", id, ok)
	}
}

func TestScenario_Tier3SpotsHostileInCone(t *testing.T) {
	r := newRig(50, RoleFighter)
	r.world.addHostile(9, geom.V(5, 0, 0), HostileChase)
	r.agent.Tick(1)
	if r.agent.State() != StateCombat {
		t.Fatalf("expected follow → combat, got %s", r.agent.State())
	}
	if id, _ := r.agent.Target(); id != 9 {
		t.Fatalf("expected target 9, got %d", id)
	}
	last := r.log[len(r.log)-1]
	if last.From != StateFollow || last.To != StateCombat {
		t.Fatalf("unexpected transition %s → %s", last.From, last.To)
	}
}

func TestScenario_Tier1IgnoresHostile(t *testing.T) {
	r := newRig(5, RoleFighter)
	r.world.addHostile(9, geom.V(2, 0, 0), HostileChase)
	r.agent.Tick(1)
	if r.agent.State() != StateFollow {
		t.Fatalf("tier 1 should keep following, got %s", r.agent.State())
	}
}
