package companion

import (
	"math"
	"testing"

	"github.com/Garsondee/Companion-Sense/internal/geom"
)

// Protectee west of the target; the flank axis runs along Z.
var (
	flankProtectee = geom.V(-10, 0, 0)
	flankTarget    = geom.V(0, 0, 0)
)

func TestFlank_BothNavigablePicksNearer(t *testing.T) {
	nav := newStubNav(geom.V(0, 0, 2))
	tp := Positioner{Nav: nav, SampleRadius: 2}
	got := tp.Flank(flankProtectee, flankTarget, &seqRand{})
	if want := geom.V(0, 0, 3.5); got != want {
		t.Fatalf("expected nearer side %+v, got %+v", want, got)
	}
	nav.pos = geom.V(0, 0, -2)
	if got := tp.Flank(flankProtectee, flankTarget, &seqRand{}); got != geom.V(0, 0, -3.5) {
		t.Fatalf("expected the other side when standing there, got %+v", got)
	}
}

func TestFlank_OnlyOneSideNavigable(t *testing.T) {
	nav := newStubNav(geom.V(0, 0, 2))
	nav.blocked = func(p geom.Vec3) bool { return p.Z > 0 }
	tp := Positioner{Nav: nav, SampleRadius: 2}
	if got := tp.Flank(flankProtectee, flankTarget, &seqRand{}); got != geom.V(0, 0, -3.5) {
		t.Fatalf("expected the only navigable side, got %+v", got)
	}
}

func TestFlank_NeitherSideFallsBackToBasic(t *testing.T) {
	nav := newStubNav(geom.V(0, 0, 2))
	nav.blocked = func(p geom.Vec3) bool { return math.Abs(p.Z-3.5) < 1e-9 || math.Abs(p.Z+3.5) < 1e-9 }
	tp := Positioner{Nav: nav, SampleRadius: 2}
	got := tp.Flank(flankProtectee, flankTarget, &seqRand{vals: []float64{0.1}})
	if want := geom.V(0, 0, -3); got != want {
		t.Fatalf("expected basic point %+v, got %+v", want, got)
	}
}

func TestBasic_FallsBackToCurrentPosition(t *testing.T) {
	nav := newStubNav(geom.V(1, 0, 1))
	nav.blocked = func(geom.Vec3) bool { return true }
	tp := Positioner{Nav: nav, SampleRadius: 2}
	if got := tp.Basic(flankProtectee, flankTarget, &seqRand{}); got != nav.pos {
		t.Fatalf("expected current position, got %+v", got)
	}
}

func TestCoordinatedSlot_EvenRingAvoidsProtecteeSide(t *testing.T) {
	const n = 3
	toProtectee := flankProtectee.Sub(flankTarget)
	seen := map[[2]int64]bool{}
	for k := 1; k <= n; k++ {
		slot := CoordinatedSlot(flankProtectee, flankTarget, k, n)
		if d := geom.Dist(slot, flankTarget); math.Abs(d-4) > 1e-9 {
			t.Fatalf("slot %d: expected radius 4, got %.6f", k, d)
		}
		if a := geom.AngleDeg(toProtectee, slot.Sub(flankTarget)); a < 90-1e-6 {
			t.Fatalf("slot %d sits %.1f° from the protectee bearing", k, a)
		}
		key := [2]int64{int64(math.Round(slot.X * 1e6)), int64(math.Round(slot.Z * 1e6))}
		if seen[key] {
			t.Fatalf("slot %d duplicates another slot", k)
		}
		seen[key] = true
	}
}

func TestCoordinatedSlot_PairFlanksAtThirds(t *testing.T) {
	toProtectee := flankProtectee.Sub(flankTarget)
	a := CoordinatedSlot(flankProtectee, flankTarget, 1, 2)
	b := CoordinatedSlot(flankProtectee, flankTarget, 2, 2)
	for i, slot := range []geom.Vec3{a, b} {
		if got := geom.AngleDeg(toProtectee, slot.Sub(flankTarget)); math.Abs(got-120) > 1e-6 {
			t.Fatalf("slot %d: expected 120° from the protectee side, got %.3f", i+1, got)
		}
	}
	if geom.Dist(a, b) < 1 {
		t.Fatalf("pair slots coincide: %+v %+v", a, b)
	}
}

func TestOrdinal_StableByID(t *testing.T) {
	peers := []PeerSnapshot{{ID: 9}, {ID: 2}}
	if got := Ordinal(5, peers); got != 2 {
		t.Fatalf("expected ordinal 2, got %d", got)
	}
	if got := Ordinal(1, peers); got != 1 {
		t.Fatalf("expected ordinal 1, got %d", got)
	}
	if got := Ordinal(12, nil); got != 1 {
		t.Fatalf("lone agent should take ordinal 1, got %d", got)
	}
}

func TestCoordinated_PeersTakeDistinctSlots(t *testing.T) {
	roster := NewRoster()
	w := newStubWorld()
	w.addHostile(3, flankTarget, HostileChase)
	prot := &stubProtectee{pos: flankProtectee, fwd: geom.V(1, 0, 0), health: 1}
	var agents []*Agent
	for i, pos := range []geom.Vec3{geom.V(-6, 0, 1), geom.V(-6, 0, -1)} {
		a := NewAgent(AgentID(i+1), Deps{
			Nav:       newStubNav(pos),
			Identity:  &stubIdentity{trust: 95},
			Protectee: prot,
			World:     w,
			Rand:      &seqRand{},
		}, DefaultParams(), AllCapabilities())
		roster.Add(a)
		a.Execute(CommandAttack, On(3))
		agents = append(agents, a)
	}
	for _, a := range agents {
		a.Tick(1)
	}
	s1, ok1 := agents[0].TacticalSlot()
	s2, ok2 := agents[1].TacticalSlot()
	if !ok1 || !ok2 {
		t.Fatal("both agents should compute slots")
	}
	if geom.Dist(s1, s2) < 1 {
		t.Fatalf("coordinated agents share a slot: %+v %+v", s1, s2)
	}
}
