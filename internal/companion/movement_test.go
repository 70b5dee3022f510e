package companion

import "testing"

func TestSelectStyle_Follow(t *testing.T) {
	caps := AllCapabilities()
	base := StyleInput{State: StateFollow, Tier: 3, FollowDistance: 3}

	far := base
	far.ProtecteeDistance = 7
	if run, crouch := SelectStyle(far, caps, &seqRand{}); !run || crouch {
		t.Fatalf("far follower should run, got run=%v crouch=%v", run, crouch)
	}

	near := base
	near.ProtecteeDistance = 1
	if run, crouch := SelectStyle(near, caps, &seqRand{}); run || !crouch {
		t.Fatalf("tier 3 close follower should crouch, got run=%v crouch=%v", run, crouch)
	}

	near.Tier = 2
	if _, crouch := SelectStyle(near, caps, &seqRand{}); crouch {
		t.Fatal("tier 2 never crouches while following")
	}
}

func TestSelectStyle_Tier4MirrorsProtecteeCrouch(t *testing.T) {
	in := StyleInput{State: StateFollow, Tier: 4, FollowDistance: 3, ProtecteeDistance: 8, ProtecteeCrouching: true}
	if run, crouch := SelectStyle(in, AllCapabilities(), &seqRand{}); run || !crouch {
		t.Fatalf("mirrored crouch should override running, got run=%v crouch=%v", run, crouch)
	}
	in.ProtecteeCrouching = false
	in.ProtecteeDistance = 1
	if _, crouch := SelectStyle(in, AllCapabilities(), &seqRand{}); crouch {
		t.Fatal("tier 4 should stand when the protectee stands")
	}
}

func TestSelectStyle_CombatAndCapabilities(t *testing.T) {
	in := StyleInput{State: StateCombat, Tier: 1}
	if run, _ := SelectStyle(in, AllCapabilities(), &seqRand{}); run {
		t.Fatal("tier 1 does not run in combat")
	}
	in.Tier = 4
	if run, crouch := SelectStyle(in, AllCapabilities(), &seqRand{vals: []float64{0.1}}); run || !crouch {
		t.Fatalf("lucky tier 4 roll should crouch, got run=%v crouch=%v", run, crouch)
	}
	if run, crouch := SelectStyle(in, Capabilities{CanRun: true}, &seqRand{vals: []float64{0.1}}); !run || crouch {
		t.Fatalf("without crouch capability the agent keeps running, got run=%v crouch=%v", run, crouch)
	}
	if run, _ := SelectStyle(in, Capabilities{}, &seqRand{}); run {
		t.Fatal("capability mask should suppress running")
	}
}

func TestSelectStyle_ExploreAndSupport(t *testing.T) {
	if _, crouch := SelectStyle(StyleInput{State: StateExplore, Tier: 3}, AllCapabilities(), &seqRand{vals: []float64{0.1}}); !crouch {
		t.Fatal("tier 3 explore should crouch on a low roll")
	}
	if _, crouch := SelectStyle(StyleInput{State: StateExplore, Tier: 2}, AllCapabilities(), &seqRand{vals: []float64{0.1}}); crouch {
		t.Fatal("tier 2 explore never crouches")
	}
	if run, _ := SelectStyle(StyleInput{State: StateSupport, Tier: 2}, AllCapabilities(), &seqRand{}); !run {
		t.Fatal("support runs from tier 2")
	}
}

func TestSpeed_Ordering(t *testing.T) {
	p := DefaultParams()
	crouch := p.Speed(StateFollow, false, true)
	walk := p.Speed(StateFollow, false, false)
	run := p.Speed(StateFollow, true, false)
	if !(crouch < walk && walk < run) {
		t.Fatalf("expected crouch < walk < run, got %.2f %.2f %.2f", crouch, walk, run)
	}
	if p.Speed(StateCombat, false, false) <= walk {
		t.Fatal("combat base speed should be elevated")
	}
}

func TestTick_AppliesStyleToAvatarAndSink(t *testing.T) {
	r := newRig(50, RoleFighter)
	r.prot.pos = r.nav.pos.Add(r.prot.fwd.Scale(-10))
	r.agent.Tick(1)
	if !r.anim.lastRun {
		t.Fatal("distant protectee should make the follower run")
	}
	if r.nav.speed != DefaultParams().RunSpeed {
		t.Fatalf("expected run speed, got %.2f", r.nav.speed)
	}
}
