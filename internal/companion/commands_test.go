package companion

import (
	"testing"

	"github.com/Garsondee/Companion-Sense/internal/geom"
)

func TestCanExecute_Tier3Table(t *testing.T) {
	r := newRig(50, RoleFighter)
	want := map[Command]bool{
		CommandFollow:   true,
		CommandStay:     true,
		CommandAttack:   true,
		CommandDefend:   true,
		CommandMoveTo:   true,
		CommandScout:    true,
		CommandFlank:    false,
		CommandSupport:  false,
		CommandRetreat:  false,
		CommandAdvanced: false,
	}
	for cmd, ok := range want {
		if got := r.agent.CanExecute(cmd); got != ok {
			t.Errorf("tier 3 CanExecute(%s) = %v, want %v", cmd, got, ok)
		}
	}
	if n := len(r.agent.AvailableCommands()); n != 6 {
		t.Fatalf("expected 6 available commands at tier 3, got %d", n)
	}
}

func TestCanExecute_MatchesRequiredTier(t *testing.T) {
	for trust := 0; trust <= 100; trust += 10 {
		r := newRig(trust, RoleFighter)
		for c := Command(0); c < commandCount; c++ {
			want := TierFor(trust) >= RequiredTier(c)
			if got := r.agent.CanExecute(c); got != want {
				t.Fatalf("trust %d %s: got %v want %v", trust, c, got, want)
			}
		}
	}
}

func TestExecute_AttackWithoutTargetFails(t *testing.T) {
	r := newRig(90, RoleFighter)
	before := r.agent.State()
	if r.agent.Execute(CommandAttack, CommandArgs{}) {
		t.Fatal("attack without target should fail")
	}
	if r.agent.State() != before {
		t.Fatalf("state changed on failed command: %s → %s", before, r.agent.State())
	}
	if _, ok := r.agent.Target(); ok {
		t.Fatal("target set on failed command")
	}
}

func TestExecute_AttackWithTarget(t *testing.T) {
	r := newRig(30, RoleFighter)
	r.world.addHostile(7, geom.V(6, 0, 6), HostileIdle)
	if !r.agent.Execute(CommandAttack, On(7)) {
		t.Fatal("attack with a target at tier 2 should succeed")
	}
	if r.agent.State() != StateCombat {
		t.Fatalf("expected combat, got %s", r.agent.State())
	}
	if id, ok := r.agent.Target(); !ok || id != 7 {
		t.Fatalf("expected target 7, got %d (%v)", id, ok)
	}
}

func TestExecute_InsufficientTierLeavesStateAlone(t *testing.T) {
	r := newRig(10, RoleFighter)
	r.world.addHostile(7, geom.V(2, 0, 0), HostileIdle)
	if r.agent.Execute(CommandAttack, On(7)) {
		t.Fatal("tier 1 cannot attack on command")
	}
	if r.agent.State() != StateFollow {
		t.Fatalf("expected follow, got %s", r.agent.State())
	}
}

func TestExecute_MoveToRequiresPosition(t *testing.T) {
	r := newRig(50, RoleFighter)
	if r.agent.Execute(CommandMoveTo, CommandArgs{}) {
		t.Fatal("move_to without a position should fail")
	}
	dest := geom.V(8, 0, 3)
	if !r.agent.Execute(CommandMoveTo, At(dest)) {
		t.Fatal("move_to with a position should succeed")
	}
	if r.agent.State() != StateExplore {
		t.Fatalf("expected explore, got %s", r.agent.State())
	}
	if r.nav.dest != dest || !r.nav.hasPath {
		t.Fatalf("expected destination %+v, got %+v", dest, r.nav.dest)
	}
}

func TestExecute_StayIdlesAndClearsPath(t *testing.T) {
	r := newRig(10, RoleFighter)
	r.nav.SetDestination(geom.V(5, 0, 0))
	if !r.agent.Execute(CommandStay, CommandArgs{}) {
		t.Fatal("stay should always succeed")
	}
	if r.agent.State() != StateIdle {
		t.Fatalf("expected idle, got %s", r.agent.State())
	}
	if r.nav.hasPath {
		t.Fatal("entering idle should clear the navigation path")
	}
	last := r.log[len(r.log)-1]
	if last.From != StateFollow || last.To != StateIdle {
		t.Fatalf("unexpected notification %+v", last)
	}
}

func TestExecute_SupportAndRetreatNeedHighTier(t *testing.T) {
	r := newRig(70, RoleFighter)
	if !r.agent.Execute(CommandSupport, CommandArgs{}) || r.agent.State() != StateSupport {
		t.Fatalf("tier 4 support should enter support, got %s", r.agent.State())
	}
	if r.agent.Execute(CommandRetreat, CommandArgs{}) {
		t.Fatal("retreat needs tier 5")
	}
}

func TestExecute_RetreatStepsAwayFromTarget(t *testing.T) {
	r := newRig(95, RoleFighter)
	r.world.addHostile(3, geom.V(2, 0, 0), HostileChase)
	r.agent.Execute(CommandAttack, On(3))
	if !r.agent.Execute(CommandRetreat, CommandArgs{}) {
		t.Fatal("retreat should succeed at tier 5")
	}
	if r.agent.State() != StateFollow {
		t.Fatalf("expected follow after retreat, got %s", r.agent.State())
	}
	if _, ok := r.agent.Target(); ok {
		t.Fatal("retreat should drop the target")
	}
	if want := geom.V(-2, 0, 0); r.nav.dest != want {
		t.Fatalf("expected retreat destination %+v, got %+v", want, r.nav.dest)
	}
}

func TestExecute_AdvancedUsesHook(t *testing.T) {
	r := newRig(100, RoleFighter)
	if !r.agent.Execute(CommandAdvanced, CommandArgs{}) {
		t.Fatal("advanced without a hook should be accepted")
	}
	called := false
	r.agent.OnAdvanced = func(*Agent, CommandArgs) bool { called = true; return false }
	if r.agent.Execute(CommandAdvanced, CommandArgs{}) || !called {
		t.Fatal("advanced should defer to the hook result")
	}
}

func TestParseCommand_RoundTrip(t *testing.T) {
	for c := Command(0); c < commandCount; c++ {
		got, ok := ParseCommand(c.String())
		if !ok || got != c {
			t.Fatalf("ParseCommand(%q) = %v, %v", c.String(), got, ok)
		}
	}
	if _, ok := ParseCommand("dance"); ok {
		t.Fatal("unknown command parsed")
	}
}
