package companion

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/Garsondee/Companion-Sense/internal/geom"
)

const (
	idleLeashFactor    = 2.0 // Idle → Follow beyond followDistance × this
	supportOffset      = 1.5 // behind the protectee
	supportArriveRange = 2.0
	exploreAttempts    = 3
	exploreMinFraction = 0.3 // of ExploreRadius
)

// Deps are the collaborators an agent drives. Nav, Identity, Protectee and
// World are required; the rest have inert defaults.
type Deps struct {
	Nav       Navigator
	Identity  Identity
	Protectee ProtecteeFinder
	World     World
	Animator  Animator
	Rand      RandomSource
	Logger    *slog.Logger
}

// Agent is one autonomous companion: it owns the behaviour state machine and
// orchestrates perception, danger assessment, positioning and combat.
type Agent struct {
	ID AgentID

	nav      Navigator
	identity Identity
	finder   ProtecteeFinder
	world    World
	anim     Animator
	rng      RandomSource
	log      *slog.Logger
	roster   *Roster
	params   Params
	caps     Capabilities

	state      State
	spawned    bool
	target     EntityID
	lastAttack float64
	pendingHit EntityID
	now        float64
	forceFlank bool

	exploreAnchor    geom.Vec3
	hasExploreAnchor bool

	running   bool
	crouching bool

	// Last tactical slot driven this tick, kept for debug overlays only.
	slot    geom.Vec3
	hasSlot bool

	listeners []StateListener

	// OnAdvanced handles CommandAdvanced. Without it the command is accepted
	// and does nothing.
	OnAdvanced func(a *Agent, args CommandArgs) bool

	// OnHit, when set, observes every attack that dealt damage.
	OnHit func(target EntityID, damage float64)
}

// NewAgent builds an agent. It stays unspawned until its first decision
// locates the protectee.
func NewAgent(id AgentID, deps Deps, params Params, caps Capabilities) *Agent {
	a := &Agent{
		ID:         id,
		nav:        deps.Nav,
		identity:   deps.Identity,
		finder:     deps.Protectee,
		world:      deps.World,
		anim:       deps.Animator,
		rng:        deps.Rand,
		log:        deps.Logger,
		params:     params,
		caps:       caps,
		state:      StateIdle,
		lastAttack: neverAttacked,
	}
	if a.anim == nil {
		a.anim = nopAnimator{}
	}
	if a.rng == nil {
		a.rng = rand.New(rand.NewSource(int64(id))) // #nosec G404 -- gameplay randomness
	}
	if a.log == nil {
		a.log = slog.New(slog.DiscardHandler)
	}
	return a
}

// --- Accessors ---

func (a *Agent) State() State               { return a.state }
func (a *Agent) Spawned() bool              { return a.spawned }
func (a *Agent) Position() geom.Vec3        { return a.nav.Position() }
func (a *Agent) Params() Params             { return a.params }
func (a *Agent) Capabilities() Capabilities { return a.caps }

// MovementStyle returns the running/crouching intent chosen last decision.
func (a *Agent) MovementStyle() (running, crouching bool) {
	return a.running, a.crouching
}

// Tier recomputes competence from the identity's current trust.
func (a *Agent) Tier() Tier { return TierFor(a.identity.Trust()) }

// Identity exposes the agent's identity record.
func (a *Agent) Identity() Identity { return a.identity }

// Target returns the current target handle, if any. The handle may be stale
// until the next decision revalidates it.
func (a *Agent) Target() (EntityID, bool) { return a.target, a.target != NoEntity }

// TacticalSlot returns the last point a tactical decision drove toward.
func (a *Agent) TacticalSlot() (geom.Vec3, bool) { return a.slot, a.hasSlot }

// OnStateChange registers a state-change listener.
func (a *Agent) OnStateChange(fn StateListener) {
	a.listeners = append(a.listeners, fn)
}

// setState is the single state mutator. It fires the notification, resets
// navigation speed for the new state and clears the path when idling.
func (a *Agent) setState(to State, reason string) {
	// An order issued before spawn counts as the initial state.
	a.spawned = true
	from := a.state
	if from == to {
		return
	}
	a.state = to
	if from == StateCombat {
		a.forceFlank = false
	}
	if from == StateExplore {
		a.hasExploreAnchor = false
	}
	a.nav.SetSpeed(a.params.stateSpeed(to))
	if to == StateIdle {
		a.nav.ResetPath()
	}
	a.log.Debug("state change", "agent", a.ID, "from", from, "to", to, "reason", reason)
	ev := StateChange{Agent: a.ID, From: from, To: to, Reason: reason, Time: a.now}
	for _, fn := range a.listeners {
		fn(ev)
	}
}

// awardTrust passes a trust gain to the identity, with its reason when the
// identity records one.
func (a *Agent) awardTrust(delta int, reason string) {
	if rt, ok := a.identity.(ReasonedTrust); ok {
		rt.ChangeTrustFor(delta, reason)
		return
	}
	a.identity.ChangeTrust(delta)
}

func (a *Agent) clearTarget() {
	a.target = NoEntity
	a.hasSlot = false
}

// resolveTarget revalidates the weak target handle.
func (a *Agent) resolveTarget() (Entity, bool) {
	if a.target == NoEntity {
		return Entity{}, false
	}
	e, ok := a.world.Lookup(a.target)
	if !ok || e.Destroyed {
		return Entity{}, false
	}
	return e, true
}

// Tick runs one decision at simulation time now.
func (a *Agent) Tick(now float64) {
	a.now = now
	p, ok := a.finder.FindProtectee()
	if !ok {
		return
	}
	if !a.spawned {
		a.spawned = true
		a.setState(StateFollow, "protectee located")
	}
	t := a.Tier()

	// Never carry a dangling handle across a tick boundary.
	if a.target != NoEntity {
		if _, ok := a.resolveTarget(); !ok {
			a.clearTarget()
			if a.state == StateCombat {
				a.setState(StateFollow, "target lost")
			}
		}
	}

	if !a.assessDanger(t, p) {
		switch a.state {
		case StateIdle:
			a.idleTick(p)
		case StateFollow:
			a.followTick(t, p)
		case StateCombat:
			a.combatTick(t, p)
		case StateExplore:
			a.exploreTick(t, p)
		case StateSupport:
			a.supportTick(p)
		}
	}
	a.applyMovementStyle(t, p)
}

// perceive engages the first visible hostile. It reports whether combat
// started.
func (a *Agent) perceive(t Tier) bool {
	cone, ok := PerceptionFor(t, a.params)
	if !ok {
		return false
	}
	id, ok := cone.Scan(a.nav.Position(), a.nav.Forward(), a.world)
	if !ok {
		return false
	}
	a.target = id
	a.setState(StateCombat, "hostile spotted")
	return true
}

func (a *Agent) idleTick(p Protectee) {
	if geom.Dist(a.nav.Position(), p.Position()) > idleLeashFactor*a.params.FollowDistance {
		a.setState(StateFollow, "protectee left")
	}
}

func (a *Agent) followTick(t Tier, p Protectee) {
	if a.perceive(t) {
		return
	}
	if geom.Dist(a.nav.Position(), p.Position()) > a.params.FollowDistance {
		a.nav.SetDestination(p.Position())
		return
	}
	if a.nav.HasPath() {
		a.nav.ResetPath()
	}
}

func (a *Agent) exploreTick(t Tier, p Protectee) {
	if a.perceive(t) {
		return
	}
	if a.nav.HasPath() && a.nav.RemainingDistance() > a.params.ArriveDistance {
		return
	}
	center := p.Position()
	if a.hasExploreAnchor {
		center = a.exploreAnchor
	}
	if dest, ok := a.randomPointNear(center); ok {
		a.nav.SetDestination(dest)
		return
	}
	a.setState(StateFollow, "nothing reachable to explore")
}

func (a *Agent) randomPointNear(center geom.Vec3) (geom.Vec3, bool) {
	r := a.params.ExploreRadius
	for i := 0; i < exploreAttempts; i++ {
		ang := a.rng.Float64() * 2 * math.Pi
		dist := r * (exploreMinFraction + (1-exploreMinFraction)*a.rng.Float64())
		cand := center.Add(geom.V(math.Cos(ang)*dist, 0, math.Sin(ang)*dist))
		if p, ok := a.nav.SamplePosition(cand, a.params.SampleRadius); ok {
			return p, true
		}
	}
	return geom.Vec3{}, false
}

// SupportPosition is where the agent covers the protectee from: just behind
// them, snapped to the navigation surface.
func (a *Agent) SupportPosition(p Protectee) geom.Vec3 {
	behind := p.Position().Sub(p.Forward().Flat().Normalize().Scale(supportOffset))
	if pos, ok := a.nav.SamplePosition(behind, a.params.SampleRadius); ok {
		return pos
	}
	return p.Position()
}

func (a *Agent) supportTick(p Protectee) {
	pos := a.SupportPosition(p)
	if geom.Dist(a.nav.Position(), pos) <= supportArriveRange {
		a.setState(StateFollow, "in support position")
		return
	}
	a.nav.SetDestination(pos)
}
