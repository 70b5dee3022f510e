package companion

import "github.com/Garsondee/Companion-Sense/internal/geom"

const (
	combatCrouchChance  = 0.30
	exploreCrouchChance = 0.20
)

// StyleInput is everything the movement-style selector looks at.
type StyleInput struct {
	State              State
	Tier               Tier
	ProtecteeDistance  float64
	FollowDistance     float64
	ProtecteeCrouching bool
}

// SelectStyle derives running/crouching intent for the locomotion sink and
// masks it with the body's capabilities. Crouching wins over running.
func SelectStyle(in StyleInput, caps Capabilities, rng RandomSource) (running, crouching bool) {
	switch in.State {
	case StateFollow:
		running = in.ProtecteeDistance > 2*in.FollowDistance
		crouching = in.ProtecteeDistance < 0.5*in.FollowDistance && in.Tier >= 3
		if in.Tier >= 4 {
			crouching = in.ProtecteeCrouching
		}
	case StateCombat:
		running = in.Tier >= 2
		if in.Tier >= 4 && rng.Float64() < combatCrouchChance {
			crouching = true
		}
	case StateExplore:
		crouching = in.Tier >= 3 && rng.Float64() < exploreCrouchChance
	case StateSupport:
		running = in.Tier >= 2
	}
	running = running && caps.CanRun
	crouching = crouching && caps.CanCrouch
	if crouching {
		running = false
	}
	return running, crouching
}

// stateSpeed is the navigation speed a state starts at before style applies.
func (p Params) stateSpeed(s State) float64 {
	if s == StateCombat {
		return p.CombatSpeed
	}
	return p.WalkSpeed
}

// Speed resolves the navigation speed for a style.
func (p Params) Speed(s State, running, crouching bool) float64 {
	switch {
	case crouching:
		return p.CrouchSpeed
	case running:
		return p.RunSpeed
	default:
		return p.stateSpeed(s)
	}
}

// applyMovementStyle pushes this tick's style to the sink and the avatar.
func (a *Agent) applyMovementStyle(t Tier, p Protectee) {
	a.running, a.crouching = SelectStyle(StyleInput{
		State:              a.state,
		Tier:               t,
		ProtecteeDistance:  geom.Dist(a.nav.Position(), p.Position()),
		FollowDistance:     a.params.FollowDistance,
		ProtecteeCrouching: p.IsCrouching(),
	}, a.caps, a.rng)
	a.nav.SetSpeed(a.params.Speed(a.state, a.running, a.crouching))
	a.anim.SetMovementState(a.state, a.running, a.crouching)
}
