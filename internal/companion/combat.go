package companion

import (
	"math"

	"github.com/Garsondee/Companion-Sense/internal/geom"
)

// --- Combat constants ---

const (
	tacticalTier     Tier = 3 // below this the agent charges straight in
	evasiveTier      Tier = 4 // dodges and backs off when crowded
	dodgeChance           = 0.10
	dodgeRangeFactor      = 0.7 // dodge only inside combatRange × this
	backOffFactor         = 0.5 // retreat inside combatRange × this
	tierDamageStep        = 0.2
	hitTrustGain          = 1
)

var roleDamageMul = map[Role]float64{
	RoleFighter:    1.3,
	RoleScout:      0.9,
	RoleMedic:      0.7,
	RoleEngineer:   1.0,
	RoleNegotiator: 0.8,
}

// Damage returns the damage one attack deals for a tier and role.
func Damage(base float64, t Tier, r Role) float64 {
	mul, ok := roleDamageMul[r]
	if !ok {
		mul = 1.0
	}
	return base * (1 + float64(t.index()-1)*tierDamageStep) * mul
}

// combatTick runs one decision in the Combat state.
func (a *Agent) combatTick(t Tier, p Protectee) {
	target, ok := a.resolveTarget()
	if !ok {
		a.clearTarget()
		a.setState(StateFollow, "target lost")
		return
	}
	self := a.nav.Position()
	dist := geom.Dist(self, target.Position)
	if dist > RetreatRange(a.params.BaseDetectionRange, t) {
		a.clearTarget()
		a.setState(StateFollow, "target out of range")
		return
	}
	if t < tacticalTier {
		a.basicCombat(target, dist, t)
		return
	}
	a.tacticalCombat(target, dist, t, p)
}

func (a *Agent) basicCombat(target Entity, dist float64, t Tier) {
	if dist > CombatRange(t) {
		a.nav.SetDestination(target.Position)
		return
	}
	a.strike(target)
}

func (a *Agent) tacticalCombat(target Entity, dist float64, t Tier, p Protectee) {
	if a.anim.IsDodging() {
		return
	}
	cr := CombatRange(t)
	self := a.nav.Position()

	if t >= evasiveTier && a.caps.CanDodge && dist < cr*dodgeRangeFactor && a.rng.Float64() < dodgeChance {
		a.dodge(self, target.Position)
		return
	}

	switch {
	case dist > cr:
		slot := a.tacticalSlot(t, p.Position(), target.Position)
		a.slot, a.hasSlot = slot, true
		a.nav.SetDestination(slot)
	case t >= evasiveTier && dist < cr*backOffFactor:
		slot := RetreatPoint(self, target.Position)
		a.slot, a.hasSlot = slot, true
		a.nav.SetDestination(slot)
	default:
		a.strike(target)
	}
}

// tacticalSlot picks the positioning scheme for the tier, honouring a Flank
// order for the current engagement.
func (a *Agent) tacticalSlot(t Tier, protectee, target geom.Vec3) geom.Vec3 {
	tp := Positioner{Nav: a.nav, SampleRadius: a.params.SampleRadius}
	tactic := TacticFor(t)
	if a.forceFlank {
		tactic = TacticFlank
	}
	switch tactic {
	case TacticCoordinated:
		peers := a.roster.Nearby(a.ID, a.nav.Position(), coordinationRadius, StateCombat)
		return tp.Coordinated(a.ID, peers, protectee, target, a.rng)
	case TacticFlank:
		return tp.Flank(protectee, target, a.rng)
	default:
		return tp.Basic(protectee, target, a.rng)
	}
}

func (a *Agent) dodge(self, threat geom.Vec3) {
	away := self.Add(self.Sub(threat).Flat().Normalize().Scale(dodgeDistance))
	p, ok := a.nav.SamplePosition(away, a.params.SampleRadius)
	if !ok {
		p = self
	}
	a.anim.TriggerDodge()
	a.nav.SetDestination(p)
}

// strike stops, faces the target and attacks when the cooldown allows.
func (a *Agent) strike(target Entity) {
	a.nav.ResetPath()
	a.nav.FaceTowards(target.Position)
	if a.now-a.lastAttack < a.params.AttackCooldown {
		return
	}
	a.lastAttack = a.now
	a.anim.TriggerAttack()
	if a.params.DamageOnAnimationEvent {
		a.pendingHit = target.ID
		return
	}
	a.applyDamage(target.ID)
}

// ApplyAttackDamage resolves a deferred attack. Hosts call it from the attack
// animation event when DamageOnAnimationEvent is set. It reports whether
// damage landed.
func (a *Agent) ApplyAttackDamage() bool {
	id := a.pendingHit
	a.pendingHit = NoEntity
	if id == NoEntity {
		return false
	}
	return a.applyDamage(id)
}

func (a *Agent) applyDamage(id EntityID) bool {
	e, ok := a.world.Lookup(id)
	if !ok || e.Destroyed {
		return false
	}
	if !a.world.CanBeDamagedBy(id, WeaponCompanion) {
		return false
	}
	dmg := Damage(a.params.BaseDamage, a.Tier(), a.identity.Role())
	a.world.TakeDamage(id, dmg, WeaponCompanion)
	if a.OnHit != nil {
		a.OnHit(id, dmg)
	}
	a.awardTrust(hitTrustGain, TrustReasonAttackHit)
	return true
}

// neverAttacked seeds lastAttack so the first strike is never throttled.
var neverAttacked = math.Inf(-1)
