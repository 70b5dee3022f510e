package companion

import "github.com/Garsondee/Companion-Sense/internal/geom"

const (
	minDangerTier Tier = 4

	dangerHealthFraction = 0.3
	dangerCrowdRadius    = 8.0
	dangerCrowdCount     = 2
	threatScanRadius     = 10.0
	chaseThreatBonus     = 0.8
	protectionTrustGain  = 2
)

// livingHostiles resolves the hostile handles around center, dropping
// anything already destroyed.
func livingHostiles(world Spatial, center geom.Vec3, radius float64) []Entity {
	var out []Entity
	for _, id := range world.Overlap(center, radius, LayerHostile) {
		e, ok := world.Lookup(id)
		if !ok || e.Destroyed {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Endangered reports whether the protectee needs cover: low health, crowded
// by hostiles, or stunned.
func Endangered(p Protectee, world Spatial) bool {
	if p.HealthFraction() < dangerHealthFraction {
		return true
	}
	if p.MovementStatus() == MovementStunned {
		return true
	}
	return len(livingHostiles(world, p.Position(), dangerCrowdRadius)) >= dangerCrowdCount
}

// ThreatScore rates a hostile at dist from the protectee. Closer and chasing
// hostiles score higher.
func ThreatScore(dist float64, b HostileBehavior) float64 {
	score := geom.Clamp(threatScanRadius-dist, 0, threatScanRadius) / threatScanRadius
	if b == HostileChase {
		score += chaseThreatBonus
	}
	return score
}

// MostThreatening returns the highest scoring hostile near the protectee
// that lies within reach of from. Ties keep the earlier candidate.
func MostThreatening(p Protectee, world Spatial, from geom.Vec3, reach float64) (EntityID, bool) {
	best := NoEntity
	bestScore := -1.0
	for _, e := range livingHostiles(world, p.Position(), threatScanRadius) {
		if geom.Dist(e.Position, from) > reach {
			continue
		}
		s := ThreatScore(geom.Dist(e.Position, p.Position()), e.Behavior)
		if s > bestScore {
			best, bestScore = e.ID, s
		}
	}
	return best, best != NoEntity
}

// assessDanger runs the protective check. It transitions the agent and
// reports true when it did so. Threats beyond the agent's retreat range are
// left alone, since combat would drop them on the next decision; the agent
// closes in through Support instead.
func (a *Agent) assessDanger(t Tier, p Protectee) bool {
	if t < minDangerTier || a.state == StateCombat {
		return false
	}
	if !Endangered(p, a.world) {
		return false
	}
	reach := RetreatRange(a.params.BaseDetectionRange, t)
	if id, ok := MostThreatening(p, a.world, a.nav.Position(), reach); ok {
		a.target = id
		a.setState(StateCombat, "protecting")
		a.awardTrust(protectionTrustGain, TrustReasonProtection)
		return true
	}
	if a.state != StateSupport {
		a.setState(StateSupport, "protectee endangered")
		return true
	}
	return false
}
