package companion

import (
	"sort"

	"github.com/Garsondee/Companion-Sense/internal/geom"
)

const (
	basicFlankOffset     = 3.0
	flankOffset          = 3.5
	coordinationRadius   = 15.0
	coordinatedRingRange = 4.0
	retreatStep          = 2.0
	dodgeDistance        = 3.0
)

// Tactic selects how a tactical agent positions itself around a target.
type Tactic int

const (
	TacticBasic       Tactic = iota // one side of the approach axis
	TacticFlank                     // nearer of both sides
	TacticCoordinated               // evenly spaced ring shared with peers
)

func (t Tactic) String() string {
	switch t {
	case TacticBasic:
		return "basic"
	case TacticFlank:
		return "flank"
	case TacticCoordinated:
		return "coordinated"
	default:
		return "unknown"
	}
}

// TacticFor returns the positioning scheme a tier uses.
func TacticFor(t Tier) Tactic {
	switch {
	case t >= 5:
		return TacticCoordinated
	case t >= 4:
		return TacticFlank
	default:
		return TacticBasic
	}
}

// Positioner computes ephemeral tactical slots. Points are recomputed every
// tick and never stored beyond the navigation command they drive.
type Positioner struct {
	Nav          Navigator
	SampleRadius float64
}

func (tp Positioner) snap(p geom.Vec3) (geom.Vec3, bool) {
	return tp.Nav.SamplePosition(p, tp.SampleRadius)
}

// approachAxis returns the protectee→target bearing on the ground plane and
// the sideways axis perpendicular to it. When protectee and target overlap,
// the agent's own bearing stands in.
func approachAxis(self, protectee, target geom.Vec3) (dir, side geom.Vec3) {
	dir = target.Sub(protectee).Flat().Normalize()
	if dir.IsZero() {
		dir = target.Sub(self).Flat().Normalize()
	}
	return dir, dir.Cross(geom.Up)
}

// Basic picks one side of the approach axis at random. It falls back to the
// agent's current position when nothing navigable is nearby.
func (tp Positioner) Basic(protectee, target geom.Vec3, rng RandomSource) geom.Vec3 {
	self := tp.Nav.Position()
	_, side := approachAxis(self, protectee, target)
	sign := 1.0
	if rng.Float64() < 0.5 {
		sign = -1
	}
	if p, ok := tp.snap(target.Add(side.Scale(basicFlankOffset * sign))); ok {
		return p
	}
	return self
}

// Flank tries both sides of the target and keeps the navigable one nearer to
// the agent. With neither navigable it degrades to Basic.
func (tp Positioner) Flank(protectee, target geom.Vec3, rng RandomSource) geom.Vec3 {
	self := tp.Nav.Position()
	_, side := approachAxis(self, protectee, target)
	left, okL := tp.snap(target.Add(side.Scale(flankOffset)))
	right, okR := tp.snap(target.Sub(side.Scale(flankOffset)))
	switch {
	case okL && okR:
		if geom.Dist(self, right) < geom.Dist(self, left) {
			return right
		}
		return left
	case okL:
		return left
	case okR:
		return right
	default:
		return tp.Basic(protectee, target, rng)
	}
}

// CoordinatedSlot returns ring slot ordinal (1..n) of n participants around
// target. The ring has n+1 evenly spaced slots; slot 0 sits on the
// protectee's side of the target and is left for the protectee.
//
// Angles are measured from the target→protectee direction so that slot 0 is
// the reserved one. Measured from protectee→target instead, every slot is
// offset by 180°: for n=2 the companions stand 120° either side of the
// target→protectee direction, 60° off the protectee→target line.
func CoordinatedSlot(protectee, target geom.Vec3, ordinal, n int) geom.Vec3 {
	if n < 1 {
		n = 1
	}
	step := 360.0 / float64(n+1)
	toProtectee := protectee.Sub(target).Flat().Normalize()
	if toProtectee.IsZero() {
		toProtectee = geom.V(-1, 0, 0)
	}
	return target.Add(toProtectee.RotateY(float64(ordinal) * step).Scale(coordinatedRingRange))
}

// Ordinal ranks self among the participants by agent ID. The result is
// 1-based and stable for a given participant set.
func Ordinal(self AgentID, peers []PeerSnapshot) int {
	ids := make([]AgentID, 0, len(peers)+1)
	ids = append(ids, self)
	for _, p := range peers {
		if p.ID != self {
			ids = append(ids, p.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		if id == self {
			return i + 1
		}
	}
	return 1
}

// Coordinated spreads in-combat peers evenly around the target. Unreachable
// slots degrade to Flank.
func (tp Positioner) Coordinated(self AgentID, peers []PeerSnapshot, protectee, target geom.Vec3, rng RandomSource) geom.Vec3 {
	n := len(peers) + 1
	slot := CoordinatedSlot(protectee, target, Ordinal(self, peers), n)
	if p, ok := tp.snap(slot); ok {
		return p
	}
	return tp.Flank(protectee, target, rng)
}

// RetreatPoint steps directly away from the target.
func RetreatPoint(self, target geom.Vec3) geom.Vec3 {
	return self.Add(self.Sub(target).Flat().Normalize().Scale(retreatStep))
}
