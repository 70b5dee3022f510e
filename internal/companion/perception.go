package companion

import "github.com/Garsondee/Companion-Sense/internal/geom"

// minPerceptionTier is the lowest tier that scans for hostiles on its own.
const minPerceptionTier Tier = 2

// Perception is a tier-scaled vision cone.
type Perception struct {
	Range     float64 // world units
	Angle     float64 // degrees, total arc width
	EyeHeight float64
}

// PerceptionFor returns the cone for a tier. It reports false below tier 2,
// where the agent does not look for hostiles at all.
func PerceptionFor(t Tier, p Params) (Perception, bool) {
	if t < minPerceptionTier {
		return Perception{}, false
	}
	return Perception{
		Range:     p.BaseDetectionRange * detectionRangeMul[t.index()],
		Angle:     p.BaseDetectionAngle * detectionAngleMul[t.index()],
		EyeHeight: p.EyeHeight,
	}, true
}

// InCone reports whether point lies inside the cone of an observer at origin
// facing forward. Only the ground-plane bearing counts.
func (v Perception) InCone(origin, forward, point geom.Vec3) bool {
	to := point.Sub(origin).Flat()
	dist := to.Len()
	if dist > v.Range || dist < 1e-6 {
		return false
	}
	return geom.AngleDeg(forward.Flat(), to) < v.Angle/2
}

// Scan returns the first hostile inside the cone with a clear line of sight
// from eye height. Candidates are visited in the order the spatial service
// returns them.
func (v Perception) Scan(origin, forward geom.Vec3, world Spatial) (EntityID, bool) {
	eye := origin.Add(geom.Up.Scale(v.EyeHeight))
	for _, id := range world.Overlap(origin, v.Range, LayerHostile) {
		e, ok := world.Lookup(id)
		if !ok || e.Destroyed {
			continue
		}
		if !v.InCone(origin, forward, e.Position) {
			continue
		}
		// Cone passed; now the hard occlusion test toward centre mass.
		aim := e.Position.Add(geom.Up.Scale(v.EyeHeight * 0.5))
		if !world.Occluded(eye, aim) {
			return id, true
		}
	}
	return NoEntity, false
}
