package companion

// Tier is the competence level derived from trust, 1 (novice) to 5 (elite).
// It is always recomputed from trust and never stored.
type Tier int

const (
	MinTier Tier = 1
	MaxTier Tier = 5
)

// TierFor maps trust in [0,100] to a tier. Out-of-range trust yields tier 1.
func TierFor(trust int) Tier {
	switch {
	case trust < 0 || trust > 100:
		return 1
	case trust <= 20:
		return 1
	case trust <= 40:
		return 2
	case trust <= 60:
		return 3
	case trust <= 80:
		return 4
	default:
		return 5
	}
}

// --- Per-tier scaling tables (index 0 unused) ---

var (
	decisionMultiplier = [6]float64{0, 2.0, 1.5, 1.0, 0.8, 0.6}
	detectionRangeMul  = [6]float64{0, 0.5, 0.7, 0.9, 1.1, 1.3}
	detectionAngleMul  = [6]float64{0, 0.6, 0.8, 1.0, 1.2, 1.4}
	combatRangeTable   = [6]float64{0, 1.5, 2.0, 2.5, 3.0, 3.5}
	retreatRangeMul    = [6]float64{0, 1.0, 1.2, 1.4, 1.6, 1.8}
)

func (t Tier) index() int {
	if t < MinTier || t > MaxTier {
		return 1
	}
	return int(t)
}

// DecisionInterval returns how long an agent of this tier waits between
// decisions. Higher tiers react faster.
func DecisionInterval(base float64, t Tier) float64 {
	return base * decisionMultiplier[t.index()]
}

// CombatRange is the distance inside which the agent attacks.
func CombatRange(t Tier) float64 {
	return combatRangeTable[t.index()]
}

// RetreatRange is the distance beyond which the agent drops its target.
func RetreatRange(baseDetectionRange float64, t Tier) float64 {
	if t.index() == 1 {
		return baseDetectionRange
	}
	return baseDetectionRange * retreatRangeMul[t.index()]
}
