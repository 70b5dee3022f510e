package companion

// Params are the tunable baselines every tier scales from.
type Params struct {
	BaseDetectionRange   float64 // world units
	BaseDetectionAngle   float64 // degrees, full cone width
	EyeHeight            float64
	FollowDistance       float64
	ExploreRadius        float64
	SampleRadius         float64 // search radius when snapping to navigable points
	ArriveDistance       float64
	WalkSpeed            float64
	RunSpeed             float64
	CrouchSpeed          float64
	CombatSpeed          float64
	AttackCooldown       float64 // time units between attacks
	BaseDamage           float64
	BaseDecisionInterval float64

	// DamageOnAnimationEvent defers damage until the host calls
	// Agent.ApplyAttackDamage from its attack animation event.
	DamageOnAnimationEvent bool
}

// DefaultParams returns the baseline tuning.
func DefaultParams() Params {
	return Params{
		BaseDetectionRange:   15,
		BaseDetectionAngle:   120,
		EyeHeight:            1.6,
		FollowDistance:       3,
		ExploreRadius:        10,
		SampleRadius:         2,
		ArriveDistance:       1,
		WalkSpeed:            3.5,
		RunSpeed:             6,
		CrouchSpeed:          1.8,
		CombatSpeed:          5,
		AttackCooldown:       1.0,
		BaseDamage:           15,
		BaseDecisionInterval: 0.5,
	}
}
