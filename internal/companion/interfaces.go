package companion

import "github.com/Garsondee/Companion-Sense/internal/geom"

// Navigator is the navigation avatar that owns the agent's body. The engine
// only issues commands and reads state through it; path search is the host's
// concern.
type Navigator interface {
	Position() geom.Vec3
	Forward() geom.Vec3
	SetDestination(p geom.Vec3)
	// Warp relocates the avatar instantly.
	Warp(p geom.Vec3)
	// SamplePosition returns the nearest navigable point within radius of p.
	SamplePosition(p geom.Vec3, radius float64) (geom.Vec3, bool)
	HasPath() bool
	RemainingDistance() float64
	SetSpeed(v float64)
	ResetPath()
	FaceTowards(p geom.Vec3)
}

// Identity is the companion's identity record.
type Identity interface {
	Trust() int
	ChangeTrust(delta int)
	Role() Role
	// IsAvailable is false while the companion is busy with a non-combat
	// activity; decision ticks are skipped during that time.
	IsAvailable() bool
}

// Trust change reasons the engine reports.
const (
	TrustReasonAttackHit  = "attack_hit"
	TrustReasonProtection = "protection"
)

// ReasonedTrust is an optional Identity extension. Identities that implement
// it receive engine trust awards with a reason instead of a bare delta.
type ReasonedTrust interface {
	ChangeTrustFor(delta int, reason string)
}

// Protectee is the entity the companion follows and defends.
type Protectee interface {
	Position() geom.Vec3
	Forward() geom.Vec3
	HealthFraction() float64
	MovementStatus() MovementStatus
	IsCrouching() bool
}

// ProtecteeFinder locates the protectee. It reports false while the
// protectee is missing; the agent then skips its decision.
type ProtecteeFinder interface {
	FindProtectee() (Protectee, bool)
}

// Entity is a resolved view of a world entity at the time of lookup.
type Entity struct {
	ID        EntityID
	Position  geom.Vec3
	Behavior  HostileBehavior
	Destroyed bool
}

// Spatial is the host's spatial query service.
type Spatial interface {
	// Overlap returns the entities of the given layer within radius of
	// center, in a stable order.
	Overlap(center geom.Vec3, radius float64, layer Layer) []EntityID
	// Occluded reports whether obstacle geometry blocks the segment.
	Occluded(from, to geom.Vec3) bool
	// Lookup resolves a handle. It reports false for unknown handles.
	Lookup(id EntityID) (Entity, bool)
}

// Damageable is implemented by hosts whose entities can take damage.
type Damageable interface {
	CanBeDamagedBy(id EntityID, w WeaponClass) bool
	TakeDamage(id EntityID, amount float64, w WeaponClass)
}

// World bundles the spatial and damage surfaces the engine consumes.
type World interface {
	Spatial
	Damageable
}

// Animator is the animation/locomotion sink.
type Animator interface {
	TriggerAttack()
	TriggerDodge()
	SetMovementState(state State, running, crouching bool)
	IsDodging() bool
}

// RandomSource supplies uniform draws in [0,1). *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

type nopAnimator struct{}

func (nopAnimator) TriggerAttack()                     {}
func (nopAnimator) TriggerDodge()                      {}
func (nopAnimator) SetMovementState(State, bool, bool) {}
func (nopAnimator) IsDodging() bool                    { return false }
