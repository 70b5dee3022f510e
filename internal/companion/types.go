package companion

// AgentID identifies a companion agent. IDs order peers deterministically.
type AgentID int

// EntityID is a handle into the host world's entity registry. Zero means no
// entity. Handles are weak: they must be resolved through Spatial.Lookup
// every time they are used.
type EntityID uint64

// NoEntity is the empty handle.
const NoEntity EntityID = 0

// State represents the companion's high-level behaviour state.
type State int

const (
	StateIdle    State = iota // holding position on a Stay order
	StateFollow               // trailing the protectee
	StateCombat               // engaging a target
	StateExplore              // travelling to or wandering around a point
	StateSupport              // covering an endangered protectee
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFollow:
		return "follow"
	case StateCombat:
		return "combat"
	case StateExplore:
		return "explore"
	case StateSupport:
		return "support"
	default:
		return "unknown"
	}
}

// Role is the companion's specialisation. It scales attack damage.
type Role int

const (
	RoleFighter Role = iota
	RoleScout
	RoleMedic
	RoleEngineer
	RoleNegotiator
)

func (r Role) String() string {
	switch r {
	case RoleFighter:
		return "fighter"
	case RoleScout:
		return "scout"
	case RoleMedic:
		return "medic"
	case RoleEngineer:
		return "engineer"
	case RoleNegotiator:
		return "negotiator"
	default:
		return "unknown"
	}
}

// ParseRole maps a role name back to its Role. Unknown names report false.
func ParseRole(s string) (Role, bool) {
	for r := RoleFighter; r <= RoleNegotiator; r++ {
		if r.String() == s {
			return r, true
		}
	}
	return RoleFighter, false
}

// MovementStatus is the protectee's locomotion condition.
type MovementStatus int

const (
	MovementNormal MovementStatus = iota
	MovementSlowed
	MovementStunned
)

// HostileBehavior is the coarse behaviour a hostile reports.
type HostileBehavior int

const (
	HostileIdle HostileBehavior = iota
	HostilePatrol
	HostileChase
	HostileAttack
)

func (b HostileBehavior) String() string {
	switch b {
	case HostileIdle:
		return "idle"
	case HostilePatrol:
		return "patrol"
	case HostileChase:
		return "chase"
	case HostileAttack:
		return "attack"
	default:
		return "unknown"
	}
}

// WeaponClass tags the damage type an attack deals.
type WeaponClass int

const (
	WeaponNone WeaponClass = iota
	WeaponMelee
	WeaponCompanion // the fixed class every companion attack uses
	WeaponExplosive
)

// Layer classifies world entities for overlap queries.
type Layer uint8

const (
	LayerHostile Layer = 1 << iota
	LayerObstacle
	LayerDestructible
)

// Capabilities gates what an agent's body can physically do. Movement-style
// intent is AND-ed with these before reaching the locomotion sink.
type Capabilities struct {
	CanRun    bool
	CanCrouch bool
	CanDodge  bool
}

// AllCapabilities enables running, crouching and dodging.
func AllCapabilities() Capabilities {
	return Capabilities{CanRun: true, CanCrouch: true, CanDodge: true}
}

// StateChange is the notification fired on every behaviour-state transition.
type StateChange struct {
	Agent  AgentID
	From   State
	To     State
	Reason string
	Time   float64
}

// StateListener consumes state-change notifications.
type StateListener func(StateChange)
