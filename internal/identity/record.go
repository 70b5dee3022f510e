package identity

import "github.com/Garsondee/Companion-Sense/internal/companion"

const (
	MinTrust = 0
	MaxTrust = 100

	attackHitTrust  = 1
	protectionTrust = 2
	socialTrust     = 1
)

// TrustChange describes one trust mutation.
type TrustChange struct {
	Companion companion.AgentID
	Delta     int // requested delta, before clamping
	Trust     int // value after clamping
	Reason    string
}

// Record is a companion's identity: name, role, trust and current activity.
// It satisfies companion.Identity.
type Record struct {
	ID   companion.AgentID
	Name string

	trust    int
	role     companion.Role
	activity string

	// OnTrustChange, when set, observes every trust mutation.
	OnTrustChange func(TrustChange)
}

// NewRecord returns a record with trust clamped into [0,100].
func NewRecord(id companion.AgentID, name string, role companion.Role, trust int) *Record {
	return &Record{ID: id, Name: name, role: role, trust: clampTrust(trust)}
}

// Clone copies the record's values without its trust hook. Callers holding
// the record's owner lock use it to hand a stable copy to another goroutine.
func (r *Record) Clone() *Record {
	return &Record{ID: r.ID, Name: r.Name, trust: r.trust, role: r.role, activity: r.activity}
}

func clampTrust(v int) int {
	if v < MinTrust {
		return MinTrust
	}
	if v > MaxTrust {
		return MaxTrust
	}
	return v
}

func (r *Record) Trust() int           { return r.trust }
func (r *Record) Role() companion.Role { return r.role }
func (r *Record) Activity() string     { return r.activity }
func (r *Record) Tier() companion.Tier { return companion.TierFor(r.trust) }

// SetRole reassigns the companion's specialisation.
func (r *Record) SetRole(ro companion.Role) { r.role = ro }

// ChangeTrust applies delta, clamped to [0,100].
func (r *Record) ChangeTrust(delta int) { r.changeTrust(delta, "") }

// ChangeTrustFor applies delta and records why. It satisfies
// companion.ReasonedTrust, so engine awards reach the trust log tagged.
func (r *Record) ChangeTrustFor(delta int, reason string) { r.changeTrust(delta, reason) }

func (r *Record) changeTrust(delta int, reason string) {
	r.trust = clampTrust(r.trust + delta)
	if r.OnTrustChange != nil {
		r.OnTrustChange(TrustChange{Companion: r.ID, Delta: delta, Trust: r.trust, Reason: reason})
	}
}

// RecordAttackHit awards trust for a landed attack.
func (r *Record) RecordAttackHit() { r.changeTrust(attackHitTrust, companion.TrustReasonAttackHit) }

// RecordProtection awards trust for engaging a threat to the protectee.
func (r *Record) RecordProtection() { r.changeTrust(protectionTrust, companion.TrustReasonProtection) }

// RecordSocial awards trust for social activity with the protectee.
func (r *Record) RecordSocial() { r.changeTrust(socialTrust, "social") }

// BeginActivity marks the companion busy with a non-combat activity
// (crafting, trading, talking). Decisions are skipped until EndActivity.
func (r *Record) BeginActivity(name string) {
	if name == "" {
		name = "busy"
	}
	r.activity = name
}

// EndActivity makes the companion available again.
func (r *Record) EndActivity() { r.activity = "" }

// IsAvailable reports whether no activity is in progress.
func (r *Record) IsAvailable() bool { return r.activity == "" }
