package companion

import (
	"sort"

	"github.com/Garsondee/Companion-Sense/internal/geom"
)

// PeerSnapshot is an immutable copy of another agent's position and state,
// taken when a decision needs it.
type PeerSnapshot struct {
	ID       AgentID
	Position geom.Vec3
	State    State
}

// Roster holds every live agent, ordered by ID. World mutation is serialised
// by the host's simulation step, so reads need no locking.
type Roster struct {
	agents []*Agent
}

// NewRoster returns an empty roster.
func NewRoster() *Roster {
	return &Roster{}
}

// Add registers an agent and links it back to the roster.
func (r *Roster) Add(a *Agent) {
	a.roster = r
	r.agents = append(r.agents, a)
	sort.Slice(r.agents, func(i, j int) bool { return r.agents[i].ID < r.agents[j].ID })
}

// Remove drops an agent. Missing IDs are ignored.
func (r *Roster) Remove(id AgentID) {
	kept := r.agents[:0]
	for _, a := range r.agents {
		if a.ID == id {
			a.roster = nil
			continue
		}
		kept = append(kept, a)
	}
	r.agents = kept
}

// Agents returns the registered agents in ID order.
func (r *Roster) Agents() []*Agent {
	return r.agents
}

// Get returns the agent with the given ID.
func (r *Roster) Get(id AgentID) (*Agent, bool) {
	for _, a := range r.agents {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// Nearby snapshots agents other than self within radius of center that are
// currently in state.
func (r *Roster) Nearby(self AgentID, center geom.Vec3, radius float64, state State) []PeerSnapshot {
	if r == nil {
		return nil
	}
	var out []PeerSnapshot
	for _, a := range r.agents {
		if a.ID == self || a.state != state {
			continue
		}
		pos := a.nav.Position()
		if geom.Dist(pos, center) > radius {
			continue
		}
		out = append(out, PeerSnapshot{ID: a.ID, Position: pos, State: a.state})
	}
	return out
}
