package companion

// Scheduler drives each agent's decisions at a tier-dependent cadence. It is
// a fixed-step loop: the host advances simulation time and every agent whose
// next decision is due ticks once, then re-arms with a freshly computed delay.
type Scheduler struct {
	roster *Roster
	base   float64
	now    float64
	next   map[AgentID]float64

	// Skipped counts decisions skipped because the companion was busy.
	Skipped int
}

// NewScheduler returns a scheduler over roster with the given base interval.
func NewScheduler(roster *Roster, baseInterval float64) *Scheduler {
	return &Scheduler{
		roster: roster,
		base:   baseInterval,
		next:   make(map[AgentID]float64),
	}
}

// Now returns the current simulation time.
func (s *Scheduler) Now() float64 { return s.now }

// NextDecision returns when the agent will next decide. New agents decide on
// the first Advance.
func (s *Scheduler) NextDecision(id AgentID) float64 { return s.next[id] }

// Advance moves simulation time forward by dt and runs every due decision.
// An agent decides at most once per call. It returns the number of
// decisions made.
func (s *Scheduler) Advance(dt float64) int {
	s.now += dt
	decided := 0
	for _, a := range s.roster.Agents() {
		if s.now < s.next[a.ID] {
			continue
		}
		if a.identity.IsAvailable() {
			a.Tick(s.now)
			decided++
		} else {
			s.Skipped++
		}
		s.next[a.ID] = s.now + DecisionInterval(s.base, a.Tier())
	}
	return decided
}
