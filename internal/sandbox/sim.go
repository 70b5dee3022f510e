package sandbox

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/Garsondee/Companion-Sense/internal/companion"
	"github.com/Garsondee/Companion-Sense/internal/geom"
	"github.com/Garsondee/Companion-Sense/internal/identity"
	"github.com/Garsondee/Companion-Sense/internal/tuning"
)

const bodyRadius = 0.3

// Companion bundles one engine agent with its sandbox body.
type Companion struct {
	ID     companion.AgentID
	Label  string
	Agent  *companion.Agent
	Avatar *Avatar
	Body   *Body
	Record *identity.Record
}

// Sim is the headless sandbox: a protectee, hostiles and companions on a nav
// grid, stepped at a fixed rate. Tests, the report runner, the viewer and
// the daemon all drive the same loop.
type Sim struct {
	Tuning     tuning.Tuning
	Width      float64
	Depth      float64
	obstacles  []Box
	Grid       *NavGrid
	World      *World
	Player     *Player
	Roster     *companion.Roster
	Scheduler  *companion.Scheduler
	Companions []*Companion
	SimLog     *SimLog
	Thoughts   *ThoughtLog
	Logger     *slog.Logger

	rng       *rand.Rand
	tick      int
	dt        float64
	listeners []companion.StateListener
	records   func(companion.AgentID) (*identity.Record, bool)
}

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptInfra     simOptionKind = iota // map size, obstacles, seed, tuning; applied first
	simOptEntity                         // protectee and hostiles; applied after the grid is built
	simOptCompanion                      // companions; applied once the world exists
)

// SimOption is a builder function applied to a Sim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*Sim)
}

// WithMapSize sets the playfield dimensions in world units.
func WithMapSize(w, d float64) SimOption {
	return SimOption{simOptInfra, func(s *Sim) {
		s.Width = w
		s.Depth = d
	}}
}

// WithObstacle adds a box with footprint (x,z,w,d) and height h.
func WithObstacle(x, z, w, d, h float64) SimOption {
	return SimOption{simOptInfra, func(s *Sim) {
		s.obstacles = append(s.obstacles, NewBox(x, z, w, d, h))
	}}
}

// WithSeed sets the RNG seed for deterministic runs.
func WithSeed(seed int64) SimOption {
	return SimOption{simOptInfra, func(s *Sim) {
		s.rng = rand.New(rand.NewSource(seed)) // #nosec G404 -- simulation randomness
	}}
}

// WithVerbose enables per-tick verbose logging.
func WithVerbose(v bool) SimOption {
	return SimOption{simOptInfra, func(s *Sim) {
		s.SimLog = NewSimLog(v)
	}}
}

// WithTuning replaces the default tuning.
func WithTuning(t tuning.Tuning) SimOption {
	return SimOption{simOptInfra, func(s *Sim) {
		s.Tuning = t
	}}
}

// WithLogger routes engine debug logging to l.
func WithLogger(l *slog.Logger) SimOption {
	return SimOption{simOptInfra, func(s *Sim) {
		s.Logger = l
	}}
}

// WithRecordSource makes WithCompanion prefer an existing identity record,
// such as one loaded from the store, over the scenario's trust and role.
func WithRecordSource(fn func(companion.AgentID) (*identity.Record, bool)) SimOption {
	return SimOption{simOptInfra, func(s *Sim) {
		s.records = fn
	}}
}

// WithProtectee places the protectee at (x,z) facing +X.
func WithProtectee(x, z float64) SimOption {
	return SimOption{simOptEntity, func(s *Sim) {
		s.Player.Pos = geom.V(x, 0, z)
	}}
}

// WithProtecteeRoute makes the protectee walk through the given XZ points.
func WithProtecteeRoute(points ...[2]float64) SimOption {
	return SimOption{simOptEntity, func(s *Sim) {
		route := make([]geom.Vec3, len(points))
		for i, p := range points {
			route[i] = geom.V(p[0], 0, p[1])
		}
		s.Player.SetRoute(route...)
	}}
}

// WithHostile adds a hostile at (x,z) with the tuned hit points.
func WithHostile(id companion.EntityID, x, z float64) SimOption {
	return SimOption{simOptEntity, func(s *Sim) {
		hp := s.Tuning.Host.HostileHP
		s.World.AddHostile(&Hostile{ID: id, Pos: geom.V(x, 0, z), HP: hp, MaxHP: hp})
	}}
}

// WithCompanion adds a companion at (x,z) with the given trust and role,
// unless a record source supplies one.
func WithCompanion(id companion.AgentID, x, z float64, trust int, role companion.Role) SimOption {
	return SimOption{simOptCompanion, func(s *Sim) {
		if s.records != nil {
			if r, ok := s.records(id); ok {
				s.addCompanion(id, geom.V(x, 0, z), r)
				return
			}
		}
		s.addCompanion(id, geom.V(x, 0, z), identity.NewRecord(id, fmt.Sprintf("C%d", id), role, trust))
	}}
}

// WithRecord adds a companion at (x,z) backed by an existing identity record.
func WithRecord(r *identity.Record, x, z float64) SimOption {
	return SimOption{simOptCompanion, func(s *Sim) {
		s.addCompanion(r.ID, geom.V(x, 0, z), r)
	}}
}

// NewSim constructs a Sim from the given options in ordered passes:
//  1. Infrastructure (map size, obstacles, seed, tuning)
//  2. Build NavGrid and World
//  3. Protectee and hostiles
//  4. Companions
func NewSim(opts ...SimOption) *Sim {
	s := &Sim{
		Tuning:   tuning.Defaults(),
		Width:    40,
		Depth:    40,
		SimLog:   NewSimLog(false),
		Thoughts: NewThoughtLog(),
		Logger:   slog.New(slog.DiscardHandler),
		rng:      rand.New(rand.NewSource(1)), // #nosec G404 -- simulation default
	}
	for _, o := range opts {
		if o.kind == simOptInfra {
			o.fn(s)
		}
	}
	s.dt = 1 / float64(s.Tuning.Host.TickRateHz)
	s.Grid = NewNavGrid(s.Width, s.Depth, s.obstacles, bodyRadius)
	s.World = NewWorld(s.Grid, s.obstacles)
	s.World.Aggro = s.Tuning.Host.HostileAggro
	s.World.HostileSpeed = s.Tuning.Host.HostileSpeed
	s.World.OnDestroyed = func(h *Hostile) {
		s.SimLog.Add(s.tick, "--", "world", "hostile_destroyed", fmt.Sprintf("H%d", h.ID), 0)
	}
	s.Player = &Player{
		Pos:     geom.V(s.Width/2, 0, s.Depth/2),
		Fwd:     geom.V(1, 0, 0),
		HP:      100,
		MaxHP:   100,
		Speed:   3,
		Present: true,
	}
	s.Roster = companion.NewRoster()
	s.Scheduler = companion.NewScheduler(s.Roster, s.Tuning.Agent.DecisionInterval)
	for _, o := range opts {
		if o.kind == simOptEntity {
			o.fn(s)
		}
	}
	for _, o := range opts {
		if o.kind == simOptCompanion {
			o.fn(s)
		}
	}
	return s
}

func (s *Sim) addCompanion(id companion.AgentID, pos geom.Vec3, rec *identity.Record) {
	label := fmt.Sprintf("C%d", id)
	c := &Companion{
		ID:     id,
		Label:  label,
		Avatar: NewAvatar(s.Grid, pos, s.Player.Pos.Sub(pos)),
		Body:   &Body{},
		Record: rec,
	}
	params := s.Tuning.Agent.Params()
	c.Agent = companion.NewAgent(id, companion.Deps{
		Nav:       c.Avatar,
		Identity:  rec,
		Protectee: s.Player,
		World:     s.World,
		Animator:  c.Body,
		Rand:      rand.New(rand.NewSource(s.rng.Int63())), // #nosec G404 -- simulation randomness
		Logger:    s.Logger.With("companion", label),
	}, params, companion.AllCapabilities())

	c.Agent.OnHit = func(id companion.EntityID, dmg float64) {
		s.SimLog.Add(s.tick, label, "combat", "hit", fmt.Sprintf("H%d for %.1f", id, dmg), dmg)
	}
	if params.DamageOnAnimationEvent {
		c.Body.OnStrike = func() { c.Agent.ApplyAttackDamage() }
	}
	c.Agent.OnStateChange(func(ev companion.StateChange) {
		msg := fmt.Sprintf("%s → %s (%s)", ev.From, ev.To, ev.Reason)
		s.SimLog.Add(s.tick, label, "state", "change", msg, 0)
		s.Thoughts.Add(s.tick, label, ev.To, msg)
		for _, fn := range s.listeners {
			fn(ev)
		}
	})
	rec.OnTrustChange = chainTrust(rec.OnTrustChange, func(tc identity.TrustChange) {
		s.SimLog.Add(s.tick, label, "trust", "change", fmt.Sprintf("%+d → %d", tc.Delta, tc.Trust), float64(tc.Trust))
	})

	s.Roster.Add(c.Agent)
	s.Companions = append(s.Companions, c)
}

func chainTrust(prev, next func(identity.TrustChange)) func(identity.TrustChange) {
	if prev == nil {
		return next
	}
	return func(tc identity.TrustChange) {
		prev(tc)
		next(tc)
	}
}

// OnStateChange registers a listener for every companion's state changes.
func (s *Sim) OnStateChange(fn companion.StateListener) {
	s.listeners = append(s.listeners, fn)
}

// Companion returns the companion with the given ID.
func (s *Sim) Companion(id companion.AgentID) (*Companion, bool) {
	for _, c := range s.Companions {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// Command issues a player order and logs whether it was accepted.
func (s *Sim) Command(id companion.AgentID, cmd companion.Command, args companion.CommandArgs) bool {
	c, ok := s.Companion(id)
	if !ok {
		return false
	}
	accepted := c.Agent.Execute(cmd, args)
	key := "rejected"
	if accepted {
		key = "accepted"
	}
	s.SimLog.Add(s.tick, c.Label, "command", key, cmd.String(), float64(c.Agent.Tier()))
	return accepted
}

// ArgsFor fills the arguments a command needs: the living hostile nearest to
// the companion for attack and flank, and point for move_to.
func (s *Sim) ArgsFor(id companion.AgentID, cmd companion.Command, point geom.Vec3) companion.CommandArgs {
	switch cmd {
	case companion.CommandAttack, companion.CommandFlank:
		c, ok := s.Companion(id)
		if !ok {
			return companion.CommandArgs{}
		}
		self := c.Avatar.Position()
		var best *Hostile
		for _, h := range s.World.Hostiles() {
			if h.Destroyed {
				continue
			}
			if best == nil || geom.Dist(self, h.Pos) < geom.Dist(self, best.Pos) {
				best = h
			}
		}
		if best == nil {
			return companion.CommandArgs{}
		}
		return companion.On(best.ID)
	case companion.CommandMoveTo:
		return companion.At(point)
	}
	return companion.CommandArgs{}
}

// Obstacles returns the boxes the grid was built from.
func (s *Sim) Obstacles() []Box { return s.obstacles }

// CurrentTick returns the current simulation tick.
func (s *Sim) CurrentTick() int { return s.tick }

// Time returns elapsed simulation time in seconds.
func (s *Sim) Time() float64 { return s.Scheduler.Now() }

// Dt returns the fixed step length.
func (s *Sim) Dt() float64 { return s.dt }

// Step advances the simulation one fixed tick.
func (s *Sim) Step() {
	s.tick++
	s.Player.step(s.dt, s.Grid)
	s.World.step(s.dt, s.Player)
	s.Scheduler.Advance(s.dt)
	for _, c := range s.Companions {
		c.Body.step(s.dt)
		c.Avatar.move(s.dt)
		s.SimLog.AddVerbose(s.tick, c.Label, "move", "position",
			fmt.Sprintf("(%.1f,%.1f)", c.Avatar.pos.X, c.Avatar.pos.Z), c.Avatar.speed)
	}
}

// RunTicks advances the simulation n ticks.
func (s *Sim) RunTicks(n int) {
	for i := 0; i < n; i++ {
		s.Step()
	}
}

// RunUntil advances up to maxTicks, stopping early once predicate holds.
// It returns the tick at which the predicate was satisfied, or -1.
func (s *Sim) RunUntil(predicate func(*Sim) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		s.Step()
		if predicate(s) {
			return s.tick
		}
	}
	return -1
}

// Summary formats the current state for logs and reports.
func (s *Sim) Summary() string {
	return s.SimLog.Summary(s.tick, s.Companions, s.World, s.Player)
}

// SimSnapshot is a lightweight state summary.
type SimSnapshot struct {
	Tick       int
	Protectee  geom.Vec3
	Companions []CompanionSnapshot
}

// CompanionSnapshot is a copy of one companion's state at a tick.
type CompanionSnapshot struct {
	ID       companion.AgentID
	Label    string
	Position geom.Vec3
	State    companion.State
	Trust    int
	Tier     companion.Tier
	Target   companion.EntityID
}

// Snapshot returns the current state of all companions.
func (s *Sim) Snapshot() SimSnapshot {
	snap := SimSnapshot{Tick: s.tick, Protectee: s.Player.Pos}
	for _, c := range s.Companions {
		target, _ := c.Agent.Target()
		snap.Companions = append(snap.Companions, CompanionSnapshot{
			ID:       c.ID,
			Label:    c.Label,
			Position: c.Avatar.pos,
			State:    c.Agent.State(),
			Trust:    c.Record.Trust(),
			Tier:     c.Record.Tier(),
			Target:   target,
		})
	}
	return snap
}
